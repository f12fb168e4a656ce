package cron

import (
	"context"
	"path/filepath"
	"time"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/pkg/enums"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
)

// snapshotter is the slice of the backup manager this job needs.
type snapshotter interface {
	Run(ctx context.Context) (string, error)
}

// BackupJob takes a database snapshot on its interval and records the result
// on the audit trail.
type BackupJob struct {
	manager  snapshotter
	trail    audit.Recorder
	interval time.Duration
}

// NewBackupJob builds the snapshot job.
func NewBackupJob(manager snapshotter, trail audit.Recorder, interval time.Duration) (*BackupJob, error) {
	if manager == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cron: backup manager is required")
	}
	if trail == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cron: audit recorder is required")
	}
	return &BackupJob{manager: manager, trail: trail, interval: interval}, nil
}

func (j *BackupJob) Name() string { return "database_backup" }

func (j *BackupJob) Interval() time.Duration { return j.interval }

func (j *BackupJob) Run(ctx context.Context) error {
	target, err := j.manager.Run(ctx)
	if err != nil {
		return err
	}
	if target == "" {
		return nil
	}
	j.trail.Record(ctx, audit.RecordInput{
		Module: enums.AuditModuleBackup,
		Action: "created",
		Detail: "snapshot " + filepath.Base(target),
	})
	return nil
}

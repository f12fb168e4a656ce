package cron

import (
	"context"
	"time"

	"github.com/electrogest/electrogest-backend/internal/promotions"
	pkgerrors "github.com/electrogest/electrogest-backend/pkg/errors"
)

// statusSweeper is the slice of the promotion service this job needs.
type statusSweeper interface {
	TransitionStatuses(ctx context.Context) (*promotions.TransitionResult, error)
}

// PromotionStatusJob activates due promotions and concludes expired ones.
type PromotionStatusJob struct {
	sweeper  statusSweeper
	interval time.Duration
}

// NewPromotionStatusJob builds the status sweep job.
func NewPromotionStatusJob(sweeper statusSweeper, interval time.Duration) (*PromotionStatusJob, error) {
	if sweeper == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cron: promotion service is required")
	}
	return &PromotionStatusJob{sweeper: sweeper, interval: interval}, nil
}

func (j *PromotionStatusJob) Name() string { return "promotion_status_sweep" }

func (j *PromotionStatusJob) Interval() time.Duration { return j.interval }

func (j *PromotionStatusJob) Run(ctx context.Context) error {
	_, err := j.sweeper.TransitionStatuses(ctx)
	return err
}

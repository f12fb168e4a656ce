package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/electrogest/electrogest-backend/pkg/config"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

const (
	filePrefix = "electrogest_"
	fileSuffix = ".db"
)

// Database is the slice of the db client the backup manager needs.
type Database interface {
	Exec(ctx context.Context, query string, args ...any) *gorm.DB
	IsSQLite() bool
	Path() string
}

// Manager produces timestamped sqlite snapshots and prunes old ones.
type Manager struct {
	cfg  config.BackupConfig
	db   Database
	logg *logger.Logger
	now  func() time.Time
}

func NewManager(cfg config.BackupConfig, database Database, logg *logger.Logger) *Manager {
	return &Manager{
		cfg:  cfg,
		db:   database,
		logg: logg,
		now:  time.Now,
	}
}

// Run writes one snapshot and applies retention. Under postgres it is a
// logged no-op; external tooling owns those backups.
func (m *Manager) Run(ctx context.Context) (string, error) {
	if !m.db.IsSQLite() {
		m.logg.Info(ctx, "backup skipped: not running on the embedded engine")
		return "", nil
	}

	if err := os.MkdirAll(m.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	name := fmt.Sprintf("%s%s%s", filePrefix, m.now().UTC().Format("20060102_150405"), fileSuffix)
	target := filepath.Join(m.cfg.Dir, name)

	// VACUUM INTO produces a consistent snapshot without blocking readers
	if err := m.db.Exec(ctx, "VACUUM INTO ?", target).Error; err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", target, err)
	}

	if m.cfg.FilePerms != 0 {
		if err := os.Chmod(target, os.FileMode(m.cfg.FilePerms)); err != nil {
			m.logg.Warn(m.logg.WithField(ctx, "file", target), "backup chmod failed")
		}
	}

	if err := m.Prune(ctx); err != nil {
		m.logg.Error(ctx, "backup retention pruning failed", err)
	}

	m.logg.Info(m.logg.WithField(ctx, "file", target), "backup completed")
	return target, nil
}

// Prune removes snapshots beyond the configured retention count, newest
// first. Removal failures are aggregated so one bad file does not stop the
// sweep.
func (m *Manager) Prune(_ context.Context) error {
	if m.cfg.Keep <= 0 {
		return nil
	}

	entries, err := os.ReadDir(m.cfg.Dir)
	if err != nil {
		return fmt.Errorf("reading backup dir: %w", err)
	}

	var snapshots []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			snapshots = append(snapshots, name)
		}
	}

	if len(snapshots) <= m.cfg.Keep {
		return nil
	}

	// timestamped names sort chronologically
	sort.Sort(sort.Reverse(sort.StringSlice(snapshots)))

	var pruneErr error
	for _, name := range snapshots[m.cfg.Keep:] {
		if err := os.Remove(filepath.Join(m.cfg.Dir, name)); err != nil {
			pruneErr = multierr.Append(pruneErr, fmt.Errorf("removing %s: %w", name, err))
		}
	}
	return pruneErr
}

package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/electrogest/electrogest-backend/internal/audit"
	"github.com/electrogest/electrogest-backend/internal/promotions"
	"github.com/electrogest/electrogest-backend/pkg/logger"
)

type fakeLock struct {
	acquired bool
	busy     bool
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.busy {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error { f.acquired = false; return nil }

type testJob struct {
	name     string
	interval time.Duration
	err      error
	runs     int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Interval() time.Duration { return t.interval }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func testService(t *testing.T, registry *Registry, lock Lock, now *time.Time) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	service, err := NewService(ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Now:      func() time.Time { return *now },
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	now := time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC)
	success := &testJob{name: "success", interval: time.Hour}
	failing := &testJob{name: "fail", interval: time.Hour, err: errors.New("boom")}
	service := testService(t, NewRegistry(success, failing), &fakeLock{}, &now)

	if err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if success.runs != 1 || failing.runs != 1 {
		t.Fatalf("expected both jobs to run, got %d/%d", success.runs, failing.runs)
	}
}

func TestRunCycleHonorsJobIntervals(t *testing.T) {
	now := time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC)
	hourly := &testJob{name: "hourly", interval: time.Hour}
	daily := &testJob{name: "daily", interval: 24 * time.Hour}
	service := testService(t, NewRegistry(hourly, daily), &fakeLock{}, &now)

	ctx := context.Background()
	if err := service.RunCycle(ctx); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if hourly.runs != 1 || daily.runs != 1 {
		t.Fatalf("first cycle should run everything, got %d/%d", hourly.runs, daily.runs)
	}

	now = now.Add(time.Minute)
	if err := service.RunCycle(ctx); err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if hourly.runs != 1 || daily.runs != 1 {
		t.Fatalf("nothing is due after a minute, got %d/%d", hourly.runs, daily.runs)
	}

	now = now.Add(time.Hour)
	if err := service.RunCycle(ctx); err != nil {
		t.Fatalf("third cycle: %v", err)
	}
	if hourly.runs != 2 || daily.runs != 1 {
		t.Fatalf("only the hourly job is due, got %d/%d", hourly.runs, daily.runs)
	}
}

func TestRunCycleSkipsWhenLockBusy(t *testing.T) {
	now := time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC)
	job := &testJob{name: "job", interval: time.Hour}
	service := testService(t, NewRegistry(job), &fakeLock{busy: true}, &now)

	if err := service.RunCycle(context.Background()); err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	if job.runs != 0 {
		t.Fatalf("job must not run without the lock, ran %d", job.runs)
	}
}

func TestLocalLockBlocksReentry(t *testing.T) {
	lock := NewLocalLock()
	ctx := context.Background()

	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("first acquire should win: %v %v", ok, err)
	}
	ok, err = lock.Acquire(ctx)
	if err != nil || ok {
		t.Fatalf("second acquire should lose: %v %v", ok, err)
	}
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = lock.Acquire(ctx)
	if err != nil || !ok {
		t.Fatalf("acquire after release should win: %v %v", ok, err)
	}
}

type stubSnapshotter struct {
	target string
	err    error
	runs   int
}

func (s *stubSnapshotter) Run(context.Context) (string, error) {
	s.runs++
	return s.target, s.err
}

type stubRecorder struct {
	entries []audit.RecordInput
}

func (s *stubRecorder) Record(_ context.Context, input audit.RecordInput) {
	s.entries = append(s.entries, input)
}

func TestBackupJobRecordsSnapshot(t *testing.T) {
	manager := &stubSnapshotter{target: "backups/electrogest_20260823_030000.db"}
	trail := &stubRecorder{}
	job, err := NewBackupJob(manager, trail, 24*time.Hour)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(trail.entries) != 1 {
		t.Fatalf("expected one trail entry, got %d", len(trail.entries))
	}
	if trail.entries[0].Action != "created" || trail.entries[0].Detail != "snapshot electrogest_20260823_030000.db" {
		t.Fatalf("unexpected trail entry %+v", trail.entries[0])
	}
}

func TestBackupJobQuietWhenSkipped(t *testing.T) {
	trail := &stubRecorder{}
	job, err := NewBackupJob(&stubSnapshotter{}, trail, 24*time.Hour)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(trail.entries) != 0 {
		t.Fatalf("no trail entry expected for a skipped snapshot, got %d", len(trail.entries))
	}
}

type stubSweeper struct {
	result *promotions.TransitionResult
	err    error
	runs   int
}

func (s *stubSweeper) TransitionStatuses(context.Context) (*promotions.TransitionResult, error) {
	s.runs++
	return s.result, s.err
}

func TestPromotionStatusJobDelegates(t *testing.T) {
	sweeper := &stubSweeper{result: &promotions.TransitionResult{Activated: 1}}
	job, err := NewPromotionStatusJob(sweeper, time.Hour)
	if err != nil {
		t.Fatalf("new job: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sweeper.runs != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.runs)
	}

	sweeper.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected the sweep failure to surface")
	}
}

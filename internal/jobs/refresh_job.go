package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/straye-as/sales-dashboard-api/internal/domain"
	"go.uber.org/zap"
)

// RefreshJobName is the name of the snapshot refresh job
const RefreshJobName = "deal_snapshot_refresh"

// Refresher replaces the current deal snapshot.
// This interface allows the job to call the service without importing the service package directly.
type Refresher interface {
	Refresh(ctx context.Context) (*domain.RefreshResultDTO, error)

	// IsStale reports whether no snapshot exists or the latest one is older than maxAge
	IsStale(ctx context.Context, maxAge time.Duration) (bool, error)
}

// RefreshJob fetches a fresh deal snapshot on schedule
type RefreshJob struct {
	refresher Refresher
	logger    *zap.Logger
	timeout   time.Duration
}

// NewRefreshJob creates a new snapshot refresh job.
// The timeout bounds a single run.
func NewRefreshJob(refresher Refresher, logger *zap.Logger, timeout time.Duration) *RefreshJob {
	return &RefreshJob{
		refresher: refresher,
		logger:    logger,
		timeout:   timeout,
	}
}

// Run executes one refresh. This is called by the scheduler according to the cron expression.
func (j *RefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.refresher.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		j.logger.Error("snapshot refresh timed out", zap.Duration("timeout", j.timeout), zap.Error(err))
	default:
		// the service has logged the failure; the previous snapshot stays current
		j.logger.Debug("scheduled snapshot refresh did not complete", zap.Error(err))
	}
}

// RunStartupRefresh refreshes once when the latest snapshot is missing or older than maxAge.
// Returns whether a refresh was attempted.
func (j *RefreshJob) RunStartupRefresh(maxAge time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	stale, err := j.refresher.IsStale(ctx, maxAge)
	if err != nil {
		j.logger.Error("failed to check snapshot age", zap.Error(err))
		return false
	}
	if !stale {
		j.logger.Info("deal snapshot is fresh, skipping startup refresh", zap.Duration("max_age", maxAge))
		return false
	}

	j.logger.Info("deal snapshot is stale, refreshing at startup", zap.Duration("max_age", maxAge))
	if _, err := j.refresher.Refresh(ctx); err != nil {
		j.logger.Warn("startup snapshot refresh failed", zap.Error(err))
	}
	return true
}

// RegisterRefreshJob registers the snapshot refresh job with the scheduler.
// If maxAge is positive, a stale snapshot is also refreshed immediately in a
// background goroutine so it doesn't block API startup.
func RegisterRefreshJob(scheduler *Scheduler, refresher Refresher, logger *zap.Logger, cronExpr string, timeout, maxAge time.Duration) (*RefreshJob, error) {
	job := NewRefreshJob(refresher, logger, timeout)

	if err := scheduler.AddJob(RefreshJobName, cronExpr, job.Run); err != nil {
		return nil, err
	}

	if maxAge > 0 {
		go job.RunStartupRefresh(maxAge)
	}
	return job, nil
}

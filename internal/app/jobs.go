package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/marketpulse/internal/common"
	"github.com/bobmcallan/marketpulse/internal/interfaces"
	"github.com/bobmcallan/marketpulse/internal/models"
)

// maxTrackedJobs bounds the in-memory job history.
const maxTrackedJobs = 100

// RefreshTracker runs multi-ticker refreshes in the background and keeps
// an observable record of each job. Jobs are held in memory only.
type RefreshTracker struct {
	snapshots interfaces.SnapshotService
	logger    *common.Logger

	mu   sync.RWMutex
	jobs map[string]*models.RefreshJob
	done map[string]chan struct{}

	now func() time.Time
}

// NewRefreshTracker creates a new background refresh tracker.
func NewRefreshTracker(snapshots interfaces.SnapshotService, logger *common.Logger) *RefreshTracker {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &RefreshTracker{
		snapshots: snapshots,
		logger:    logger,
		jobs:      make(map[string]*models.RefreshJob),
		done:      make(map[string]chan struct{}),
		now:       time.Now,
	}
}

// Start launches a background refresh of the given tickers and returns
// the job record immediately.
func (t *RefreshTracker) Start(ctx context.Context, tickers []string, force bool, mode models.RefreshMode) *models.RefreshJob {
	job := &models.RefreshJob{
		ID:           uuid.New().String(),
		Mode:         mode,
		Force:        force,
		Status:       models.JobStatusRunning,
		TotalTickers: len(tickers),
		StartedAt:    t.now(),
	}

	t.mu.Lock()
	t.jobs[job.ID] = job
	t.done[job.ID] = make(chan struct{})
	t.pruneLocked()
	t.mu.Unlock()

	t.logger.Info().
		Str("job_id", job.ID).
		Str("mode", string(mode)).
		Int("tickers", len(tickers)).
		Bool("force", force).
		Msg("Refresh job started")

	go t.run(ctx, job.ID, tickers, force, mode)

	return t.snapshotOf(job)
}

func (t *RefreshTracker) run(ctx context.Context, jobID string, tickers []string, force bool, mode models.RefreshMode) {
	result, err := t.snapshots.RefreshMany(ctx, tickers, force, mode)

	t.mu.Lock()
	job := t.jobs[jobID]
	if job != nil {
		job.CompletedAt = t.now()
		if err != nil {
			job.Status = models.JobStatusFailed
			job.Error = err.Error()
		} else {
			job.Status = models.JobStatusCompleted
			job.SuccessCount = result.SuccessCount
			job.FailedCount = result.FailedCount
		}
	}
	ch := t.done[jobID]
	t.mu.Unlock()

	if ch != nil {
		close(ch)
	}

	if err != nil {
		t.logger.Warn().Err(err).Str("job_id", jobID).Msg("Refresh job failed")
		return
	}
	t.logger.Info().
		Str("job_id", jobID).
		Int("success", result.SuccessCount).
		Int("failed", result.FailedCount).
		Msg("Refresh job completed")
}

// Get returns a copy of the job record, or nil if unknown.
func (t *RefreshTracker) Get(jobID string) *models.RefreshJob {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[jobID]
	if !ok {
		return nil
	}
	return t.snapshotOf(job)
}

// List returns all tracked jobs, most recent first.
func (t *RefreshTracker) List() []*models.RefreshJob {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]*models.RefreshJob, 0, len(t.jobs))
	for _, job := range t.jobs {
		result = append(result, t.snapshotOf(job))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	return result
}

// Wait blocks until the job finishes or the context is cancelled.
// Returns immediately for unknown jobs.
func (t *RefreshTracker) Wait(ctx context.Context, jobID string) error {
	t.mu.RLock()
	ch, ok := t.done[jobID]
	t.mu.RUnlock()
	if !ok {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// snapshotOf copies a job record so callers never share the tracked struct.
func (t *RefreshTracker) snapshotOf(job *models.RefreshJob) *models.RefreshJob {
	copied := *job
	return &copied
}

// pruneLocked drops the oldest finished jobs beyond the history cap.
// Caller must hold the write lock.
func (t *RefreshTracker) pruneLocked() {
	if len(t.jobs) <= maxTrackedJobs {
		return
	}

	finished := make([]*models.RefreshJob, 0, len(t.jobs))
	for _, job := range t.jobs {
		if job.Status != models.JobStatusRunning {
			finished = append(finished, job)
		}
	}
	sort.Slice(finished, func(i, j int) bool {
		return finished[i].StartedAt.Before(finished[j].StartedAt)
	})

	excess := len(t.jobs) - maxTrackedJobs
	for i := 0; i < excess && i < len(finished); i++ {
		delete(t.jobs, finished[i].ID)
		delete(t.done, finished[i].ID)
	}
}

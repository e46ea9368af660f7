package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/invalidate"
	"github.com/cloo-solutions/pillarpress/internal/logfields"
	"github.com/cloo-solutions/pillarpress/internal/metrics"
	"github.com/cloo-solutions/pillarpress/internal/telemetry"
)

const (
	// MaxRetries is the maximum number of retries for a failed job
	MaxRetries = 3

	// ClaimBatchSize caps the jobs claimed per poll.
	ClaimBatchSize = 100

	// ClaimTimeout is how long a job may sit in processing before another
	// poll claims it again.
	ClaimTimeout = 5 * time.Minute
)

// InvalidationJobRepository defines the interface for outbox persistence
type InvalidationJobRepository interface {
	// ClaimPending moves pending jobs, and processing jobs claimed longer
	// than staleAfter ago, to processing and returns them
	ClaimPending(ctx context.Context, limit int, staleAfter time.Duration) ([]*domain.InvalidationJob, error)

	UpdateStatus(ctx context.Context, id string, status domain.InvalidationJobStatus, errMsg string) error

	IncrementRetries(ctx context.Context, id string) error
}

// InvalidationWorker drains the invalidation outbox into a Signaler.
type InvalidationWorker struct {
	repo     InvalidationJobRepository
	signaler invalidate.Signaler
	recorder metrics.Recorder
}

// NewInvalidationWorker creates a new InvalidationWorker instance. A nil
// recorder disables metrics.
func NewInvalidationWorker(repo InvalidationJobRepository, signaler invalidate.Signaler, recorder metrics.Recorder) *InvalidationWorker {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &InvalidationWorker{
		repo:     repo,
		signaler: signaler,
		recorder: recorder,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *InvalidationWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, ClaimBatchSize, ClaimTimeout)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}

	if len(jobs) == 0 {
		return nil
	}

	slog.DebugContext(ctx, "processing invalidation jobs", "count", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			slog.ErrorContext(ctx, "error processing invalidation job", logfields.JobID(job.ID), logfields.Error(err))
		}
	}

	return nil
}

func (w *InvalidationWorker) processJob(ctx context.Context, job *domain.InvalidationJob) error {
	ctx, span := telemetry.StartSpan(ctx, "InvalidationWorker.processJob", telemetry.SpanAttributes{
		Operation: "invalidate",
	})
	defer span.End()

	if err := w.signaler.MarkStale(ctx, job.Paths); err != nil {
		w.recorder.IncInvalidation(false)
		span.SetError(err)
		return w.handleJobFailure(ctx, job, err)
	}
	w.recorder.IncInvalidation(true)

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.InvalidationJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	slog.InfoContext(ctx, "invalidation job completed", logfields.JobID(job.ID), logfields.Paths(job.Paths))
	return nil
}

// handleJobFailure resets the job for another attempt, or marks it failed
// once MaxRetries attempts have been made.
func (w *InvalidationWorker) handleJobFailure(ctx context.Context, job *domain.InvalidationJob, jobErr error) error {
	slog.WarnContext(ctx, "invalidation job failed", logfields.JobID(job.ID), logfields.Error(jobErr))

	if err := w.repo.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to increment retries: %w", err)
	}

	if job.Retries+1 >= MaxRetries {
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.InvalidationJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		telemetry.CaptureError(ctx, fmt.Errorf("invalidation job %s: %w", job.ID, jobErr))
		return nil
	}

	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.UpdateStatus(ctx, job.ID, domain.InvalidationJobStatusPending, errMsg); err != nil {
		return fmt.Errorf("failed to reset job status to pending: %w", err)
	}

	return nil
}

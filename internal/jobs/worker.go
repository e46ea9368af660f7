package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cloo-solutions/pillarpress/internal/logfields"
)

// JobProcessor defines the interface for processing jobs
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker polls a JobProcessor. The first pass runs as soon as the worker
// starts so a backlog left by a previous process is drained without waiting
// a full interval.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
	stopOnce     sync.Once
}

// NewWorker creates a new Worker instance
func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start runs the polling loop until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.doneChan)

	slog.InfoContext(ctx, "worker started", "poll_interval", w.pollInterval.String())
	w.poll(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped: context cancelled")
			return
		case <-w.stopChan:
			slog.Info("worker stopped: stop signal received")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Worker) poll(ctx context.Context) {
	if err := w.processor.ProcessJobs(ctx); err != nil {
		slog.ErrorContext(ctx, "error processing jobs", logfields.Error(err))
	}
}

// Stop ends the loop and waits for an in-flight pass to finish. It is safe
// to call more than once and after ctx was cancelled.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	<-w.doneChan
}

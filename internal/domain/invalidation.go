package domain

import (
	"fmt"
	"time"
)

// InvalidationJobStatus represents the status of an outbox invalidation job
type InvalidationJobStatus string

const (
	InvalidationJobStatusPending    InvalidationJobStatus = "pending"
	InvalidationJobStatusProcessing InvalidationJobStatus = "processing"
	InvalidationJobStatusCompleted  InvalidationJobStatus = "completed"
	InvalidationJobStatusFailed     InvalidationJobStatus = "failed"
)

// InvalidationJob is an outbox row listing public paths made stale by a write.
type InvalidationJob struct {
	ID          string
	Paths       []string
	Status      InvalidationJobStatus
	Retries     int32
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewInvalidationJob creates a pending job for the given paths.
func NewInvalidationJob(id string, paths []string, createdAt time.Time) *InvalidationJob {
	return &InvalidationJob{
		ID:        id,
		Paths:     paths,
		Status:    InvalidationJobStatusPending,
		CreatedAt: createdAt,
	}
}

// ValidateInvalidationJob validates an InvalidationJob instance
func ValidateInvalidationJob(j *InvalidationJob) error {
	if j == nil {
		return fmt.Errorf("invalidation job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("invalidation job ID is required")
	}

	if len(j.Paths) == 0 {
		return fmt.Errorf("invalidation job must list at least one path")
	}

	if !isValidInvalidationJobStatus(j.Status) {
		return fmt.Errorf("invalidation job Status is invalid: %s", j.Status)
	}

	if j.Retries < 0 {
		return fmt.Errorf("invalidation job Retries cannot be negative")
	}

	return nil
}

func isValidInvalidationJobStatus(s InvalidationJobStatus) bool {
	switch s {
	case InvalidationJobStatusPending, InvalidationJobStatusProcessing,
		InvalidationJobStatusCompleted, InvalidationJobStatusFailed:
		return true
	}
	return false
}

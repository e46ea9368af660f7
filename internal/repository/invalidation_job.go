package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/pillarpress/internal/domain"
)

const jobColumns = `id, paths, status, retries, error, created_at, processed_at`

type InvalidationJobRepository struct {
	db dbtx
}

func NewInvalidationJobRepository(pool *pgxpool.Pool) *InvalidationJobRepository {
	return &InvalidationJobRepository{db: pool}
}

func NewInvalidationJobRepositoryWithTx(tx pgx.Tx) *InvalidationJobRepository {
	return &InvalidationJobRepository{db: tx}
}

func (r *InvalidationJobRepository) Create(ctx context.Context, job *domain.InvalidationJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO invalidation_jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.Paths, job.Status, job.Retries, nullableString(job.Error), job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *InvalidationJobRepository) GetByID(ctx context.Context, id string) (*domain.InvalidationJob, error) {
	job, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM invalidation_jobs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidationJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// ClaimPending moves up to limit pending jobs to processing and returns them.
// A job left in processing for longer than staleAfter, by a worker that died
// mid-job, is claimed again. Concurrent workers never claim the same row.
func (r *InvalidationJobRepository) ClaimPending(ctx context.Context, limit int, staleAfter time.Duration) ([]*domain.InvalidationJob, error) {
	if limit <= 0 {
		limit = 100
	}
	now := time.Now().UTC()

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM invalidation_jobs
			 WHERE status = $1
			    OR (status = $3 AND (claimed_at IS NULL OR claimed_at < $4))
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE invalidation_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL,
		     claimed_at = $5
		 FROM cte
		 WHERE invalidation_jobs.id = cte.id
		 RETURNING invalidation_jobs.id, invalidation_jobs.paths, invalidation_jobs.status, invalidation_jobs.retries,
		           invalidation_jobs.error, invalidation_jobs.created_at, invalidation_jobs.processed_at`,
		domain.InvalidationJobStatusPending, limit, domain.InvalidationJobStatusProcessing, now.Add(-staleAfter), now,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.InvalidationJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *InvalidationJobRepository) UpdateStatus(ctx context.Context, id string, status domain.InvalidationJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.InvalidationJobStatusCompleted || status == domain.InvalidationJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	cmdTag, err := r.db.Exec(ctx,
		`UPDATE invalidation_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrInvalidationJobNotFound
	}
	return nil
}

func (r *InvalidationJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE invalidation_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrInvalidationJobNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.InvalidationJob, error) {
	var job domain.InvalidationJob
	var errMsg pgtype.Text
	if err := row.Scan(&job.ID, &job.Paths, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}

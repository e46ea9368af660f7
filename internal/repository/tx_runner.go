package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/pillarpress/internal/service"
)

// TxRunner runs editing writes in one read-committed transaction so a
// content row, its pillar links and its invalidation job commit together.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// WithTx commits when fn returns nil and rolls back on an error or panic.
func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&txRepos{tx: tx})
	})
}

type txRepos struct {
	tx pgx.Tx
}

func (r *txRepos) Content() service.ContentRepositoryInterface {
	return NewContentRepositoryWithTx(r.tx)
}

func (r *txRepos) PillarLinks() service.PillarLinkRepositoryInterface {
	return NewPillarLinkRepositoryWithTx(r.tx)
}

func (r *txRepos) InvalidationJobs() service.InvalidationJobRepositoryInterface {
	return NewInvalidationJobRepositoryWithTx(r.tx)
}

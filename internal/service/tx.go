package service

import "context"

// TxRepositories are the repositories bound to one editing transaction.
type TxRepositories interface {
	Content() ContentRepositoryInterface
	PillarLinks() PillarLinkRepositoryInterface
	InvalidationJobs() InvalidationJobRepositoryInterface
}

// TxRunner executes fn in a transaction. Returning an error rolls back
// everything fn wrote, including enqueued invalidation jobs.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

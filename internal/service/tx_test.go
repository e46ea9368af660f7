package service

import "context"

type testTxRepos struct {
	content          ContentRepositoryInterface
	pillarLinks      PillarLinkRepositoryInterface
	invalidationJobs InvalidationJobRepositoryInterface
}

func (t *testTxRepos) Content() ContentRepositoryInterface {
	return t.content
}

func (t *testTxRepos) PillarLinks() PillarLinkRepositoryInterface {
	return t.pillarLinks
}

func (t *testTxRepos) InvalidationJobs() InvalidationJobRepositoryInterface {
	return t.invalidationJobs
}

type testTxRunner struct {
	repos  TxRepositories
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	return fn(t.repos)
}

package source

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/tags"
)

// ContentRepositoryInterface is the read side of the content repository.
type ContentRepositoryInterface interface {
	GetBySlug(ctx context.Context, kind domain.Kind, slug string) (*domain.ContentItem, error)
	GetByID(ctx context.Context, id string) (*domain.ContentItem, error)
	ListVisibleByKind(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error)
}

// TagResolverInterface resolves pillar slugs for stored items.
type TagResolverInterface interface {
	ResolveTags(ctx context.Context, contentItemID string) ([]string, error)
	Index(ctx context.Context, contentItemIDs []string) (tags.Index, error)
}

// RelationalSource reads content rows and their pillar links from PostgreSQL.
type RelationalSource struct {
	repo ContentRepositoryInterface
	tags TagResolverInterface
}

// NewRelationalSource creates a new RelationalSource
func NewRelationalSource(repo ContentRepositoryInterface, tags TagResolverInterface) *RelationalSource {
	return &RelationalSource{repo: repo, tags: tags}
}

func (s *RelationalSource) Name() domain.SourceKind { return domain.SourceRelational }

// Find loads the row for kind/slug and attaches its pillars.
func (s *RelationalSource) Find(ctx context.Context, kind domain.Kind, slug string) (*domain.ContentItem, error) {
	item, err := s.repo.GetBySlug(ctx, kind, slug)
	return s.complete(ctx, item, err)
}

// FindByID loads a row by id regardless of kind.
func (s *RelationalSource) FindByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	return s.complete(ctx, item, err)
}

// List returns the visible rows of a kind. Pillars for the whole page are
// loaded with one batch query.
func (s *RelationalSource) List(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	items, err := s.repo.ListVisibleByKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s rows: %w", kind, err)
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	index, err := s.tags.Index(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, it := range items {
		it.Pillars = index.Pillars(it.ID)
		it.Source = domain.SourceRelational
	}
	return items, nil
}

func (s *RelationalSource) complete(ctx context.Context, item *domain.ContentItem, err error) (*domain.ContentItem, error) {
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	pillars, err := s.tags.ResolveTags(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	item.Pillars = pillars
	item.Source = domain.SourceRelational
	return item, nil
}

// Package tags resolves the pillar tags attached to content items.
package tags

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/telemetry"
)

// PillarRepositoryInterface loads the stored pillar catalog.
type PillarRepositoryInterface interface {
	List(ctx context.Context) ([]*domain.Pillar, error)
}

// PillarLinkRepositoryInterface loads association rows for a set of content items.
type PillarLinkRepositoryInterface interface {
	ListByContentIDs(ctx context.Context, contentItemIDs []string) ([]domain.ContentPillarLink, error)
}

// Index maps a content item id to its ordered pillar slugs.
type Index map[string][]string

// Pillars returns the slugs for id, never nil.
func (i Index) Pillars(id string) []string {
	if p, ok := i[id]; ok {
		return p
	}
	return []string{}
}

// Resolver builds pillar indexes from the catalog and the association table.
type Resolver struct {
	pillars PillarRepositoryInterface
	links   PillarLinkRepositoryInterface
}

// NewResolver creates a Resolver.
func NewResolver(pillars PillarRepositoryInterface, links PillarLinkRepositoryInterface) *Resolver {
	return &Resolver{pillars: pillars, links: links}
}

// ResolveTags returns the pillar slugs of one content item.
func (r *Resolver) ResolveTags(ctx context.Context, contentItemID string) ([]string, error) {
	idx, err := r.Index(ctx, []string{contentItemID})
	if err != nil {
		return nil, err
	}
	return idx.Pillars(contentItemID), nil
}

// Index loads the catalog once and the association rows for all ids in one
// query, concurrently, and groups them by content item.
func (r *Resolver) Index(ctx context.Context, contentItemIDs []string) (Index, error) {
	if len(contentItemIDs) == 0 {
		return Index{}, nil
	}

	ctx, span := telemetry.StartSpan(ctx, "tags.Resolver.Index", telemetry.SpanAttributes{
		Operation: "resolve_tags",
	})
	defer span.End()

	var catalog []*domain.Pillar
	var links []domain.ContentPillarLink

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		catalog, err = r.pillars.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to load pillar catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		links, err = r.links.ListByContentIDs(gctx, contentItemIDs)
		if err != nil {
			return fmt.Errorf("failed to load pillar links: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.SetError(err)
		return nil, err
	}

	return BuildIndex(catalog, links), nil
}

// BuildIndex groups links by content item. Links to pillars missing from the
// catalog are dropped, as are catalog rows whose slug is not a known pillar.
// Each item's slugs are unique and ordered by catalog sort order.
func BuildIndex(catalog []*domain.Pillar, links []domain.ContentPillarLink) Index {
	byID := make(map[string]*domain.Pillar, len(catalog))
	for _, p := range catalog {
		if p != nil && domain.IsKnownPillar(p.Slug) {
			byID[p.ID] = p
		}
	}

	grouped := map[string][]*domain.Pillar{}
	seen := map[domain.ContentPillarLink]bool{}
	for _, l := range links {
		p, ok := byID[l.PillarID]
		if !ok || seen[l] {
			continue
		}
		seen[l] = true
		grouped[l.ContentItemID] = append(grouped[l.ContentItemID], p)
	}

	idx := make(Index, len(grouped))
	for id, ps := range grouped {
		sort.SliceStable(ps, func(i, j int) bool {
			if ps[i].SortOrder != ps[j].SortOrder {
				return ps[i].SortOrder < ps[j].SortOrder
			}
			return ps[i].Slug < ps[j].Slug
		})
		slugs := make([]string, 0, len(ps))
		dup := map[string]bool{}
		for _, p := range ps {
			if dup[p.Slug] {
				continue
			}
			dup[p.Slug] = true
			slugs = append(slugs, p.Slug)
		}
		idx[id] = slugs
	}
	return idx
}

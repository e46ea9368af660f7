// Package source provides the content stores the resolution pipeline reads from.
//
// A ContentSource answers "which item has this slug" and "which items exist
// for this kind". FallbackSource composes a relational primary with a
// file-backed secondary in fixed priority order.
package source

import (
	"context"
	"sort"

	"github.com/cloo-solutions/pillarpress/internal/domain"
)

// ContentSource is a store of content items.
//
// Find returns (nil, nil) when the slug is absent. Neither method filters
// by visibility.
type ContentSource interface {
	Name() domain.SourceKind
	Find(ctx context.Context, kind domain.Kind, slug string) (*domain.ContentItem, error)
	List(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error)
}

// IDLookup is implemented by sources that address items by a stable id.
type IDLookup interface {
	FindByID(ctx context.Context, id string) (*domain.ContentItem, error)
}

// sortNewestFirst orders items by publication date descending. Undated
// items come last; ties break on slug.
func sortNewestFirst(items []*domain.ContentItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedAt, items[j].PublishedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return items[i].Slug < items[j].Slug
	})
}

func visibleOnly(items []*domain.ContentItem) []*domain.ContentItem {
	out := make([]*domain.ContentItem, 0, len(items))
	for _, it := range items {
		if it.Visible() {
			out = append(out, it)
		}
	}
	return out
}

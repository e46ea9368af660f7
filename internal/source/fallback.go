package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/logfields"
	"github.com/cloo-solutions/pillarpress/internal/metrics"
	"github.com/cloo-solutions/pillarpress/internal/telemetry"
)

// ListingMode selects how ListAll combines the two sources.
type ListingMode string

const (
	// ListingMerge unions visible items of both sources; the primary wins
	// per slug.
	ListingMerge ListingMode = "merge"
	// ListingPrimaryFirst returns secondary items only when the primary has
	// no visible rows at all.
	ListingPrimaryFirst ListingMode = "primary-first"
)

// ParseListingMode maps a config value to a ListingMode. Empty selects merge.
func ParseListingMode(s string) (ListingMode, error) {
	switch ListingMode(s) {
	case "", ListingMerge:
		return ListingMerge, nil
	case ListingPrimaryFirst:
		return ListingPrimaryFirst, nil
	}
	return "", fmt.Errorf("unknown listing mode %q", s)
}

// FallbackSource tries the primary source and then the secondary, in that
// order, never concurrently for a single slug. A nil primary means the
// relational store is not configured and is skipped.
type FallbackSource struct {
	primary   ContentSource
	secondary ContentSource
	mode      ListingMode
	recorder  metrics.Recorder
}

// FallbackOption configures a FallbackSource.
type FallbackOption func(*FallbackSource)

// WithListingMode sets the ListAll policy.
func WithListingMode(mode ListingMode) FallbackOption {
	return func(s *FallbackSource) { s.mode = mode }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) FallbackOption {
	return func(s *FallbackSource) { s.recorder = r }
}

// NewFallbackSource creates a FallbackSource. Pass an untyped nil primary
// when the relational store is unconfigured.
func NewFallbackSource(primary, secondary ContentSource, opts ...FallbackOption) *FallbackSource {
	s := &FallbackSource{
		primary:   primary,
		secondary: secondary,
		mode:      ListingMerge,
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Find returns the visible item for kind/slug, or (nil, nil) when neither
// source has one. Primary failures are logged and absorbed; only
// MalformedContent from the secondary is returned.
func (s *FallbackSource) Find(ctx context.Context, kind domain.Kind, slug string) (*domain.ContentItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "FallbackSource.Find", telemetry.SpanAttributes{
		Kind: string(kind),
		Slug: slug,
	})
	defer span.End()

	if s.primary == nil {
		s.recorder.IncFallback(metrics.FallbackUnconfigured)
	} else {
		item, err := s.primary.Find(ctx, kind, slug)
		switch {
		case err != nil:
			s.primaryFailed(ctx, kind, slug, err)
		case item.Visible():
			return item, nil
		default:
			s.recorder.IncFallback(metrics.FallbackMiss)
		}
	}

	if s.secondary == nil {
		return nil, nil
	}
	item, err := s.secondary.Find(ctx, kind, slug)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedContent) {
			span.SetError(err)
			return nil, err
		}
		slog.WarnContext(ctx, "secondary content source failed",
			logfields.Kind(string(kind)), logfields.Slug(slug),
			logfields.Source(string(s.secondary.Name())), logfields.Error(err))
		return nil, nil
	}
	if !item.Visible() {
		return nil, nil
	}
	return item, nil
}

// FindForEdit looks an item up for an editing caller. Visibility is not
// checked. ref may be a content id or a slug; ids only resolve against a
// primary that supports IDLookup.
func (s *FallbackSource) FindForEdit(ctx context.Context, kind domain.Kind, ref string) (*domain.ContentItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "FallbackSource.FindForEdit", telemetry.SpanAttributes{
		Kind: string(kind),
		Slug: ref,
	})
	defer span.End()

	if s.primary != nil {
		var (
			item *domain.ContentItem
			err  error
		)
		if lookup, ok := s.primary.(IDLookup); ok && uuid.Validate(ref) == nil {
			item, err = lookup.FindByID(ctx, ref)
		} else {
			item, err = s.primary.Find(ctx, kind, ref)
		}
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		if item != nil {
			return item, nil
		}
	}

	if s.secondary == nil {
		return nil, domain.ErrContentNotFound
	}
	item, err := s.secondary.Find(ctx, kind, ref)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrContentNotFound
	}
	return item, nil
}

// ListAll returns the visible items of a kind, newest first.
func (s *FallbackSource) ListAll(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "FallbackSource.ListAll", telemetry.SpanAttributes{
		Kind:      string(kind),
		Operation: string(s.mode),
	})
	defer span.End()

	if s.mode == ListingPrimaryFirst {
		return s.listPrimaryFirst(ctx, kind), nil
	}
	return s.listMerged(ctx, kind)
}

func (s *FallbackSource) listPrimaryFirst(ctx context.Context, kind domain.Kind) []*domain.ContentItem {
	primary := visibleOnly(s.listFrom(ctx, s.primary, kind))
	if len(primary) > 0 {
		sortNewestFirst(primary)
		return primary
	}
	secondary := visibleOnly(s.listFrom(ctx, s.secondary, kind))
	sortNewestFirst(secondary)
	return secondary
}

func (s *FallbackSource) listMerged(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	var primary, secondary []*domain.ContentItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		primary = s.listFrom(gctx, s.primary, kind)
		return nil
	})
	g.Go(func() error {
		secondary = s.listFrom(gctx, s.secondary, kind)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(primary))
	out := make([]*domain.ContentItem, 0, len(primary)+len(secondary))
	for _, it := range visibleOnly(primary) {
		seen[it.Slug] = true
		out = append(out, it)
	}
	for _, it := range visibleOnly(secondary) {
		if !seen[it.Slug] {
			out = append(out, it)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// listFrom lists one source, absorbing its failure.
func (s *FallbackSource) listFrom(ctx context.Context, src ContentSource, kind domain.Kind) []*domain.ContentItem {
	if src == nil {
		return nil
	}
	items, err := src.List(ctx, kind)
	if err != nil {
		if src == s.primary {
			s.primaryFailed(ctx, kind, "", err)
		} else {
			slog.WarnContext(ctx, "content source listing failed",
				logfields.Kind(string(kind)), logfields.Source(string(src.Name())), logfields.Error(err))
		}
		return nil
	}
	return items
}

func (s *FallbackSource) primaryFailed(ctx context.Context, kind domain.Kind, slug string, err error) {
	s.recorder.IncFallback(metrics.FallbackError)
	slog.WarnContext(ctx, "primary content source failed, falling back",
		logfields.Kind(string(kind)), logfields.Slug(slug),
		logfields.Source(string(s.primary.Name())), logfields.Error(err))
	telemetry.CaptureError(ctx, err)
}

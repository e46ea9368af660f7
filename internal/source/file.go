package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/frontmatter"
	"github.com/cloo-solutions/pillarpress/internal/logfields"
	"github.com/cloo-solutions/pillarpress/internal/storage"
)

// Extensions are tried in order when looking a slug up.
var Extensions = []string{".md", ".mdx"}

// FileSource reads `<kind plural>/<slug>.md` documents from a blob store.
type FileSource struct {
	store storage.BlobStore
}

// NewFileSource creates a new FileSource
func NewFileSource(store storage.BlobStore) *FileSource {
	return &FileSource{store: store}
}

func (s *FileSource) Name() domain.SourceKind { return domain.SourceFile }

// Key returns the blob key for kind/slug with the given extension.
func Key(kind domain.Kind, slug, ext string) string {
	return kind.Plural() + "/" + slug + ext
}

// Find reads and parses the document for slug. A malformed header is a
// MalformedContent error.
func (s *FileSource) Find(ctx context.Context, kind domain.Kind, slug string) (*domain.ContentItem, error) {
	if !domain.IsValidSlug(slug) {
		return nil, nil
	}

	for _, ext := range Extensions {
		key := Key(kind, slug, ext)
		data, err := s.store.Read(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return parseItem(kind, slug, data)
	}
	return nil, nil
}

// List reads every document of a kind. Documents that fail to parse are
// logged and skipped. When both extensions exist for a slug the first in
// Extensions wins.
func (s *FileSource) List(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	keys, err := s.store.List(ctx, kind.Plural()+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", kind, err)
	}

	bySlug := make(map[string]string, len(keys))
	for _, key := range keys {
		slug, ext, ok := splitKey(kind, key)
		if !ok {
			continue
		}
		if prev, seen := bySlug[slug]; seen && extRank(path.Ext(prev)) <= extRank(ext) {
			continue
		}
		bySlug[slug] = key
	}

	items := make([]*domain.ContentItem, 0, len(bySlug))
	for slug, key := range bySlug {
		data, err := s.store.Read(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable content file", logfields.Slug(slug), logfields.Error(err))
			continue
		}
		item, err := parseItem(kind, slug, data)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed content file", logfields.Slug(slug), logfields.Error(err))
			continue
		}
		items = append(items, item)
	}
	sortNewestFirst(items)
	return items, nil
}

// splitKey extracts the slug from a key directly under the kind directory.
func splitKey(kind domain.Kind, key string) (string, string, bool) {
	rest, ok := strings.CutPrefix(key, kind.Plural()+"/")
	if !ok || strings.Contains(rest, "/") {
		return "", "", false
	}
	ext := path.Ext(rest)
	if extRank(ext) < 0 {
		return "", "", false
	}
	slug := strings.TrimSuffix(rest, ext)
	if !domain.IsValidSlug(slug) {
		return "", "", false
	}
	return slug, ext, true
}

func extRank(ext string) int {
	for i, e := range Extensions {
		if e == ext {
			return i
		}
	}
	return -1
}

// parseItem builds a ContentItem from a front-matter document. File items
// are published unless their header says otherwise, and unknown pillars
// are dropped.
func parseItem(kind domain.Kind, slug string, data []byte) (*domain.ContentItem, error) {
	doc, err := frontmatter.Parse(string(data))
	if err != nil {
		return nil, domain.MalformedContent(err)
	}
	f := frontmatter.Decode(doc.Metadata)

	item := &domain.ContentItem{
		Kind:        kind,
		Slug:        slug,
		Title:       f.Title,
		Excerpt:     f.Excerpt,
		Category:    f.Category,
		Tags:        f.Tags,
		PublishedAt: f.PublishedAt,
		Status:      domain.ContentStatus(f.Status),
		IsListed:    f.Listed,
		HeroImage:   f.HeroImage,
		BodySource:  doc.Body,
		Pillars:     domain.FilterPillars(f.Pillars),
		Source:      domain.SourceFile,
	}
	if item.Title == "" {
		item.Title = slug
	}
	if item.Status == "" {
		item.Status = domain.ContentStatusPublished
	}
	if f.InteractiveHTML != "" || f.InteractiveSlug != "" {
		item.Interactive = &domain.InteractiveRef{HTML: f.InteractiveHTML, Slug: f.InteractiveSlug}
	}
	return item, nil
}

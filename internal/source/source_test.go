package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/metrics"
	"github.com/cloo-solutions/pillarpress/internal/storage"
	"github.com/cloo-solutions/pillarpress/internal/tags"
)

const contentID = "6f1c1c0e-2d1b-4c53-9a53-0e7f3b0c1a11"

func row(slug string, listed bool) *domain.ContentItem {
	return &domain.ContentItem{
		ID:         contentID,
		Kind:       domain.KindArticle,
		Slug:       slug,
		Title:      "Focus Habits",
		Status:     domain.ContentStatusPublished,
		IsListed:   domain.BoolPtr(listed),
		BodySource: "## Start\n\nSome **text**.",
	}
}

func fileStore(t *testing.T, files map[string]string) *storage.DirStore {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return storage.NewDirStore(root)
}

func date(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

func TestRelationalSource_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches pillars", func(t *testing.T) {
		repo := new(MockContentRepository)
		resolver := new(MockTagResolver)
		repo.On("GetBySlug", ctx, domain.KindArticle, "focus-habits").Return(row("focus-habits", true), nil)
		resolver.On("ResolveTags", ctx, contentID).Return([]string{"focus", "habits"}, nil)

		item, err := NewRelationalSource(repo, resolver).Find(ctx, domain.KindArticle, "focus-habits")

		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, []string{"focus", "habits"}, item.Pillars)
		assert.Equal(t, domain.SourceRelational, item.Source)
	})

	t.Run("not found is absent", func(t *testing.T) {
		repo := new(MockContentRepository)
		repo.On("GetBySlug", ctx, domain.KindArticle, "missing").Return(nil, domain.ErrContentNotFound)

		item, err := NewRelationalSource(repo, new(MockTagResolver)).Find(ctx, domain.KindArticle, "missing")

		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("query error propagates", func(t *testing.T) {
		repo := new(MockContentRepository)
		repo.On("GetBySlug", ctx, domain.KindArticle, "x").Return(nil, errors.New("connection refused"))

		_, err := NewRelationalSource(repo, new(MockTagResolver)).Find(ctx, domain.KindArticle, "x")
		assert.Error(t, err)
	})
}

func TestRelationalSource_List_BatchesPillars(t *testing.T) {
	ctx := context.Background()
	a := row("a", true)
	a.ID = "id-a"
	b := row("b", true)
	b.ID = "id-b"

	repo := new(MockContentRepository)
	resolver := new(MockTagResolver)
	repo.On("ListVisibleByKind", ctx, domain.KindArticle).Return([]*domain.ContentItem{a, b}, nil)
	resolver.On("Index", ctx, []string{"id-a", "id-b"}).Return(tags.Index{"id-a": {"focus"}}, nil).Once()

	items, err := NewRelationalSource(repo, resolver).List(ctx, domain.KindArticle)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, []string{"focus"}, items[0].Pillars)
	assert.Equal(t, []string{}, items[1].Pillars)
	resolver.AssertNumberOfCalls(t, "Index", 1)
	resolver.AssertNotCalled(t, "ResolveTags", mock.Anything, mock.Anything)
}

func TestFileSource_Find(t *testing.T) {
	store := fileStore(t, map[string]string{
		"articles/focus-habits.md": "title: 'Focus: habits'\npillars: [focus, nonsense, habits]\n" +
			"isListed: true\ninteractive: breathing-timer\n\n## Start\n\nSome **text**.",
		"courses/deep-work.mdx": "title: \"Deep Work\"\nstatus: draft\n\nBody",
		"articles/broken.md":    "---\ntitle: [unclosed\n---\nbody",
	})
	src := NewFileSource(store)
	ctx := context.Background()

	t.Run("md file", func(t *testing.T) {
		item, err := src.Find(ctx, domain.KindArticle, "focus-habits")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, "Focus: habits", item.Title)
		assert.Equal(t, []string{"focus", "habits"}, item.Pillars)
		assert.Equal(t, domain.ContentStatusPublished, item.Status)
		assert.Equal(t, "## Start\n\nSome **text**.", item.BodySource)
		assert.Equal(t, domain.SourceFile, item.Source)
		require.NotNil(t, item.Interactive)
		assert.Equal(t, "breathing-timer", item.Interactive.Slug)
	})

	t.Run("mdx file", func(t *testing.T) {
		item, err := src.Find(ctx, domain.KindCourse, "deep-work")
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, domain.ContentStatusDraft, item.Status)
	})

	t.Run("kinds are separate namespaces", func(t *testing.T) {
		item, err := src.Find(ctx, domain.KindResource, "focus-habits")
		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("invalid slug never reaches the store", func(t *testing.T) {
		item, err := src.Find(ctx, domain.KindArticle, "../secrets")
		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("malformed header", func(t *testing.T) {
		_, err := src.Find(ctx, domain.KindArticle, "broken")
		assert.ErrorIs(t, err, domain.ErrMalformedContent)
	})
}

func TestFileSource_List(t *testing.T) {
	store := fileStore(t, map[string]string{
		"articles/old.md":        "title: 'Old'\ndate: 2023-01-01\n\nbody",
		"articles/new.md":        "title: 'New'\ndate: 2024-06-01\n\nbody",
		"articles/new.mdx":       "title: 'Shadowed'\n\nbody",
		"articles/broken.md":     "---\ntitle: [unclosed\n---\nbody",
		"articles/notes.txt":     "ignored",
		"articles/nested/dup.md": "title: 'Nested'\n\nbody",
	})

	items, err := NewFileSource(store).List(context.Background(), domain.KindArticle)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "New", items[0].Title)
	assert.Equal(t, "Old", items[1].Title)
}

func TestFallbackSource_Find(t *testing.T) {
	ctx := context.Background()

	t.Run("primary precedence over same-named file", func(t *testing.T) {
		primary := &MockSource{name: domain.SourceRelational}
		primary.On("Find", mock.Anything, domain.KindArticle, "focus-habits").Return(row("focus-habits", true), nil)
		secondary := &MockSource{name: domain.SourceFile}

		item, err := NewFallbackSource(primary, secondary).Find(ctx, domain.KindArticle, "focus-habits")

		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, contentID, item.ID)
		secondary.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("primary error falls back", func(t *testing.T) {
		primary := &MockSource{name: domain.SourceRelational}
		primary.On("Find", mock.Anything, domain.KindArticle, "focus-habits").Return(nil, errors.New("timeout"))
		rec := new(MockRecorder)
		rec.On("IncFallback", metrics.FallbackError).Once()
		files := NewFileSource(fileStore(t, map[string]string{"articles/focus-habits.md": "title: 'From file'\n\nbody"}))

		item, err := NewFallbackSource(primary, files, WithRecorder(rec)).Find(ctx, domain.KindArticle, "focus-habits")

		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, "From file", item.Title)
		rec.AssertExpectations(t)
	})

	t.Run("unconfigured primary is skipped", func(t *testing.T) {
		rec := new(MockRecorder)
		rec.On("IncFallback", metrics.FallbackUnconfigured).Once()
		files := NewFileSource(fileStore(t, map[string]string{"articles/a.md": "title: 'A'\n\nbody"}))

		item, err := NewFallbackSource(nil, files, WithRecorder(rec)).Find(ctx, domain.KindArticle, "a")

		require.NoError(t, err)
		require.NotNil(t, item)
		rec.AssertExpectations(t)
	})

	t.Run("neither source has it", func(t *testing.T) {
		primary := &MockSource{name: domain.SourceRelational}
		primary.On("Find", mock.Anything, domain.KindArticle, "nope").Return(nil, nil)
		files := NewFileSource(fileStore(t, nil))

		item, err := NewFallbackSource(primary, files).Find(ctx, domain.KindArticle, "nope")

		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("invisible file is absent", func(t *testing.T) {
		files := NewFileSource(fileStore(t, map[string]string{"articles/d.md": "title: 'D'\nstatus: draft\n\nbody"}))

		item, err := NewFallbackSource(nil, files).Find(ctx, domain.KindArticle, "d")

		require.NoError(t, err)
		assert.Nil(t, item)
	})

	t.Run("malformed file propagates", func(t *testing.T) {
		files := NewFileSource(fileStore(t, map[string]string{"articles/b.md": "---\ntitle: [x\n---\n"}))

		_, err := NewFallbackSource(nil, files).Find(ctx, domain.KindArticle, "b")

		assert.ErrorIs(t, err, domain.ErrMalformedContent)
	})
}

// An unlisted row is hidden publicly but still editable.
func TestFallbackSource_UnlistedRow(t *testing.T) {
	ctx := context.Background()
	repo := new(MockContentRepository)
	resolver := new(MockTagResolver)
	repo.On("GetBySlug", mock.Anything, domain.KindArticle, "focus-habits").Return(row("focus-habits", false), nil)
	repo.On("GetByID", mock.Anything, contentID).Return(row("focus-habits", false), nil)
	resolver.On("ResolveTags", mock.Anything, contentID).Return([]string{}, nil)

	src := NewFallbackSource(NewRelationalSource(repo, resolver), NewFileSource(fileStore(t, nil)))

	item, err := src.Find(ctx, domain.KindArticle, "focus-habits")
	require.NoError(t, err)
	assert.Nil(t, item)

	edit, err := src.FindForEdit(ctx, domain.KindArticle, "focus-habits")
	require.NoError(t, err)
	require.NotNil(t, edit)
	assert.False(t, edit.Listed())
	assert.Equal(t, "## Start\n\nSome **text**.", edit.BodySource)

	byID, err := src.FindForEdit(ctx, domain.KindArticle, contentID)
	require.NoError(t, err)
	assert.Equal(t, "focus-habits", byID.Slug)
}

func TestFallbackSource_FindForEdit_NotFound(t *testing.T) {
	src := NewFallbackSource(nil, NewFileSource(fileStore(t, nil)))

	_, err := src.FindForEdit(context.Background(), domain.KindArticle, "missing")

	assert.ErrorIs(t, err, domain.ErrContentNotFound)
}

func TestFallbackSource_ListAll(t *testing.T) {
	ctx := context.Background()
	files := NewFileSource(fileStore(t, map[string]string{
		"articles/shared.md":    "title: 'File copy'\ndate: 2025-01-01\n\nbody",
		"articles/file-only.md": "title: 'File only'\ndate: 2024-01-01\n\nbody",
		"articles/hidden.md":    "title: 'Hidden'\nisListed: false\n\nbody",
	}))

	dbRow := row("shared", true)
	dbRow.Title = "DB copy"
	dbRow.PublishedAt = date("2023-01-01")

	t.Run("merge unions and primary wins per slug", func(t *testing.T) {
		primary := &MockSource{name: domain.SourceRelational}
		primary.On("List", mock.Anything, domain.KindArticle).Return([]*domain.ContentItem{dbRow}, nil)

		items, err := NewFallbackSource(primary, files).ListAll(ctx, domain.KindArticle)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "File only", items[0].Title)
		assert.Equal(t, "DB copy", items[1].Title)
	})

	t.Run("merge survives primary failure", func(t *testing.T) {
		primary := &MockSource{name: domain.SourceRelational}
		primary.On("List", mock.Anything, domain.KindArticle).Return(nil, errors.New("down"))

		items, err := NewFallbackSource(primary, files).ListAll(ctx, domain.KindArticle)

		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("primary-first ignores files when primary has rows", func(t *testing.T) {
		primary := &MockSource{name: domain.SourceRelational}
		primary.On("List", mock.Anything, domain.KindArticle).Return([]*domain.ContentItem{dbRow}, nil)

		items, err := NewFallbackSource(primary, files, WithListingMode(ListingPrimaryFirst)).ListAll(ctx, domain.KindArticle)

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "DB copy", items[0].Title)
	})

	t.Run("primary-first uses files when primary is empty", func(t *testing.T) {
		primary := &MockSource{name: domain.SourceRelational}
		primary.On("List", mock.Anything, domain.KindArticle).Return([]*domain.ContentItem{}, nil)

		items, err := NewFallbackSource(primary, files, WithListingMode(ListingPrimaryFirst)).ListAll(ctx, domain.KindArticle)

		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "File copy", items[0].Title)
	})
}

func TestParseListingMode(t *testing.T) {
	tests := []struct {
		in      string
		want    ListingMode
		wantErr bool
	}{
		{"", ListingMerge, false},
		{"merge", ListingMerge, false},
		{"primary-first", ListingPrimaryFirst, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseListingMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

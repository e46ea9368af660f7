//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/pagination"
	"github.com/cloo-solutions/pillarpress/internal/testutil"
)

func newContentItem(kind domain.Kind, slug string, published *time.Time) *domain.ContentItem {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.ContentItem{
		ID:          uuid.NewString(),
		Kind:        kind,
		Slug:        slug,
		Title:       "Title " + slug,
		Excerpt:     "Excerpt",
		Tags:        []string{"a"},
		PublishedAt: published,
		Status:      domain.ContentStatusPublished,
		BodySource:  "## Heading\n\nBody",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func at(day int) *time.Time {
	t := time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestContentRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pc)

	repo := NewContentRepository(pool)

	item := newContentItem(domain.KindArticle, "focus", at(1))
	item.IsListed = domain.BoolPtr(false)
	item.Interactive = &domain.InteractiveRef{Slug: "breathing-timer"}
	require.NoError(t, repo.Create(ctx, item))

	byID, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Slug, byID.Slug)
	assert.Equal(t, []string{"a"}, byID.Tags)
	require.NotNil(t, byID.IsListed)
	assert.False(t, *byID.IsListed)
	require.NotNil(t, byID.Interactive)
	assert.Equal(t, "breathing-timer", byID.Interactive.Slug)
	assert.Equal(t, domain.SourceRelational, byID.Source)

	// hidden rows stay reachable by slug
	bySlug, err := repo.GetBySlug(ctx, domain.KindArticle, "focus")
	require.NoError(t, err)
	assert.Equal(t, item.ID, bySlug.ID)

	_, err = repo.GetBySlug(ctx, domain.KindCourse, "focus")
	assert.ErrorIs(t, err, domain.ErrContentNotFound)
}

func TestContentRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pc)

	_, err := NewContentRepository(pool).GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrContentNotFound)
}

func TestContentRepository_SlugUniquePerKind(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pc)

	repo := NewContentRepository(pool)

	first := newContentItem(domain.KindArticle, "shared", nil)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, newContentItem(domain.KindCourse, "shared", nil)))

	err := repo.Create(ctx, newContentItem(domain.KindArticle, "shared", nil))
	assert.ErrorIs(t, err, domain.ErrSlugTaken)

	exists, err := repo.SlugExists(ctx, domain.KindArticle, "shared", "")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.SlugExists(ctx, domain.KindArticle, "shared", first.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestContentRepository_Update(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pc)

	repo := NewContentRepository(pool)

	item := newContentItem(domain.KindResource, "old", nil)
	require.NoError(t, repo.Create(ctx, item))

	item.Slug = "new"
	item.Status = domain.ContentStatusDraft
	item.UpdatedAt = item.UpdatedAt.Add(time.Minute)
	require.NoError(t, repo.Update(ctx, item))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Slug)
	assert.Equal(t, domain.ContentStatusDraft, got.Status)

	missing := newContentItem(domain.KindResource, "ghost", nil)
	assert.ErrorIs(t, repo.Update(ctx, missing), domain.ErrContentNotFound)
}

func TestContentRepository_ListVisibleByKind(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pc)

	repo := NewContentRepository(pool)

	older := newContentItem(domain.KindArticle, "older", at(1))
	newer := newContentItem(domain.KindArticle, "newer", at(5))
	undated := newContentItem(domain.KindArticle, "undated", nil)
	draft := newContentItem(domain.KindArticle, "draft", at(9))
	draft.Status = domain.ContentStatusDraft
	unlisted := newContentItem(domain.KindArticle, "unlisted", at(9))
	unlisted.IsListed = domain.BoolPtr(false)
	other := newContentItem(domain.KindCourse, "course", at(9))

	for _, c := range []*domain.ContentItem{older, newer, undated, draft, unlisted, other} {
		require.NoError(t, repo.Create(ctx, c))
	}

	items, err := repo.ListVisibleByKind(ctx, domain.KindArticle)
	require.NoError(t, err)

	var slugs []string
	for _, it := range items {
		slugs = append(slugs, it.Slug)
	}
	assert.Equal(t, []string{"newer", "older", "undated"}, slugs)
}

func TestContentRepository_ListByKindWithCursor(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pc)

	repo := NewContentRepository(pool)

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		c := newContentItem(domain.KindArticle, "item-"+string(rune('a'+i)), nil)
		c.Status = domain.ContentStatusDraft
		c.UpdatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(ctx, c))
	}

	first, err := repo.ListByKindWithCursor(ctx, domain.KindArticle, nil, 3)
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, "item-e", first.Items[0].Slug)

	cursor, err := pagination.DecodeCursor(first.NextCursor)
	require.NoError(t, err)

	second, err := repo.ListByKindWithCursor(ctx, domain.KindArticle, cursor, 3)
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.False(t, second.HasMore)
	assert.Empty(t, second.NextCursor)
	assert.Equal(t, "item-a", second.Items[1].Slug)
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/pillarpress/internal/domain"
	"github.com/cloo-solutions/pillarpress/internal/pagination"
	"github.com/cloo-solutions/pillarpress/internal/service"
)

const contentColumns = `id, kind, slug, title, excerpt, category, tags, published_at, status, is_listed,
	hero_image, body_source, interactive_html, interactive_slug, created_at, updated_at`

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type ContentRepository struct {
	db dbtx
}

func NewContentRepository(pool *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: pool}
}

func NewContentRepositoryWithTx(tx pgx.Tx) *ContentRepository {
	return &ContentRepository{db: tx}
}

func (r *ContentRepository) Create(ctx context.Context, c *domain.ContentItem) error {
	html, slug := interactiveColumns(c.Interactive)
	_, err := r.db.Exec(ctx,
		`INSERT INTO content_items (`+contentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		c.ID, c.Kind, c.Slug, c.Title, c.Excerpt, c.Category, nonNilTags(c.Tags), c.PublishedAt, c.Status, c.IsListed,
		c.HeroImage, c.BodySource, html, slug, c.CreatedAt, c.UpdatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *ContentRepository) Update(ctx context.Context, c *domain.ContentItem) error {
	html, slug := interactiveColumns(c.Interactive)
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE content_items
		 SET slug = $2, title = $3, excerpt = $4, category = $5, tags = $6, published_at = $7, status = $8,
		     is_listed = $9, hero_image = $10, body_source = $11, interactive_html = $12, interactive_slug = $13,
		     updated_at = $14
		 WHERE id = $1`,
		c.ID, c.Slug, c.Title, c.Excerpt, c.Category, nonNilTags(c.Tags), c.PublishedAt, c.Status,
		c.IsListed, c.HeroImage, c.BodySource, html, slug, c.UpdatedAt,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrContentNotFound
	}
	return nil
}

func (r *ContentRepository) GetByID(ctx context.Context, id string) (*domain.ContentItem, error) {
	row := r.db.QueryRow(ctx, `SELECT `+contentColumns+` FROM content_items WHERE id = $1`, id)
	return scanContentRow(row)
}

// GetBySlug returns the row whatever its status or listing flag.
func (r *ContentRepository) GetBySlug(ctx context.Context, kind domain.Kind, slug string) (*domain.ContentItem, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+contentColumns+` FROM content_items WHERE kind = $1 AND slug = $2`,
		kind, slug,
	)
	return scanContentRow(row)
}

func (r *ContentRepository) SlugExists(ctx context.Context, kind domain.Kind, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			 SELECT 1 FROM content_items WHERE kind = $1 AND slug = $2 AND id::text <> $3
		 )`,
		kind, slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// ListVisibleByKind returns published, listed rows newest first. Undated
// rows sort last, ties break on slug.
func (r *ContentRepository) ListVisibleByKind(ctx context.Context, kind domain.Kind) ([]*domain.ContentItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+contentColumns+`
		 FROM content_items
		 WHERE kind = $1 AND status = $2 AND is_listed IS NOT FALSE
		 ORDER BY published_at DESC NULLS LAST, slug ASC`,
		kind, domain.ContentStatusPublished,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanContentRows(rows)
}

// ListByKindWithCursor pages through every row of a kind for editors,
// most recently updated first.
func (r *ContentRepository) ListByKindWithCursor(ctx context.Context, kind domain.Kind, cursor *pagination.Cursor, limit int) (*service.ContentPageResult, error) {
	limit = pagination.ClampLimit(limit)

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+contentColumns+`
			 FROM content_items
			 WHERE kind = $1 AND (updated_at, id::text) < ($2, $3)
			 ORDER BY updated_at DESC, id::text DESC
			 LIMIT $4`,
			kind, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+contentColumns+`
			 FROM content_items
			 WHERE kind = $1
			 ORDER BY updated_at DESC, id::text DESC
			 LIMIT $2`,
			kind, limit+1,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanContentRows(rows)
	if err != nil {
		return nil, err
	}

	page, next, hasMore := pagination.Page(items, limit,
		func(c *domain.ContentItem) string { return c.ID },
		func(c *domain.ContentItem) time.Time { return c.UpdatedAt },
	)
	return &service.ContentPageResult{
		Items:      page,
		NextCursor: next,
		HasMore:    hasMore,
	}, nil
}

func scanContentRow(row pgx.Row) (*domain.ContentItem, error) {
	c, err := scanContent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContentNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanContentRows(rows pgx.Rows) ([]*domain.ContentItem, error) {
	var items []*domain.ContentItem
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func scanContent(row pgx.Row) (*domain.ContentItem, error) {
	var c domain.ContentItem
	var html, slug string
	err := row.Scan(&c.ID, &c.Kind, &c.Slug, &c.Title, &c.Excerpt, &c.Category, &c.Tags, &c.PublishedAt, &c.Status,
		&c.IsListed, &c.HeroImage, &c.BodySource, &html, &slug, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if html != "" || slug != "" {
		c.Interactive = &domain.InteractiveRef{HTML: html, Slug: slug}
	}
	c.Source = domain.SourceRelational
	return &c, nil
}

func interactiveColumns(ref *domain.InteractiveRef) (string, string) {
	if ref == nil {
		return "", ""
	}
	return ref.HTML, ref.Slug
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// mapUniqueViolation turns the (kind, slug) constraint into ErrSlugTaken.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrSlugTaken
	}
	return err
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/pillarpress/internal/domain"
)

// PillarRepository reads the stored pillar catalog.
type PillarRepository struct {
	db dbtx
}

func NewPillarRepository(pool *pgxpool.Pool) *PillarRepository {
	return &PillarRepository{db: pool}
}

func (r *PillarRepository) List(ctx context.Context) ([]*domain.Pillar, error) {
	rows, err := r.db.Query(ctx, `SELECT id, slug, name, sort_order FROM pillars ORDER BY sort_order ASC, slug ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pillars []*domain.Pillar
	for rows.Next() {
		var p domain.Pillar
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.SortOrder); err != nil {
			return nil, err
		}
		pillars = append(pillars, &p)
	}
	return pillars, rows.Err()
}

// PillarLinkRepository manages the content_pillars association table.
type PillarLinkRepository struct {
	db dbtx
}

func NewPillarLinkRepository(pool *pgxpool.Pool) *PillarLinkRepository {
	return &PillarLinkRepository{db: pool}
}

func NewPillarLinkRepositoryWithTx(tx pgx.Tx) *PillarLinkRepository {
	return &PillarLinkRepository{db: tx}
}

// ListByContentIDs loads the links of every given item in one query.
func (r *PillarLinkRepository) ListByContentIDs(ctx context.Context, contentItemIDs []string) ([]domain.ContentPillarLink, error) {
	if len(contentItemIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT content_item_id::text, pillar_id
		 FROM content_pillars
		 WHERE content_item_id::text = ANY($1)`,
		contentItemIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.ContentPillarLink
	for rows.Next() {
		var l domain.ContentPillarLink
		if err := rows.Scan(&l.ContentItemID, &l.PillarID); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ReplaceLinks swaps an item's pillar links for the given set.
func (r *PillarLinkRepository) ReplaceLinks(ctx context.Context, contentItemID string, pillarIDs []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM content_pillars WHERE content_item_id = $1`, contentItemID); err != nil {
		return err
	}
	if len(pillarIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO content_pillars (content_item_id, pillar_id)
		 SELECT $1::uuid, p FROM unnest($2::text[]) AS p
		 ON CONFLICT DO NOTHING`,
		contentItemID, pillarIDs,
	)
	return err
}

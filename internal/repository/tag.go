package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greg-hahn/cog-council-meetings/internal/domain"
)

type TagRepository struct {
	db dbtx
}

func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{db: pool}
}

func NewTagRepositoryWithTx(tx pgx.Tx) *TagRepository {
	return &TagRepository{db: tx}
}

func (r *TagRepository) GetByName(ctx context.Context, name string) (*domain.Tag, error) {
	var t domain.Tag
	err := r.db.QueryRow(ctx,
		`SELECT id, name FROM tag WHERE name = $1`, name,
	).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTagNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GetOrCreate returns the tag with the given name, inserting it first if it
// does not exist. Safe against concurrent inserts of the same name.
func (r *TagRepository) GetOrCreate(ctx context.Context, name string) (*domain.Tag, error) {
	var t domain.Tag
	err := r.db.QueryRow(ctx,
		`INSERT INTO tag (name) VALUES ($1)
		 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, name`,
		name,
	).Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CountsByMunicipality returns tag names with agenda item counts across a
// municipality's meetings, most used first.
func (r *TagRepository) CountsByMunicipality(ctx context.Context, municipalityID int64) ([]*domain.TagCount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.name, COUNT(ait.agenda_item_id)
		 FROM tag t
		 JOIN agenda_item_tag ait ON ait.tag_id = t.id
		 JOIN agenda_item ai ON ai.id = ait.agenda_item_id
		 JOIN meeting m ON m.id = ai.meeting_id
		 WHERE m.municipality_id = $1
		 GROUP BY t.name
		 ORDER BY COUNT(ait.agenda_item_id) DESC, t.name`,
		municipalityID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []*domain.TagCount
	for rows.Next() {
		var tc domain.TagCount
		if err := rows.Scan(&tc.Name, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, &tc)
	}
	return counts, rows.Err()
}

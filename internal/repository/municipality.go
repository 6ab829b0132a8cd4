package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greg-hahn/cog-council-meetings/internal/domain"
)

type MunicipalityRepository struct {
	db dbtx
}

func NewMunicipalityRepository(pool *pgxpool.Pool) *MunicipalityRepository {
	return &MunicipalityRepository{db: pool}
}

func NewMunicipalityRepositoryWithTx(tx pgx.Tx) *MunicipalityRepository {
	return &MunicipalityRepository{db: tx}
}

func (r *MunicipalityRepository) GetBySlug(ctx context.Context, slug string) (*domain.Municipality, error) {
	var m domain.Municipality
	var websiteURL, agendaBaseURL *string
	err := r.db.QueryRow(ctx,
		`SELECT id, name, slug, timezone, website_url, agenda_base_url
		 FROM municipality WHERE slug = $1`,
		slug,
	).Scan(&m.ID, &m.Name, &m.Slug, &m.Timezone, &websiteURL, &agendaBaseURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMunicipalityNotFound
		}
		return nil, err
	}
	m.WebsiteURL = stringOrEmpty(websiteURL)
	m.AgendaBaseURL = stringOrEmpty(agendaBaseURL)
	return &m, nil
}

func (r *MunicipalityRepository) Create(ctx context.Context, m *domain.Municipality) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO municipality (name, slug, timezone, website_url, agenda_base_url)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		m.Name, m.Slug, m.Timezone, nullableString(m.WebsiteURL), nullableString(m.AgendaBaseURL),
	).Scan(&m.ID)
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greg-hahn/cog-council-meetings/internal/domain"
)

const meetingColumns = `id, municipality_id, external_id, title, type, start_datetime,
		end_datetime, location, status, agenda_url, livestream_url`

type MeetingRepository struct {
	db dbtx
}

func NewMeetingRepository(pool *pgxpool.Pool) *MeetingRepository {
	return &MeetingRepository{db: pool}
}

func NewMeetingRepositoryWithTx(tx pgx.Tx) *MeetingRepository {
	return &MeetingRepository{db: tx}
}

func (r *MeetingRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Meeting, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+meetingColumns+` FROM meeting WHERE external_id = $1`,
		externalID,
	)
	meeting, err := scanMeeting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMeetingNotFound
		}
		return nil, err
	}
	return meeting, nil
}

func (r *MeetingRepository) GetByID(ctx context.Context, id int64) (*domain.Meeting, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+meetingColumns+` FROM meeting WHERE id = $1`,
		id,
	)
	meeting, err := scanMeeting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMeetingNotFound
		}
		return nil, err
	}
	return meeting, nil
}

// Create inserts the meeting and assigns its surrogate ID, so items can
// reference it before the transaction commits.
func (r *MeetingRepository) Create(ctx context.Context, m *domain.Meeting) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO meeting (municipality_id, external_id, title, type, start_datetime,
		                      end_datetime, location, status, agenda_url, livestream_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		m.MunicipalityID, m.ExternalID, m.Title, nullableString(m.Type),
		m.StartDatetime, m.EndDatetime, nullableString(m.Location),
		m.Status, nullableString(m.AgendaURL), nullableString(m.LivestreamURL),
	).Scan(&m.ID)
}

func (r *MeetingRepository) Update(ctx context.Context, m *domain.Meeting) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE meeting
		 SET title = $1, type = $2, start_datetime = $3, end_datetime = $4,
		     location = $5, status = $6, agenda_url = $7, livestream_url = $8
		 WHERE id = $9`,
		m.Title, nullableString(m.Type), m.StartDatetime, m.EndDatetime,
		nullableString(m.Location), m.Status, nullableString(m.AgendaURL),
		nullableString(m.LivestreamURL), m.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrMeetingNotFound
	}
	return nil
}

func (r *MeetingRepository) ListForDay(ctx context.Context, municipalityID int64, dayStart, dayEnd time.Time) ([]*domain.Meeting, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+meetingColumns+`
		 FROM meeting
		 WHERE municipality_id = $1 AND start_datetime >= $2 AND start_datetime <= $3
		 ORDER BY start_datetime`,
		municipalityID, dayStart, dayEnd,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMeetingRows(rows)
}

func (r *MeetingRepository) ListRecent(ctx context.Context, municipalityID int64, limit int) ([]*domain.Meeting, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+meetingColumns+`
		 FROM meeting
		 WHERE municipality_id = $1
		 ORDER BY start_datetime DESC NULLS LAST
		 LIMIT $2`,
		municipalityID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMeetingRows(rows)
}

func scanMeeting(row pgx.Row) (*domain.Meeting, error) {
	var m domain.Meeting
	var meetingType, location, agendaURL, livestreamURL *string
	err := row.Scan(&m.ID, &m.MunicipalityID, &m.ExternalID, &m.Title, &meetingType,
		&m.StartDatetime, &m.EndDatetime, &location, &m.Status, &agendaURL, &livestreamURL)
	if err != nil {
		return nil, err
	}
	m.Type = stringOrEmpty(meetingType)
	m.Location = stringOrEmpty(location)
	m.AgendaURL = stringOrEmpty(agendaURL)
	m.LivestreamURL = stringOrEmpty(livestreamURL)
	return &m, nil
}

func scanMeetingRows(rows pgx.Rows) ([]*domain.Meeting, error) {
	var meetings []*domain.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, meeting)
	}
	return meetings, rows.Err()
}

package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/greg-hahn/cog-council-meetings/internal/domain"
)

// UpdateEventRepository persists live-meeting signals. Ingestion never
// writes these; external live-tracking sources will.
type UpdateEventRepository struct {
	db dbtx
}

func NewUpdateEventRepository(pool *pgxpool.Pool) *UpdateEventRepository {
	return &UpdateEventRepository{db: pool}
}

func NewUpdateEventRepositoryWithTx(tx pgx.Tx) *UpdateEventRepository {
	return &UpdateEventRepository{db: tx}
}

func (r *UpdateEventRepository) Create(ctx context.Context, e *domain.UpdateEvent) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO update_event (meeting_id, agenda_item_id, timestamp, event_type, source)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		e.MeetingID, e.AgendaItemID, e.Timestamp, e.EventType, e.Source,
	).Scan(&e.ID)
}

// ListByMeeting returns a meeting's events, newest first.
func (r *UpdateEventRepository) ListByMeeting(ctx context.Context, meetingID int64) ([]*domain.UpdateEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, meeting_id, agenda_item_id, timestamp, event_type, source
		 FROM update_event
		 WHERE meeting_id = $1
		 ORDER BY timestamp DESC`,
		meetingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.UpdateEvent
	for rows.Next() {
		var e domain.UpdateEvent
		if err := rows.Scan(&e.ID, &e.MeetingID, &e.AgendaItemID, &e.Timestamp, &e.EventType, &e.Source); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

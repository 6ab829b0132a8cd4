package repository

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greg-hahn/cog-council-meetings/internal/domain"
)

func TestUpdateEventCreateAssignsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &UpdateEventRepository{db: mock}

	ts := time.Date(2025, 5, 27, 18, 30, 0, 0, time.UTC)
	itemID := int64(9)
	mock.ExpectQuery("INSERT INTO update_event").
		WithArgs(int64(42), &itemID, ts, "item_started", domain.UpdateEventSourceExternal).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	event := &domain.UpdateEvent{
		MeetingID:    42,
		AgendaItemID: &itemID,
		Timestamp:    ts,
		EventType:    "item_started",
		Source:       domain.UpdateEventSourceExternal,
	}
	require.NoError(t, repo.Create(context.Background(), event))

	assert.Equal(t, int64(1), event.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEventListByMeeting(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &UpdateEventRepository{db: mock}

	newer := time.Date(2025, 5, 27, 19, 0, 0, 0, time.UTC)
	older := time.Date(2025, 5, 27, 18, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, meeting_id, agenda_item_id, timestamp, event_type, source").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "meeting_id", "agenda_item_id", "timestamp", "event_type", "source"}).
			AddRow(int64(2), int64(42), (*int64)(nil), newer, "meeting_started", domain.UpdateEventSourceSystem).
			AddRow(int64(1), int64(42), (*int64)(nil), older, "meeting_scheduled", domain.UpdateEventSourceSystem))

	events, err := repo.ListByMeeting(context.Background(), 42)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, "meeting_started", events[0].EventType)
	require.NoError(t, mock.ExpectationsWereMet())
}

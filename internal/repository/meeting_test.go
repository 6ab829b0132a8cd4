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

func meetingRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "municipality_id", "external_id", "title", "type",
		"start_datetime", "end_datetime", "location", "status", "agenda_url", "livestream_url"})
}

func TestMeetingGetByExternalID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MeetingRepository{db: mock}

	start := time.Date(2025, 5, 27, 18, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM meeting WHERE external_id").
		WithArgs("guid-1").
		WillReturnRows(meetingRows().AddRow(
			int64(42), int64(7), "guid-1", "City Council", strPtr("council"),
			&start, (*time.Time)(nil), strPtr("Council Chambers"),
			domain.MeetingStatusScheduled, strPtr("https://example.com/a"), (*string)(nil)))

	meeting, err := repo.GetByExternalID(context.Background(), "guid-1")
	require.NoError(t, err)

	assert.Equal(t, int64(42), meeting.ID)
	assert.Equal(t, "council", meeting.Type)
	assert.Equal(t, domain.MeetingStatusScheduled, meeting.Status)
	require.NotNil(t, meeting.StartDatetime)
	assert.True(t, meeting.StartDatetime.Equal(start))
	assert.Nil(t, meeting.EndDatetime)
	assert.Empty(t, meeting.LivestreamURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingGetByExternalIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MeetingRepository{db: mock}

	mock.ExpectQuery("SELECT (.+) FROM meeting WHERE external_id").
		WithArgs("missing").
		WillReturnRows(meetingRows())

	_, err = repo.GetByExternalID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrMeetingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingCreateAssignsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MeetingRepository{db: mock}

	start := time.Date(2025, 5, 27, 18, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO meeting").
		WithArgs(int64(7), "guid-1", "City Council", strPtr("council"),
			&start, (*time.Time)(nil), strPtr("Council Chambers"),
			domain.MeetingStatusScheduled, strPtr("https://example.com/a"), (*string)(nil)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	meeting := &domain.Meeting{
		MunicipalityID: 7,
		ExternalID:     "guid-1",
		Title:          "City Council",
		Type:           "council",
		StartDatetime:  &start,
		Location:       "Council Chambers",
		Status:         domain.MeetingStatusScheduled,
		AgendaURL:      "https://example.com/a",
	}
	require.NoError(t, repo.Create(context.Background(), meeting))

	assert.Equal(t, int64(42), meeting.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingUpdateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MeetingRepository{db: mock}

	mock.ExpectExec("UPDATE meeting").
		WithArgs("City Council", strPtr("council"), (*time.Time)(nil), (*time.Time)(nil),
			(*string)(nil), domain.MeetingStatusScheduled, (*string)(nil), (*string)(nil), int64(999)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	meeting := &domain.Meeting{
		ID:     999,
		Title:  "City Council",
		Type:   "council",
		Status: domain.MeetingStatusScheduled,
	}
	err = repo.Update(context.Background(), meeting)
	assert.ErrorIs(t, err, domain.ErrMeetingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMeetingListRecentDefaultsLimit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MeetingRepository{db: mock}

	start := time.Date(2025, 5, 20, 18, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM meeting").
		WithArgs(int64(7), 5).
		WillReturnRows(meetingRows().AddRow(
			int64(1), int64(7), "guid-1", "City Council", strPtr("council"),
			&start, (*time.Time)(nil), (*string)(nil),
			domain.MeetingStatusCompleted, (*string)(nil), (*string)(nil)))

	meetings, err := repo.ListRecent(context.Background(), 7, 0)
	require.NoError(t, err)

	require.Len(t, meetings, 1)
	assert.Equal(t, int64(1), meetings[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

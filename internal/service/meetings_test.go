package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/greg-hahn/cog-council-meetings/internal/domain"
)

// MockMeetingReader is a mock implementation of MeetingReaderInterface
type MockMeetingReader struct {
	mock.Mock
}

func (m *MockMeetingReader) ListForDay(ctx context.Context, municipalityID int64, dayStart, dayEnd time.Time) ([]*domain.Meeting, error) {
	args := m.Called(ctx, municipalityID, dayStart, dayEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Meeting), args.Error(1)
}

func (m *MockMeetingReader) ListRecent(ctx context.Context, municipalityID int64, limit int) ([]*domain.Meeting, error) {
	args := m.Called(ctx, municipalityID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Meeting), args.Error(1)
}

// MockAgendaItemReader is a mock implementation of AgendaItemReaderInterface
type MockAgendaItemReader struct {
	mock.Mock
}

func (m *MockAgendaItemReader) ListByMeeting(ctx context.Context, meetingID int64) ([]*domain.AgendaItem, error) {
	args := m.Called(ctx, meetingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AgendaItem), args.Error(1)
}

func (m *MockAgendaItemReader) GetDetail(ctx context.Context, municipalityID, itemID int64) (*ItemWithMeeting, error) {
	args := m.Called(ctx, municipalityID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ItemWithMeeting), args.Error(1)
}

func (m *MockAgendaItemReader) Search(ctx context.Context, municipalityID int64, query, tag string, limit int) ([]*ItemWithMeeting, error) {
	args := m.Called(ctx, municipalityID, query, tag, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ItemWithMeeting), args.Error(1)
}

// MockTagReader is a mock implementation of TagReaderInterface
type MockTagReader struct {
	mock.Mock
}

func (m *MockTagReader) CountsByMunicipality(ctx context.Context, municipalityID int64) ([]*domain.TagCount, error) {
	args := m.Called(ctx, municipalityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.TagCount), args.Error(1)
}

var torontoTZ = func() *time.Location {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		panic(err)
	}
	return loc
}()

func newReadService(muniRepo *MockMunicipalityRepository, meetings *MockMeetingReader, items *MockAgendaItemReader, tags *MockTagReader, now time.Time) *MeetingService {
	return NewMeetingServiceWithClock(muniRepo, meetings, items, tags, func() time.Time { return now })
}

func dayMeeting(id int64, meetingType string, start time.Time, status domain.MeetingStatus) *domain.Meeting {
	return &domain.Meeting{
		ID:             id,
		MunicipalityID: 7,
		ExternalID:     "ext",
		Title:          "Meeting",
		Type:           meetingType,
		StartDatetime:  &start,
		Status:         status,
	}
}

func TestTodayFiltersByTypeAndPast(t *testing.T) {
	now := time.Date(2025, 5, 27, 17, 0, 0, 0, torontoTZ)

	muniRepo := new(MockMunicipalityRepository)
	meetings := new(MockMeetingReader)
	items := new(MockAgendaItemReader)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)

	past := dayMeeting(1, "council", now.Add(-2*time.Hour), domain.MeetingStatusCompleted)
	upcoming := dayMeeting(2, "council", now.Add(time.Hour), domain.MeetingStatusScheduled)
	committee := dayMeeting(3, "committee", now.Add(2*time.Hour), domain.MeetingStatusScheduled)

	meetings.On("ListForDay", mock.Anything, int64(7), mock.Anything, mock.Anything).
		Return([]*domain.Meeting{past, upcoming, committee}, nil)
	items.On("ListByMeeting", mock.Anything, int64(2)).Return([]*domain.AgendaItem{}, nil)

	svc := newReadService(muniRepo, meetings, items, new(MockTagReader), now)

	result, _, err := svc.Today(context.Background(), "guelph", "council", false)
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.Equal(t, int64(2), result[0].Meeting.ID)
}

func TestTodayIncludePast(t *testing.T) {
	now := time.Date(2025, 5, 27, 17, 0, 0, 0, torontoTZ)

	muniRepo := new(MockMunicipalityRepository)
	meetings := new(MockMeetingReader)
	items := new(MockAgendaItemReader)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)

	past := dayMeeting(1, "council", now.Add(-2*time.Hour), domain.MeetingStatusCompleted)
	upcoming := dayMeeting(2, "council", now.Add(time.Hour), domain.MeetingStatusScheduled)

	meetings.On("ListForDay", mock.Anything, int64(7), mock.Anything, mock.Anything).
		Return([]*domain.Meeting{past, upcoming}, nil)
	items.On("ListByMeeting", mock.Anything, mock.Anything).Return([]*domain.AgendaItem{}, nil)

	svc := newReadService(muniRepo, meetings, items, new(MockTagReader), now)

	result, _, err := svc.Today(context.Background(), "guelph", "", true)
	require.NoError(t, err)

	assert.Len(t, result, 2)
}

func TestNowNextPrefersInProgressMeeting(t *testing.T) {
	now := time.Date(2025, 5, 27, 18, 30, 0, 0, torontoTZ)

	muniRepo := new(MockMunicipalityRepository)
	meetings := new(MockMeetingReader)
	items := new(MockAgendaItemReader)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)

	earlier := dayMeeting(1, "committee", now.Add(-4*time.Hour), domain.MeetingStatusCompleted)
	live := dayMeeting(2, "council", now.Add(-30*time.Minute), domain.MeetingStatusInProgress)

	meetings.On("ListForDay", mock.Anything, int64(7), mock.Anything, mock.Anything).
		Return([]*domain.Meeting{earlier, live}, nil)

	offset0, offset45 := 0, 45
	items.On("ListByMeeting", mock.Anything, int64(2)).Return([]*domain.AgendaItem{
		{ID: 10, ItemNumber: "1", EstimatedStartOffsetMinutes: &offset0},
		{ID: 11, ItemNumber: "2", EstimatedStartOffsetMinutes: &offset45},
	}, nil)

	svc := newReadService(muniRepo, meetings, items, new(MockTagReader), now)

	out, err := svc.NowNext(context.Background(), "guelph")
	require.NoError(t, err)

	require.NotNil(t, out.Meeting)
	assert.Equal(t, int64(2), out.Meeting.ID)
	require.NotNil(t, out.Current)
	assert.Equal(t, int64(10), out.Current.ID)
	require.NotNil(t, out.Next)
	assert.Equal(t, int64(11), out.Next.ID)
}

func TestNowNextNoMeetingsToday(t *testing.T) {
	now := time.Date(2025, 5, 27, 18, 30, 0, 0, torontoTZ)

	muniRepo := new(MockMunicipalityRepository)
	meetings := new(MockMeetingReader)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)
	meetings.On("ListForDay", mock.Anything, int64(7), mock.Anything, mock.Anything).
		Return([]*domain.Meeting{}, nil)

	svc := newReadService(muniRepo, meetings, new(MockAgendaItemReader), new(MockTagReader), now)

	out, err := svc.NowNext(context.Background(), "guelph")
	require.NoError(t, err)

	assert.Nil(t, out.Meeting)
	assert.Nil(t, out.Current)
	assert.Nil(t, out.Next)
	assert.False(t, out.LastUpdate.IsZero())
}

func TestSearchRequiresQueryOrTag(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	items := new(MockAgendaItemReader)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)

	svc := newReadService(muniRepo, new(MockMeetingReader), items, new(MockTagReader), time.Now())

	result, err := svc.Search(context.Background(), "guelph", "", "", 10)
	require.NoError(t, err)

	assert.Empty(t, result)
	items.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchAppliesDefaultLimit(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	items := new(MockAgendaItemReader)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)
	items.On("Search", mock.Anything, int64(7), "parking", "", 20).
		Return([]*ItemWithMeeting{}, nil)

	svc := newReadService(muniRepo, new(MockMeetingReader), items, new(MockTagReader), time.Now())

	_, err := svc.Search(context.Background(), "guelph", "parking", "", 0)
	require.NoError(t, err)
	items.AssertExpectations(t)
}

func TestRecentDefaultsLimit(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	meetings := new(MockMeetingReader)
	items := new(MockAgendaItemReader)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)

	start := time.Date(2025, 5, 20, 18, 0, 0, 0, torontoTZ)
	meetings.On("ListRecent", mock.Anything, int64(7), 5).
		Return([]*domain.Meeting{dayMeeting(1, "council", start, domain.MeetingStatusCompleted)}, nil)
	items.On("ListByMeeting", mock.Anything, int64(1)).Return([]*domain.AgendaItem{}, nil)

	svc := newReadService(muniRepo, meetings, items, new(MockTagReader), time.Now())

	result, err := svc.Recent(context.Background(), "guelph", 0)
	require.NoError(t, err)

	assert.Len(t, result, 1)
	meetings.AssertExpectations(t)
}

func TestTagCounts(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	tags := new(MockTagReader)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)
	tags.On("CountsByMunicipality", mock.Anything, int64(7)).
		Return([]*domain.TagCount{{Name: "budget", Count: 4}, {Name: "zoning", Count: 2}}, nil)

	svc := newReadService(muniRepo, new(MockMeetingReader), new(MockAgendaItemReader), tags, time.Now())

	counts, err := svc.TagCounts(context.Background(), "guelph")
	require.NoError(t, err)

	require.Len(t, counts, 2)
	assert.Equal(t, "budget", counts[0].Name)
	assert.Equal(t, int64(4), counts[0].Count)
}

func TestItemDetailUnknownMunicipality(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	muniRepo.On("GetBySlug", mock.Anything, "atlantis").Return(nil, domain.ErrMunicipalityNotFound)

	svc := newReadService(muniRepo, new(MockMeetingReader), new(MockAgendaItemReader), new(MockTagReader), time.Now())

	_, err := svc.ItemDetail(context.Background(), "atlantis", 1)
	assert.ErrorIs(t, err, domain.ErrMunicipalityNotFound)
}

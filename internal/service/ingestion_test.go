package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/greg-hahn/cog-council-meetings/internal/agenda"
	"github.com/greg-hahn/cog-council-meetings/internal/classify"
	"github.com/greg-hahn/cog-council-meetings/internal/domain"
)

// MockMunicipalityRepository is a mock implementation of MunicipalityRepositoryInterface
type MockMunicipalityRepository struct {
	mock.Mock
}

func (m *MockMunicipalityRepository) GetBySlug(ctx context.Context, slug string) (*domain.Municipality, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Municipality), args.Error(1)
}

func (m *MockMunicipalityRepository) Create(ctx context.Context, muni *domain.Municipality) error {
	args := m.Called(ctx, muni)
	return args.Error(0)
}

// MockMeetingRepository is a mock implementation of MeetingRepositoryInterface
type MockMeetingRepository struct {
	mock.Mock
}

func (m *MockMeetingRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Meeting, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meeting), args.Error(1)
}

func (m *MockMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	args := m.Called(ctx, meeting)
	meeting.ID = 42
	return args.Error(0)
}

func (m *MockMeetingRepository) Update(ctx context.Context, meeting *domain.Meeting) error {
	args := m.Called(ctx, meeting)
	return args.Error(0)
}

// MockAgendaItemRepository is a mock implementation of AgendaItemRepositoryInterface
type MockAgendaItemRepository struct {
	mock.Mock
}

func (m *MockAgendaItemRepository) GetByMeetingAndNumber(ctx context.Context, meetingID int64, itemNumber string) (*domain.AgendaItem, error) {
	args := m.Called(ctx, meetingID, itemNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AgendaItem), args.Error(1)
}

func (m *MockAgendaItemRepository) Create(ctx context.Context, item *domain.AgendaItem) error {
	args := m.Called(ctx, item)
	item.ID = int64(len(m.Calls))
	return args.Error(0)
}

func (m *MockAgendaItemRepository) Update(ctx context.Context, item *domain.AgendaItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockAgendaItemRepository) ReplaceTags(ctx context.Context, itemID int64, tagIDs []int64) error {
	args := m.Called(ctx, itemID, tagIDs)
	return args.Error(0)
}

// MockTagRepository is a mock implementation of TagRepositoryInterface
type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) GetOrCreate(ctx context.Context, name string) (*domain.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tag), args.Error(1)
}

// MockFetcher is a mock implementation of fetch.Fetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// fakeTxRunner runs the transaction function directly over the given repos.
type fakeTxRunner struct {
	meetings MeetingRepositoryInterface
	items    AgendaItemRepositoryInterface
	tags     TagRepositoryInterface
	err      error
}

func (r *fakeTxRunner) Meetings() MeetingRepositoryInterface    { return r.meetings }
func (r *fakeTxRunner) AgendaItems() AgendaItemRepositoryInterface { return r.items }
func (r *fakeTxRunner) Tags() TagRepositoryInterface            { return r.tags }

func (r *fakeTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	if r.err != nil {
		return r.err
	}
	return fn(r)
}

// staticClassifier returns a fixed result for every item.
type staticClassifier struct {
	result classify.Result
}

func (c *staticClassifier) Classify(ctx context.Context, title, bodyText string) (classify.Result, error) {
	return c.result, nil
}

const ingestFixtureHTML = `
<html><body>
	<h1 class="AgendaHeaderTitle">City Council Meeting Agenda</h1>
	<span class="AgendaMeetingTimeStart"><time datetime="2025-05-27 18:00">6:00 PM</time></span>
	<div class="AgendaItemContainer">
		<div class="AgendaItemCounter">1.</div>
		<div class="AgendaItemTitle"><a href="#">Call to Order</a></div>
	</div>
	<div class="AgendaItemContainer">
		<div class="AgendaItemCounter">6.1.</div>
		<div class="AgendaItemTitle"><a href="#">Downtown Parking Strategy</a></div>
		<div class="AgendaItemDescription">Staff report on the downtown parking strategy and budget impact.</div>
	</div>
</body></html>`

const sourceURL = "https://pub-guelph.escribemeetings.com/Meeting.aspx?Id=guid-1"

func newTestIngestion(muniRepo *MockMunicipalityRepository, fetcher *MockFetcher, tx TxRunner) *IngestionService {
	tables := agenda.DefaultTables()
	return NewIngestionService(
		muniRepo,
		fetcher,
		agenda.NewParser(tables, nil),
		&staticClassifier{result: classify.Result{Summary: "summary", Tags: []string{"budget"}}},
		tables,
		tx,
		"https://guelph.ca/news/live/",
		nil,
	)
}

func guelph() *domain.Municipality {
	return &domain.Municipality{ID: 7, Name: "City of Guelph", Slug: "guelph", Timezone: "America/Toronto"}
}

func TestIngestMeetingCreatesMeetingAndItems(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	meetingRepo := new(MockMeetingRepository)
	itemRepo := new(MockAgendaItemRepository)
	tagRepo := new(MockTagRepository)
	fetcher := new(MockFetcher)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)
	fetcher.On("Fetch", mock.Anything, sourceURL).Return([]byte(ingestFixtureHTML), nil)

	meetingRepo.On("GetByExternalID", mock.Anything, "guid-1").Return(nil, domain.ErrMeetingNotFound)
	meetingRepo.On("Create", mock.Anything, mock.MatchedBy(func(m *domain.Meeting) bool {
		return m.ExternalID == "guid-1" &&
			m.Title == "City Council" &&
			m.Type == "council" &&
			m.MunicipalityID == 7 &&
			m.Status == domain.MeetingStatusScheduled &&
			m.AgendaURL == sourceURL &&
			m.LivestreamURL == "https://guelph.ca/news/live/"
	})).Return(nil)

	itemRepo.On("GetByMeetingAndNumber", mock.Anything, int64(42), "1").Return(nil, domain.ErrAgendaItemNotFound)
	itemRepo.On("GetByMeetingAndNumber", mock.Anything, int64(42), "6.1").Return(nil, domain.ErrAgendaItemNotFound)

	// First item at minute 0; "opening" advances the counter by 5.
	itemRepo.On("Create", mock.Anything, mock.MatchedBy(func(item *domain.AgendaItem) bool {
		return item.ItemNumber == "1" && item.Section == "opening" &&
			item.EstimatedStartOffsetMinutes != nil && *item.EstimatedStartOffsetMinutes == 0
	})).Return(nil)
	itemRepo.On("Create", mock.Anything, mock.MatchedBy(func(item *domain.AgendaItem) bool {
		return item.ItemNumber == "6.1" && item.Section == "consent" &&
			item.EstimatedStartOffsetMinutes != nil && *item.EstimatedStartOffsetMinutes == 5
	})).Return(nil)

	tagRepo.On("GetOrCreate", mock.Anything, "budget").Return(&domain.Tag{ID: 3, Name: "budget"}, nil)
	itemRepo.On("ReplaceTags", mock.Anything, mock.Anything, []int64{3}).Return(nil)

	tx := &fakeTxRunner{meetings: meetingRepo, items: itemRepo, tags: tagRepo}
	svc := newTestIngestion(muniRepo, fetcher, tx)

	result, err := svc.IngestMeeting(context.Background(), sourceURL, "guelph")
	require.NoError(t, err)

	assert.Equal(t, int64(42), result.Meeting.ID)
	assert.Equal(t, 2, result.ItemCount)
	meetingRepo.AssertExpectations(t)
	itemRepo.AssertExpectations(t)
	tagRepo.AssertExpectations(t)
}

func TestIngestMeetingUpdatesExistingMeeting(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	meetingRepo := new(MockMeetingRepository)
	itemRepo := new(MockAgendaItemRepository)
	tagRepo := new(MockTagRepository)
	fetcher := new(MockFetcher)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)
	fetcher.On("Fetch", mock.Anything, sourceURL).Return([]byte(ingestFixtureHTML), nil)

	existing := &domain.Meeting{
		ID:             42,
		MunicipalityID: 7,
		ExternalID:     "guid-1",
		Title:          "Old Title",
		Status:         domain.MeetingStatusScheduled,
	}
	meetingRepo.On("GetByExternalID", mock.Anything, "guid-1").Return(existing, nil)
	meetingRepo.On("Update", mock.Anything, mock.MatchedBy(func(m *domain.Meeting) bool {
		return m.ID == 42 && m.Title == "City Council"
	})).Return(nil)

	existingItem := &domain.AgendaItem{
		ID:         9,
		MeetingID:  42,
		ItemNumber: "1",
		Title:      "Old Item Title",
		Status:     domain.AgendaItemStatusPending,
	}
	itemRepo.On("GetByMeetingAndNumber", mock.Anything, int64(42), "1").Return(existingItem, nil)
	itemRepo.On("GetByMeetingAndNumber", mock.Anything, int64(42), "6.1").Return(nil, domain.ErrAgendaItemNotFound)
	itemRepo.On("Update", mock.Anything, mock.MatchedBy(func(item *domain.AgendaItem) bool {
		return item.ID == 9 && item.Title == "Call to Order"
	})).Return(nil)
	itemRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	tagRepo.On("GetOrCreate", mock.Anything, "budget").Return(&domain.Tag{ID: 3, Name: "budget"}, nil)
	itemRepo.On("ReplaceTags", mock.Anything, mock.Anything, []int64{3}).Return(nil)

	tx := &fakeTxRunner{meetings: meetingRepo, items: itemRepo, tags: tagRepo}
	svc := newTestIngestion(muniRepo, fetcher, tx)

	result, err := svc.IngestMeeting(context.Background(), sourceURL, "guelph")
	require.NoError(t, err)

	assert.Equal(t, 2, result.ItemCount)
	meetingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	meetingRepo.AssertExpectations(t)
	itemRepo.AssertExpectations(t)
}

func TestIngestMeetingUnknownMunicipality(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	muniRepo.On("GetBySlug", mock.Anything, "atlantis").Return(nil, domain.ErrMunicipalityNotFound)

	svc := newTestIngestion(muniRepo, new(MockFetcher), &fakeTxRunner{})

	_, err := svc.IngestMeeting(context.Background(), sourceURL, "atlantis")
	assert.ErrorIs(t, err, domain.ErrMunicipalityNotFound)
}

func TestIngestMeetingMissingExternalID(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)

	svc := newTestIngestion(muniRepo, new(MockFetcher), &fakeTxRunner{})

	_, err := svc.IngestMeeting(context.Background(), "https://pub-guelph.escribemeetings.com/Meeting.aspx", "guelph")
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestIngestMeetingFetchFailure(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	fetcher := new(MockFetcher)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)
	fetcher.On("Fetch", mock.Anything, sourceURL).Return(nil, errors.New("connection reset"))

	svc := newTestIngestion(muniRepo, fetcher, &fakeTxRunner{})

	_, err := svc.IngestMeeting(context.Background(), sourceURL, "guelph")
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeTransport, domainErr.Code)
}

func TestIngestMeetingTransactionFailureSurfaces(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	fetcher := new(MockFetcher)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)
	fetcher.On("Fetch", mock.Anything, sourceURL).Return([]byte(ingestFixtureHTML), nil)

	txErr := errors.New("serialization failure")
	svc := newTestIngestion(muniRepo, fetcher, &fakeTxRunner{err: txErr})

	_, err := svc.IngestMeeting(context.Background(), sourceURL, "guelph")
	assert.ErrorIs(t, err, txErr)
}

func TestIngestMeetingTreatsWrappedNotFoundAsMissing(t *testing.T) {
	muniRepo := new(MockMunicipalityRepository)
	meetingRepo := new(MockMeetingRepository)
	itemRepo := new(MockAgendaItemRepository)
	tagRepo := new(MockTagRepository)
	fetcher := new(MockFetcher)

	muniRepo.On("GetBySlug", mock.Anything, "guelph").Return(guelph(), nil)
	fetcher.On("Fetch", mock.Anything, sourceURL).Return([]byte(ingestFixtureHTML), nil)

	// Repositories may wrap the not-found sentinels; the upserts must still
	// take the create path.
	meetingRepo.On("GetByExternalID", mock.Anything, "guid-1").
		Return(nil, fmt.Errorf("lookup meeting: %w", domain.ErrMeetingNotFound))
	meetingRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	itemRepo.On("GetByMeetingAndNumber", mock.Anything, int64(42), mock.Anything).
		Return(nil, fmt.Errorf("lookup item: %w", domain.ErrAgendaItemNotFound))
	itemRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	itemRepo.On("ReplaceTags", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	tagRepo.On("GetOrCreate", mock.Anything, mock.Anything).Return(&domain.Tag{ID: 3, Name: "budget"}, nil)

	tx := &fakeTxRunner{meetings: meetingRepo, items: itemRepo, tags: tagRepo}
	svc := newTestIngestion(muniRepo, fetcher, tx)

	result, err := svc.IngestMeeting(context.Background(), sourceURL, "guelph")
	require.NoError(t, err)

	assert.Equal(t, 2, result.ItemCount)
	meetingRepo.AssertExpectations(t)
	itemRepo.AssertExpectations(t)
}

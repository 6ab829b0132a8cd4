package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/greg-hahn/cog-council-meetings/internal/agenda"
	"github.com/greg-hahn/cog-council-meetings/internal/classify"
	"github.com/greg-hahn/cog-council-meetings/internal/domain"
	"github.com/greg-hahn/cog-council-meetings/internal/fetch"
	"github.com/greg-hahn/cog-council-meetings/internal/metrics"
	"github.com/greg-hahn/cog-council-meetings/internal/telemetry"
)

// MunicipalityRepositoryInterface defines the repository interface for municipality lookups
type MunicipalityRepositoryInterface interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Municipality, error)
	Create(ctx context.Context, m *domain.Municipality) error
}

// MeetingRepositoryInterface defines the repository interface for meeting persistence
type MeetingRepositoryInterface interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.Meeting, error)
	Create(ctx context.Context, m *domain.Meeting) error
	Update(ctx context.Context, m *domain.Meeting) error
}

// AgendaItemRepositoryInterface defines the repository interface for agenda item persistence
type AgendaItemRepositoryInterface interface {
	GetByMeetingAndNumber(ctx context.Context, meetingID int64, itemNumber string) (*domain.AgendaItem, error)
	Create(ctx context.Context, item *domain.AgendaItem) error
	Update(ctx context.Context, item *domain.AgendaItem) error
	ReplaceTags(ctx context.Context, itemID int64, tagIDs []int64) error
}

// TagRepositoryInterface defines the repository interface for tag persistence
type TagRepositoryInterface interface {
	GetOrCreate(ctx context.Context, name string) (*domain.Tag, error)
}

// IngestResult is the outcome of one successful ingestion run.
type IngestResult struct {
	Meeting   *domain.Meeting
	ItemCount int
}

// IngestionService reconciles a scraped agenda document against persisted
// state: fetch, parse, classify, then a single transactional upsert of the
// meeting and its items keyed by external ID and (meeting, item number).
type IngestionService struct {
	municipalityRepo MunicipalityRepositoryInterface
	fetcher          fetch.Fetcher
	parser           *agenda.Parser
	classifier       classify.Classifier
	tables           agenda.Tables
	tx               TxRunner
	livestreamURL    string
	logger           *zap.Logger

	// One writer per meeting: concurrent ingestion of the same external ID
	// would race the read-then-write upserts. Different meetings may ingest
	// concurrently.
	meetingLocks sync.Map
}

// NewIngestionService creates an IngestionService.
func NewIngestionService(
	municipalityRepo MunicipalityRepositoryInterface,
	fetcher fetch.Fetcher,
	parser *agenda.Parser,
	classifier classify.Classifier,
	tables agenda.Tables,
	tx TxRunner,
	livestreamURL string,
	logger *zap.Logger,
) *IngestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionService{
		municipalityRepo: municipalityRepo,
		fetcher:          fetcher,
		parser:           parser,
		classifier:       classifier,
		tables:           tables,
		tx:               tx,
		livestreamURL:    livestreamURL,
		logger:           logger,
	}
}

// classifiedItem is a parsed item with its classification and schedule
// estimate, ready to be written.
type classifiedItem struct {
	raw     agenda.RawItem
	summary string
	tags    []string
	offset  int
}

// IngestMeeting fetches and parses a source agenda URL and upserts the
// meeting and its items for the given municipality. All writes happen inside
// one transaction; a failure anywhere leaves no partial meeting visible.
func (s *IngestionService) IngestMeeting(ctx context.Context, sourceURL, municipalitySlug string) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.IngestMeeting", telemetry.SpanAttributes{
		Municipality: municipalitySlug,
		Operation:    "ingest",
	})
	defer span.End()

	muni, err := s.municipalityRepo.GetBySlug(ctx, municipalitySlug)
	if err != nil {
		metrics.ObserveIngest(municipalitySlug, "error", 0)
		return nil, err
	}

	externalID, err := agenda.ExternalIDFromURL(sourceURL)
	if err != nil {
		metrics.ObserveIngest(municipalitySlug, "error", 0)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "source URL has no meeting Id parameter", err)
	}

	unlock := s.lockMeeting(externalID)
	defer unlock()

	s.logger.Info("fetching agenda",
		zap.String("url", sourceURL),
		zap.String("municipality", municipalitySlug))

	html, err := s.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		metrics.ObserveIngest(municipalitySlug, "error", 0)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeTransport, "failed to fetch agenda", err)
	}

	header, rawItems, err := s.parser.Parse(string(html), muni.Timezone)
	if err != nil {
		metrics.ObserveIngest(municipalitySlug, "error", 0)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "failed to parse agenda", err)
	}

	s.logger.Info("parsed agenda",
		zap.String("title", header.Title),
		zap.Int("items", len(rawItems)))

	// Classification makes slow network calls, so it runs before the
	// transaction opens. A failed primary strategy degrades the item, never
	// the run.
	classified := s.classifyItems(ctx, rawItems)

	var meeting *domain.Meeting
	err = s.tx.WithTx(ctx, func(repos TxRepositories) error {
		var txErr error
		meeting, txErr = s.upsertMeeting(ctx, repos.Meetings(), muni, externalID, sourceURL, header)
		if txErr != nil {
			return txErr
		}
		return s.upsertItems(ctx, repos, meeting.ID, classified)
	})
	if err != nil {
		metrics.ObserveIngest(municipalitySlug, "error", 0)
		return nil, err
	}

	metrics.ObserveIngest(municipalitySlug, "ok", len(classified))
	s.logger.Info("ingested meeting",
		zap.String("title", meeting.Title),
		zap.Int64("meeting_id", meeting.ID),
		zap.Int("items", len(classified)))

	return &IngestResult{Meeting: meeting, ItemCount: len(classified)}, nil
}

func (s *IngestionService) lockMeeting(externalID string) func() {
	mu, _ := s.meetingLocks.LoadOrStore(externalID, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}

// classifyItems classifies each item and assigns estimated start offsets: a
// running counter that starts at 0 and grows by the section's increment
// after each item, so the first item is always at minute 0 and re-ingesting
// the same document reproduces the same offsets.
func (s *IngestionService) classifyItems(ctx context.Context, rawItems []agenda.RawItem) []classifiedItem {
	classified := make([]classifiedItem, 0, len(rawItems))
	offset := 0

	for _, raw := range rawItems {
		result, err := s.classifier.Classify(ctx, raw.Title, raw.RawText)
		if err != nil {
			// The composed classifier does not fail, but the interface
			// allows it; degrade to an untagged item rather than abort.
			s.logger.Warn("classification failed", zap.String("item", raw.ItemNumber), zap.Error(err))
			result = classify.Result{Tags: []string{classify.GeneralTag}}
		}

		classified = append(classified, classifiedItem{
			raw:     raw,
			summary: result.Summary,
			tags:    result.Tags,
			offset:  offset,
		})
		offset += s.tables.OffsetIncrement(raw.Section)
	}

	return classified
}

func (s *IngestionService) upsertMeeting(
	ctx context.Context,
	meetings MeetingRepositoryInterface,
	muni *domain.Municipality,
	externalID, sourceURL string,
	header agenda.Header,
) (*domain.Meeting, error) {
	meetingType := s.tables.MeetingType(header.Title)

	meeting, err := meetings.GetByExternalID(ctx, externalID)
	if err != nil && !errors.Is(err, domain.ErrMeetingNotFound) {
		return nil, err
	}

	if meeting != nil {
		meeting.Title = header.Title
		meeting.Type = meetingType
		meeting.StartDatetime = header.StartDatetime
		meeting.EndDatetime = header.EndDatetime
		meeting.Location = header.Location
		meeting.AgendaURL = sourceURL
		meeting.LivestreamURL = s.livestreamURL
		if err := meetings.Update(ctx, meeting); err != nil {
			return nil, err
		}
		return meeting, nil
	}

	meeting = &domain.Meeting{
		MunicipalityID: muni.ID,
		ExternalID:     externalID,
		Title:          header.Title,
		Type:           meetingType,
		StartDatetime:  header.StartDatetime,
		EndDatetime:    header.EndDatetime,
		Location:       header.Location,
		Status:         domain.MeetingStatusScheduled,
		AgendaURL:      sourceURL,
		LivestreamURL:  s.livestreamURL,
	}
	if err := domain.ValidateMeeting(meeting); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid meeting", err)
	}
	if err := meetings.Create(ctx, meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

func (s *IngestionService) upsertItems(ctx context.Context, repos TxRepositories, meetingID int64, classified []classifiedItem) error {
	items := repos.AgendaItems()
	tags := repos.Tags()

	for _, ci := range classified {
		offset := ci.offset

		item, err := items.GetByMeetingAndNumber(ctx, meetingID, ci.raw.ItemNumber)
		if err != nil && !errors.Is(err, domain.ErrAgendaItemNotFound) {
			return err
		}

		if item != nil {
			item.Title = ci.raw.Title
			item.RawText = ci.raw.RawText
			item.SummaryText = ci.summary
			item.Section = ci.raw.Section
			item.EstimatedStartOffsetMinutes = &offset
			if err := items.Update(ctx, item); err != nil {
				return err
			}
		} else {
			item = &domain.AgendaItem{
				MeetingID:                   meetingID,
				ItemNumber:                  ci.raw.ItemNumber,
				Title:                       ci.raw.Title,
				RawText:                     ci.raw.RawText,
				SummaryText:                 ci.summary,
				Section:                     ci.raw.Section,
				EstimatedStartOffsetMinutes: &offset,
				Status:                      domain.AgendaItemStatusPending,
			}
			if err := items.Create(ctx, item); err != nil {
				return err
			}
		}

		// Tag associations are authoritative per run: clear and re-add.
		tagIDs := make([]int64, 0, len(ci.tags))
		for _, name := range ci.tags {
			tag, err := tags.GetOrCreate(ctx, name)
			if err != nil {
				return err
			}
			tagIDs = append(tagIDs, tag.ID)
		}
		if err := items.ReplaceTags(ctx, item.ID, tagIDs); err != nil {
			return err
		}
	}

	return nil
}

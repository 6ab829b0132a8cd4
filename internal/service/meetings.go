package service

import (
	"context"
	"time"

	"github.com/greg-hahn/cog-council-meetings/internal/domain"
)

// MeetingReaderInterface defines the read-side repository for meetings
type MeetingReaderInterface interface {
	ListForDay(ctx context.Context, municipalityID int64, dayStart, dayEnd time.Time) ([]*domain.Meeting, error)
	ListRecent(ctx context.Context, municipalityID int64, limit int) ([]*domain.Meeting, error)
}

// AgendaItemReaderInterface defines the read-side repository for agenda items
type AgendaItemReaderInterface interface {
	ListByMeeting(ctx context.Context, meetingID int64) ([]*domain.AgendaItem, error)
	GetDetail(ctx context.Context, municipalityID, itemID int64) (*ItemWithMeeting, error)
	Search(ctx context.Context, municipalityID int64, query, tag string, limit int) ([]*ItemWithMeeting, error)
}

// TagReaderInterface defines the read-side repository for tag counts
type TagReaderInterface interface {
	CountsByMunicipality(ctx context.Context, municipalityID int64) ([]*domain.TagCount, error)
}

// MeetingWithItems pairs a meeting with its ordered agenda items.
type MeetingWithItems struct {
	Meeting *domain.Meeting
	Items   []*domain.AgendaItem
}

// ItemWithMeeting is an agenda item joined with its meeting's identity, used
// by item detail and search results.
type ItemWithMeeting struct {
	Item         *domain.AgendaItem
	MeetingID    int64
	MeetingTitle string
	MeetingStart *time.Time
}

// NowNextOutput is the live estimate for a municipality.
type NowNextOutput struct {
	Meeting    *domain.Meeting
	Current    *domain.AgendaItem
	Next       *domain.AgendaItem
	LastUpdate time.Time
}

// MeetingService serves the read API: today's schedule, the now/next
// estimate, recent meetings, item search and tag counts.
type MeetingService struct {
	municipalityRepo MunicipalityRepositoryInterface
	meetings         MeetingReaderInterface
	items            AgendaItemReaderInterface
	tags             TagReaderInterface
	nowFn            func() time.Time
}

// NewMeetingService creates a MeetingService.
func NewMeetingService(
	municipalityRepo MunicipalityRepositoryInterface,
	meetings MeetingReaderInterface,
	items AgendaItemReaderInterface,
	tags TagReaderInterface,
) *MeetingService {
	return &MeetingService{
		municipalityRepo: municipalityRepo,
		meetings:         meetings,
		items:            items,
		tags:             tags,
		nowFn:            time.Now,
	}
}

// NewMeetingServiceWithClock creates a MeetingService with a fixed clock (for
// testing).
func NewMeetingServiceWithClock(
	municipalityRepo MunicipalityRepositoryInterface,
	meetings MeetingReaderInterface,
	items AgendaItemReaderInterface,
	tags TagReaderInterface,
	nowFn func() time.Time,
) *MeetingService {
	svc := NewMeetingService(municipalityRepo, meetings, items, tags)
	svc.nowFn = nowFn
	return svc
}

// localDay returns the municipality, its local now, and the bounds of the
// local calendar day.
func (s *MeetingService) localDay(ctx context.Context, slug string) (*domain.Municipality, time.Time, time.Time, time.Time, error) {
	muni, err := s.municipalityRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, time.Time{}, time.Time{}, time.Time{}, err
	}

	loc, err := time.LoadLocation(muni.Timezone)
	if err != nil {
		loc = time.UTC
	}

	now := s.nowFn().In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24*time.Hour - time.Nanosecond)
	return muni, now, dayStart, dayEnd, nil
}

// Today returns all of today's meetings with their items. typeFilter narrows
// by meeting type when non-empty; includePast false drops meetings that have
// already started.
func (s *MeetingService) Today(ctx context.Context, slug, typeFilter string, includePast bool) ([]*MeetingWithItems, time.Time, error) {
	muni, now, dayStart, dayEnd, err := s.localDay(ctx, slug)
	if err != nil {
		return nil, time.Time{}, err
	}

	meetings, err := s.meetings.ListForDay(ctx, muni.ID, dayStart, dayEnd)
	if err != nil {
		return nil, time.Time{}, err
	}

	result := make([]*MeetingWithItems, 0, len(meetings))
	for _, meeting := range meetings {
		if typeFilter != "" && meeting.Type != typeFilter {
			continue
		}
		if !includePast && meeting.StartDatetime != nil && meeting.StartDatetime.Before(now) {
			continue
		}
		items, err := s.items.ListByMeeting(ctx, meeting.ID)
		if err != nil {
			return nil, time.Time{}, err
		}
		result = append(result, &MeetingWithItems{Meeting: meeting, Items: items})
	}

	return result, now, nil
}

// NowNext picks today's in-progress meeting (or the next one scheduled
// today) and estimates its current and next agenda items. A day with no
// meetings yields a nil Meeting.
func (s *MeetingService) NowNext(ctx context.Context, slug string) (*NowNextOutput, error) {
	muni, now, dayStart, dayEnd, err := s.localDay(ctx, slug)
	if err != nil {
		return nil, err
	}

	meetings, err := s.meetings.ListForDay(ctx, muni.ID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	var meeting *domain.Meeting
	for _, m := range meetings {
		if m.Status == domain.MeetingStatusInProgress {
			meeting = m
			break
		}
	}
	if meeting == nil && len(meetings) > 0 {
		meeting = meetings[0]
	}
	if meeting == nil {
		return &NowNextOutput{LastUpdate: now}, nil
	}

	items, err := s.items.ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}

	current, next := EstimateNowNext(meeting, items, now)
	return &NowNextOutput{
		Meeting:    meeting,
		Current:    current,
		Next:       next,
		LastUpdate: now,
	}, nil
}

// Recent returns the most recent meetings with their items, newest first.
func (s *MeetingService) Recent(ctx context.Context, slug string, limit int) ([]*MeetingWithItems, error) {
	muni, err := s.municipalityRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 5
	}

	meetings, err := s.meetings.ListRecent(ctx, muni.ID, limit)
	if err != nil {
		return nil, err
	}

	result := make([]*MeetingWithItems, 0, len(meetings))
	for _, meeting := range meetings {
		items, err := s.items.ListByMeeting(ctx, meeting.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, &MeetingWithItems{Meeting: meeting, Items: items})
	}
	return result, nil
}

// Search finds agenda items across all of a municipality's meetings by
// keyword and/or tag. Both empty yields no results.
func (s *MeetingService) Search(ctx context.Context, slug, query, tag string, limit int) ([]*ItemWithMeeting, error) {
	muni, err := s.municipalityRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if query == "" && tag == "" {
		return []*ItemWithMeeting{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	return s.items.Search(ctx, muni.ID, query, tag, limit)
}

// TagCounts returns all tags with their agenda item counts.
func (s *MeetingService) TagCounts(ctx context.Context, slug string) ([]*domain.TagCount, error) {
	muni, err := s.municipalityRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.tags.CountsByMunicipality(ctx, muni.ID)
}

// ItemDetail returns the full detail for a single agenda item, scoped to the
// municipality.
func (s *MeetingService) ItemDetail(ctx context.Context, slug string, itemID int64) (*ItemWithMeeting, error) {
	muni, err := s.municipalityRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.items.GetDetail(ctx, muni.ID, itemID)
}

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/greg-hahn/cog-council-meetings/internal/api"
	"github.com/greg-hahn/cog-council-meetings/internal/domain"
	"github.com/greg-hahn/cog-council-meetings/internal/service"
)

type MeetingReadService interface {
	Today(ctx context.Context, slug, typeFilter string, includePast bool) ([]*service.MeetingWithItems, time.Time, error)
	NowNext(ctx context.Context, slug string) (*service.NowNextOutput, error)
	Recent(ctx context.Context, slug string, limit int) ([]*service.MeetingWithItems, error)
	Search(ctx context.Context, slug, query, tag string, limit int) ([]*service.ItemWithMeeting, error)
	TagCounts(ctx context.Context, slug string) ([]*domain.TagCount, error)
	ItemDetail(ctx context.Context, slug string, itemID int64) (*service.ItemWithMeeting, error)
}

type MeetingHandler struct {
	svc MeetingReadService
}

func NewMeetingHandler(svc MeetingReadService) *MeetingHandler {
	return &MeetingHandler{svc: svc}
}

type AgendaItemResponse struct {
	ID                 int64    `json:"id"`
	ItemNumber         string   `json:"item_number"`
	Title              string   `json:"title"`
	Summary            string   `json:"summary"`
	Section            string   `json:"section"`
	Status             string   `json:"status"`
	Tags               []string `json:"tags"`
	EstimatedStartTime *string  `json:"estimated_start_time"`
}

type AgendaItemDetailResponse struct {
	AgendaItemResponse
	RawText      string  `json:"raw_text"`
	MeetingID    int64   `json:"meeting_id"`
	MeetingTitle string  `json:"meeting_title"`
	MeetingStart *string `json:"meeting_start"`
}

type MeetingResponse struct {
	ID            int64                 `json:"id"`
	Title         string                `json:"title"`
	Type          string                `json:"type"`
	StartDatetime *string               `json:"start_datetime"`
	EndDatetime   *string               `json:"end_datetime"`
	Location      string                `json:"location"`
	Status        string                `json:"status"`
	AgendaURL     string                `json:"agenda_url"`
	LivestreamURL string                `json:"livestream_url"`
	Items         []*AgendaItemResponse `json:"items,omitempty"`
}

type NowNextResponse struct {
	Meeting     *MeetingResponse    `json:"meeting"`
	CurrentItem *AgendaItemResponse `json:"current_item"`
	NextItem    *AgendaItemResponse `json:"next_item"`
	LastUpdated string              `json:"last_updated"`
}

type TodayResponse struct {
	Date     string             `json:"date"`
	Meetings []*MeetingResponse `json:"meetings"`
}

type TagCountResponse struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type SearchResultResponse struct {
	AgendaItemDetailResponse
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// itemToResponse serializes an agenda item. The estimated start time is the
// meeting's start plus the item's offset; items of unscheduled meetings have
// no estimate.
func itemToResponse(item *domain.AgendaItem, meetingStart *time.Time) *AgendaItemResponse {
	resp := &AgendaItemResponse{
		ID:         item.ID,
		ItemNumber: item.ItemNumber,
		Title:      item.Title,
		Summary:    item.SummaryText,
		Section:    item.Section,
		Status:     string(item.Status),
		Tags:       item.Tags,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if meetingStart != nil && item.EstimatedStartOffsetMinutes != nil {
		est := meetingStart.Add(time.Duration(*item.EstimatedStartOffsetMinutes) * time.Minute)
		resp.EstimatedStartTime = formatTime(&est)
	}
	return resp
}

func meetingToResponse(m *domain.Meeting, items []*domain.AgendaItem) *MeetingResponse {
	resp := &MeetingResponse{
		ID:            m.ID,
		Title:         m.Title,
		Type:          m.Type,
		StartDatetime: formatTime(m.StartDatetime),
		EndDatetime:   formatTime(m.EndDatetime),
		Location:      m.Location,
		Status:        string(m.Status),
		AgendaURL:     m.AgendaURL,
		LivestreamURL: m.LivestreamURL,
	}
	if items != nil {
		resp.Items = make([]*AgendaItemResponse, 0, len(items))
		for _, item := range items {
			resp.Items = append(resp.Items, itemToResponse(item, m.StartDatetime))
		}
	}
	return resp
}

func itemWithMeetingToResponse(iwm *service.ItemWithMeeting) *AgendaItemDetailResponse {
	return &AgendaItemDetailResponse{
		AgendaItemResponse: *itemToResponse(iwm.Item, iwm.MeetingStart),
		RawText:            iwm.Item.RawText,
		MeetingID:          iwm.MeetingID,
		MeetingTitle:       iwm.MeetingTitle,
		MeetingStart:       formatTime(iwm.MeetingStart),
	}
}

// Today handles GET /api/{municipality}/meetings/today
func (h *MeetingHandler) Today(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "municipality")
	typeFilter := r.URL.Query().Get("type")
	includePast := r.URL.Query().Get("include_past") == "true"

	meetings, now, err := h.svc.Today(r.Context(), slug, typeFilter, includePast)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := &TodayResponse{
		Date:     now.Format("2006-01-02"),
		Meetings: make([]*MeetingResponse, 0, len(meetings)),
	}
	for _, mw := range meetings {
		resp.Meetings = append(resp.Meetings, meetingToResponse(mw.Meeting, mw.Items))
	}

	api.Success(w, http.StatusOK, resp)
}

// NowNext handles GET /api/{municipality}/meetings/now-next
func (h *MeetingHandler) NowNext(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "municipality")

	out, err := h.svc.NowNext(r.Context(), slug)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := &NowNextResponse{
		LastUpdated: out.LastUpdate.Format(time.RFC3339),
	}
	if out.Meeting != nil {
		resp.Meeting = meetingToResponse(out.Meeting, nil)
		if out.Current != nil {
			resp.CurrentItem = itemToResponse(out.Current, out.Meeting.StartDatetime)
		}
		if out.Next != nil {
			resp.NextItem = itemToResponse(out.Next, out.Meeting.StartDatetime)
		}
	}

	api.Success(w, http.StatusOK, resp)
}

// Recent handles GET /api/{municipality}/meetings/recent
func (h *MeetingHandler) Recent(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "municipality")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			api.Error(w, http.StatusBadRequest, "limit must be an integer between 1 and 50")
			return
		}
		limit = parsed
	}

	meetings, err := h.svc.Recent(r.Context(), slug, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*MeetingResponse, 0, len(meetings))
	for _, mw := range meetings {
		resp = append(resp, meetingToResponse(mw.Meeting, mw.Items))
	}

	api.Success(w, http.StatusOK, resp)
}

// Search handles GET /api/{municipality}/meetings/search
func (h *MeetingHandler) Search(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "municipality")
	query := r.URL.Query().Get("q")
	tag := r.URL.Query().Get("tag")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = parsed
	}

	results, err := h.svc.Search(r.Context(), slug, query, tag, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*SearchResultResponse, 0, len(results))
	for _, iwm := range results {
		resp = append(resp, &SearchResultResponse{AgendaItemDetailResponse: *itemWithMeetingToResponse(iwm)})
	}

	api.Success(w, http.StatusOK, resp)
}

// Tags handles GET /api/{municipality}/tags
func (h *MeetingHandler) Tags(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "municipality")

	counts, err := h.svc.TagCounts(r.Context(), slug)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*TagCountResponse, 0, len(counts))
	for _, tc := range counts {
		resp = append(resp, &TagCountResponse{Name: tc.Name, Count: tc.Count})
	}

	api.Success(w, http.StatusOK, resp)
}

// ItemDetail handles GET /api/{municipality}/items/{id}
func (h *MeetingHandler) ItemDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "municipality")

	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "item id must be an integer")
		return
	}

	iwm, err := h.svc.ItemDetail(r.Context(), slug, itemID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, itemWithMeetingToResponse(iwm))
}

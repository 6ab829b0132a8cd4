package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/greg-hahn/cog-council-meetings/internal/agenda"
	"github.com/greg-hahn/cog-council-meetings/internal/api"
	"github.com/greg-hahn/cog-council-meetings/internal/service"
)

type IngestService interface {
	IngestMeeting(ctx context.Context, sourceURL, municipalitySlug string) (*service.IngestResult, error)
}

type AdminHandler struct {
	ingest    IngestService
	discovery agenda.DiscoveryProvider
	slug      string
}

// NewAdminHandler creates the handler for operational endpoints. slug is the
// default municipality used when a request does not name one.
func NewAdminHandler(ingest IngestService, discovery agenda.DiscoveryProvider, slug string) *AdminHandler {
	return &AdminHandler{ingest: ingest, discovery: discovery, slug: slug}
}

type IngestRequest struct {
	URL          string `json:"url"`
	Municipality string `json:"municipality"`
}

type IngestResponse struct {
	MeetingID  int64  `json:"meeting_id"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	ItemCount  int    `json:"item_count"`
}

type DiscoveredMeetingResponse struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Ingest handles POST /admin/ingest
func (h *AdminHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		api.Error(w, http.StatusBadRequest, "url is required")
		return
	}

	slug := req.Municipality
	if slug == "" {
		slug = h.slug
	}

	result, err := h.ingest.IngestMeeting(r.Context(), req.URL, slug)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &IngestResponse{
		MeetingID:  result.Meeting.ID,
		ExternalID: result.Meeting.ExternalID,
		Title:      result.Meeting.Title,
		Type:       result.Meeting.Type,
		ItemCount:  result.ItemCount,
	})
}

// Discover handles POST /admin/discover
func (h *AdminHandler) Discover(w http.ResponseWriter, r *http.Request) {
	discovered, err := h.discovery.DiscoverUpcoming(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*DiscoveredMeetingResponse, 0, len(discovered))
	for _, d := range discovered {
		resp = append(resp, &DiscoveredMeetingResponse{URL: d.URL, Title: d.Title})
	}

	api.Success(w, http.StatusOK, resp)
}

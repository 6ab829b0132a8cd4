package agenda

import (
	"context"

	"go.uber.org/zap"
)

// DiscoveredMeeting is one agenda URL found by a discovery provider.
type DiscoveredMeeting struct {
	URL   string
	Title string
}

// DiscoveryProvider finds upcoming meeting agenda URLs for a municipality.
// Implementations may legitimately return no results.
type DiscoveryProvider interface {
	DiscoverUpcoming(ctx context.Context) ([]DiscoveredMeeting, error)
}

// EScribeDiscovery is the eScribe calendar provider. The calendar page
// renders its meeting list client-side, so there is nothing to scrape from
// the static HTML; until a headless renderer or a JSON endpoint is wired in,
// this provider returns no results. Agenda URLs must be passed to ingestion
// directly.
type EScribeDiscovery struct {
	baseURL string
	logger  *zap.Logger
}

// NewEScribeDiscovery creates the eScribe discovery provider.
func NewEScribeDiscovery(baseURL string, logger *zap.Logger) *EScribeDiscovery {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EScribeDiscovery{baseURL: baseURL, logger: logger}
}

// DiscoverUpcoming returns the upcoming meeting URLs. See the type comment
// for why this is currently always empty.
func (d *EScribeDiscovery) DiscoverUpcoming(ctx context.Context) ([]DiscoveredMeeting, error) {
	d.logger.Warn("meeting discovery returned no results: eScribe renders its calendar client-side",
		zap.String("base_url", d.baseURL))
	return nil, nil
}

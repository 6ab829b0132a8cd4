// Package classify turns agenda item text into resident-facing summaries and
// topic tags. Two strategies implement the same interface: a remote language
// model (primary, when credentials are configured) and deterministic keyword
// matching (fallback, always available). FallbackClassifier composes them so
// a primary failure can never abort the ingestion of a meeting.
package classify

import (
	"context"

	"go.uber.org/zap"

	"github.com/greg-hahn/cog-council-meetings/internal/metrics"
)

const (
	// MaxSummaryLength bounds summaries from both strategies.
	MaxSummaryLength = 300

	// MaxBodyPrefix bounds how much item text is sent to the remote model.
	MaxBodyPrefix = 3000

	// GeneralTag is applied when no topic matches.
	GeneralTag = "general"
)

// Result is a classified agenda item.
type Result struct {
	Summary string
	Tags    []string
}

// Classifier produces a summary and at least one topic tag for an agenda
// item's text.
type Classifier interface {
	Classify(ctx context.Context, title, bodyText string) (Result, error)
}

// FallbackClassifier tries the primary strategy and falls back to the
// deterministic one on any failure. The failure is logged as a warning and
// never surfaced to the caller.
type FallbackClassifier struct {
	primary  Classifier
	fallback Classifier
	logger   *zap.Logger
}

// NewFallbackClassifier composes a primary and a fallback strategy. primary
// may be nil, in which case the fallback is used unconditionally.
func NewFallbackClassifier(primary, fallback Classifier, logger *zap.Logger) *FallbackClassifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackClassifier{primary: primary, fallback: fallback, logger: logger}
}

// Classify implements Classifier.
func (c *FallbackClassifier) Classify(ctx context.Context, title, bodyText string) (Result, error) {
	if c.primary != nil {
		result, err := c.primary.Classify(ctx, title, bodyText)
		if err == nil {
			return result, nil
		}
		metrics.IncClassifierFallback()
		c.logger.Warn("primary classification failed, using fallback",
			zap.String("title", title),
			zap.Error(err))
	}
	return c.fallback.Classify(ctx, title, bodyText)
}

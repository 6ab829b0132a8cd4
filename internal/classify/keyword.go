package classify

import (
	"context"
	"strings"
)

// Topic pairs a tag name with the substrings that select it.
type Topic struct {
	Name     string
	Keywords []string
}

// Vocabulary is the fixed, ordered topic table. Keyword matching emits tags
// in table order, and the remote strategy's output is filtered down to these
// names.
type Vocabulary []Topic

// DefaultVocabulary returns the resident-relevant topic table.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		{Name: "budget", Keywords: []string{"budget", "operating budget", "capital budget", "fiscal", "surplus", "deficit"}},
		{Name: "taxes", Keywords: []string{"tax", "taxes", "levy", "tax rate"}},
		{Name: "zoning", Keywords: []string{"zoning", "zone", "rezone", "land use"}},
		{Name: "housing", Keywords: []string{"housing", "affordable housing", "rental", "residential development"}},
		{Name: "homelessness", Keywords: []string{"homeless", "shelter", "sheltering", "unsheltered"}},
		{Name: "transit", Keywords: []string{"transit", "bus", "guelph transit", "public transit"}},
		{Name: "roads", Keywords: []string{"road", "roads", "street", "traffic", "speed limit", "intersection"}},
		{Name: "safety", Keywords: []string{"safety", "safe", "speed limit", "pedestrian", "crosswalk"}},
		{Name: "environment", Keywords: []string{"climate", "environment", "emissions", "green", "sustainability"}},
		{Name: "parks", Keywords: []string{"park", "parks", "recreation", "trail", "green space"}},
		{Name: "water", Keywords: []string{"water", "wastewater", "stormwater", "sewer"}},
		{Name: "governance", Keywords: []string{"bylaw", "by-law", "council", "committee", "appointment", "vacancy"}},
		{Name: "development", Keywords: []string{"development", "site plan", "subdivision", "building permit"}},
		{Name: "social_services", Keywords: []string{"social", "community services", "shelter", "daytime"}},
	}
}

// Contains reports whether name is a known topic.
func (v Vocabulary) Contains(name string) bool {
	for _, topic := range v {
		if topic.Name == name {
			return true
		}
	}
	return false
}

// KeywordClassifier is the deterministic fallback strategy. The summary is
// the first line of the body longer than 30 characters (or failing that, the
// first non-empty line), truncated to MaxSummaryLength. Tags come from
// substring matches against the vocabulary; "general" when nothing matches.
type KeywordClassifier struct {
	vocabulary Vocabulary
}

// NewKeywordClassifier creates a KeywordClassifier over the given vocabulary.
func NewKeywordClassifier(vocabulary Vocabulary) *KeywordClassifier {
	return &KeywordClassifier{vocabulary: vocabulary}
}

// Classify implements Classifier. It never fails.
func (c *KeywordClassifier) Classify(_ context.Context, _ string, bodyText string) (Result, error) {
	return Result{
		Summary: extractSummary(bodyText),
		Tags:    c.matchTags(bodyText),
	}, nil
}

func extractSummary(bodyText string) string {
	var lines []string
	for _, line := range strings.Split(bodyText, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	// Skip short lines like the item-number header itself.
	for _, line := range lines {
		if len(line) > 30 {
			return truncate(line, MaxSummaryLength)
		}
	}
	if len(lines) > 0 {
		return truncate(lines[0], MaxSummaryLength)
	}
	return ""
}

func (c *KeywordClassifier) matchTags(bodyText string) []string {
	lower := strings.ToLower(bodyText)

	var tags []string
	for _, topic := range c.vocabulary {
		for _, keyword := range topic.Keywords {
			if strings.Contains(lower, keyword) {
				tags = append(tags, topic.Name)
				break
			}
		}
	}

	if len(tags) == 0 {
		tags = append(tags, GeneralTag)
	}
	return tags
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

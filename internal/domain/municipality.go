package domain

import "fmt"

// Municipality is the identity anchor for multi-tenant ingestion. One row per
// city; created once at bootstrap and read-only afterwards.
type Municipality struct {
	ID            int64
	Name          string
	Slug          string
	Timezone      string
	WebsiteURL    string
	AgendaBaseURL string
}

// ValidateMunicipality validates a Municipality instance
func ValidateMunicipality(m *Municipality) error {
	if m == nil {
		return fmt.Errorf("municipality cannot be nil")
	}

	if m.Name == "" {
		return fmt.Errorf("municipality Name is required")
	}

	if m.Slug == "" {
		return fmt.Errorf("municipality Slug is required")
	}

	if m.Timezone == "" {
		return fmt.Errorf("municipality Timezone is required")
	}

	return nil
}

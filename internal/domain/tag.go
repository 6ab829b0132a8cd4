package domain

import "fmt"

// Tag is a resident-facing topic label. Names are free-form in the schema but
// in practice drawn from the classifier's fixed vocabulary. Many-to-many with
// AgendaItem; an item's associations are replaced wholesale on re-ingestion.
type Tag struct {
	ID   int64
	Name string
}

// TagCount pairs a tag name with the number of agenda items carrying it.
type TagCount struct {
	Name  string
	Count int64
}

// ValidateTag validates a Tag instance
func ValidateTag(t *Tag) error {
	if t == nil {
		return fmt.Errorf("tag cannot be nil")
	}

	if t.Name == "" {
		return fmt.Errorf("tag Name is required")
	}

	return nil
}

package domain

import (
	"fmt"
	"time"
)

// UpdateEventSource discriminates where a live update came from
type UpdateEventSource string

const (
	UpdateEventSourceSystem   UpdateEventSource = "system"
	UpdateEventSourceExternal UpdateEventSource = "external"
)

// UpdateEvent is a timestamped live-meeting signal referencing a meeting and
// optionally one of its items. Ingestion never writes these; they are the
// extension point for real progress tracking to replace the offset-based
// estimator.
type UpdateEvent struct {
	ID           int64
	MeetingID    int64
	AgendaItemID *int64
	Timestamp    time.Time
	EventType    string
	Source       UpdateEventSource
}

// ValidateUpdateEvent validates an UpdateEvent instance
func ValidateUpdateEvent(e *UpdateEvent) error {
	if e == nil {
		return fmt.Errorf("update event cannot be nil")
	}

	if e.MeetingID == 0 {
		return fmt.Errorf("update event MeetingID is required")
	}

	if e.EventType == "" {
		return fmt.Errorf("update event EventType is required")
	}

	if e.Source != UpdateEventSourceSystem && e.Source != UpdateEventSourceExternal {
		return fmt.Errorf("update event Source is invalid: %s", e.Source)
	}

	return nil
}

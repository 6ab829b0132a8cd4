package domain

import (
	"fmt"
	"time"
)

// AgendaItemStatus represents the lifecycle status of an agenda item
type AgendaItemStatus string

const (
	AgendaItemStatusPending    AgendaItemStatus = "pending"
	AgendaItemStatusInProgress AgendaItemStatus = "in_progress"
	AgendaItemStatusCompleted  AgendaItemStatus = "completed"
	AgendaItemStatusDeferred   AgendaItemStatus = "deferred"
	AgendaItemStatusWithdrawn  AgendaItemStatus = "withdrawn"
)

// AgendaItem is one numbered, titled unit of council business within a
// meeting. ItemNumber is the source's hierarchical dotted string ("6.1") and
// is treated as an opaque ordered string, never parsed as a float. The pair
// (MeetingID, ItemNumber) is the reconciliation key for upserts.
//
// EstimatedStartOffsetMinutes is a synthetic minutes-from-start value derived
// from document order and section weight; it is recomputed in full on every
// re-ingestion. ActualStart/ActualEnd are reserved for live tracking and are
// not written by ingestion.
type AgendaItem struct {
	ID                          int64
	MeetingID                   int64
	ItemNumber                  string
	Title                       string
	RawText                     string
	SummaryText                 string
	Section                     string
	EstimatedStartOffsetMinutes *int
	ActualStartDatetime         *time.Time
	ActualEndDatetime           *time.Time
	Status                      AgendaItemStatus
	Tags                        []string
}

// ValidateAgendaItem validates an AgendaItem instance
func ValidateAgendaItem(item *AgendaItem) error {
	if item == nil {
		return fmt.Errorf("agenda item cannot be nil")
	}

	if item.MeetingID == 0 {
		return fmt.Errorf("agenda item MeetingID is required")
	}

	if item.ItemNumber == "" {
		return fmt.Errorf("agenda item ItemNumber is required")
	}

	if item.Title == "" {
		return fmt.Errorf("agenda item Title is required")
	}

	if !isValidAgendaItemStatus(item.Status) {
		return fmt.Errorf("agenda item Status is invalid: %s", item.Status)
	}

	return nil
}

// isValidAgendaItemStatus checks if an AgendaItemStatus is valid
func isValidAgendaItemStatus(s AgendaItemStatus) bool {
	switch s {
	case AgendaItemStatusPending, AgendaItemStatusInProgress, AgendaItemStatusCompleted,
		AgendaItemStatusDeferred, AgendaItemStatusWithdrawn:
		return true
	}
	return false
}

package domain

import (
	"fmt"
	"time"
)

// MeetingStatus represents the lifecycle status of a meeting
type MeetingStatus string

const (
	MeetingStatusScheduled  MeetingStatus = "scheduled"
	MeetingStatusInProgress MeetingStatus = "in_progress"
	MeetingStatusRecess     MeetingStatus = "recess"
	MeetingStatusCompleted  MeetingStatus = "completed"
	MeetingStatusCancelled  MeetingStatus = "cancelled"
)

// Meeting represents one real-world council or committee session.
//
// ExternalID is the GUID-like token from the source Meeting.aspx URL. It is
// globally unique and never changes across re-scrapes of the same URL, which
// is what makes ingestion idempotent: the same source URL always reconciles
// against the same row.
type Meeting struct {
	ID             int64
	MunicipalityID int64
	ExternalID     string
	Title          string
	Type           string
	StartDatetime  *time.Time
	EndDatetime    *time.Time
	Location       string
	Status         MeetingStatus
	AgendaURL      string
	LivestreamURL  string
}

// ValidateMeeting validates a Meeting instance
func ValidateMeeting(m *Meeting) error {
	if m == nil {
		return fmt.Errorf("meeting cannot be nil")
	}

	if m.MunicipalityID == 0 {
		return fmt.Errorf("meeting MunicipalityID is required")
	}

	if m.ExternalID == "" {
		return fmt.Errorf("meeting ExternalID is required")
	}

	if m.Title == "" {
		return fmt.Errorf("meeting Title is required")
	}

	if !isValidMeetingStatus(m.Status) {
		return fmt.Errorf("meeting Status is invalid: %s", m.Status)
	}

	return nil
}

// isValidMeetingStatus checks if a MeetingStatus is valid
func isValidMeetingStatus(s MeetingStatus) bool {
	switch s {
	case MeetingStatusScheduled, MeetingStatusInProgress, MeetingStatusRecess,
		MeetingStatusCompleted, MeetingStatusCancelled:
		return true
	}
	return false
}

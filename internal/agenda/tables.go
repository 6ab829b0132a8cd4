package agenda

import (
	"strconv"
	"strings"
)

// SectionOther is assigned when an item number's leading component does not
// map to a known section.
const SectionOther = "other"

// MeetingTypeRule maps a title keyword to a meeting type. Rules are evaluated
// in declared order and the first match wins.
type MeetingTypeRule struct {
	Keyword string
	Type    string
}

// Tables holds the per-municipality policy tables driving section and
// meeting-type inference and offset estimation. They are injected into the
// parser and the ingestion pipeline rather than read from globals so a second
// municipality can ship its own tables without touching core logic.
type Tables struct {
	// Sections maps the leading dot-delimited component of an item number
	// to a logical section label.
	Sections map[int]string

	// MeetingTypes is scanned against the lowercased meeting title.
	MeetingTypes []MeetingTypeRule

	// DefaultMeetingType is used when no rule matches.
	DefaultMeetingType string

	// ProceduralSections get the short offset increment; everything else
	// gets the substantive one.
	ProceduralSections map[string]bool

	// Offset increments in minutes per item, by procedural weight.
	ProceduralIncrementMinutes  int
	SubstantiveIncrementMinutes int
}

// DefaultTables returns the policy tables for Guelph's typical agenda
// structure. Top-level item numbers map to logical sections; adjust as
// patterns change across meetings.
func DefaultTables() Tables {
	return Tables{
		Sections: map[int]string{
			1:  "opening",
			2:  "closed_meeting",
			3:  "closed_summary",
			4:  "open_meeting",
			5:  "confirmation_of_minutes",
			6:  "consent",
			7:  "items_for_discussion",
			8:  "bylaws",
			9:  "announcements",
			10: "adjournment",
		},
		MeetingTypes: []MeetingTypeRule{
			{Keyword: "committee of the whole", Type: "committee"},
			{Keyword: "city council", Type: "council"},
			{Keyword: "planning", Type: "planning"},
			{Keyword: "public services", Type: "committee"},
			{Keyword: "governance", Type: "committee"},
			{Keyword: "audit", Type: "committee"},
		},
		DefaultMeetingType: "council",
		ProceduralSections: map[string]bool{
			"opening":        true,
			"closed_meeting": true,
			"closed_summary": true,
			"announcements":  true,
			"adjournment":    true,
		},
		ProceduralIncrementMinutes:  5,
		SubstantiveIncrementMinutes: 15,
	}
}

// Section maps an item number like "6.1" to a section label. Unmapped or
// unparsable leading components fall through to SectionOther.
func (t Tables) Section(itemNumber string) string {
	head, _, _ := strings.Cut(itemNumber, ".")
	major, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return SectionOther
	}
	if section, ok := t.Sections[major]; ok {
		return section
	}
	return SectionOther
}

// MeetingType infers a meeting type from the meeting title.
func (t Tables) MeetingType(title string) string {
	lower := strings.ToLower(title)
	for _, rule := range t.MeetingTypes {
		if strings.Contains(lower, rule.Keyword) {
			return rule.Type
		}
	}
	return t.DefaultMeetingType
}

// OffsetIncrement returns the per-item schedule increment for a section.
func (t Tables) OffsetIncrement(section string) int {
	if t.ProceduralSections[section] {
		return t.ProceduralIncrementMinutes
	}
	return t.SubstantiveIncrementMinutes
}

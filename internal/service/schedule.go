package service

import (
	"sort"
	"time"

	"github.com/greg-hahn/cog-council-meetings/internal/domain"
)

// EstimateNowNext approximates the current and next agenda items for a
// meeting at the given instant, using each item's estimated start offset as
// a proxy for live progress. It assumes linear, on-schedule progression and
// does not reconcile with any live signal; once update events carry real
// progress this is the function they replace.
//
// Items are ordered by item number (the source's hierarchical ordering). A
// meeting without a start time has no current item; its first item is next.
func EstimateNowNext(meeting *domain.Meeting, items []*domain.AgendaItem, now time.Time) (current, next *domain.AgendaItem) {
	if len(items) == 0 {
		return nil, nil
	}

	ordered := make([]*domain.AgendaItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ItemNumber < ordered[j].ItemNumber
	})

	if meeting.StartDatetime == nil {
		return nil, ordered[0]
	}

	elapsed := now.Sub(*meeting.StartDatetime).Minutes()

	for i, item := range ordered {
		offset := 0
		if item.EstimatedStartOffsetMinutes != nil {
			offset = *item.EstimatedStartOffsetMinutes
		}

		if elapsed >= float64(offset) {
			current = item
			if i+1 < len(ordered) {
				next = ordered[i+1]
			} else {
				next = nil
			}
			continue
		}

		if current == nil {
			// Before the first item's offset: nothing is active yet.
			next = item
		}
		break
	}

	return current, next
}

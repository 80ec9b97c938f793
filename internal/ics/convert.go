package ics

import (
	"fmt"
	"time"

	"calview/internal/dategrid"
	"calview/internal/event"
	"calview/internal/model"
)

// OccurrenceRaw converts an expanded occurrence into the loose record shape
// consumed by the event engine. Import IDs are deterministic over
// (feed, UID, instance) so a repeated refresh replaces instead of
// duplicating.
//
// All-day occurrences are emitted as untimed date-only records: they carry
// no clock times and therefore never participate in conflict detection.
func OccurrenceRaw(occ model.Occurrence, color string) event.Raw {
	raw := event.Raw{
		ID:          fmt.Sprintf("feed:%s:%s:%s", occ.FeedID, occ.UID, occ.InstanceKey),
		Title:       occ.Summary,
		Description: occ.Description,
		Color:       color,
	}
	if occ.AllDay {
		raw.Date = dategrid.FormatDate(occ.Start)
		return raw
	}
	raw.Start = occ.Start.Format(time.RFC3339)
	if !occ.End.IsZero() && occ.End.After(occ.Start) {
		raw.End = occ.End.Format(time.RFC3339)
	}
	return raw
}

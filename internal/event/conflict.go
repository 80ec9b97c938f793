package event

import "calview/internal/dategrid"

// Conflict records that a candidate event's time range overlaps an existing
// event on the same calendar day.
type Conflict struct {
	Event Event  `json:"event"`
	Type  string `json:"type"`
}

// ConflictTime is the only conflict type this engine produces.
const ConflictTime = "time"

// FindConflicts returns the events in pool that occur on ev's calendar day
// and whose time ranges overlap ev's. The pool's order is preserved.
//
// Policy: an event without both a start and an end time never conflicts.
// Untimed or open-ended entries (all-day items, reminders) are deliberately
// excluded from overlap checks rather than being padded to a synthetic
// duration.
func FindConflicts(ev Event, pool []Event) []Conflict {
	s1, e1, ok := timedRange(ev)
	if !ok {
		return nil
	}

	var conflicts []Conflict
	for _, other := range pool {
		if other.ID == ev.ID {
			continue
		}
		if other.Date.IsZero() || !dategrid.SameDay(other.Date, ev.Date) {
			continue
		}
		s2, e2, ok := timedRange(other)
		if !ok {
			continue
		}
		// Half-open intervals: [s1,e1) and [s2,e2) overlap iff
		// s1 < e2 && s2 < e1, so back-to-back events do not collide.
		if s1 < e2 && s2 < e1 {
			conflicts = append(conflicts, Conflict{Event: other, Type: ConflictTime})
		}
	}
	return conflicts
}

// timedRange returns the event's [start,end) range in minutes of day.
// ok is false when the event lacks either clock time or has no date.
func timedRange(ev Event) (start, end int, ok bool) {
	if ev.Date.IsZero() {
		return 0, 0, false
	}
	s, okS := ParseClock(ev.StartTime)
	e, okE := ParseClock(ev.EndTime)
	if !okS || !okE {
		return 0, 0, false
	}
	return s, e, true
}

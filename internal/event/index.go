package event

import (
	"sort"
	"strings"
	"time"

	"calview/internal/dategrid"
)

// Index maps a day key ("year-month-day") to that day's events sorted
// ascending by start time, untimed events first. An Index is always derived
// from a full collection; it is never mutated in place.
type Index map[string][]Event

// BuildIndex derives a fresh Index from events. Records without any date
// are skipped.
func BuildIndex(events []Event) Index {
	ix := make(Index)
	for _, ev := range events {
		if ev.Date.IsZero() {
			continue
		}
		key := dategrid.DayKey(ev.Date)
		ix[key] = append(ix[key], ev)
	}
	for key := range ix {
		day := ix[key]
		sort.SliceStable(day, func(i, j int) bool {
			return startMinutes(day[i]) < startMinutes(day[j])
		})
	}
	return ix
}

// startMinutes orders events within a day; events without a start time
// sort first.
func startMinutes(ev Event) int {
	if mins, ok := ParseClock(ev.StartTime); ok {
		return mins
	}
	return 0
}

// ForDate returns the day's events, or nil when the day is empty.
func (ix Index) ForDate(t time.Time) []Event {
	return ix[dategrid.DayKey(t)]
}

// Between aggregates events for every day in [from, to], walking day by
// day in the index.
func (ix Index) Between(from, to time.Time) []Event {
	var out []Event
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, ix.ForDate(d)...)
	}
	return out
}

// Search filters events whose title or description contains keyword,
// case-insensitively. A blank keyword matches nothing.
func Search(events []Event, keyword string) []Event {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}
	var out []Event
	for _, ev := range events {
		if strings.Contains(strings.ToLower(ev.Title), keyword) ||
			strings.Contains(strings.ToLower(ev.Description), keyword) {
			out = append(out, ev)
		}
	}
	return out
}

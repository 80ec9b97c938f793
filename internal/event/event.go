// Package event normalizes loose calendar event records into a canonical
// shape, indexes them by day, and detects time-range conflicts. The package
// never owns the event collection; callers pass their current pool into
// every operation and keep the results.
package event

import (
	"time"

	"github.com/google/uuid"

	"calview/internal/dategrid"
)

// DefaultTitle is applied when an input record has no title.
const DefaultTitle = "Untitled event"

// Raw is a loose input record as supplied by a host application. Any subset
// of fields may be present; Normalizer.Normalize coerces the rest.
type Raw struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`

	// Date is a single calendar day ("YYYY-MM-DD"); shorthand for StartDate.
	Date string `json:"date,omitempty"`

	// Start / End are full ISO instants (RFC 3339). When present they win
	// over the split date/time fields.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate   string `json:"endDate,omitempty"`
	StartTime string `json:"startTime,omitempty"` // HH:MM
	EndTime   string `json:"endTime,omitempty"`
}

// Event is the canonical record. Both representations are always populated:
// the Start/End instants and the split StartDate/StartTime fields describe
// the same moments.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`

	// Date is midnight of the event's calendar day. Zero when the record
	// carried no usable date at all.
	Date time.Time `json:"date"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	StartTime string `json:"startTime,omitempty"` // HH:MM, "" when untimed
	EndTime   string `json:"endTime,omitempty"`
}

// HasEnd reports whether the event carries an explicit end instant.
func (e Event) HasEnd() bool { return !e.End.IsZero() }

// AsRaw converts a canonical event back into the loose input form. Feeding
// the result through Normalize reproduces the event unchanged.
func (e Event) AsRaw() Raw {
	r := Raw{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
	}
	if !e.Start.IsZero() {
		r.Start = e.Start.Format(time.RFC3339)
	}
	if !e.End.IsZero() {
		r.End = e.End.Format(time.RFC3339)
	}
	return r
}

// Normalizer turns Raw records into canonical Events. The id generator is
// injected so tests can produce deterministic ids.
type Normalizer struct {
	GenerateID func() string
	Location   *time.Location
}

// NewNormalizer returns a Normalizer generating uuid ids and interpreting
// date-only fields in loc (time.Local when nil).
func NewNormalizer(loc *time.Location) Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return Normalizer{
		GenerateID: uuid.NewString,
		Location:   loc,
	}
}

// Normalize coerces a loose record into the canonical shape. It is total:
// malformed fields degrade to defaults instead of failing. It is idempotent:
// normalizing AsRaw() of its own output changes nothing.
func (n Normalizer) Normalize(raw Raw) Event {
	loc := n.Location
	if loc == nil {
		loc = time.Local
	}

	ev := Event{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Color:       raw.Color,
	}
	if ev.ID == "" && n.GenerateID != nil {
		ev.ID = n.GenerateID()
	}
	if ev.Title == "" {
		ev.Title = DefaultTitle
	}
	if ev.Color == "" {
		ev.Color = DefaultColor
	}

	startDate := raw.StartDate
	if startDate == "" {
		startDate = raw.Date
	}

	// Resolve the start instant: explicit ISO wins, otherwise compose it
	// from the date plus a start time defaulting to 00:00.
	if t, err := time.Parse(time.RFC3339, raw.Start); err == nil && raw.Start != "" {
		ev.Start = t.In(loc)
	} else if day, ok := dategrid.ParseDate(startDate, loc); ok {
		if mins, ok := ParseClock(raw.StartTime); ok {
			ev.Start = day.Add(time.Duration(mins) * time.Minute)
		} else {
			ev.Start = day
		}
	}

	// Resolve the end instant. An end exists when an explicit ISO end, an
	// end date, or an end time is given; the missing half defaults to the
	// start date / 23:59.
	if t, err := time.Parse(time.RFC3339, raw.End); err == nil && raw.End != "" {
		ev.End = t.In(loc)
	} else if raw.EndDate != "" || raw.EndTime != "" {
		endDate := raw.EndDate
		if endDate == "" {
			endDate = startDate
		}
		if day, ok := dategrid.ParseDate(endDate, loc); ok {
			mins, ok := ParseClock(raw.EndTime)
			if !ok {
				mins = 23*60 + 59
			}
			ev.End = day.Add(time.Duration(mins) * time.Minute)
		}
	}

	// Populate the split representation from the instants, keeping any
	// explicitly supplied fields.
	if !ev.Start.IsZero() {
		y, m, d := ev.Start.Date()
		ev.Date = time.Date(y, m, d, 0, 0, 0, 0, loc)
		ev.StartDate = dategrid.FormatDate(ev.Start)
		ev.StartTime = raw.StartTime
		if ev.StartTime == "" {
			ev.StartTime = ev.Start.Format("15:04")
		}
	}
	if !ev.End.IsZero() {
		ev.EndDate = dategrid.FormatDate(ev.End)
		ev.EndTime = raw.EndTime
		if ev.EndTime == "" {
			ev.EndTime = ev.End.Format("15:04")
		}
	}

	return ev
}

// ParseClock parses an "HH:MM" string into minutes since midnight.
func ParseClock(s string) (int, bool) {
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

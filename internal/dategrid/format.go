package dategrid

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// FormatDate renders t as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ParseDate parses a calendar-day string into midnight of that day in loc.
// Accepted forms: "YYYY-MM-DD", or a full RFC 3339 instant whose date part
// is used. Returns ok=false for anything else; callers must check ok and
// treat the zero value as "no date".
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.In(loc)
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

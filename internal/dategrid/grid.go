// Package dategrid builds the day-cell sequences that back the month and
// week calendar views. All functions are pure; cells carry real dates even
// when they belong to an adjacent month, so filler days stay navigable.
package dategrid

import (
	"fmt"
	"time"
)

// Cell is a single day in a rendered grid.
type Cell struct {
	// Key is a stable identity string in the form "year-month-day"
	// (1-based month, no zero padding).
	Key string `json:"key"`

	// Date is midnight of the cell's day in the anchor's location.
	Date time.Time `json:"date"`

	Year  int `json:"year"`
	Month int `json:"month"` // 1-based
	Day   int `json:"day"`

	// Current reports whether the cell belongs to the displayed month
	// (month view) or to the anchor's month (week view). Filler cells
	// from adjacent months carry false.
	Current bool `json:"current"`
}

// NewCell builds a Cell for the given day.
func NewCell(t time.Time, current bool) Cell {
	y, m, d := t.Date()
	return Cell{
		Key:     fmt.Sprintf("%d-%d-%d", y, int(m), d),
		Date:    time.Date(y, m, d, 0, 0, 0, 0, t.Location()),
		Year:    y,
		Month:   int(m),
		Day:     d,
		Current: current,
	}
}

// BuildMonth returns the full grid for the month containing anchor.
//
// weekStart selects the first weekday of a row (0=Sunday .. 6=Saturday).
// The result always covers whole weeks: days from the previous month pad
// the head up to the month's first day, days from the next month pad the
// tail so the total length is a multiple of 7.
func BuildMonth(anchor time.Time, weekStart int) []Cell {
	year, month, _ := anchor.Date()
	loc := anchor.Location()

	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Day 0 of the next month is the last day of this month.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)

	lead := (int(first.Weekday()) - weekStart + 7) % 7

	cells := make([]Cell, 0, lead+last.Day()+6)
	for i := 0; i < lead; i++ {
		cells = append(cells, NewCell(first.AddDate(0, 0, i-lead), false))
	}
	for d := 1; d <= last.Day(); d++ {
		cells = append(cells, NewCell(time.Date(year, month, d, 0, 0, 0, 0, loc), true))
	}
	trail := (7 - len(cells)%7) % 7
	for i := 1; i <= trail; i++ {
		cells = append(cells, NewCell(last.AddDate(0, 0, i), false))
	}
	return cells
}

// BuildWeek returns the 7-cell week containing anchor. Current flags whether
// a cell falls in anchor's month, which lets a week row dim cross-month days.
func BuildWeek(anchor time.Time, weekStart int) []Cell {
	offset := (int(anchor.Weekday()) - weekStart + 7) % 7
	start := anchor.AddDate(0, 0, -offset)

	cells := make([]Cell, 0, 7)
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		cells = append(cells, NewCell(d, d.Month() == anchor.Month()))
	}
	return cells
}

// SameDay reports whether a and b fall on the same calendar day,
// ignoring the time of day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayKey returns the cell-key form of t's calendar day.
func DayKey(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%d-%d-%d", y, int(m), d)
}

// Weekdays returns the short English weekday labels rotated so the label at
// index 0 matches weekStart.
func Weekdays(weekStart int) []string {
	names := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	weekStart = ((weekStart % 7) + 7) % 7
	return append(names[weekStart:], names[:weekStart]...)
}

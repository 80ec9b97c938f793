package view

import (
	"calview/internal/dategrid"
)

// State is a JSON-friendly snapshot of the machine, shaped for the
// rendering layer: the three page buffers, viewport rows, and the slide
// offset/duration to apply.
type State struct {
	Selected  string `json:"selected"`
	Year      int    `json:"year"`
	Month     int    `json:"month"` // 1-based
	Mode      Mode   `json:"mode"`
	WeekIndex int    `json:"weekIndex"`

	Weekdays []string `json:"weekdays"`

	Current []dategrid.Cell    `json:"current"`
	Pages   [3][]dategrid.Cell `json:"pages"` // previous, current, next

	RenderRows      int  `json:"renderRows"`
	DistancePercent int  `json:"distancePercent"`
	DurationMs      int  `json:"durationMs"`
	InTransition    bool `json:"inTransition"`
}

// Snapshot captures the current view state.
func (c *Calendar) Snapshot() State {
	return State{
		Selected:        dategrid.FormatDate(c.selected),
		Year:            c.year,
		Month:           int(c.month),
		Mode:            c.mode,
		WeekIndex:       c.weekIndex,
		Weekdays:        dategrid.Weekdays(c.weekStart),
		Current:         c.CurrentCells(),
		Pages:           c.AllCells(),
		RenderRows:      c.renderRows,
		DistancePercent: c.distancePct,
		DurationMs:      c.transitionMs,
		InTransition:    c.inTransition,
	}
}

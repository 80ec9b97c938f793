// Package view owns the calendar paging state: which month or week page is
// displayed, the adjacent page buffers used for slide animation, and the
// transition lifecycle driven by the rendering layer's completion signal.
//
// Every derived value (grids, week slice, row counts) is recomputed
// explicitly at each mutation point; nothing here relies on implicit
// invalidation.
package view

import (
	"time"

	"calview/internal/dategrid"
)

// Mode selects the page shape.
type Mode string

const (
	ModeMonth Mode = "month"
	ModeWeek  Mode = "week"
)

// Direction of a page slide. Right moves backward in time (the previous
// page slides in from the left), left moves forward.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionNone  Direction = "none"
)

// Options configures a new Calendar.
type Options struct {
	// Selected is the initially selected date; zero means now.
	Selected time.Time
	// Mode is the initial view mode; empty means month.
	Mode Mode
	// WeekStart is the first weekday of a row (0=Sunday .. 6=Saturday).
	WeekStart int
	// DurationMs is the slide animation duration handed to the renderer.
	DurationMs int
	// Notify receives view-change signals; may be nil.
	Notify func(Mode)
}

// Calendar is the paging / view-state machine. It is not safe for
// concurrent use; callers serialize access.
type Calendar struct {
	weekStart  int
	durationMs int
	notify     func(Mode)

	selected  time.Time
	year      int
	month     time.Month
	mode      Mode
	weekIndex int

	// Page buffers. monthCells always holds the grid for (year, month);
	// the prev/next buffers hold whatever page a pending slide reveals.
	monthCells []dategrid.Cell
	prevMonth  []dategrid.Cell
	nextMonth  []dategrid.Cell
	prevWeek   []dategrid.Cell
	nextWeek   []dategrid.Cell

	// Transition state.
	distancePct  int // -100, 0 or +100
	transitionMs int
	inTransition bool
	renderRows   int
	target       *time.Time
}

// New builds a Calendar and fully populates all page buffers.
func New(opts Options) *Calendar {
	if opts.Selected.IsZero() {
		opts.Selected = time.Now()
	}
	if opts.Mode == "" {
		opts.Mode = ModeMonth
	}
	if opts.WeekStart < 0 || opts.WeekStart > 6 {
		opts.WeekStart = 0
	}

	c := &Calendar{
		weekStart:  opts.WeekStart,
		durationMs: opts.DurationMs,
		notify:     opts.Notify,
		selected:   opts.Selected,
		year:       opts.Selected.Year(),
		month:      opts.Selected.Month(),
		mode:       opts.Mode,
	}

	c.refreshMonthGrid()
	c.setWeekIndex(c.selected)
	c.prevMonth = dategrid.BuildMonth(c.monthAnchor(-1), c.weekStart)
	c.nextMonth = dategrid.BuildMonth(c.monthAnchor(+1), c.weekStart)
	c.rebuildAdjacentWeeks()
	c.renderRows = c.currentRows()
	return c
}

// monthAnchor returns the first day of the displayed month shifted by
// delta months; time.Date normalizes overflow across year boundaries.
func (c *Calendar) monthAnchor(delta int) time.Time {
	return time.Date(c.year, c.month+time.Month(delta), 1, 0, 0, 0, 0, c.selected.Location())
}

// refreshMonthGrid recomputes the current month buffer from (year, month).
func (c *Calendar) refreshMonthGrid() {
	c.monthCells = dategrid.BuildMonth(c.monthAnchor(0), c.weekStart)
}

// currentWeek returns the week row of the current month grid selected by
// weekIndex.
func (c *Calendar) currentWeek() []dategrid.Cell {
	start := c.weekIndex * 7
	if start+7 > len(c.monthCells) {
		start = 0
	}
	return c.monthCells[start : start+7]
}

// rebuildAdjacentWeeks derives the previous and next week buffers from the
// days immediately around the current week row.
func (c *Calendar) rebuildAdjacentWeeks() {
	week := c.currentWeek()
	c.prevWeek = dategrid.BuildWeek(week[0].Date.AddDate(0, 0, -1), c.weekStart)
	c.nextWeek = dategrid.BuildWeek(week[6].Date.AddDate(0, 0, 1), c.weekStart)
}

// setWeekIndex locates the week row containing date (falling back to the
// selected date, then to row 0) inside the current month grid. Only
// meaningful in week mode, but kept current in month mode too so a mode
// switch lands on the right row.
func (c *Calendar) setWeekIndex(date time.Time) {
	if date.IsZero() {
		date = c.selected
	}
	idx := 0
	for i, cell := range c.monthCells {
		if dategrid.SameDay(cell.Date, date) {
			idx = i
			break
		}
	}
	c.weekIndex = idx / 7
}

func (c *Calendar) currentRows() int {
	if c.mode == ModeWeek {
		return 1
	}
	return len(c.monthCells) / 7
}

func (c *Calendar) prevRows() int {
	if c.mode == ModeWeek {
		return 1
	}
	return len(c.prevMonth) / 7
}

func (c *Calendar) nextRows() int {
	if c.mode == ModeWeek {
		return 1
	}
	return len(c.nextMonth) / 7
}

// Mode returns the active view mode.
func (c *Calendar) Mode() Mode { return c.mode }

// Selected returns the selected date.
func (c *Calendar) Selected() time.Time { return c.selected }

// Year returns the displayed year.
func (c *Calendar) Year() int { return c.year }

// Month returns the displayed month.
func (c *Calendar) Month() time.Month { return c.month }

// WeekIndex returns the row of the current month grid shown in week mode.
func (c *Calendar) WeekIndex() int { return c.weekIndex }

// InTransition reports whether a page slide is pending completion.
func (c *Calendar) InTransition() bool { return c.inTransition }

// RenderRows returns the row count the renderer should size the viewport
// for. During a slide this is already the revealed page's count.
func (c *Calendar) RenderRows() int { return c.renderRows }

// CurrentCells returns the cells of the displayed page.
func (c *Calendar) CurrentCells() []dategrid.Cell {
	if c.mode == ModeWeek {
		return c.currentWeek()
	}
	return c.monthCells
}

// AllCells returns the previous, current and next page cells, in that
// order, for the slide strip.
func (c *Calendar) AllCells() [3][]dategrid.Cell {
	if c.mode == ModeWeek {
		return [3][]dategrid.Cell{c.prevWeek, c.currentWeek(), c.nextWeek}
	}
	return [3][]dategrid.Cell{c.prevMonth, c.monthCells, c.nextMonth}
}

// SetMode switches the view mode, resizes the viewport, relocates the week
// row containing the selected date, and emits a view-change signal.
func (c *Calendar) SetMode(mode Mode) {
	if mode != ModeWeek && mode != ModeMonth {
		return
	}
	if mode == c.mode {
		return
	}
	c.mode = mode
	c.renderRows = c.currentRows()
	c.setWeekIndex(c.selected)
	if c.notify != nil {
		c.notify(c.mode)
	}
}

// ToggleMode flips between week and month mode.
func (c *Calendar) ToggleMode() {
	if c.mode == ModeWeek {
		c.SetMode(ModeMonth)
	} else {
		c.SetMode(ModeWeek)
	}
}

// Select marks date as selected and pages over to it if it is not on the
// displayed page.
func (c *Calendar) Select(date time.Time) {
	c.selected = date
	c.NavigateTo(date)
}

// NavigateTo pages the view to the page containing date. Navigating to the
// already-displayed page is a no-op. The actual page swap happens when the
// renderer reports the slide finished via FinishTransition.
func (c *Calendar) NavigateTo(date time.Time) {
	if c.mode == ModeWeek {
		c.navigateWeek(date)
		return
	}
	c.navigateMonth(date)
}

func (c *Calendar) navigateMonth(date time.Time) {
	if date.Year() == c.year && date.Month() == c.month {
		return
	}

	var dir Direction
	if date.Year() < c.year || (date.Year() == c.year && date.Month() < c.month) {
		dir = DirectionRight
		c.prevMonth = dategrid.BuildMonth(date, c.weekStart)
	} else {
		dir = DirectionLeft
		c.nextMonth = dategrid.BuildMonth(date, c.weekStart)
	}
	t := date
	c.target = &t
	c.StartTransition(dir)
}

func (c *Calendar) navigateWeek(date time.Time) {
	week := c.currentWeek()
	for _, cell := range week {
		if !dategrid.SameDay(cell.Date, date) {
			continue
		}
		if date.Year() == c.year && date.Month() == c.month {
			return
		}
		// Target is inside the displayed week but the week spans a month
		// boundary: correct the displayed month without animating.
		c.year = date.Year()
		c.month = date.Month()
		c.refreshMonthGrid()
		c.setWeekIndex(date)
		return
	}

	var dir Direction
	if date.Before(week[0].Date) {
		dir = DirectionRight
		c.prevWeek = dategrid.BuildWeek(date, c.weekStart)
	} else {
		dir = DirectionLeft
		c.nextWeek = dategrid.BuildWeek(date, c.weekStart)
	}
	t := date
	c.target = &t
	c.StartTransition(dir)
}

// StartTransition arms a page slide. Left slides the next buffer in, right
// the previous one; the viewport is resized to the revealed page's rows
// before the slide so the height matches when it lands. Any other direction
// snaps in place.
func (c *Calendar) StartTransition(dir Direction) {
	c.transitionMs = c.durationMs
	c.inTransition = true
	switch dir {
	case DirectionLeft:
		c.distancePct = -100
		c.renderRows = c.nextRows()
	case DirectionRight:
		c.distancePct = 100
		c.renderRows = c.prevRows()
	default:
		c.distancePct = 0
	}
}

// FinishTransition is the renderer's animation-completion signal. Without a
// pending target it only clears the transition flag, so stray or duplicate
// signals are harmless. With one it commits the target page and rebuilds
// both adjacent buffers around it.
func (c *Calendar) FinishTransition() {
	c.transitionMs = 0
	if c.target == nil {
		c.inTransition = false
		return
	}

	c.year = c.target.Year()
	c.month = c.target.Month()
	c.refreshMonthGrid()
	c.renderRows = c.currentRows()
	c.distancePct = 0

	if c.mode == ModeWeek {
		c.setWeekIndex(*c.target)
		c.rebuildAdjacentWeeks()
	} else {
		c.prevMonth = dategrid.BuildMonth(c.monthAnchor(-1), c.weekStart)
		c.nextMonth = dategrid.BuildMonth(c.monthAnchor(+1), c.weekStart)
	}

	c.target = nil
	c.inTransition = false
}

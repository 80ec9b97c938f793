package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"calview/internal/event"
)

// Export serializes the given events into an iCalendar document. Records
// without a usable date are skipped; untimed events become all-day VEVENTs.
func Export(events []event.Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//calview//calendar//EN")

	now := time.Now().UTC()
	for _, ev := range events {
		if ev.Date.IsZero() {
			continue
		}

		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(now)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		ve.SetProperty(ical.ComponentProperty("COLOR"), event.ColorHex(ev.Color))

		timed := ev.StartTime != "" && ev.EndTime != "" && ev.HasEnd()
		if timed {
			ve.SetStartAt(ev.Start)
			ve.SetEndAt(ev.End)
			continue
		}

		// Untimed: all-day on the event's calendar day.
		ve.SetAllDayStartAt(ev.Date)
		ve.SetAllDayEndAt(ev.Date.AddDate(0, 0, 1))
	}

	return cal.Serialize()
}

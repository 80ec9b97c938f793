package model

import "time"

// Occurrence is a single concrete instance of a subscribed feed event,
// after recurrence expansion and timezone normalization. Occurrences are
// the hand-off shape between the feed pipeline and the event engine.
type Occurrence struct {
	FeedID string // subscription source ID (from config)
	UID    string // iCalendar UID

	// InstanceKey distinguishes the instances of a recurring event,
	// derived from the local start time.
	InstanceKey string

	Summary     string
	Description string

	AllDay bool

	// Start / End are in the configured display timezone.
	Start time.Time
	End   time.Time
}

package event

import (
	"time"

	"calview/internal/dategrid"
)

// Notification is emitted after every mutating facade operation. Conflicts
// is only populated when the touched event overlaps existing ones.
type Notification struct {
	Type      string     `json:"type"`
	Event     Event      `json:"event"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

const (
	NotifyAdd    = "event-add"
	NotifyUpdate = "event-update"
	NotifyDelete = "event-delete"
)

// Service wraps normalization and conflict detection into CRUD operations.
// It holds no events: the owning collection lives with the caller, who
// passes the current pool into each call and applies the returned record.
type Service struct {
	norm   Normalizer
	notify func(Notification)
}

// NewService builds a Service. notify may be nil when the caller does not
// observe engine notifications.
func NewService(norm Normalizer, notify func(Notification)) *Service {
	return &Service{norm: norm, notify: notify}
}

func (s *Service) emit(n Notification) {
	if s.notify != nil {
		s.notify(n)
	}
}

// Add normalizes raw, detects conflicts against the whole pool, and signals
// the addition. The caller appends the returned event to its collection.
func (s *Service) Add(pool []Event, raw Raw) (Event, []Conflict) {
	ev := s.norm.Normalize(raw)
	conflicts := FindConflicts(ev, pool)
	s.emit(Notification{Type: NotifyAdd, Event: ev, Conflicts: conflicts})
	return ev, conflicts
}

// Update merges patch over the stored event with the given id, re-normalizes
// it, and signals the update. Returns nil when the id is unknown; the caller
// must treat that as "not found, no-op".
func (s *Service) Update(pool []Event, id string, patch Raw) (*Event, []Conflict) {
	existing := FindByID(pool, id)
	if existing == nil {
		return nil, nil
	}

	merged := s.mergeRaw(existing.AsRaw(), patch)
	merged.ID = id
	ev := s.norm.Normalize(merged)

	// Conflicts are checked against every other event; the record being
	// replaced must not collide with itself.
	rest := make([]Event, 0, len(pool)-1)
	for _, e := range pool {
		if e.ID != id {
			rest = append(rest, e)
		}
	}
	conflicts := FindConflicts(ev, rest)
	s.emit(Notification{Type: NotifyUpdate, Event: ev, Conflicts: conflicts})
	return &ev, conflicts
}

// Delete signals removal of the event with the given id. Returns nil when
// the id is unknown.
func (s *Service) Delete(pool []Event, id string) *Event {
	existing := FindByID(pool, id)
	if existing == nil {
		return nil
	}
	removed := *existing
	s.emit(Notification{Type: NotifyDelete, Event: removed})
	return &removed
}

// Move reschedules the event onto newDate, preserving its time of day. The
// merge shifts any explicit end date along with the start.
func (s *Service) Move(pool []Event, id string, newDate time.Time) (*Event, []Conflict) {
	return s.Update(pool, id, Raw{StartDate: dategrid.FormatDate(newDate)})
}

// GetByDate returns the pool events on the same calendar day as date,
// ordered by start time.
func (s *Service) GetByDate(pool []Event, date time.Time) []Event {
	return BuildIndex(pool).ForDate(date)
}

// CheckConflicts is the read-only form of Add's conflict scan.
func (s *Service) CheckConflicts(pool []Event, raw Raw) []Conflict {
	return FindConflicts(s.norm.Normalize(raw), pool)
}

// FindByID returns a pointer into pool, or nil when absent.
func FindByID(pool []Event, id string) *Event {
	if id == "" {
		return nil
	}
	for i := range pool {
		if pool[i].ID == id {
			return &pool[i]
		}
	}
	return nil
}

// mergeRaw overlays the non-empty fields of patch onto base. Changing any
// part of the split date/time representation invalidates the corresponding
// ISO instant so normalization rebuilds it from the new parts. A patch that
// moves the start day without naming an end day drags the end day along,
// keeping the event's day span.
func (s *Service) mergeRaw(base, patch Raw) Raw {
	out := base

	if patch.Title != "" {
		out.Title = patch.Title
	}
	if patch.Description != "" {
		out.Description = patch.Description
	}
	if patch.Color != "" {
		out.Color = patch.Color
	}

	if patch.Start != "" {
		out.Start = patch.Start
	}
	if patch.End != "" {
		out.End = patch.End
	}

	if patch.Date != "" || patch.StartDate != "" || patch.StartTime != "" {
		newStart := patch.StartDate
		if newStart == "" {
			newStart = patch.Date
		}
		if newStart != "" && patch.EndDate == "" && base.EndDate != "" {
			out.EndDate = shiftDay(base, newStart, s.norm.Location)
		}
		if patch.Date != "" {
			out.Date = patch.Date
			out.StartDate = ""
		}
		if patch.StartDate != "" {
			out.StartDate = patch.StartDate
		}
		if patch.StartTime != "" {
			out.StartTime = patch.StartTime
		}
		if patch.Start == "" {
			out.Start = ""
		}
	}
	if patch.Date != "" || patch.StartDate != "" || patch.EndDate != "" || patch.EndTime != "" {
		if patch.EndDate != "" {
			out.EndDate = patch.EndDate
		}
		if patch.EndTime != "" {
			out.EndTime = patch.EndTime
		}
		if patch.End == "" {
			out.End = ""
		}
	}

	return out
}

// shiftDay recomputes base's end day relative to newStart, preserving the
// span in whole days. The old end day is kept when any date fails to parse.
func shiftDay(base Raw, newStart string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	oldStart := base.StartDate
	if oldStart == "" {
		oldStart = base.Date
	}
	from, okFrom := dategrid.ParseDate(oldStart, loc)
	end, okEnd := dategrid.ParseDate(base.EndDate, loc)
	to, okTo := dategrid.ParseDate(newStart, loc)
	if !okFrom || !okEnd || !okTo {
		return base.EndDate
	}
	// Round guards against DST days that are not exactly 24h.
	span := int(end.Sub(from).Round(24*time.Hour) / (24 * time.Hour))
	return dategrid.FormatDate(to.AddDate(0, 0, span))
}

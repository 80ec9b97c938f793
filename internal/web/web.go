// Package web exposes the calendar engines over a small JSON API. It plays
// the role of both surrounding layers: the host application owns the event
// collection through the CRUD endpoints, and the rendering layer reads view
// snapshots and reports slide completion on /api/view/transition-end.
package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"calview/internal/config"
	"calview/internal/dategrid"
	"calview/internal/event"
	"calview/internal/ics"
	appLog "calview/internal/log"
	"calview/internal/view"
)

// maxNotices bounds the in-memory notification ring.
const maxNotices = 64

// Notice is one engine notification as exposed on /api/notifications.
type Notice struct {
	At        time.Time        `json:"at"`
	Type      string           `json:"type"`
	Mode      view.Mode        `json:"mode,omitempty"`
	Event     *event.Event     `json:"event,omitempty"`
	Conflicts []event.Conflict `json:"conflicts,omitempty"`
}

// Server wires the view-state machine and the event engine behind HTTP
// handlers. A single mutex serializes all engine access; the engines
// themselves are single-threaded by design.
type Server struct {
	cfg *config.Config
	mux *http.ServeMux

	mu      sync.Mutex
	cal     *view.Calendar
	norm    event.Normalizer
	svc     *event.Service
	events  []event.Event
	index   event.Index
	notices []Notice

	fetcher *ics.Fetcher
}

// NewServer constructs a Server with an empty event collection.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		fetcher: ics.NewFetcher(cfg.CacheDir),
	}

	loc := cfg.Location()
	s.norm = event.NewNormalizer(loc)
	s.svc = event.NewService(s.norm, func(n event.Notification) {
		s.pushNotice(Notice{
			At:        time.Now(),
			Type:      n.Type,
			Event:     &n.Event,
			Conflicts: n.Conflicts,
		})
	})
	s.cal = view.New(view.Options{
		Selected:   time.Now().In(loc),
		Mode:       view.Mode(cfg.InitialView),
		WeekStart:  cfg.WeekStartIndex(),
		DurationMs: cfg.TransitionMs,
		Notify: func(m view.Mode) {
			s.pushNotice(Notice{At: time.Now(), Type: "view-change", Mode: m})
		},
	})
	s.index = event.BuildIndex(nil)

	s.registerRoutes()
	return s
}

// pushNotice appends to the ring; callers already hold s.mu or run during
// construction.
func (s *Server) pushNotice(n Notice) {
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

// LoadEvents normalizes a host-supplied raw collection and replaces the
// current one.
func (s *Server) LoadEvents(raws []event.Raw) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = s.events[:0]
	for _, raw := range raws {
		s.events = append(s.events, s.norm.Normalize(raw))
	}
	s.index = event.BuildIndex(s.events)
	appLog.Info("events loaded", "count", len(s.events))
}

// RefreshFeeds runs the feed pipeline and swaps the imported events into
// the collection. User-created events are kept; previous feed imports
// (deterministic "feed:" ids) are replaced wholesale.
func (s *Server) RefreshFeeds(ctx context.Context) {
	sources := make([]ics.Source, 0, len(s.cfg.Feeds))
	for _, f := range s.cfg.Feeds {
		sources = append(sources, ics.Source{ID: f.ID, URL: f.URL, Color: f.Color})
	}
	imported := ics.Refresh(ctx, s.fetcher, sources, ics.RefreshConfig{
		DisplayLocation: s.cfg.Location(),
		HorizonDays:     s.cfg.HorizonDays,
	}, s.norm)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	for _, ev := range s.events {
		if !strings.HasPrefix(ev.ID, "feed:") {
			kept = append(kept, ev)
		}
	}
	s.events = append(kept, imported...)
	s.index = event.BuildIndex(s.events)
}

// Handler returns the underlying http.Handler, wrapped with basic auth
// when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// /health stays reachable without credentials.
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="calview", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.HandleFunc("/api/view", s.handleView)
	s.mux.HandleFunc("/api/view/mode", s.handleViewMode)
	s.mux.HandleFunc("/api/view/navigate", s.handleViewNavigate)
	s.mux.HandleFunc("/api/view/select", s.handleViewSelect)
	s.mux.HandleFunc("/api/view/transition-end", s.handleTransitionEnd)

	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/api/events/", s.handleEventByID)
	s.mux.HandleFunc("/api/conflicts", s.handleConflicts)
	s.mux.HandleFunc("/api/notifications", s.handleNotifications)

	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/export.ics", s.handleExport)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	snap := s.cal.Snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

type modeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleViewMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	mode := view.Mode(req.Mode)
	if mode != view.ModeWeek && mode != view.ModeMonth {
		writeError(w, http.StatusBadRequest, "mode must be \"week\" or \"month\"")
		return
	}

	s.mu.Lock()
	s.cal.SetMode(mode)
	snap := s.cal.Snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

type dateRequest struct {
	Date string `json:"date"`
}

// parseDateBody reads a {"date": "YYYY-MM-DD"} body. Returns ok=false after
// writing the error response.
func (s *Server) parseDateBody(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return time.Time{}, false
	}
	var req dateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return time.Time{}, false
	}
	t, ok := dategrid.ParseDate(req.Date, s.cfg.Location())
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid date")
		return time.Time{}, false
	}
	return t, true
}

func (s *Server) handleViewNavigate(w http.ResponseWriter, r *http.Request) {
	target, ok := s.parseDateBody(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	s.cal.NavigateTo(target)
	snap := s.cal.Snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleViewSelect(w http.ResponseWriter, r *http.Request) {
	target, ok := s.parseDateBody(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	s.cal.Select(target)
	snap := s.cal.Snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

// handleTransitionEnd is the rendering layer's animation-completion signal.
// It is harmless to call when no transition is pending.
func (s *Server) handleTransitionEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	s.cal.FinishTransition()
	snap := s.cal.Snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, snap)
}

// eventMutationResponse carries the touched event plus any conflicts.
type eventMutationResponse struct {
	Event     event.Event      `json:"event"`
	Conflicts []event.Conflict `json:"conflicts,omitempty"`
}

// handleEvents serves the collection:
//
//	GET  /api/events            all events
//	GET  /api/events?date=D     one day (sorted, untimed first)
//	GET  /api/events?from=&to=  day range
//	GET  /api/events?q=word     title/description search
//	POST /api/events            add a raw record
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleEventsGet(w, r)
	case http.MethodPost:
		s.handleEventsPost(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleEventsGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc := s.cfg.Location()

	s.mu.Lock()
	defer s.mu.Unlock()

	if day := q.Get("date"); day != "" {
		t, ok := dategrid.ParseDate(day, loc)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		writeJSON(w, http.StatusOK, orEmpty(s.index.ForDate(t)))
		return
	}
	if from, to := q.Get("from"), q.Get("to"); from != "" || to != "" {
		f, okF := dategrid.ParseDate(from, loc)
		t, okT := dategrid.ParseDate(to, loc)
		if !okF || !okT {
			writeError(w, http.StatusBadRequest, "invalid from/to")
			return
		}
		writeJSON(w, http.StatusOK, orEmpty(s.index.Between(f, t)))
		return
	}
	if kw := q.Get("q"); kw != "" {
		writeJSON(w, http.StatusOK, orEmpty(event.Search(s.events, kw)))
		return
	}
	writeJSON(w, http.StatusOK, orEmpty(s.events))
}

func (s *Server) handleEventsPost(w http.ResponseWriter, r *http.Request) {
	var raw event.Raw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	ev, conflicts := s.svc.Add(s.events, raw)
	s.events = append(s.events, ev)
	s.index = event.BuildIndex(s.events)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, eventMutationResponse{Event: ev, Conflicts: conflicts})
}

// handleEventByID serves id-scoped operations:
//
//	PUT    /api/events/{id}       patch + re-normalize
//	DELETE /api/events/{id}
//	POST   /api/events/{id}/move  {"date": "YYYY-MM-DD"}
func (s *Server) handleEventByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/events/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodPut:
		s.updateEvent(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteEvent(w, id)
	case action == "move" && r.Method == http.MethodPost:
		s.moveEvent(w, r, id)
	case action == "" && r.Method == http.MethodGet:
		s.getEvent(w, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) getEvent(w http.ResponseWriter, id string) {
	s.mu.Lock()
	ev := event.FindByID(s.events, id)
	s.mu.Unlock()
	if ev == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, *ev)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request, id string) {
	var patch event.Raw
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	updated, conflicts := s.svc.Update(s.events, id, patch)
	if updated != nil {
		s.replaceEventLocked(*updated)
	}
	s.mu.Unlock()

	if updated == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, eventMutationResponse{Event: *updated, Conflicts: conflicts})
}

func (s *Server) deleteEvent(w http.ResponseWriter, id string) {
	s.mu.Lock()
	removed := s.svc.Delete(s.events, id)
	if removed != nil {
		kept := s.events[:0]
		for _, ev := range s.events {
			if ev.ID != id {
				kept = append(kept, ev)
			}
		}
		s.events = kept
		s.index = event.BuildIndex(s.events)
	}
	s.mu.Unlock()

	if removed == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, eventMutationResponse{Event: *removed})
}

func (s *Server) moveEvent(w http.ResponseWriter, r *http.Request, id string) {
	target, ok := s.parseDateBody(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	moved, conflicts := s.svc.Move(s.events, id, target)
	if moved != nil {
		s.replaceEventLocked(*moved)
	}
	s.mu.Unlock()

	if moved == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, eventMutationResponse{Event: *moved, Conflicts: conflicts})
}

// replaceEventLocked swaps the stored copy of ev and rebuilds the index.
// Caller holds s.mu.
func (s *Server) replaceEventLocked(ev event.Event) {
	for i := range s.events {
		if s.events[i].ID == ev.ID {
			s.events[i] = ev
			break
		}
	}
	s.index = event.BuildIndex(s.events)
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var raw event.Raw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	s.mu.Lock()
	conflicts := s.svc.CheckConflicts(s.events, raw)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, struct {
		Conflicts []event.Conflict `json:"conflicts"`
	}{Conflicts: conflicts})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.RefreshFeeds(r.Context())

	s.mu.Lock()
	count := len(s.events)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, struct {
		Events int `json:"events"`
	}{Events: count})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.mu.Lock()
	body := ics.Export(s.events)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calview.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// orEmpty keeps JSON list responses as [] instead of null.
func orEmpty(events []event.Event) []event.Event {
	if events == nil {
		return []event.Event{}
	}
	return events
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

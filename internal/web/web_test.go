package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"calview/internal/config"
	"calview/internal/event"
	"calview/internal/view"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.WeekStart = "monday"
	cfg.CacheDir = t.TempDir()
	cfg.Normalize()
	return NewServer(cfg)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestViewNavigateAndTransitionEnd(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/view/navigate", `{"date":"2030-06-15"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("navigate = %d: %s", rec.Code, rec.Body.String())
	}
	var snap view.State
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("bad snapshot: %v", err)
	}
	if !snap.InTransition {
		t.Fatal("navigate to another page must start a transition")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/view/transition-end", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("bad snapshot: %v", err)
	}
	if snap.InTransition || snap.Year != 2030 || snap.Month != 6 {
		t.Fatalf("after transition-end: %+v", snap)
	}

	// A stray second signal is harmless.
	rec = doJSON(t, h, http.MethodPost, "/api/view/transition-end", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate transition-end = %d", rec.Code)
	}
}

func TestViewModeValidation(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/view/mode", `{"mode":"diagonal"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid mode = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/view/mode", `{"mode":"week"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set mode = %d", rec.Code)
	}
	var snap view.State
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Mode != view.ModeWeek || snap.RenderRows != 1 || len(snap.Current) != 7 {
		t.Fatalf("week snapshot = %+v", snap)
	}
}

func TestEventCRUDOverHTTP(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	// Add.
	rec := doJSON(t, h, http.MethodPost, "/api/events",
		`{"title":"Standup","startDate":"2024-03-15","startTime":"09:00","endTime":"09:30"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add = %d: %s", rec.Code, rec.Body.String())
	}
	var created eventMutationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Event.ID == "" || len(created.Conflicts) != 0 {
		t.Fatalf("created = %+v", created)
	}

	// A second overlapping add reports the conflict.
	rec = doJSON(t, h, http.MethodPost, "/api/events",
		`{"title":"Review","startDate":"2024-03-15","startTime":"09:15","endTime":"10:00"}`)
	var overlapped eventMutationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &overlapped); err != nil {
		t.Fatal(err)
	}
	if len(overlapped.Conflicts) != 1 || overlapped.Conflicts[0].Event.ID != created.Event.ID {
		t.Fatalf("conflicts = %+v", overlapped.Conflicts)
	}

	// Day query returns both, sorted by start.
	rec = doJSON(t, h, http.MethodGet, "/api/events?date=2024-03-15", "")
	var day []event.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &day); err != nil {
		t.Fatal(err)
	}
	if len(day) != 2 || day[0].StartTime != "09:00" {
		t.Fatalf("day = %+v", day)
	}

	// Update.
	rec = doJSON(t, h, http.MethodPut, "/api/events/"+created.Event.ID, `{"title":"Daily Standup"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", rec.Code, rec.Body.String())
	}

	// Move.
	rec = doJSON(t, h, http.MethodPost, "/api/events/"+created.Event.ID+"/move", `{"date":"2024-03-20"}`)
	var moved eventMutationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &moved); err != nil {
		t.Fatal(err)
	}
	if moved.Event.StartDate != "2024-03-20" || moved.Event.StartTime != "09:00" {
		t.Fatalf("moved = %+v", moved.Event)
	}

	// Search.
	rec = doJSON(t, h, http.MethodGet, "/api/events?q=daily", "")
	var found []event.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &found); err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Title != "Daily Standup" {
		t.Fatalf("search = %+v", found)
	}

	// Delete, then the id is gone.
	rec = doJSON(t, h, http.MethodDelete, "/api/events/"+created.Event.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/events/"+created.Event.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("double delete = %d", rec.Code)
	}

	// Notifications recorded every mutation.
	rec = doJSON(t, h, http.MethodGet, "/api/notifications", "")
	var notes []Notice
	if err := json.Unmarshal(rec.Body.Bytes(), &notes); err != nil {
		t.Fatal(err)
	}
	types := map[string]int{}
	for _, n := range notes {
		types[n.Type]++
	}
	if types["event-add"] != 2 || types["event-update"] != 2 || types["event-delete"] != 1 {
		t.Fatalf("notification types = %v", types)
	}
}

func TestConflictsEndpointIsPure(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	doJSON(t, h, http.MethodPost, "/api/events",
		`{"id":"a","startDate":"2024-03-15","startTime":"09:00","endTime":"10:00"}`)

	rec := doJSON(t, h, http.MethodPost, "/api/conflicts",
		`{"startDate":"2024-03-15","startTime":"09:30","endTime":"09:45"}`)
	var resp struct {
		Conflicts []event.Conflict `json:"conflicts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Conflicts) != 1 {
		t.Fatalf("conflicts = %+v", resp.Conflicts)
	}

	// The probe record was not stored.
	rec = doJSON(t, h, http.MethodGet, "/api/events", "")
	var all []event.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("collection = %+v", all)
	}
}

func TestLoadEventsAndExport(t *testing.T) {
	s := newTestServer(t)
	s.LoadEvents([]event.Raw{
		{ID: "a", Title: "Imported", Date: "2024-03-15", StartTime: "09:00", EndTime: "10:00"},
		{Title: "All Day", Date: "2024-03-16"},
	})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/export.ics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "SUMMARY:Imported") || !strings.Contains(body, "SUMMARY:All Day") {
		t.Fatalf("export body:\n%s", body)
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "admin", Password: "s3cret"}
	cfg.Normalize()
	s := NewServer(cfg)
	h := s.Handler()

	// /health stays open.
	rec := doJSON(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health with auth enabled = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/view", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	req.SetBasicAuth("admin", "s3cret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("authenticated = %d", rr.Code)
	}
}

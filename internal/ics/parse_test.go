package ics

import (
	"strings"
	"testing"
	"time"

	"calview/internal/event"
)

const sampleFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:single-1\r\n" +
	"SUMMARY:Dentist\r\n" +
	"DESCRIPTION:Bring the referral\r\n" +
	"DTSTART:20240315T090000Z\r\n" +
	"DTEND:20240315T093000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:allday-1\r\n" +
	"SUMMARY:Founding Day\r\n" +
	"DTSTART;VALUE=DATE:20240320\r\n" +
	"DTEND;VALUE=DATE:20240321\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:weekly-1\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20240304T100000Z\r\n" +
	"DTEND:20240304T101500Z\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=4\r\n" +
	"EXDATE:20240318T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseFeed(t *testing.T) {
	src := Source{ID: "team", URL: "https://example.com/team.ics"}

	events, err := ParseFeed(src, []byte(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("parsed %d events, want 3", len(events))
	}

	byUID := map[string]ParsedEvent{}
	for _, ev := range events {
		byUID[ev.UID] = ev
	}

	single := byUID["single-1"]
	if single.Summary != "Dentist" || single.AllDay {
		t.Fatalf("single = %+v", single)
	}
	if !single.Start.Equal(time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("single start = %v", single.Start)
	}

	if !byUID["allday-1"].AllDay {
		t.Fatal("VALUE=DATE event not detected as all-day")
	}

	weekly := byUID["weekly-1"]
	if weekly.RawRRule == "" || len(weekly.ExDates) != 1 {
		t.Fatalf("weekly = %+v", weekly)
	}
}

func TestParseFeedEmptyBody(t *testing.T) {
	if _, err := ParseFeed(Source{ID: "x"}, nil); err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestExpandOccurrences(t *testing.T) {
	src := Source{ID: "team", URL: "https://example.com/team.ics"}
	events, err := ParseFeed(src, []byte(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed error = %v", err)
	}

	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ExpandOccurrences error = %v", err)
	}

	var weekly, single, allday int
	for _, occ := range res.Occurrences {
		switch occ.UID {
		case "weekly-1":
			weekly++
		case "single-1":
			single++
		case "allday-1":
			allday++
		}
	}
	if single != 1 || allday != 1 {
		t.Fatalf("single=%d allday=%d, want 1/1", single, allday)
	}
	// COUNT=4 (Mar 4, 11, 18, 25) minus the EXDATE on Mar 18.
	if weekly != 3 {
		t.Fatalf("weekly occurrences = %d, want 3", weekly)
	}
}

func TestExpandRejectsInvertedRange(t *testing.T) {
	_, err := ExpandOccurrences(nil, ExpandConfig{
		RangeStart: time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestOccurrenceRawAndExport(t *testing.T) {
	src := Source{ID: "team", Color: "green"}
	events, err := ParseFeed(src, []byte(sampleFeed))
	if err != nil {
		t.Fatalf("ParseFeed error = %v", err)
	}
	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("ExpandOccurrences error = %v", err)
	}

	norm := event.Normalizer{GenerateID: func() string { return "should-not-be-used" }, Location: time.UTC}
	var imported []event.Event
	for _, occ := range res.Occurrences {
		imported = append(imported, norm.Normalize(OccurrenceRaw(occ, src.Color)))
	}

	for _, ev := range imported {
		if !strings.HasPrefix(ev.ID, "feed:team:") {
			t.Fatalf("imported id = %q, want deterministic feed id", ev.ID)
		}
		if ev.Color != "green" {
			t.Fatalf("imported color = %q", ev.Color)
		}
		if ev.Title == "Founding Day" && ev.EndTime != "" {
			t.Fatalf("all-day import must stay untimed: %+v", ev)
		}
	}

	out := Export(imported)
	if !strings.Contains(out, "BEGIN:VCALENDAR") || !strings.Contains(out, "SUMMARY:Dentist") {
		t.Fatalf("export output missing events:\n%s", out)
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://example.com/secret/path.ics?token=abc")
	if got != "https://example.com/...(redacted)" {
		t.Fatalf("redactURL = %q", got)
	}
	if got := redactURL("nonsense"); got != "ics://...(redacted)" {
		t.Fatalf("redactURL fallback = %q", got)
	}
}

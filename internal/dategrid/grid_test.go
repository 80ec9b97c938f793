package dategrid

import (
	"testing"
	"time"
)

func TestBuildMonthCoversWholeWeeks(t *testing.T) {
	t.Parallel()

	for month := time.January; month <= time.December; month++ {
		for weekStart := 0; weekStart < 7; weekStart++ {
			anchor := time.Date(2024, month, 15, 0, 0, 0, 0, time.UTC)
			cells := BuildMonth(anchor, weekStart)

			if len(cells)%7 != 0 {
				t.Fatalf("month %v weekStart %d: length %d not a multiple of 7", month, weekStart, len(cells))
			}
			if got := int(cells[0].Date.Weekday()); got != weekStart {
				t.Fatalf("month %v weekStart %d: first cell weekday %d", month, weekStart, got)
			}

			seen := map[int]bool{}
			for _, c := range cells {
				if !c.Current {
					continue
				}
				if c.Month != int(month) {
					t.Fatalf("current cell %s outside month %v", c.Key, month)
				}
				if seen[c.Day] {
					t.Fatalf("day %d appears twice in month %v", c.Day, month)
				}
				seen[c.Day] = true
			}
			lastDay := time.Date(2024, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
			if len(seen) != lastDay {
				t.Fatalf("month %v: %d current days, want %d", month, len(seen), lastDay)
			}
		}
	}
}

func TestBuildMonthMarch2024MondayStart(t *testing.T) {
	t.Parallel()

	anchor := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	cells := BuildMonth(anchor, 1)

	if len(cells) != 35 {
		t.Fatalf("expected 35 cells, got %d", len(cells))
	}
	first := cells[0]
	if first.Year != 2024 || first.Month != 2 || first.Day != 26 {
		t.Fatalf("first cell = %s, want 2024-2-26", first.Key)
	}
	if first.Current {
		t.Fatal("leading filler cell should not be marked current")
	}
	last := cells[len(cells)-1]
	if last.Year != 2024 || last.Month != 3 || last.Day != 31 {
		t.Fatalf("last cell = %s, want 2024-3-31", last.Key)
	}
	if last.Date.Weekday() != time.Sunday {
		t.Fatalf("last cell weekday = %v, want Sunday", last.Date.Weekday())
	}
}

func TestBuildMonthFillerCellsCarryRealDates(t *testing.T) {
	t.Parallel()

	// May 2024 starts on a Wednesday; with Sunday start there are three
	// leading fillers: April 28, 29, 30.
	cells := BuildMonth(time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), 0)
	want := []int{28, 29, 30}
	for i, day := range want {
		c := cells[i]
		if c.Current || c.Month != 4 || c.Day != day {
			t.Fatalf("filler %d = %s current=%v, want 2024-4-%d", i, c.Key, c.Current, day)
		}
	}
}

func TestBuildWeek(t *testing.T) {
	t.Parallel()

	// 2024-03-01 is a Friday; with Monday start the week runs Feb 26 .. Mar 3.
	anchor := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	cells := BuildWeek(anchor, 1)

	if len(cells) != 7 {
		t.Fatalf("expected 7 cells, got %d", len(cells))
	}
	if cells[0].Key != "2024-2-26" {
		t.Fatalf("week starts at %s, want 2024-2-26", cells[0].Key)
	}
	if cells[6].Key != "2024-3-3" {
		t.Fatalf("week ends at %s, want 2024-3-3", cells[6].Key)
	}
	// Cross-month cells in the anchor's week are dimmed via Current=false.
	for _, c := range cells {
		wantCurrent := c.Month == 3
		if c.Current != wantCurrent {
			t.Fatalf("cell %s: current=%v, want %v", c.Key, c.Current, wantCurrent)
		}
	}
}

func TestSameDay(t *testing.T) {
	t.Parallel()

	a := time.Date(2024, time.June, 10, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, time.June, 10, 0, 1, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Fatal("same calendar day with different times should match")
	}
	if SameDay(a, b.AddDate(0, 0, 1)) {
		t.Fatal("adjacent days should not match")
	}
}

func TestWeekdaysRotation(t *testing.T) {
	t.Parallel()

	got := Weekdays(1)
	if got[0] != "Mon" || got[6] != "Sun" {
		t.Fatalf("Weekdays(1) = %v", got)
	}
	if g := Weekdays(0); g[0] != "Sun" {
		t.Fatalf("Weekdays(0) = %v", g)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		ok   bool
		want string
	}{
		{"2024-03-15", true, "2024-3-15"},
		{"2024-03-15T09:30:00Z", true, "2024-3-15"},
		{"", false, ""},
		{"not-a-date", false, ""},
		{"2024-13-40", false, ""},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in, time.UTC)
		if ok != tt.ok {
			t.Fatalf("ParseDate(%q) ok=%v, want %v", tt.in, ok, tt.ok)
		}
		if ok && DayKey(got) != tt.want {
			t.Fatalf("ParseDate(%q) = %s, want %s", tt.in, DayKey(got), tt.want)
		}
	}
}

package recur

import (
	"testing"
	"time"

	"github.com/agis/ecal/internal/event"
)

func TestExpandPassThroughWithoutRecurrence(t *testing.T) {
	base := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.Local)
	in := []event.Event{
		{UID: "a", Summary: "one", Start: base, End: base.Add(time.Hour)},
		{UID: "b", Summary: "two", Start: base.AddDate(0, 0, 1), End: base.AddDate(0, 0, 1).Add(time.Hour)},
	}
	out, err := Expand(in, base.AddDate(0, 0, -7), base.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("got %d events, want %d", len(out), len(in))
	}
	for i := range out {
		if out[i].OriginUID != "" {
			t.Errorf("event %s gained OriginUID %q without recurring", out[i].UID, out[i].OriginUID)
		}
	}
}

func TestExpandWeekly(t *testing.T) {
	start := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.Local)
	in := []event.Event{{
		UID:     "w1",
		Summary: "weekly sync",
		Start:   start,
		End:     start.Add(time.Hour),
		RRule:   "FREQ=WEEKLY",
	}}
	windowStart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	windowEnd := time.Date(2024, time.January, 22, 0, 0, 0, 0, time.Local)

	out, err := Expand(in, windowStart, windowEnd)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d occurrences, want 3: %+v", len(out), out)
	}
	for i, occ := range out {
		wantStart := start.AddDate(0, 0, 7*i)
		if !occ.Start.Equal(wantStart) {
			t.Errorf("occurrence %d starts %v, want %v", i, occ.Start, wantStart)
		}
		if !occ.End.Equal(wantStart.Add(time.Hour)) {
			t.Errorf("occurrence %d ends %v, want %v", i, occ.End, wantStart.Add(time.Hour))
		}
		if occ.OriginUID != "w1" {
			t.Errorf("occurrence %d OriginUID = %q, want w1", i, occ.OriginUID)
		}
		if occ.Summary != "weekly sync" {
			t.Errorf("occurrence %d lost summary: %q", i, occ.Summary)
		}
	}
}

func TestExpandExDate(t *testing.T) {
	start := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.Local)
	in := []event.Event{{
		UID:    "w1",
		Start:  start,
		End:    start.Add(time.Hour),
		RRule:  "FREQ=WEEKLY",
		ExDate: "20240108T100000",
	}}
	out, err := Expand(in,
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.January, 22, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d occurrences, want 2 after EXDATE: %+v", len(out), out)
	}
	for _, occ := range out {
		if occ.Start.Day() == 8 {
			t.Errorf("excluded occurrence still present: %v", occ.Start)
		}
	}
}

func TestExpandExRule(t *testing.T) {
	// 2024-01-01 is a Monday: a daily week with Mondays excluded.
	start := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.Local)
	in := []event.Event{{
		UID:    "d1",
		Start:  start,
		End:    start.Add(time.Hour),
		RRule:  "FREQ=DAILY;COUNT=7",
		ExRule: "FREQ=WEEKLY",
	}}
	out, err := Expand(in,
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.January, 15, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("got %d occurrences, want 6 after EXRULE: %+v", len(out), out)
	}
	for _, occ := range out {
		if occ.Start.Weekday() == time.Monday {
			t.Errorf("excluded weekday still present: %v", occ.Start)
		}
		if occ.OriginUID != "d1" {
			t.Errorf("occurrence OriginUID = %q, want d1", occ.OriginUID)
		}
	}
}

func TestExpandRDateOnly(t *testing.T) {
	start := time.Date(2024, time.February, 1, 14, 0, 0, 0, time.Local)
	in := []event.Event{{
		UID:   "r1",
		Start: start,
		End:   start.Add(time.Hour),
		RDate: "20240215T140000",
	}}
	out, err := Expand(in,
		time.Date(2024, time.February, 1, 0, 0, 0, 0, time.Local),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d occurrences, want dtstart plus one RDATE: %+v", len(out), out)
	}
}

func TestExpandAllDaySnapsToMidnight(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	in := []event.Event{{
		UID:    "ad",
		Start:  start,
		End:    start.AddDate(0, 0, 1),
		AllDay: true,
		RRule:  "FREQ=WEEKLY;COUNT=2",
	}}
	out, err := Expand(in, start, start.AddDate(0, 0, 21))
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d occurrences, want 2", len(out))
	}
	for _, occ := range out {
		if occ.Start.Hour() != 0 || occ.Start.Minute() != 0 {
			t.Errorf("all-day occurrence not at midnight: %v", occ.Start)
		}
		if got := occ.End.Sub(occ.Start); got != 24*time.Hour {
			t.Errorf("all-day occurrence length %v, want 24h", got)
		}
	}
}

func TestExpandErrors(t *testing.T) {
	windowStart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.Local)
	windowEnd := windowStart.AddDate(0, 1, 0)
	tests := []struct {
		name string
		ev   event.Event
	}{
		{
			name: "missing dtstart",
			ev:   event.Event{UID: "x", RRule: "FREQ=DAILY"},
		},
		{
			name: "invalid rrule",
			ev:   event.Event{UID: "x", Start: windowStart, RRule: "FREQ=SOMETIMES"},
		},
		{
			name: "invalid exrule",
			ev:   event.Event{UID: "x", Start: windowStart, RRule: "FREQ=DAILY", ExRule: "FREQ=NEVER"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Expand([]event.Event{tt.ev}, windowStart, windowEnd); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agis/ecal/internal/event"
)

func writeCalendar(t *testing.T, dir, name string, vevents ...string) string {
	t.Helper()
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
	}
	lines = append(lines, vevents...)
	lines = append(lines, "END:VCALENDAR", "")
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\r\n")), 0o644); err != nil {
		t.Fatalf("write calendar: %v", err)
	}
	return path
}

func vevent(lines ...string) string {
	all := append([]string{"BEGIN:VEVENT", "DTSTAMP:20260301T000000Z"}, lines...)
	return strings.Join(append(all, "END:VEVENT"), "\r\n")
}

func TestICSLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeCalendar(t, dir, "cal.ics",
		vevent("UID:timed", "DTSTART:20260303T100000Z", "DTEND:20260303T110000Z", "SUMMARY:standup", "LOCATION:room 4"),
		vevent("UID:allday", "DTSTART;VALUE=DATE:20260310", "SUMMARY:offsite"),
		vevent("UID:recurring", "DTSTART:20260302T090000Z", "DTEND:20260302T093000Z", "RRULE:FREQ=WEEKLY", "SUMMARY:weekly"),
	)

	b, err := NewICSBackend([]string{path}, false)
	if err != nil {
		t.Fatalf("NewICSBackend: %v", err)
	}
	if b.ReadOnly() {
		t.Error("single file must be writable")
	}
	events, err := b.Events(context.Background())
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	byUID := map[string]event.Event{}
	for _, ev := range events {
		byUID[ev.UID] = ev
	}

	timed := byUID["timed"]
	if timed.Summary != "standup" || timed.Location != "room 4" {
		t.Errorf("timed event fields wrong: %+v", timed)
	}
	if timed.AllDay {
		t.Error("timed event marked all-day")
	}
	if got := timed.EffectiveEnd().Sub(timed.Start); got != time.Hour {
		t.Errorf("timed event length %v, want 1h", got)
	}

	allday := byUID["allday"]
	if !allday.AllDay {
		t.Error("VALUE=DATE event not marked all-day")
	}
	if allday.Start.Hour() != 0 {
		t.Errorf("all-day start not at local midnight: %v", allday.Start)
	}
	// Missing DTEND on an all-day event means one day, exclusive end.
	if got := allday.End.Sub(allday.Start); got != 24*time.Hour {
		t.Errorf("all-day length %v, want 24h", got)
	}

	if byUID["recurring"].RRule != "FREQ=WEEKLY" {
		t.Errorf("RRULE not preserved: %q", byUID["recurring"].RRule)
	}
}

func TestICSLoadSkipsMalformedEvents(t *testing.T) {
	dir := t.TempDir()
	path := writeCalendar(t, dir, "cal.ics",
		vevent("UID:good", "DTSTART:20260303T100000Z", "DTEND:20260303T110000Z", "SUMMARY:kept"),
		vevent("UID:nostart", "SUMMARY:broken"),
		vevent("UID:inverted", "DTSTART:20260303T110000Z", "DTEND:20260303T100000Z", "SUMMARY:backwards"),
	)

	b, err := NewICSBackend([]string{path}, false)
	if err != nil {
		t.Fatalf("NewICSBackend: %v", err)
	}
	events, _ := b.Events(context.Background())
	if len(events) != 1 || events[0].UID != "good" {
		t.Fatalf("got %d events, want only the well-formed one", len(events))
	}
	diags := b.Diagnostics()
	if len(diags) != 2 {
		t.Fatalf("got %d diagnostics, want 2: %v", len(diags), diags)
	}
	for _, d := range diags {
		if !strings.Contains(d, "skipped event") {
			t.Errorf("diagnostic %q missing context", d)
		}
	}
}

func TestICSMultipleFilesReadOnly(t *testing.T) {
	dir := t.TempDir()
	p1 := writeCalendar(t, dir, "one.ics",
		vevent("UID:shared", "DTSTART:20260303T100000Z", "DTEND:20260303T110000Z", "SUMMARY:first"))
	p2 := writeCalendar(t, dir, "two.ics",
		vevent("UID:shared", "DTSTART:20260304T100000Z", "DTEND:20260304T110000Z", "SUMMARY:second"))

	b, err := NewICSBackend([]string{p1, p2}, false)
	if err != nil {
		t.Fatalf("NewICSBackend: %v", err)
	}
	if !b.ReadOnly() {
		t.Error("multiple files must force read-only")
	}
	events, _ := b.Events(context.Background())
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	// Same uid in different files must not collide.
	uids := map[string]bool{}
	for _, ev := range events {
		uids[ev.UID] = true
	}
	if !uids["File0:shared"] || !uids["File1:shared"] {
		t.Errorf("uid prefixes missing: %v", uids)
	}

	ctx := context.Background()
	if err := b.CreateEvent(ctx, event.Event{UID: "x"}); !errors.Is(err, event.ErrReadOnly) {
		t.Errorf("CreateEvent = %v, want ErrReadOnly", err)
	}
	if err := b.DeleteEvent(ctx, "File0:shared"); !errors.Is(err, event.ErrReadOnly) {
		t.Errorf("DeleteEvent = %v, want ErrReadOnly", err)
	}
}

func TestICSWriteRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := writeCalendar(t, dir, "cal.ics",
		vevent("UID:keep", "DTSTART:20260303T100000Z", "DTEND:20260303T110000Z", "SUMMARY:keep"))

	b, err := NewICSBackend([]string{path}, true)
	if err != nil {
		t.Fatalf("NewICSBackend: %v", err)
	}
	ctx := context.Background()

	start := time.Date(2026, time.March, 5, 15, 0, 0, 0, time.UTC)
	added := event.Event{
		UID:          "added",
		Summary:      "review",
		Location:     "call",
		Start:        start,
		End:          start.Add(45 * time.Minute),
		Transparency: event.TranspFree,
		Alarms:       []event.Alarm{{Trigger: -15 * time.Minute, Action: "DISPLAY"}},
	}
	if err := b.CreateEvent(ctx, added); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := b.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Errorf("backup file missing: %v", err)
	}

	// A fresh backend must see the persisted event.
	b2, err := NewICSBackend([]string{path}, false)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	events, _ := b2.Events(ctx)
	if len(events) != 2 {
		t.Fatalf("got %d events after reopen, want 2", len(events))
	}
	var got event.Event
	for _, ev := range events {
		if ev.UID == "added" {
			got = ev
		}
	}
	if got.UID == "" {
		t.Fatal("added event not persisted")
	}
	if got.Summary != "review" || got.Location != "call" {
		t.Errorf("persisted fields wrong: %+v", got)
	}
	if !got.Start.Equal(start) {
		t.Errorf("persisted start %v, want %v", got.Start, start)
	}
	if got.Transparency != event.TranspFree {
		t.Errorf("persisted transparency %q, want free", got.Transparency)
	}
	if len(got.Alarms) != 1 || got.Alarms[0].Trigger != -15*time.Minute {
		t.Errorf("persisted alarms wrong: %+v", got.Alarms)
	}

	// Delete and verify it stays gone.
	if err := b2.DeleteEvent(ctx, "added"); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if err := b2.Sync(ctx); err != nil {
		t.Fatalf("Sync after delete: %v", err)
	}
	b3, err := NewICSBackend([]string{path}, false)
	if err != nil {
		t.Fatalf("reopen after delete: %v", err)
	}
	events, _ = b3.Events(ctx)
	if len(events) != 1 || events[0].UID != "keep" {
		t.Fatalf("delete not persisted: %+v", events)
	}
}

func TestICSNotFound(t *testing.T) {
	dir := t.TempDir()
	path := writeCalendar(t, dir, "cal.ics",
		vevent("UID:a", "DTSTART:20260303T100000Z", "DTEND:20260303T110000Z", "SUMMARY:a"))

	b, err := NewICSBackend([]string{path}, false)
	if err != nil {
		t.Fatalf("NewICSBackend: %v", err)
	}
	ctx := context.Background()
	if err := b.UpdateEvent(ctx, event.Event{UID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateEvent = %v, want ErrNotFound", err)
	}
	if err := b.DeleteEvent(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteEvent = %v, want ErrNotFound", err)
	}
}

func TestParseICalDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "PT15M", want: 15 * time.Minute},
		{in: "-PT15M", want: -15 * time.Minute},
		{in: "P1DT2H", want: 26 * time.Hour},
		{in: "P2W", want: 14 * 24 * time.Hour},
		{in: "PT1H30M", want: 90 * time.Minute},
		{in: "", wantErr: true},
		{in: "15M", wantErr: true},
		{in: "PT1X", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseICalDuration(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseICalDuration(%q) succeeded, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseICalDuration(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseICalDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatICalDurationRoundtrip(t *testing.T) {
	for _, d := range []time.Duration{
		15 * time.Minute,
		-15 * time.Minute,
		26 * time.Hour,
		90 * time.Minute,
		24 * time.Hour,
		0,
	} {
		s := formatICalDuration(d)
		back, err := parseICalDuration(s)
		if err != nil {
			t.Fatalf("parse(%q): %v", s, err)
		}
		if back != d {
			t.Errorf("roundtrip %v -> %q -> %v", d, s, back)
		}
	}
}

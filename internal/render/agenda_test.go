package render

import (
	"strings"
	"testing"
	"time"

	"github.com/agis/ecal/internal/event"
)

func testAgenda(p *fakePrinter, now time.Time) *Agenda {
	opts := DefaultOptions()
	opts.Military = true
	return &Agenda{Printer: p, Opts: opts, Now: now}
}

func TestRenderListEmpty(t *testing.T) {
	p := &fakePrinter{}
	a := testAgenda(p, weekStart)

	if n := a.RenderList(nil, false, false); n != 0 {
		t.Errorf("RenderList(nil) = %d, want 0", n)
	}
	if !strings.Contains(p.b.String(), "No Events Found") {
		t.Errorf("missing empty banner: %q", p.b.String())
	}
}

func TestRenderListBannerAndDayHeaders(t *testing.T) {
	p := &fakePrinter{}
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.Local)
	a := testAgenda(p, now)

	tue := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.Local)
	events := []event.Event{
		{UID: "a", Summary: "standup", Start: tue, End: tue.Add(time.Hour)},
		{UID: "b", Summary: "review", Start: tue.Add(2 * time.Hour), End: tue.Add(3 * time.Hour)},
		{UID: "c", Summary: "dentist", Start: tue.AddDate(0, 0, 1), End: tue.AddDate(0, 0, 1).Add(time.Hour)},
	}
	if n := a.RenderList(events, false, false); n != 3 {
		t.Fatalf("RenderList = %d, want 3", n)
	}

	out := p.b.String()
	if !strings.Contains(out, "3 Events Found") {
		t.Errorf("missing count banner: %q", out)
	}
	// The day header prints once per day, not per event.
	if got := strings.Count(out, "Tue Mar 03"); got != 1 {
		t.Errorf("Tuesday header printed %d times, want 1", got)
	}
	if got := strings.Count(out, "Wed Mar 04"); got != 1 {
		t.Errorf("Wednesday header printed %d times, want 1", got)
	}
	for _, want := range []string{"10:00", "12:00", "standup", "review", "dentist", " busy "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderEventsYearDateAndRecursTag(t *testing.T) {
	p := &fakePrinter{}
	a := testAgenda(p, weekStart)

	tue := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.Local)
	events := []event.Event{
		{UID: "w", Summary: "weekly sync", Start: tue, End: tue.Add(time.Hour), RRule: "FREQ=WEEKLY"},
	}
	a.RenderEvents(events, true, true)

	out := p.b.String()
	if !strings.Contains(out, "Tue 03-Mar-26") {
		t.Errorf("year-date header missing: %q", out)
	}
	if !strings.Contains(out, "Recurs") {
		t.Errorf("Recurs tag missing: %q", out)
	}
	if strings.Contains(out, "10:00") {
		t.Errorf("origin listing must not print a clock: %q", out)
	}
}

func TestRenderListIgnoreStarted(t *testing.T) {
	p := &fakePrinter{}
	now := time.Date(2026, time.March, 3, 11, 0, 0, 0, time.Local)
	a := testAgenda(p, now)
	a.Opts.IgnoreStarted = true

	started := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.Local)
	upcoming := time.Date(2026, time.March, 3, 15, 0, 0, 0, time.Local)
	events := []event.Event{
		{UID: "a", Summary: "already running", Start: started, End: started.Add(2 * time.Hour)},
		{UID: "b", Summary: "later", Start: upcoming, End: upcoming.Add(time.Hour)},
	}
	if n := a.RenderList(events, false, false); n != 1 {
		t.Errorf("RenderList = %d, want 1 after skipping started", n)
	}
	if strings.Contains(p.b.String(), "already running") {
		t.Error("started event was rendered")
	}
}

func TestPrintEventAllDayAndDetails(t *testing.T) {
	p := &fakePrinter{}
	a := testAgenda(p, weekStart)
	a.Opts.Outputs.UID = true

	start := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.Local)
	events := []event.Event{{
		UID:          "ad1",
		Summary:      "offsite",
		Location:     "Lisbon",
		Start:        start,
		End:          start.AddDate(0, 0, 3), // exclusive
		AllDay:       true,
		Transparency: event.TranspFree,
		Alarms:       []event.Alarm{{Trigger: -30 * time.Minute, Action: "DISPLAY"}},
	}}
	a.RenderEvents(events, false, false)

	out := p.b.String()
	for _, want := range []string{" to 06-03", "AL:30m", " free ", "offsite", "[Lisbon]", "<ad1>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q in %q", want, out)
		}
	}
}

func TestPrintDescriptionBox(t *testing.T) {
	p := &fakePrinter{}
	a := testAgenda(p, weekStart)
	a.Opts.Outputs.Description = true
	a.Opts.Outputs.Width = 50

	start := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.Local)
	events := []event.Event{{
		UID:         "d1",
		Summary:     "planning",
		Description: "first line\nand a second line that needs wrapping to fit",
		Start:       start,
		End:         start.Add(time.Hour),
	}}
	a.RenderEvents(events, false, false)

	out := p.b.String()
	if !strings.Contains(out, "Description:") {
		t.Fatalf("description block missing: %q", out)
	}
	var borders, body int
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "+") {
			borders++
		}
		if strings.HasPrefix(trimmed, "|") {
			body++
			if !strings.HasSuffix(trimmed, "|") {
				t.Errorf("unterminated box line %q", line)
			}
		}
	}
	if borders != 2 {
		t.Errorf("got %d border lines, want top and bottom", borders)
	}
	if body < 3 {
		t.Errorf("got %d boxed lines, want the wrapped description", body)
	}
	if !strings.Contains(out, "first line") {
		t.Error("description text missing")
	}
}

func TestWrapChunks(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{name: "fits whole", in: "short", width: 10, want: []string{"short"}},
		{name: "empty", in: "", width: 10, want: []string{""}},
		{name: "word wrap", in: "alpha beta gamma", width: 10, want: []string{"alpha beta", "gamma"}},
		{name: "long word", in: "abcdefghijkl", width: 5, want: []string{"abcde", "fghij", "kl"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapChunks(tt.in, tt.width)
			if len(got) != len(tt.want) {
				t.Fatalf("wrapChunks(%q, %d) = %v, want %v", tt.in, tt.width, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

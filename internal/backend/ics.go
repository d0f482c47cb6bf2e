package backend

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/agis/ecal/internal/event"
)

// ICSBackend stores events in one or more iCalendar files. Opening more
// than one file forces read-only mode with uids prefixed by file index,
// so events from different files cannot collide.
type ICSBackend struct {
	paths    []string
	backup   bool
	readOnly bool

	order []string
	cache map[string]event.Event
	diags []string
}

// NewICSBackend loads the given .ics files. A VEVENT that fails decoding
// is excluded from the snapshot with a diagnostic; it never aborts the
// load.
func NewICSBackend(paths []string, backup bool) (*ICSBackend, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("ics backend: no calendar file configured")
	}
	b := &ICSBackend{
		paths:    paths,
		backup:   backup,
		readOnly: len(paths) > 1,
	}
	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *ICSBackend) load() error {
	b.order = nil
	b.cache = map[string]event.Event{}
	b.diags = nil
	for i, path := range b.paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("ics backend: %w", err)
		}
		cal, err := ical.ParseCalendar(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("ics backend: parse %s: %w", path, err)
		}
		for _, ve := range cal.Events() {
			ev, err := decodeVEvent(ve)
			if err != nil {
				b.diags = append(b.diags, fmt.Sprintf("%s: skipped event: %v", path, err))
				continue
			}
			if len(b.paths) > 1 {
				ev.UID = fmt.Sprintf("File%d:%s", i, ev.UID)
			}
			if _, seen := b.cache[ev.UID]; !seen {
				b.order = append(b.order, ev.UID)
			}
			b.cache[ev.UID] = ev
		}
	}
	return nil
}

// Events returns the loaded snapshot in file order.
func (b *ICSBackend) Events(context.Context) ([]event.Event, error) {
	out := make([]event.Event, 0, len(b.order))
	for _, uid := range b.order {
		out = append(out, b.cache[uid])
	}
	return out, nil
}

func (b *ICSBackend) CreateEvent(_ context.Context, ev event.Event) error {
	if b.readOnly {
		return event.ErrReadOnly
	}
	if _, exists := b.cache[ev.UID]; !exists {
		b.order = append(b.order, ev.UID)
	}
	b.cache[ev.UID] = ev
	return nil
}

func (b *ICSBackend) UpdateEvent(_ context.Context, ev event.Event) error {
	if b.readOnly {
		return event.ErrReadOnly
	}
	if _, exists := b.cache[ev.UID]; !exists {
		return fmt.Errorf("ics backend: %w: %s", ErrNotFound, ev.UID)
	}
	b.cache[ev.UID] = ev
	return nil
}

func (b *ICSBackend) DeleteEvent(_ context.Context, uid string) error {
	if b.readOnly {
		return event.ErrReadOnly
	}
	if _, exists := b.cache[uid]; !exists {
		return fmt.Errorf("ics backend: %w: %s", ErrNotFound, uid)
	}
	delete(b.cache, uid)
	for i, u := range b.order {
		if u == uid {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

// Sync serializes the cache back to the calendar file, optionally
// keeping a .bak copy of the previous contents.
func (b *ICSBackend) Sync(context.Context) error {
	if b.readOnly {
		return nil
	}
	path := b.paths[0]
	if b.backup {
		if old, err := os.ReadFile(path); err == nil {
			if err := os.WriteFile(path+".bak", old, 0o644); err != nil {
				return fmt.Errorf("ics backend: backup: %w", err)
			}
		}
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	for _, uid := range b.order {
		encodeVEvent(cal, b.cache[uid])
	}
	if err := os.WriteFile(path, []byte(cal.Serialize()), 0o644); err != nil {
		return fmt.Errorf("ics backend: %w", err)
	}
	return b.load()
}

func (b *ICSBackend) ReadOnly() bool { return b.readOnly }

// Diagnostics lists events excluded during the last load.
func (b *ICSBackend) Diagnostics() []string { return b.diags }

// decodeVEvent turns one VEVENT into the normalized model, failing
// loudly on malformed values instead of guessing.
func decodeVEvent(ve *ical.VEvent) (event.Event, error) {
	var ev event.Event

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || strings.TrimSpace(uid.Value) == "" {
		return ev, fmt.Errorf("missing uid in %q", componentSummary(ve))
	}
	ev.UID = uid.Value

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil || strings.TrimSpace(dtstart.Value) == "" {
		return ev, fmt.Errorf("event %s: missing dtstart", ev.UID)
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("event %s: bad dtstart %q: %w", ev.UID, dtstart.Value, err)
	}
	ev.AllDay = isDateValue(dtstart)
	if ev.AllDay {
		// Naive dates resolve to local midnight.
		y, m, d := start.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}
	ev.Start = start

	if dtend := ve.GetProperty(ical.ComponentPropertyDtEnd); dtend != nil {
		end, err := ve.GetEndAt()
		if err != nil {
			return ev, fmt.Errorf("event %s: bad dtend %q: %w", ev.UID, dtend.Value, err)
		}
		if ev.AllDay {
			y, m, d := end.Date()
			end = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
		}
		ev.End = end
	} else if dur := ve.GetProperty("DURATION"); dur != nil {
		d, err := parseICalDuration(dur.Value)
		if err != nil {
			return ev, fmt.Errorf("event %s: bad duration %q: %w", ev.UID, dur.Value, err)
		}
		ev.Duration = d
	} else if ev.AllDay {
		ev.End = ev.Start.AddDate(0, 0, 1)
	}
	if !ev.End.IsZero() && ev.End.Before(ev.Start) {
		return ev, fmt.Errorf("event %s: dtend precedes dtstart", ev.UID)
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}

	ev.Transparency = event.TranspBusy
	if p := ve.GetProperty("TRANSP"); p != nil && strings.EqualFold(p.Value, "TRANSPARENT") {
		ev.Transparency = event.TranspFree
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}
	if p := ve.GetProperty("RDATE"); p != nil {
		ev.RDate = p.Value
	}
	if p := ve.GetProperty("EXRULE"); p != nil {
		ev.ExRule = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyExdate); p != nil {
		ev.ExDate = p.Value
	}

	for _, al := range ve.Alarms() {
		trigger := al.GetProperty("TRIGGER")
		if trigger == nil {
			continue
		}
		d, err := parseICalDuration(trigger.Value)
		if err != nil {
			return ev, fmt.Errorf("event %s: bad alarm trigger %q: %w", ev.UID, trigger.Value, err)
		}
		action := "DISPLAY"
		if p := al.GetProperty("ACTION"); p != nil {
			action = p.Value
		}
		ev.Alarms = append(ev.Alarms, event.Alarm{Trigger: d, Action: action})
	}

	return ev, nil
}

func encodeVEvent(cal *ical.Calendar, ev event.Event) {
	ve := cal.AddEvent(ev.UID)
	ve.SetDtStampTime(time.Now())
	ve.SetSummary(ev.Summary)
	if ev.AllDay {
		ve.SetAllDayStartAt(ev.Start)
		if !ev.End.IsZero() {
			ve.SetAllDayEndAt(ev.End)
		}
	} else {
		ve.SetStartAt(ev.Start)
		if !ev.End.IsZero() {
			ve.SetEndAt(ev.End)
		} else if ev.Duration != 0 {
			ve.SetProperty("DURATION", formatICalDuration(ev.Duration))
		}
	}
	if ev.Location != "" {
		ve.SetLocation(ev.Location)
	}
	if ev.Description != "" {
		ve.SetDescription(ev.Description)
	}
	if ev.Transparency == event.TranspFree {
		ve.SetProperty("TRANSP", "TRANSPARENT")
	} else {
		ve.SetProperty("TRANSP", "OPAQUE")
	}
	if ev.RRule != "" {
		ve.SetProperty(ical.ComponentPropertyRrule, ev.RRule)
	}
	if ev.RDate != "" {
		ve.SetProperty("RDATE", ev.RDate)
	}
	if ev.ExRule != "" {
		ve.SetProperty("EXRULE", ev.ExRule)
	}
	if ev.ExDate != "" {
		ve.SetProperty(ical.ComponentPropertyExdate, ev.ExDate)
	}
	for _, alarm := range ev.Alarms {
		al := ve.AddAlarm()
		al.SetProperty("ACTION", alarm.Action)
		al.SetProperty("TRIGGER", formatICalDuration(alarm.Trigger))
	}
}

func componentSummary(ve *ical.VEvent) string {
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		return p.Value
	}
	return "(no summary)"
}

func isDateValue(p *ical.IANAProperty) bool {
	if p.ICalParameters != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

// parseICalDuration parses an RFC 5545 duration (e.g. -PT15M, P1DT2H,
// P2W).
func parseICalDuration(v string) (time.Duration, error) {
	s := strings.TrimSpace(strings.ToUpper(v))
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("missing P designator")
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'T':
			inTime = true
		default:
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, fmt.Errorf("bad component %q", string(r))
			}
			num = ""
			switch {
			case r == 'W':
				total += time.Duration(n) * 7 * 24 * time.Hour
			case r == 'D':
				total += time.Duration(n) * 24 * time.Hour
			case r == 'H' && inTime:
				total += time.Duration(n) * time.Hour
			case r == 'M' && inTime:
				total += time.Duration(n) * time.Minute
			case r == 'S' && inTime:
				total += time.Duration(n) * time.Second
			default:
				return 0, fmt.Errorf("unexpected designator %q", string(r))
			}
		}
	}
	if num != "" {
		return 0, fmt.Errorf("trailing digits %q", num)
	}
	if neg {
		total = -total
	}
	return total, nil
}

func formatICalDuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteString("-")
		d = -d
	}
	b.WriteString("P")
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	if days > 0 {
		fmt.Fprintf(&b, "%dD", days)
	}
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	seconds := (d % time.Minute) / time.Second
	if hours > 0 || minutes > 0 || seconds > 0 || days == 0 {
		b.WriteString("T")
		if hours > 0 {
			fmt.Fprintf(&b, "%dH", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&b, "%dM", minutes)
		}
		if seconds > 0 || (hours == 0 && minutes == 0) {
			fmt.Fprintf(&b, "%dS", seconds)
		}
	}
	return b.String()
}

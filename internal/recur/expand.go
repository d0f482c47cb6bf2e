// Package recur expands recurring events into concrete occurrences for
// a query window. The RRULE grammar itself is delegated to
// teambition/rrule-go; this package only orchestrates expansion and
// links occurrences back to their origin events.
package recur

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/agis/ecal/internal/event"
)

// maxOccurrencesPerEvent caps expansion of runaway rules.
const maxOccurrencesPerEvent = 5000

// Expand produces the renderable event set for [windowStart, windowEnd):
// occurrences of recurring events overlapping the window, plus all
// non-recurring events passed through unchanged. When no event in the
// snapshot is recurring, the input is returned as-is without touching
// the rule machinery.
func Expand(events []event.Event, windowStart, windowEnd time.Time) ([]event.Event, error) {
	anyRecurring := false
	for _, ev := range events {
		if ev.Recurring() {
			anyRecurring = true
			break
		}
	}
	if !anyRecurring {
		return events, nil
	}

	out := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if !ev.Recurring() {
			out = append(out, ev)
			continue
		}
		occs, err := expandOne(ev, windowStart, windowEnd)
		if err != nil {
			return nil, err
		}
		out = append(out, occs...)
	}
	return out, nil
}

func expandOne(ev event.Event, windowStart, windowEnd time.Time) ([]event.Event, error) {
	if ev.Start.IsZero() {
		return nil, fmt.Errorf("event %s: missing dtstart", ev.UID)
	}

	// Widen the lower bound so occurrences that start before the window
	// but still overlap it are kept; the query layer does the final
	// overlap filtering.
	dur := ev.EffectiveEnd().Sub(ev.Start)
	loc := ev.Start.Location()
	from := windowStart.Add(-dur).In(loc)
	to := windowEnd.In(loc)

	var set rrule.Set
	if strings.TrimSpace(ev.RRule) != "" {
		r, err := rrule.StrToRRule(ev.RRule)
		if err != nil {
			return nil, fmt.Errorf("event %s: invalid RRULE %q: %w", ev.UID, ev.RRule, err)
		}
		r.DTStart(ev.Start)
		set.RRule(r)
	} else {
		set.DTStart(ev.Start)
		set.RDate(ev.Start)
	}
	for _, t := range parseDateList(ev.RDate, ev.Start.Location()) {
		set.RDate(t)
	}
	if strings.TrimSpace(ev.ExRule) != "" {
		xr, err := rrule.StrToRRule(ev.ExRule)
		if err != nil {
			return nil, fmt.Errorf("event %s: invalid EXRULE %q: %w", ev.UID, ev.ExRule, err)
		}
		// rrule.Set carries no exclusion rules, only exclusion dates, so
		// the rule is expanded over the window and fed in instant by
		// instant.
		xr.DTStart(ev.Start)
		for _, t := range xr.Between(from, to, true) {
			set.ExDate(t)
		}
	}
	for _, t := range parseDateList(ev.ExDate, ev.Start.Location()) {
		set.ExDate(t.In(ev.Start.Location()))
	}

	times := set.Between(from, to, true)
	if len(times) > maxOccurrencesPerEvent {
		times = times[:maxOccurrencesPerEvent]
	}

	occs := make([]event.Event, 0, len(times))
	for _, start := range times {
		occ := ev
		occ.OriginUID = ev.UID
		if ev.AllDay {
			day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			occ.Start = day
			occ.End = day.Add(dur)
			if dur <= 0 {
				occ.End = day.Add(24 * time.Hour)
			}
		} else {
			occ.Start = start
			occ.End = start.Add(dur)
		}
		occs = append(occs, occ)
	}
	return occs, nil
}

// parseDateList parses a comma-separated iCalendar date or date-time
// list (RDATE/EXDATE property values).
func parseDateList(v string, loc *time.Location) []time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	var out []time.Time
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if t, err := parseICalTime(part, loc); err == nil {
			out = append(out, t)
		}
	}
	return out
}

func parseICalTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

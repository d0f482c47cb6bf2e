// Package query selects events by date range, text pattern, and
// recurrence category, returning them in deterministic order.
package query

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/agis/ecal/internal/event"
	"github.com/agis/ecal/internal/recur"
)

// Category narrows a search to a recurrence class.
type Category int

const (
	All Category = iota
	Recurring
	NonRecurring
	// OriginalOfRecurring matches against expanded occurrences but
	// returns the defining origin events, so edits and deletes target
	// the definition rather than a transient occurrence.
	OriginalOfRecurring
)

// Request describes one search. Zero Start/End fall back to the engine's
// default horizon.
type Request struct {
	Start      time.Time
	End        time.Time
	Pattern    string
	Field      string
	IgnoreCase bool
	Category   Category
}

// Error wraps a bad request (unparsable pattern, inverted range) so the
// caller can report it without treating it as an engine failure.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// Engine runs searches against one store snapshot.
type Engine struct {
	store *event.Store

	// DefaultStart and DefaultEnd bound searches with no explicit range.
	DefaultStart time.Time
	DefaultEnd   time.Time
}

// NewEngine builds an engine over store with the given default horizon.
func NewEngine(store *event.Store, defaultStart, defaultEnd time.Time) *Engine {
	return &Engine{store: store, DefaultStart: defaultStart, DefaultEnd: defaultEnd}
}

// Search returns events matching the request, sorted ascending by
// (start, summary). When the store holds recurring events the search
// runs against the expanded occurrence set for the resolved window; the
// NonRecurring and OriginalOfRecurring categories consult the raw store.
func (e *Engine) Search(req Request) ([]event.Event, error) {
	start, end := req.Start, req.End
	if start.IsZero() {
		start = e.DefaultStart
	}
	if end.IsZero() {
		end = e.DefaultEnd
	}
	if end.Before(start) {
		return nil, &Error{Reason: "search range end precedes start"}
	}

	var re *regexp.Regexp
	if req.Pattern != "" {
		pat := req.Pattern
		if req.IgnoreCase {
			pat = "(?i)" + pat
		}
		var err error
		re, err = regexp.Compile(pat)
		if err != nil {
			return nil, &Error{Reason: "invalid search pattern", Err: err}
		}
	}

	var pool []event.Event
	if e.store.HasRecurring() && req.Category != NonRecurring {
		expanded, err := recur.Expand(e.store.Snapshot(), start, end)
		if err != nil {
			return nil, err
		}
		pool = expanded
	} else {
		pool = e.store.Snapshot()
	}

	matched := make([]event.Event, 0, len(pool))
	for _, ev := range pool {
		if e.matches(ev, start, end, re, req.Field) {
			matched = append(matched, ev)
		}
	}

	switch req.Category {
	case Recurring:
		matched = filterUID(matched, func(uid string) bool { return e.store.Recurring(uid) })
	case NonRecurring:
		matched = filterUID(matched, func(uid string) bool { return !e.store.Recurring(uid) })
	case OriginalOfRecurring:
		seen := map[string]struct{}{}
		for _, ev := range matched {
			uid := ev.EffectiveUID()
			if e.store.Recurring(uid) {
				seen[uid] = struct{}{}
			}
		}
		matched = matched[:0]
		for _, ev := range e.store.Snapshot() {
			if _, ok := seen[ev.UID]; ok {
				matched = append(matched, ev)
			}
		}
	}

	sortEvents(matched)
	return matched, nil
}

func (e *Engine) matches(ev event.Event, start, end time.Time, re *regexp.Regexp, field string) bool {
	// Overlap, not containment: only events entirely outside the range
	// are rejected.
	if ev.EffectiveEnd().Before(start) || ev.Start.After(end) {
		return false
	}
	if re == nil {
		return true
	}
	val, ok := ev.Field(field)
	if !ok {
		return false
	}
	return re.MatchString(val)
}

func filterUID(events []event.Event, keep func(string) bool) []event.Event {
	out := events[:0]
	for _, ev := range events {
		if keep(ev.EffectiveUID()) {
			out = append(out, ev)
		}
	}
	return out
}

func sortEvents(events []event.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].Summary < events[j].Summary
	})
}

// Package event holds the normalized in-memory calendar event model and
// the snapshot store the rendering and query layers operate on.
package event

import (
	"strings"
	"time"
)

// Transparency marks whether an event blocks time on the calendar.
type Transparency string

const (
	TranspBusy Transparency = "busy"
	TranspFree Transparency = "free"
)

// Alarm is one reminder attached to an event. Trigger is the offset from
// the event start; negative values fire before the event.
type Alarm struct {
	Trigger time.Duration
	Action  string
}

// Event is one scheduled item in canonical form. Origin events come from
// a backend snapshot; occurrences produced by recurrence expansion are
// Event values with OriginUID set and are never persisted.
type Event struct {
	UID         string
	Summary     string
	Location    string
	Description string

	Start    time.Time
	End      time.Time
	Duration time.Duration // used when End is zero
	AllDay   bool

	Transparency Transparency
	Alarms       []Alarm

	// Raw iCalendar recurrence directives. Any non-empty RRule or RDate
	// marks the event recurring.
	RRule  string
	RDate  string
	ExRule string
	ExDate string

	// OriginUID links an expanded occurrence to its defining event.
	// Empty on origin events.
	OriginUID string
}

// Recurring reports whether the event carries a recurrence definition.
func (e Event) Recurring() bool {
	return strings.TrimSpace(e.RRule) != "" || strings.TrimSpace(e.RDate) != ""
}

// EffectiveEnd resolves the end instant: the explicit end when present,
// otherwise start plus duration. Punctual events (no end, no duration)
// end when they start.
func (e Event) EffectiveEnd() time.Time {
	if !e.End.IsZero() {
		return e.End
	}
	return e.Start.Add(e.Duration)
}

// EffectiveUID is the uid used for recurring-index membership: the
// origin uid for occurrences, the event's own uid otherwise.
func (e Event) EffectiveUID() string {
	if e.OriginUID != "" {
		return e.OriginUID
	}
	return e.UID
}

// DisplayTitle returns the summary or a placeholder when it is blank.
func (e Event) DisplayTitle() string {
	if strings.TrimSpace(e.Summary) != "" {
		return e.Summary
	}
	return "(No title)"
}

// Field returns the serialized value of a named text field and whether
// the event carries that field at all. Used by the query engine.
func (e Event) Field(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "summary":
		return e.Summary, e.Summary != ""
	case "location":
		return e.Location, e.Location != ""
	case "description":
		return e.Description, e.Description != ""
	case "uid":
		return e.UID, e.UID != ""
	case "transp", "transparency":
		return string(e.Transparency), e.Transparency != ""
	default:
		return "", false
	}
}

package event

import (
	"errors"
	"sort"
)

// ErrReadOnly is returned by write paths when the store has been forced
// into read-only mode (duplicate uids in the snapshot, or a read-only
// backend).
var ErrReadOnly = errors.New("calendar is read-only")

// Store holds one immutable snapshot of origin events keyed by uid,
// together with the derived index of recurring uids. A render pass
// operates on one Store; mutation goes through the backend, after which
// the caller builds a fresh Store.
type Store struct {
	events    []Event
	byUID     map[string]Event
	recurUIDs map[string]struct{}
	readOnly  bool
	warning   string
}

// NewStore builds a store from a backend snapshot. Duplicate uids force
// the store into deduplicated read-only mode, last-seen event per uid
// winning; the condition is reported through Warning.
func NewStore(snapshot []Event) *Store {
	s := &Store{
		byUID:     make(map[string]Event, len(snapshot)),
		recurUIDs: map[string]struct{}{},
	}
	duplicates := false
	order := make([]string, 0, len(snapshot))
	for _, ev := range snapshot {
		if _, seen := s.byUID[ev.UID]; seen {
			duplicates = true
		} else {
			order = append(order, ev.UID)
		}
		s.byUID[ev.UID] = ev
	}
	if duplicates {
		s.readOnly = true
		s.warning = "duplicate UIDs found: calendar deduplicated and set to read-only"
	}
	s.events = make([]Event, 0, len(order))
	for _, uid := range order {
		ev := s.byUID[uid]
		s.events = append(s.events, ev)
		if ev.Recurring() {
			s.recurUIDs[uid] = struct{}{}
		}
	}
	return s
}

// Snapshot returns a defensive copy of the origin events.
func (s *Store) Snapshot() []Event {
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Get returns the origin event for uid.
func (s *Store) Get(uid string) (Event, bool) {
	ev, ok := s.byUID[uid]
	return ev, ok
}

// Len reports the number of origin events.
func (s *Store) Len() int { return len(s.events) }

// Recurring reports whether uid belongs to a recurring origin event.
func (s *Store) Recurring(uid string) bool {
	_, ok := s.recurUIDs[uid]
	return ok
}

// HasRecurring reports whether any event in the snapshot is recurring.
func (s *Store) HasRecurring() bool { return len(s.recurUIDs) > 0 }

// RecurringUIDs returns the recurring-index uids in sorted order.
func (s *Store) RecurringUIDs() []string {
	out := make([]string, 0, len(s.recurUIDs))
	for uid := range s.recurUIDs {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// ReadOnly reports whether write operations must be rejected.
func (s *Store) ReadOnly() bool { return s.readOnly }

// SetReadOnly forces read-only mode, used when the backend itself is
// read-only.
func (s *Store) SetReadOnly() { s.readOnly = true }

// Warning returns the dedup diagnostic, or "" when the snapshot was
// clean.
func (s *Store) Warning() string { return s.warning }

// CheckWritable returns ErrReadOnly when the store rejects writes.
func (s *Store) CheckWritable() error {
	if s.readOnly {
		return ErrReadOnly
	}
	return nil
}

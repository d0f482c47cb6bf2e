// Package backend owns event persistence. The rendering engine never
// talks to a backend directly: commands take one snapshot per render and
// route all mutation through this interface.
package backend

import (
	"context"
	"errors"

	"github.com/agis/ecal/internal/event"
)

// ErrNotFound is wrapped by backends when a uid does not exist.
var ErrNotFound = errors.New("no such event")

// Backend is a calendar storage engine.
type Backend interface {
	// Events returns a snapshot of all origin events.
	Events(ctx context.Context) ([]event.Event, error)
	CreateEvent(ctx context.Context, ev event.Event) error
	UpdateEvent(ctx context.Context, ev event.Event) error
	DeleteEvent(ctx context.Context, uid string) error
	// Sync flushes pending changes to durable storage. Backends with
	// immediate writes may make this a no-op.
	Sync(ctx context.Context) error
	ReadOnly() bool
}

// Diagnoser is implemented by backends that can report per-event load
// diagnostics (malformed entries that were excluded from the snapshot).
type Diagnoser interface {
	Diagnostics() []string
}

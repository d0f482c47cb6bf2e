package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agis/ecal/internal/event"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	uid          TEXT PRIMARY KEY,
	summary      TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	start_unix   INTEGER NOT NULL,
	end_unix     INTEGER,
	duration_sec INTEGER NOT NULL DEFAULT 0,
	all_day      INTEGER NOT NULL DEFAULT 0,
	transparency TEXT NOT NULL DEFAULT 'busy',
	alarms       TEXT NOT NULL DEFAULT '',
	rrule        TEXT NOT NULL DEFAULT '',
	rdate        TEXT NOT NULL DEFAULT '',
	exrule       TEXT NOT NULL DEFAULT '',
	exdate       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS events_start_idx ON events(start_unix);
`

// SQLiteBackend stores events in a local SQLite database. Writes are
// applied immediately, so Sync is a no-op.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (creating if needed) the database at path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite backend: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite backend: init schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

// Close releases the database handle.
func (b *SQLiteBackend) Close() error { return b.db.Close() }

func (b *SQLiteBackend) Events(ctx context.Context) ([]event.Event, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT uid, summary, location, description, start_unix, end_unix,
		       duration_sec, all_day, transparency, alarms,
		       rrule, rdate, exrule, exdate
		FROM events ORDER BY start_unix, summary`)
	if err != nil {
		return nil, fmt.Errorf("sqlite backend: %w", err)
	}
	defer rows.Close()

	var out []event.Event
	for rows.Next() {
		var ev event.Event
		var startUnix int64
		var endUnix sql.NullInt64
		var durationSec int64
		var allDay int
		var transp, alarms string
		if err := rows.Scan(&ev.UID, &ev.Summary, &ev.Location, &ev.Description,
			&startUnix, &endUnix, &durationSec, &allDay, &transp, &alarms,
			&ev.RRule, &ev.RDate, &ev.ExRule, &ev.ExDate); err != nil {
			return nil, fmt.Errorf("sqlite backend: %w", err)
		}
		ev.Start = time.Unix(startUnix, 0).In(time.Local)
		if endUnix.Valid {
			ev.End = time.Unix(endUnix.Int64, 0).In(time.Local)
		}
		ev.Duration = time.Duration(durationSec) * time.Second
		ev.AllDay = allDay != 0
		ev.Transparency = event.Transparency(transp)
		ev.Alarms = decodeAlarms(alarms)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (b *SQLiteBackend) CreateEvent(ctx context.Context, ev event.Event) error {
	res, err := b.db.ExecContext(ctx, `
		INSERT INTO events (uid, summary, location, description, start_unix,
			end_unix, duration_sec, all_day, transparency, alarms,
			rrule, rdate, exrule, exdate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO NOTHING`,
		sqliteArgs(ev)...)
	if err != nil {
		return fmt.Errorf("sqlite backend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlite backend: event with uid %s already exists", ev.UID)
	}
	return nil
}

func (b *SQLiteBackend) UpdateEvent(ctx context.Context, ev event.Event) error {
	res, err := b.db.ExecContext(ctx, `
		UPDATE events SET summary=?, location=?, description=?, start_unix=?,
			end_unix=?, duration_sec=?, all_day=?, transparency=?, alarms=?,
			rrule=?, rdate=?, exrule=?, exdate=?
		WHERE uid=?`,
		append(sqliteArgs(ev)[1:], ev.UID)...)
	if err != nil {
		return fmt.Errorf("sqlite backend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlite backend: %w: %s", ErrNotFound, ev.UID)
	}
	return nil
}

func (b *SQLiteBackend) DeleteEvent(ctx context.Context, uid string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM events WHERE uid=?`, uid)
	if err != nil {
		return fmt.Errorf("sqlite backend: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlite backend: %w: %s", ErrNotFound, uid)
	}
	return nil
}

func (b *SQLiteBackend) Sync(context.Context) error { return nil }

func (b *SQLiteBackend) ReadOnly() bool { return false }

func sqliteArgs(ev event.Event) []any {
	var endUnix any
	if !ev.End.IsZero() {
		endUnix = ev.End.Unix()
	}
	allDay := 0
	if ev.AllDay {
		allDay = 1
	}
	transp := string(ev.Transparency)
	if transp == "" {
		transp = string(event.TranspBusy)
	}
	return []any{
		ev.UID, ev.Summary, ev.Location, ev.Description,
		ev.Start.Unix(), endUnix, int64(ev.Duration / time.Second), allDay,
		transp, encodeAlarms(ev.Alarms),
		ev.RRule, ev.RDate, ev.ExRule, ev.ExDate,
	}
}

// Alarms are stored as "action@trigger_seconds" pairs joined by ';'.
func encodeAlarms(alarms []event.Alarm) string {
	parts := make([]string, 0, len(alarms))
	for _, a := range alarms {
		action := a.Action
		if action == "" {
			action = "DISPLAY"
		}
		parts = append(parts, fmt.Sprintf("%s@%d", action, int64(a.Trigger/time.Second)))
	}
	return strings.Join(parts, ";")
}

func decodeAlarms(s string) []event.Alarm {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []event.Alarm
	for _, part := range strings.Split(s, ";") {
		action, secs, ok := strings.Cut(part, "@")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(secs, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, event.Alarm{Action: action, Trigger: time.Duration(n) * time.Second})
	}
	return out
}

// Package persistence journals zone lifecycle events to Postgres. The
// journal is an optional sink: the core engine has no persistence
// requirement, but operators replaying incidents want the event history.
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sony/gobreaker"

	"github.com/sawpanic/zonerun/internal/domain/zone"
)

const insertEventSQL = `
	INSERT INTO zone_events (ts, symbol, event_type, zone_id, side, center, strength)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// EventJournal appends lifecycle events to the zone_events table. Writes go
// through a circuit breaker so a dead database degrades the journal instead
// of stalling bar processing.
type EventJournal struct {
	db      *sqlx.DB
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewEventJournal wraps an open database handle.
func NewEventJournal(db *sqlx.DB, timeout time.Duration) *EventJournal {
	settings := gobreaker.Settings{Name: "zone-event-journal"}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
		return counts.ConsecutiveFailures >= 3
	}
	return &EventJournal{
		db:      db,
		breaker: gobreaker.NewCircuitBreaker(settings),
		timeout: timeout,
	}
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string, timeout time.Duration) (*EventJournal, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	return NewEventJournal(db, timeout), nil
}

// Append writes the bar's events in one transaction. A no-op for empty
// batches.
func (j *EventJournal) Append(ctx context.Context, symbol string, events []zone.Event) error {
	if len(events) == 0 {
		return nil
	}
	_, err := j.breaker.Execute(func() (interface{}, error) {
		return nil, j.append(ctx, symbol, events)
	})
	if err != nil {
		return fmt.Errorf("journal append for %s: %w", symbol, err)
	}
	return nil
}

func (j *EventJournal) append(ctx context.Context, symbol string, events []zone.Event) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, ev := range events {
		if _, err := tx.ExecContext(ctx, insertEventSQL,
			ev.Timestamp, symbol, string(ev.Type), ev.ZoneID, ev.Side, ev.Center, ev.Strength); err != nil {
			return fmt.Errorf("insert %s event: %w", ev.Type, err)
		}
	}
	return tx.Commit()
}

// Close releases the database handle.
func (j *EventJournal) Close() error {
	return j.db.Close()
}

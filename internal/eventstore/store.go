package eventstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is a single append-only fact recorded against an aggregate
// (spec.md Sec.4.6). CommandLog records every drained command as an Event,
// so a session's command stream can be replayed from its event log;
// seat-ownership changes are not recorded as Events.
type Event struct {
	ID            string          `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int64           `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// EventStore is the append-only log every projection and replay engine
// reads from.
type EventStore interface {
	AppendEvent(ctx context.Context, event Event) error
	GetEventsByAggregate(ctx context.Context, aggregateID string, fromVersion int64) ([]Event, error)
	GetEventsByType(ctx context.Context, eventType string, from, to time.Time) ([]Event, error)
	GetAllEvents(ctx context.Context, since time.Time, limit int) ([]Event, error)
}

// PostgresEventStore persists events to a Postgres "events" table, relying
// on a unique (aggregate_id, version) constraint to enforce append-only
// writes: two events can never claim the same version of the same
// aggregate, so a replay can never observe a gap or a fork.
type PostgresEventStore struct {
	pool *pgxpool.Pool
}

// NewPostgresEventStore wraps an existing pgx pool. The events table and its
// unique index must already exist; this package does not create or migrate
// them.
func NewPostgresEventStore(pool *pgxpool.Pool) *PostgresEventStore {
	return &PostgresEventStore{pool: pool}
}

func (s *PostgresEventStore) AppendEvent(ctx context.Context, event Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO events (id, event_type, aggregate_id, aggregate_type, version, timestamp, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, event.ID, event.EventType, event.AggregateID, event.AggregateType, event.Version, event.Timestamp, event.Payload)
	return err
}

func (s *PostgresEventStore) GetEventsByAggregate(ctx context.Context, aggregateID string, fromVersion int64) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_type, aggregate_id, aggregate_type, version, timestamp, payload
		FROM events
		WHERE aggregate_id = $1 AND version >= $2
		ORDER BY version ASC
	`, aggregateID, fromVersion)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresEventStore) GetEventsByType(ctx context.Context, eventType string, from, to time.Time) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_type, aggregate_id, aggregate_type, version, timestamp, payload
		FROM events
		WHERE event_type = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC
	`, eventType, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresEventStore) GetAllEvents(ctx context.Context, since time.Time, limit int) ([]Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_type, aggregate_id, aggregate_type, version, timestamp, payload
		FROM events
		WHERE timestamp >= $1
		ORDER BY timestamp ASC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEvents(rows)
}

// rowScanner is satisfied by pgx.Rows; narrowed here so scanEvents doesn't
// need to import pgx directly for the concrete Rows type.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows rowScanner) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.EventType, &e.AggregateID, &e.AggregateType, &e.Version, &e.Timestamp, &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ABOUTME: Registry event ledger for creation events
// ABOUTME: Append-only, fire-and-forget structured records with actor attribution

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/2389/warden/internal/address"
)

// SaveEvent appends a registry event to the ledger.
func (s *SQLiteStore) SaveEvent(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registry_events (
			event_id, type, record_address, owner_id, derived_name, display_name, actor_address, ts
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		string(event.Type),
		event.RecordAddress.String(),
		event.OwnerID,
		event.DerivedName,
		event.DisplayName,
		event.ActorAddress.String(),
		event.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	s.logger.Debug("saved registry event",
		"event_id", event.ID,
		"type", event.Type,
		"record_address", event.RecordAddress,
	)
	return nil
}

// ListEvents returns the most recent events, newest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, type, record_address, owner_id, derived_name, display_name, actor_address, ts
		 FROM registry_events
		 ORDER BY ts DESC, event_id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		event := &Event{}
		var eventType, recordAddr, actorAddr, ts string

		if err := rows.Scan(
			&event.ID,
			&eventType,
			&recordAddr,
			&event.OwnerID,
			&event.DerivedName,
			&event.DisplayName,
			&actorAddr,
			&ts,
		); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}

		event.Type = EventType(eventType)
		if event.RecordAddress, err = address.Parse(recordAddr); err != nil {
			return nil, fmt.Errorf("parsing record address: %w", err)
		}
		if event.ActorAddress, err = address.Parse(actorAddr); err != nil {
			return nil, fmt.Errorf("parsing actor address: %w", err)
		}
		if event.Timestamp, err = time.Parse(time.RFC3339, ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}

	return events, nil
}

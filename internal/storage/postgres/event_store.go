package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

// EventStore is the PostgreSQL-backed storage.EventStore.
type EventStore struct {
	pool *Pool
}

var _ storage.EventStore = (*EventStore)(nil)

// NewEventStore constructs an EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// InsertBatch upserts events within a single transaction, one row per statement, relying on the
// (signature, event_name, log_index) primary key for idempotency (SPEC_FULL.md §4.6).
func (s *EventStore) InsertBatch(ctx context.Context, events []domain.EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin event batch: %w", err)
	}
	defer tx.Rollback(ctx)

	const stmt = `
		INSERT INTO events (signature, event_name, log_index, slot, block_time, program_id, payload, ingested_at, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (signature, event_name, log_index) DO NOTHING`

	for _, e := range events {
		payload, err := json.Marshal(e.EventPayload)
		if err != nil {
			return fmt.Errorf("marshal payload for %s/%s: %w", e.Signature, e.EventName, err)
		}
		if _, err := tx.Exec(ctx, stmt, e.Signature, e.EventName, e.LogIndex, e.Slot, e.BlockTime, e.ProgramID, payload, e.IngestedAt, string(e.Source)); err != nil {
			return fmt.Errorf("insert event %s/%s: %w", e.Signature, e.EventName, err)
		}
	}

	return tx.Commit(ctx)
}

// ExistingKeys reports which of keys are already persisted, via a single unnest-joined query.
func (s *EventStore) ExistingKeys(ctx context.Context, keys []domain.EventKey) (map[domain.EventKey]bool, error) {
	out := make(map[domain.EventKey]bool, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	sigs := make([]string, len(keys))
	names := make([]string, len(keys))
	idxs := make([]int32, len(keys))
	for i, k := range keys {
		sigs[i] = k.Signature
		names[i] = k.EventName
		idxs[i] = int32(k.LogIndex)
	}

	const q = `
		SELECT e.signature, e.event_name, e.log_index
		FROM events e
		JOIN unnest($1::text[], $2::text[], $3::int[]) AS wanted(signature, event_name, log_index)
			ON e.signature = wanted.signature AND e.event_name = wanted.event_name AND e.log_index = wanted.log_index`

	rows, err := s.pool.Query(ctx, q, sigs, names, idxs)
	if err != nil {
		return nil, fmt.Errorf("query existing event keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k domain.EventKey
		var logIndex int32
		if err := rows.Scan(&k.Signature, &k.EventName, &logIndex); err != nil {
			return nil, fmt.Errorf("scan existing event key: %w", err)
		}
		k.LogIndex = int(logIndex)
		out[k] = true
	}
	return out, rows.Err()
}

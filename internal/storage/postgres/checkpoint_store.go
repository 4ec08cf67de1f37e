package postgres

import (
	"context"
	"fmt"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

// CheckpointStore is the PostgreSQL-backed storage.CheckpointStore.
type CheckpointStore struct {
	pool *Pool
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// NewCheckpointStore constructs a CheckpointStore.
func NewCheckpointStore(pool *Pool) *CheckpointStore {
	return &CheckpointStore{pool: pool}
}

// Load returns every persisted checkpoint, keyed by domain.Checkpoint.Key().
func (s *CheckpointStore) Load(ctx context.Context) (map[string]domain.Checkpoint, error) {
	rows, err := s.pool.Query(ctx, `SELECT program_id, event_name, last_slot, last_signature, updated_at FROM checkpoints`)
	if err != nil {
		return nil, fmt.Errorf("query checkpoints: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Checkpoint)
	for rows.Next() {
		var cp domain.Checkpoint
		if err := rows.Scan(&cp.ProgramID, &cp.EventName, &cp.LastSlot, &cp.LastSignature, &cp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		out[cp.Key()] = cp
	}
	return out, rows.Err()
}

// Save upserts one checkpoint row.
func (s *CheckpointStore) Save(ctx context.Context, cp domain.Checkpoint) error {
	const stmt = `
		INSERT INTO checkpoints (program_id, event_name, last_slot, last_signature, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (program_id, event_name) DO UPDATE SET
			last_slot = EXCLUDED.last_slot,
			last_signature = EXCLUDED.last_signature,
			updated_at = EXCLUDED.updated_at
		WHERE checkpoints.last_slot <= EXCLUDED.last_slot`

	_, err := s.pool.Exec(ctx, stmt, cp.ProgramID, cp.EventName, cp.LastSlot, cp.LastSignature, cp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cp.Key(), err)
	}
	return nil
}

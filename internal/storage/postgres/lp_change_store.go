package postgres

import (
	"context"
	"fmt"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

// LpChangeStore is the PostgreSQL-backed storage.LpChangeStore.
type LpChangeStore struct {
	pool *Pool
}

var _ storage.LpChangeStore = (*LpChangeStore)(nil)

// NewLpChangeStore constructs an LpChangeStore.
func NewLpChangeStore(pool *Pool) *LpChangeStore {
	return &LpChangeStore{pool: pool}
}

// Insert adds one row keyed on (signature, log_index); duplicate inserts are no-ops.
func (s *LpChangeStore) Insert(ctx context.Context, rec domain.LpChangeRecord) error {
	const stmt = `
		INSERT INTO lp_changes
			(signature, log_index, pool_id, "user", change_type, lp_before, lp_after, delta,
			 vault0_before, vault0_after, vault1_before, vault1_after, slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (signature, log_index) DO NOTHING`

	_, err := s.pool.Exec(ctx, stmt,
		rec.Signature, rec.LogIndex, rec.PoolID, rec.User, int16(rec.ChangeType),
		rec.LpBefore, rec.LpAfter, rec.Delta, rec.Vault0Before, rec.Vault0After, rec.Vault1Before, rec.Vault1After, rec.Slot)
	if err != nil {
		return fmt.Errorf("insert lp change %s/%d: %w", rec.Signature, rec.LogIndex, err)
	}
	return nil
}

// LatestForPool returns the most recently recorded row for a pool, by slot then log_index.
func (s *LpChangeStore) LatestForPool(ctx context.Context, poolID string) (domain.LpChangeRecord, error) {
	const q = `
		SELECT signature, log_index, pool_id, "user", change_type, lp_before, lp_after, delta,
			vault0_before, vault0_after, vault1_before, vault1_after, slot
		FROM lp_changes
		WHERE pool_id = $1
		ORDER BY slot DESC, log_index DESC
		LIMIT 1`

	var rec domain.LpChangeRecord
	var changeType int16
	err := s.pool.QueryRow(ctx, q, poolID).Scan(
		&rec.Signature, &rec.LogIndex, &rec.PoolID, &rec.User, &changeType, &rec.LpBefore, &rec.LpAfter, &rec.Delta,
		&rec.Vault0Before, &rec.Vault0After, &rec.Vault1Before, &rec.Vault1After, &rec.Slot)
	if isNotFoundError(err) {
		return domain.LpChangeRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.LpChangeRecord{}, fmt.Errorf("latest lp change for pool %s: %w", poolID, err)
	}
	rec.ChangeType = domain.LpChangeType(changeType)
	return rec, nil
}

package postgres

import (
	"context"
	"fmt"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

// PoolStore is the PostgreSQL-backed storage.PoolStore.
type PoolStore struct {
	pool *Pool
}

var _ storage.PoolStore = (*PoolStore)(nil)

// NewPoolStore constructs a PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// UpsertIfNewer creates or updates a pool row, applying the write only when incomingSlot is not
// older than the stored last_event_slot.
func (s *PoolStore) UpsertIfNewer(ctx context.Context, p domain.Pool) (bool, error) {
	const stmt = `
		INSERT INTO pools (pool_id, mint0, mint1, vault0, vault1, lp_mint, creator, created_slot, last_event_slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (pool_id) DO UPDATE SET
			mint0 = EXCLUDED.mint0, mint1 = EXCLUDED.mint1,
			vault0 = EXCLUDED.vault0, vault1 = EXCLUDED.vault1,
			lp_mint = EXCLUDED.lp_mint, creator = EXCLUDED.creator,
			last_event_slot = EXCLUDED.last_event_slot
		WHERE pools.last_event_slot <= EXCLUDED.last_event_slot
		RETURNING pool_id`

	rows, err := s.pool.Query(ctx, stmt, p.PoolID, p.Mint0, p.Mint1, p.Vault0, p.Vault1, p.LpMint, p.Creator, p.CreatedSlot, p.LastEventSlot)
	if err != nil {
		return false, fmt.Errorf("upsert pool %s: %w", p.PoolID, err)
	}
	defer rows.Close()

	applied := rows.Next()
	return applied, rows.Err()
}

// Get retrieves current pool state.
func (s *PoolStore) Get(ctx context.Context, poolID string) (domain.Pool, error) {
	const q = `SELECT pool_id, mint0, mint1, vault0, vault1, lp_mint, creator, created_slot, last_event_slot
		FROM pools WHERE pool_id = $1`

	var p domain.Pool
	err := s.pool.QueryRow(ctx, q, poolID).Scan(
		&p.PoolID, &p.Mint0, &p.Mint1, &p.Vault0, &p.Vault1, &p.LpMint, &p.Creator, &p.CreatedSlot, &p.LastEventSlot)
	if isNotFoundError(err) {
		return domain.Pool{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Pool{}, fmt.Errorf("get pool %s: %w", poolID, err)
	}
	return p, nil
}

package postgres

import (
	"context"
	"fmt"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

// PointsLedgerStore is the PostgreSQL-backed storage.PointsLedgerStore. Relies on callers
// serializing writes per wallet (internal/views' wallet mutex map); the transaction below still
// guards against duplicate (wallet, signature) rows racing across process restarts.
type PointsLedgerStore struct {
	pool *Pool
}

var _ storage.PointsLedgerStore = (*PointsLedgerStore)(nil)

// NewPointsLedgerStore constructs a PointsLedgerStore.
func NewPointsLedgerStore(pool *Pool) *PointsLedgerStore {
	return &PointsLedgerStore{pool: pool}
}

// InsertFirstOrSubsequent inserts a row keyed on (wallet, signature), deriving
// IsFirstTransaction/PointsGained from whether wallet has any prior row.
func (s *PointsLedgerStore) InsertFirstOrSubsequent(ctx context.Context, entry domain.PointsLedgerEntry) (domain.PointsLedgerEntry, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.PointsLedgerEntry{}, false, fmt.Errorf("begin points insert: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingCount int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM points_ledger WHERE wallet = $1`, entry.Wallet).Scan(&existingCount); err != nil {
		return domain.PointsLedgerEntry{}, false, fmt.Errorf("count points for %s: %w", entry.Wallet, err)
	}

	entry.IsFirstTransaction = existingCount == 0
	if entry.IsFirstTransaction {
		entry.PointsGained = 200
	} else {
		entry.PointsGained = 10
	}

	const stmt = `
		INSERT INTO points_ledger (wallet, signature, is_first_transaction, points_gained, slot, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (wallet, signature) DO NOTHING
		RETURNING is_first_transaction, points_gained, slot, recorded_at`

	var inserted bool
	err = tx.QueryRow(ctx, stmt, entry.Wallet, entry.Signature, entry.IsFirstTransaction, entry.PointsGained, entry.Slot, entry.RecordedAt).
		Scan(&entry.IsFirstTransaction, &entry.PointsGained, &entry.Slot, &entry.RecordedAt)
	switch {
	case err == nil:
		inserted = true
	case isNotFoundError(err):
		if err := tx.QueryRow(ctx, `SELECT is_first_transaction, points_gained, slot, recorded_at FROM points_ledger WHERE wallet = $1 AND signature = $2`,
			entry.Wallet, entry.Signature).Scan(&entry.IsFirstTransaction, &entry.PointsGained, &entry.Slot, &entry.RecordedAt); err != nil {
			return domain.PointsLedgerEntry{}, false, fmt.Errorf("load existing points row %s/%s: %w", entry.Wallet, entry.Signature, err)
		}
	default:
		return domain.PointsLedgerEntry{}, false, fmt.Errorf("insert points row %s/%s: %w", entry.Wallet, entry.Signature, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.PointsLedgerEntry{}, false, fmt.Errorf("commit points insert: %w", err)
	}
	return entry, inserted, nil
}

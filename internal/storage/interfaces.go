package storage

import (
	"context"

	"solana-event-listener/internal/domain"
)

// EventStore is the raw, immutable event log (collection `events`). Idempotent on
// (signature, event_name, log_index); see TESTABLE PROPERTIES §8.4.
type EventStore interface {
	// InsertBatch upserts a batch of events keyed on (signature, event_name, log_index).
	// Re-submitting an already-stored key is a no-op, not an error (SPEC_FULL.md §4.6).
	InsertBatch(ctx context.Context, events []domain.EventRecord) error

	// ExistingKeys reports which of the given keys are already persisted, used by the batch writer
	// to detect partial success after a retried flush (SPEC_FULL.md §4.6).
	ExistingKeys(ctx context.Context, keys []domain.EventKey) (map[domain.EventKey]bool, error)
}

// CheckpointStore persists the durable copy of the checkpoint map (collection `checkpoints`). The
// in-memory copy in internal/checkpoint is authoritative while running; this is read only at
// startup and written on the checkpoint-save timer and on shutdown (SPEC_FULL.md §4.4).
type CheckpointStore interface {
	// Load returns every persisted checkpoint, keyed by domain.Checkpoint.Key().
	Load(ctx context.Context) (map[string]domain.Checkpoint, error)

	// Save upserts one checkpoint row.
	Save(ctx context.Context, cp domain.Checkpoint) error
}

// ScanStore is the append-only audit log of backfill runs (collection `scan_records`).
type ScanStore interface {
	// Create writes the initial "running" row for a new scan.
	Create(ctx context.Context, rec domain.ScanRecord) error

	// Complete updates a scan record's terminal status and counters.
	Complete(ctx context.Context, rec domain.ScanRecord) error
}

// PoolStore is the materialized view of current CPMM pool state (collection `pools`).
type PoolStore interface {
	// UpsertIfNewer creates or updates a pool row, but only applies the write when incomingSlot is
	// not older than the stored LastEventSlot (SPEC_FULL.md §4.7 InitPool/"no-op if newer exists").
	// applied reports whether the write took effect.
	UpsertIfNewer(ctx context.Context, pool domain.Pool) (applied bool, err error)

	// Get retrieves current pool state. Returns ErrNotFound if the pool is unknown.
	Get(ctx context.Context, poolID string) (domain.Pool, error)
}

// LpChangeStore is the append-only LP change ledger (collection `lp_changes`).
type LpChangeStore interface {
	// Insert adds one row keyed on (signature, log_index). Duplicate inserts are no-ops.
	Insert(ctx context.Context, rec domain.LpChangeRecord) error

	// LatestForPool returns the most recently recorded row for a pool, by slot then log_index, used
	// to derive current reserves without incrementing counters (SPEC_FULL.md §4.7).
	LatestForPool(ctx context.Context, poolID string) (domain.LpChangeRecord, error)
}

// NftClaimStore is the append-only NFT claim ledger plus its rebuildable per-mint aggregate
// (collections `nft_claims`, `nft_claim_stats_by_mint`).
type NftClaimStore interface {
	// Insert adds one claim row keyed on (signature, log_index). Duplicate inserts are no-ops.
	Insert(ctx context.Context, rec domain.NftClaimRecord) error

	// RecomputeStats rebuilds the aggregate for one mint from claim rows with slot <= throughSlot,
	// replacing any prior row (SPEC_FULL.md §4.7 "recomputed from a range query").
	RecomputeStats(ctx context.Context, nftMint string, throughSlot int64) (domain.NftClaimStats, error)
}

// ReferralStore is the immutable referral graph (collection `referrals`).
type ReferralStore interface {
	// Insert binds lower (lowercased claimer) to upper (referrer). If lower already has a binding to
	// a different upper, it returns ErrReferralConflict and leaves the existing edge untouched. If
	// lower is already bound to the same upper, it is a no-op.
	Insert(ctx context.Context, rec domain.Referral) error

	// Get retrieves the referral edge for a lowercased claimer. Returns ErrNotFound if unbound.
	Get(ctx context.Context, lower string) (domain.Referral, error)
}

// PointsLedgerStore is the append-only per-wallet points ledger (collection `points_ledger`).
type PointsLedgerStore interface {
	// InsertFirstOrSubsequent inserts a row keyed on (wallet, signature). If this is the first row
	// ever recorded for wallet, it is stored with IsFirstTransaction=true, PointsGained=200;
	// otherwise with false/10, regardless of what the caller passed in entry (SPEC_FULL.md §4.7).
	// Callers MUST serialize calls per wallet; see internal/views for the wallet mutex map.
	// Returns the row as actually stored and whether it was newly inserted (false if the
	// (wallet, signature) key already existed).
	InsertFirstOrSubsequent(ctx context.Context, entry domain.PointsLedgerEntry) (stored domain.PointsLedgerEntry, inserted bool, err error)
}

// RewardDistributionStore is the append-only reward ledger (collection `reward_distributions`),
// supplementing the core registry with the reward crate's model from original_source/.
type RewardDistributionStore interface {
	// Insert adds one row keyed on (signature, log_index). Duplicate inserts are no-ops.
	Insert(ctx context.Context, rec domain.RewardDistributionRecord) error
}

package postgres

import (
	"context"
	"fmt"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

// NftClaimStore is the PostgreSQL-backed storage.NftClaimStore.
type NftClaimStore struct {
	pool *Pool
}

var _ storage.NftClaimStore = (*NftClaimStore)(nil)

// NewNftClaimStore constructs an NftClaimStore.
func NewNftClaimStore(pool *Pool) *NftClaimStore {
	return &NftClaimStore{pool: pool}
}

// Insert adds one claim row keyed on (signature, log_index); duplicate inserts are no-ops.
func (s *NftClaimStore) Insert(ctx context.Context, rec domain.NftClaimRecord) error {
	const stmt = `
		INSERT INTO nft_claims (signature, log_index, nft_mint, claimer, referrer, claim_amount, slot, claim_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (signature, log_index) DO NOTHING`

	_, err := s.pool.Exec(ctx, stmt, rec.Signature, rec.LogIndex, rec.NftMint, rec.Claimer, rec.Referrer, rec.ClaimAmount, rec.Slot, rec.ClaimTime)
	if err != nil {
		return fmt.Errorf("insert nft claim %s/%d: %w", rec.Signature, rec.LogIndex, err)
	}
	return nil
}

// RecomputeStats rebuilds the aggregate for one mint from claim rows with slot <= throughSlot.
func (s *NftClaimStore) RecomputeStats(ctx context.Context, nftMint string, throughSlot int64) (domain.NftClaimStats, error) {
	const q = `
		SELECT COUNT(*), COALESCE(SUM(claim_amount), 0), COALESCE(MAX(claim_time), 0), COUNT(DISTINCT claimer)
		FROM nft_claims
		WHERE nft_mint = $1 AND slot <= $2`

	var stats domain.NftClaimStats
	stats.NftMint = nftMint
	if err := s.pool.QueryRow(ctx, q, nftMint, throughSlot).Scan(&stats.ClaimCount, &stats.TotalAmount, &stats.LastClaimTime, &stats.UniqueClaimers); err != nil {
		return domain.NftClaimStats{}, fmt.Errorf("aggregate nft claims for %s: %w", nftMint, err)
	}

	const upsert = `
		INSERT INTO nft_claim_stats_by_mint (nft_mint, claim_count, total_amount, last_claim_time, unique_claimers)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (nft_mint) DO UPDATE SET
			claim_count = EXCLUDED.claim_count,
			total_amount = EXCLUDED.total_amount,
			last_claim_time = EXCLUDED.last_claim_time,
			unique_claimers = EXCLUDED.unique_claimers`

	if _, err := s.pool.Exec(ctx, upsert, stats.NftMint, stats.ClaimCount, stats.TotalAmount, stats.LastClaimTime, stats.UniqueClaimers); err != nil {
		return domain.NftClaimStats{}, fmt.Errorf("store nft claim stats for %s: %w", nftMint, err)
	}
	return stats, nil
}

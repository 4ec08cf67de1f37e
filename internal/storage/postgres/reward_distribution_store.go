package postgres

import (
	"context"
	"fmt"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

// RewardDistributionStore is the PostgreSQL-backed storage.RewardDistributionStore.
type RewardDistributionStore struct {
	pool *Pool
}

var _ storage.RewardDistributionStore = (*RewardDistributionStore)(nil)

// NewRewardDistributionStore constructs a RewardDistributionStore.
func NewRewardDistributionStore(pool *Pool) *RewardDistributionStore {
	return &RewardDistributionStore{pool: pool}
}

// Insert adds one row keyed on (signature, log_index); duplicate inserts are no-ops.
func (s *RewardDistributionStore) Insert(ctx context.Context, rec domain.RewardDistributionRecord) error {
	const stmt = `
		INSERT INTO reward_distributions
			(signature, log_index, distribution_id, recipient, referrer, reward_token_mint, reward_amount,
			 is_locked, unlock_timestamp, is_referral_reward, slot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (signature, log_index) DO NOTHING`

	_, err := s.pool.Exec(ctx, stmt,
		rec.Signature, rec.LogIndex, rec.DistributionID, rec.Recipient, rec.Referrer, rec.RewardTokenMint,
		rec.RewardAmount, rec.IsLocked, rec.UnlockTimestamp, rec.IsReferralReward, rec.Slot)
	if err != nil {
		return fmt.Errorf("insert reward distribution %s/%d: %w", rec.Signature, rec.LogIndex, err)
	}
	return nil
}

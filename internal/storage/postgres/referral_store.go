package postgres

import (
	"context"
	"fmt"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

// ReferralStore is the PostgreSQL-backed storage.ReferralStore.
type ReferralStore struct {
	pool *Pool
}

var _ storage.ReferralStore = (*ReferralStore)(nil)

// NewReferralStore constructs a ReferralStore.
func NewReferralStore(pool *Pool) *ReferralStore {
	return &ReferralStore{pool: pool}
}

// Insert binds lower to upper. Already-bound-to-a-different-upper returns ErrReferralConflict;
// already-bound-to-the-same-upper is a no-op.
func (s *ReferralStore) Insert(ctx context.Context, rec domain.Referral) error {
	const stmt = `
		INSERT INTO referrals (lower, upper, timestamp)
		VALUES ($1, $2, $3)
		ON CONFLICT (lower) DO NOTHING
		RETURNING upper`

	var returnedUpper string
	err := s.pool.QueryRow(ctx, stmt, rec.Lower, rec.Upper, rec.Timestamp).Scan(&returnedUpper)
	if err == nil {
		return nil // row newly inserted
	}
	if !isNotFoundError(err) {
		return fmt.Errorf("insert referral %s: %w", rec.Lower, err)
	}

	existing, getErr := s.Get(ctx, rec.Lower)
	if getErr != nil {
		return fmt.Errorf("load existing referral %s: %w", rec.Lower, getErr)
	}
	if existing.Upper != rec.Upper {
		return storage.ErrReferralConflict
	}
	return nil
}

// Get retrieves the referral edge for a lowercased claimer.
func (s *ReferralStore) Get(ctx context.Context, lower string) (domain.Referral, error) {
	const q = `SELECT lower, upper, timestamp FROM referrals WHERE lower = $1`

	var r domain.Referral
	err := s.pool.QueryRow(ctx, q, lower).Scan(&r.Lower, &r.Upper, &r.Timestamp)
	if isNotFoundError(err) {
		return domain.Referral{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.Referral{}, fmt.Errorf("get referral %s: %w", lower, err)
	}
	return r, nil
}

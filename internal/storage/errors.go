package storage

import "errors"

// Storage errors for append-only stores.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. Append-only stores do not allow updates.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrReferralConflict is returned by ReferralStore.Insert when the lower address already has a
	// bound referral edge with a different upper. The edge is immutable; this is a non-fatal "view
	// conflict" (SPEC_FULL.md §7), not a duplicate-write idempotency no-op.
	ErrReferralConflict = errors.New("referral edge already bound to a different referrer")
)

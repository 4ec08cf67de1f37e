package postgres

import (
	"context"
	"fmt"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

// ScanStore is the PostgreSQL-backed storage.ScanStore.
type ScanStore struct {
	pool *Pool
}

var _ storage.ScanStore = (*ScanStore)(nil)

// NewScanStore constructs a ScanStore.
func NewScanStore(pool *Pool) *ScanStore {
	return &ScanStore{pool: pool}
}

// Create writes the initial "running" row for a new scan.
func (s *ScanStore) Create(ctx context.Context, rec domain.ScanRecord) error {
	const stmt = `
		INSERT INTO scan_records
			(scan_id, program_id, until_signature, before_signature, until_slot, before_slot, status,
			 events_found, events_backfilled_count, backfilled_signatures, started_at, completed_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (scan_id) DO NOTHING`

	_, err := s.pool.Exec(ctx, stmt,
		rec.ScanID, rec.ProgramID, rec.UntilSignature, rec.BeforeSignature, rec.UntilSlot, rec.BeforeSlot,
		string(rec.Status), rec.EventsFound, rec.EventsBackfilledCount, rec.BackfilledSignatures,
		rec.StartedAt, rec.CompletedAt, rec.ErrorMessage)
	if err != nil {
		return fmt.Errorf("create scan record %s: %w", rec.ScanID, err)
	}
	return nil
}

// Complete updates a scan record's terminal status and counters.
func (s *ScanStore) Complete(ctx context.Context, rec domain.ScanRecord) error {
	const stmt = `
		UPDATE scan_records SET
			status = $2,
			events_found = $3,
			events_backfilled_count = $4,
			backfilled_signatures = $5,
			completed_at = $6,
			error_message = $7
		WHERE scan_id = $1`

	_, err := s.pool.Exec(ctx, stmt,
		rec.ScanID, string(rec.Status), rec.EventsFound, rec.EventsBackfilledCount,
		rec.BackfilledSignatures, rec.CompletedAt, rec.ErrorMessage)
	if err != nil {
		return fmt.Errorf("complete scan record %s: %w", rec.ScanID, err)
	}
	return nil
}

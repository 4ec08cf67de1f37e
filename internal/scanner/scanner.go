// Package scanner is C6: the backfill gap scanner. Given a program and a "since" signature (its
// last known checkpoint), it paginates getSignaturesForAddress back to that point, fetches each
// transaction, extracts and decodes its events, and routes them through the same writer/updaters
// pipeline the live subscriber uses, tagging every row domain.SourceBackfill.
//
// Grounded on the teacher's internal/solana HTTPClient (GetSignaturesForAddress, GetTransaction)
// and its retry/backoff call() helper; the bounded-concurrency worker pool generalizes the
// teacher's RPCMaxConcurrency-style knobs (see config.Config.ScanConcurrency) to a pool of
// transaction fetchers rather than the teacher's single-goroutine polling loop.
package scanner

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sync"
	"time"

	"solana-event-listener/internal/checkpoint"
	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/events"
	"solana-event-listener/internal/extractor"
	"solana-event-listener/internal/logging"
	"solana-event-listener/internal/observability"
	"solana-event-listener/internal/registry"
	"solana-event-listener/internal/solana"
	"solana-event-listener/internal/storage"
	"solana-event-listener/internal/views"
	"solana-event-listener/internal/writer"
)

// Scanner runs bounded-concurrency backfill scans (C6).
type Scanner struct {
	rpc           solana.RPCClient
	table         *registry.Table
	writer        *writer.Writer
	updaters      *views.Updaters
	checkpoints   *checkpoint.Store
	scans         storage.ScanStore
	metrics       *observability.Metrics
	concurrency   int
	highWatermark int
	logger        *logging.Logger
}

// Config bundles a Scanner's collaborators.
type Config struct {
	RPC         solana.RPCClient
	Table       *registry.Table
	Writer      *writer.Writer
	Updaters    *views.Updaters
	Checkpoints *checkpoint.Store
	Scans       storage.ScanStore
	Metrics     *observability.Metrics
	Concurrency int
	// HighWatermark is writer_high_watermark (SPEC_FULL.md §4.5): the scanner yields between
	// signatures whenever the writer's inbound queue depth exceeds it. <=0 disables the check.
	HighWatermark int
	Logger        *logging.Logger
}

// New constructs a Scanner.
func New(cfg Config) *Scanner {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New(os.Stdout, "[scanner] ", logging.LevelInfo)
	}
	return &Scanner{
		rpc: cfg.RPC, table: cfg.Table, writer: cfg.Writer, updaters: cfg.Updaters,
		checkpoints: cfg.Checkpoints, scans: cfg.Scans, metrics: cfg.Metrics,
		concurrency: concurrency, highWatermark: cfg.HighWatermark, logger: logger,
	}
}

// waitForBackpressure blocks while the writer's buffer depth exceeds highWatermark, yielding the
// scanner's goroutine so the writer can catch up (SPEC_FULL.md §4.5's "yields whenever C7's
// inbound queue depth exceeds writer_high_watermark").
func (s *Scanner) waitForBackpressure(ctx context.Context) error {
	if s.highWatermark <= 0 || s.writer == nil {
		return nil
	}
	for s.writer.BufferDepth() > s.highWatermark {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return nil
}

// ScanSince backfills every transaction for programID newer than sinceSignature (exclusive),
// oldest first, recording a ScanRecord audit row for the run. The supervisor wires it as each
// subscriber's idle-timeout gap fill (SPEC_FULL.md §4.3).
func (s *Scanner) ScanSince(ctx context.Context, programID, sinceSignature string) error {
	scanID := fmt.Sprintf("%s-%d", programID, time.Now().UnixNano())
	started := time.Now().UnixMilli()
	s.logger.Debugf("scanner: starting scan %s for %s since %q", scanID, programID, sinceSignature)

	rec := domain.ScanRecord{
		ScanID: scanID, ProgramID: programID, UntilSignature: sinceSignature,
		Status: domain.ScanRunning, StartedAt: started,
	}
	if s.scans != nil {
		if err := s.scans.Create(ctx, rec); err != nil {
			return fmt.Errorf("create scan record: %w", err)
		}
	}

	sigs, err := s.paginateSignatures(ctx, programID, sinceSignature)
	if err != nil {
		s.completeScan(ctx, rec, domain.ScanFailed, 0, nil, err)
		return err
	}

	backfilled, procErr := s.processSignatures(ctx, programID, sigs)
	status := domain.ScanCompleted
	if procErr != nil {
		status = domain.ScanFailed
	}
	s.completeScan(ctx, rec, status, len(sigs), backfilled, procErr)
	if s.metrics != nil && procErr == nil {
		s.metrics.GapScansCompleted.Inc()
	}
	return procErr
}

// paginateSignatures walks getSignaturesForAddress backwards from the chain head until it reaches
// sinceSignature (exclusive) or runs out of history, returning results oldest-first so downstream
// processing and checkpoint advancement happen in chain order.
func (s *Scanner) paginateSignatures(ctx context.Context, programID, sinceSignature string) ([]solana.SignatureInfo, error) {
	const pageSize = 1000
	var all []solana.SignatureInfo
	before := ""

	for {
		opts := &solana.SignaturesOpts{Limit: pageSize}
		if before != "" {
			opts.Before = before
		}
		if sinceSignature != "" {
			opts.Until = sinceSignature
		}

		page, err := s.rpc.GetSignaturesForAddress(ctx, programID, opts)
		if err != nil {
			return nil, fmt.Errorf("get signatures for %s: %w", programID, err)
		}
		all = append(all, page...)
		if len(page) < pageSize {
			break
		}
		before = page[len(page)-1].Signature
	}

	// Reverse to oldest-first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all, nil
}

// processSignatures fetches and decodes each signature's transaction with bounded concurrency,
// then submits and materializes events and advances the checkpoint in signature order.
func (s *Scanner) processSignatures(ctx context.Context, programID string, sigs []solana.SignatureInfo) ([]string, error) {
	type fetched struct {
		sig solana.SignatureInfo
		tx  *solana.Transaction
		err error
	}

	results := make([]fetched, len(sigs))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, sig := range sigs {
		if sig.Err != nil {
			continue // failed transactions emit no canonical events
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, sig solana.SignatureInfo) {
			defer wg.Done()
			defer func() { <-sem }()
			tx, err := s.rpc.GetTransaction(ctx, sig.Signature)
			results[i] = fetched{sig: sig, tx: tx, err: err}
		}(i, sig)
	}
	wg.Wait()

	var backfilled []string
	for _, r := range results {
		if r.sig.Signature == "" {
			continue
		}
		if r.err != nil {
			return backfilled, fmt.Errorf("get transaction %s: %w", r.sig.Signature, r.err)
		}
		if r.tx == nil || r.tx.Meta == nil {
			continue
		}

		if err := s.waitForBackpressure(ctx); err != nil {
			return backfilled, err
		}

		recs := s.decodeTransaction(programID, r.sig, r.tx)
		for _, rec := range recs {
			if err := s.writer.Submit(ctx, rec); err != nil {
				return backfilled, fmt.Errorf("submit backfilled event %s: %w", rec.Signature, err)
			}
		}
		viewsOK := true
		if len(recs) > 0 {
			s.writer.AwaitSignature(r.sig.Signature)
			for _, rec := range recs {
				if s.updaters != nil {
					if err := s.updaters.Apply(ctx, rec); err != nil {
						s.logger.Warnf("scanner: apply view for %s/%s: %v", rec.Signature, rec.EventName, err)
						viewsOK = false
					}
				}
			}
			backfilled = append(backfilled, r.sig.Signature)
		}
		// SPEC_FULL.md §4.4: only advance once this signature's view updates have all committed, same
		// rule the live subscriber (internal/subscription) applies.
		if viewsOK && s.checkpoints != nil {
			s.checkpoints.Advance(programID, "", r.sig.Slot, r.sig.Signature)
		}
	}
	return backfilled, nil
}

func (s *Scanner) decodeTransaction(programID string, sig solana.SignatureInfo, tx *solana.Transaction) []domain.EventRecord {
	payloads, warnings := extractor.Extract(tx.Meta.LogMessages)
	for _, w := range warnings {
		s.logger.Warnf("scanner: %s: %v", sig.Signature, w)
	}

	var recs []domain.EventRecord
	for _, p := range payloads {
		if p.ProgramID != programID {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(p.Base64)
		if err != nil {
			s.recordDecodeError("bad_base64")
			continue
		}
		name, record, err := events.Decode(s.table, raw)
		if err != nil {
			s.recordDecodeError("decode_error")
			continue
		}
		if s.metrics != nil {
			s.metrics.EventsDecoded.Inc()
		}
		recs = append(recs, domain.EventRecord{
			Signature: sig.Signature, Slot: sig.Slot, BlockTime: sig.BlockTime,
			ProgramID: p.ProgramID, EventName: name, LogIndex: p.LogIndex,
			EventPayload: record, IngestedAt: time.Now().UnixMilli(), Source: domain.SourceBackfill,
		})
	}
	return recs
}

func (s *Scanner) recordDecodeError(reason string) {
	if s.metrics != nil {
		s.metrics.DecodeErrors.WithLabelValues(reason).Inc()
	}
}

func (s *Scanner) completeScan(ctx context.Context, rec domain.ScanRecord, status domain.ScanStatus, found int, backfilled []string, scanErr error) {
	if s.scans == nil {
		return
	}
	now := time.Now().UnixMilli()
	rec.Status = status
	rec.EventsFound = found
	rec.EventsBackfilledCount = len(backfilled)
	rec.BackfilledSignatures = backfilled
	rec.CompletedAt = &now
	if scanErr != nil {
		msg := scanErr.Error()
		rec.ErrorMessage = &msg
	}
	if err := s.scans.Complete(ctx, rec); err != nil {
		s.logger.Errorf("scanner: complete scan record %s: %v", rec.ScanID, err)
	}
}

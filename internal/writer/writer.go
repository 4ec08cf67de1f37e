// Package writer is C7, the batch writer: buffers decoded events and flushes them idempotently to
// storage.EventStore. Submit is non-blocking up to buffer_capacity, after which it applies
// backpressure by blocking the caller (SPEC_FULL.md §4.6).
//
// Grounded on the teacher's slot-buffered ingestion runner (internal/ingestion/runner.go in the
// original tree): a channel-fed buffer drained by ticker-or-size-threshold, generalized from the
// teacher's per-slot map to a flat batch and from InsertBulk's fail-whole-batch semantics to
// per-batch upsert-and-retry.
package writer

import (
	"context"
	"sync"
	"time"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/observability"
	"solana-event-listener/internal/storage"
)

// Config tunes the writer per SPEC_FULL.md §6 ("Writer tuning").
type Config struct {
	BatchSize      int
	FlushInterval  time.Duration
	BufferCapacity int
	MaxRetries     int
	RetryDelay     time.Duration
}

// Writer is C7. Safe for concurrent Submit calls; Run must be launched exactly once.
type Writer struct {
	store   storage.EventStore
	cfg     Config
	metrics *observability.Metrics
	health  *observability.Health

	queue chan domain.EventRecord

	mu    sync.Mutex
	sigWG map[string]*sync.WaitGroup
}

// New constructs a Writer. Call Run in its own goroutine before any Submit.
func New(store storage.EventStore, cfg Config, metrics *observability.Metrics) *Writer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 250 * time.Millisecond
	}
	if cfg.BufferCapacity <= 0 {
		cfg.BufferCapacity = 10000
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 200 * time.Millisecond
	}
	return &Writer{
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		queue:   make(chan domain.EventRecord, cfg.BufferCapacity),
		sigWG:   make(map[string]*sync.WaitGroup),
	}
}

// BufferDepth returns the approximate number of events currently queued, for C9's buffer_depth
// gauge.
func (w *Writer) BufferDepth() int {
	return len(w.queue)
}

// SetHealth wires the shared health aggregator so every flush's outcome feeds the
// "last flush succeeded" term of the health snapshot (SPEC_FULL.md §4.8).
func (w *Writer) SetHealth(h *observability.Health) {
	w.health = h
}

// Submit enqueues rec for batching. It blocks (applying backpressure) once the buffer is at
// BufferCapacity, and unblocks early if ctx is cancelled.
func (w *Writer) Submit(ctx context.Context, rec domain.EventRecord) error {
	wg := w.wgFor(rec.Signature)
	wg.Add(1)

	select {
	case w.queue <- rec:
		return nil
	case <-ctx.Done():
		wg.Done()
		return ctx.Err()
	}
}

func (w *Writer) wgFor(signature string) *sync.WaitGroup {
	w.mu.Lock()
	defer w.mu.Unlock()
	wg, ok := w.sigWG[signature]
	if !ok {
		wg = &sync.WaitGroup{}
		w.sigWG[signature] = wg
	}
	return wg
}

// AwaitSignature blocks until every event submitted so far for signature has been flushed (or its
// flush permanently failed after retries), then forgets the signature. Callers submit all of a
// transaction's events first, then call AwaitSignature before advancing the checkpoint for that
// transaction, implementing the ordering half of SPEC_FULL.md §4.4's advance rule.
func (w *Writer) AwaitSignature(signature string) {
	w.mu.Lock()
	wg, ok := w.sigWG[signature]
	w.mu.Unlock()
	if !ok {
		return
	}
	wg.Wait()
	w.mu.Lock()
	if w.sigWG[signature] == wg {
		delete(w.sigWG, signature)
	}
	w.mu.Unlock()
}

// Run drains the queue, flushing on batch-size or flush-interval, until ctx is cancelled, then
// drains and flushes whatever remains before returning.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	var buf []domain.EventRecord

	flush := func() {
		if len(buf) == 0 {
			return
		}
		w.flushBatch(context.Background(), buf)
		buf = nil
	}

	for {
		select {
		case rec := <-w.queue:
			buf = append(buf, rec)
			if len(buf) >= w.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			w.drainAndFlush(&buf)
			flush()
			return
		}
	}
}

func (w *Writer) drainAndFlush(buf *[]domain.EventRecord) {
	for {
		select {
		case rec := <-w.queue:
			*buf = append(*buf, rec)
		default:
			return
		}
	}
}

// flushBatch upserts batch with retries and partial-success detection (SPEC_FULL.md §4.6), then
// releases every per-signature WaitGroup represented in batch.
func (w *Writer) flushBatch(ctx context.Context, batch []domain.EventRecord) {
	remaining := batch
	delay := w.cfg.RetryDelay
	var finalErr error

	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		if len(remaining) == 0 {
			break
		}
		err := w.store.InsertBatch(ctx, remaining)
		if err == nil {
			if w.metrics != nil {
				w.metrics.EventsPersisted.Add(float64(len(remaining)))
			}
			remaining = nil
			finalErr = nil
			break
		}
		finalErr = err

		if attempt == w.cfg.MaxRetries {
			break
		}
		if w.metrics != nil {
			w.metrics.WriteRetries.Inc()
		}

		time.Sleep(delay)
		delay *= 2

		// Partial success detection: only resubmit keys that did not make it in.
		keys := make([]domain.EventKey, len(remaining))
		for i, r := range remaining {
			keys[i] = domain.EventKeyOf(r)
		}
		existing, existErr := w.store.ExistingKeys(ctx, keys)
		if existErr != nil {
			continue // keep retrying the full remaining set
		}
		pruned := remaining[:0:0]
		for _, r := range remaining {
			if !existing[domain.EventKeyOf(r)] {
				pruned = append(pruned, r)
			}
		}
		remaining = pruned
	}

	if w.health != nil {
		w.health.RecordFlush(len(remaining) == 0, time.Now(), finalErr)
	}

	for _, r := range batch {
		w.mu.Lock()
		wg := w.sigWG[r.Signature]
		w.mu.Unlock()
		if wg != nil {
			wg.Done()
		}
	}
}

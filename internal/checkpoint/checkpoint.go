// Package checkpoint is C5: the in-memory, lock-guarded map of per-(program, event) progress, backed
// by a periodic and shutdown-time flush to storage.CheckpointStore.
//
// The in-memory copy is authoritative while running; the durable copy is read only at startup
// (SPEC_FULL.md §4.4, §5 "Shared state"). Grounded on the teacher's internal/ingestion buffering
// pattern of a single guarded map advanced under one mutex (see the teacher's slot-ordering buffer in
// the original runner), generalized here to a CAS-style Advance instead of slot bucketing.
package checkpoint

import (
	"context"
	"sync"
	"time"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

// Store is the checkpoint map (C5). Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]domain.Checkpoint
	backing storage.CheckpointStore
	clock   func() time.Time
}

// New constructs an empty Store backed by durable storage. Call Load before serving traffic.
func New(backing storage.CheckpointStore) *Store {
	return &Store{
		entries: make(map[string]domain.Checkpoint),
		backing: backing,
		clock:   time.Now,
	}
}

// Load reads every persisted checkpoint into memory. Must be called once at startup before any
// subscription or scan begins, per SPEC_FULL.md §4.4 ("the on-disk copy is read only at startup").
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.backing.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range loaded {
		s.entries[k] = v
	}
	return nil
}

// Get returns the current in-memory checkpoint for (programID, eventName), or the zero value if
// none has been recorded yet.
func (s *Store) Get(programID, eventName string) (domain.Checkpoint, bool) {
	key := domain.Checkpoint{ProgramID: programID, EventName: eventName}.Key()
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.entries[key]
	return cp, ok
}

// Advance moves the checkpoint for (programID, eventName) forward to (slot, signature), enforcing
// the monotonic-non-decreasing invariant (TESTABLE PROPERTIES §8.5): a call with a slot older than
// the stored value is a silent no-op, matching the spec's "only after" advance rule in SPEC_FULL.md
// §4.4 (callers are expected to have already confirmed persistence and view-update success).
func (s *Store) Advance(programID, eventName string, slot int64, signature string) {
	key := domain.Checkpoint{ProgramID: programID, EventName: eventName}.Key()
	now := s.clock().UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[key]
	if ok && slot < existing.LastSlot {
		return
	}
	s.entries[key] = domain.Checkpoint{
		ProgramID:     programID,
		EventName:     eventName,
		LastSlot:      slot,
		LastSignature: signature,
		UpdatedAt:     now,
	}
}

// Snapshot returns a copy of every in-memory checkpoint, for metrics/health reporting.
func (s *Store) Snapshot() []domain.Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Checkpoint, 0, len(s.entries))
	for _, cp := range s.entries {
		out = append(out, cp)
	}
	return out
}

// Flush persists every in-memory checkpoint to durable storage. Called on the checkpoint_interval
// timer and once more during graceful shutdown (SPEC_FULL.md §4.4).
func (s *Store) Flush(ctx context.Context) error {
	for _, cp := range s.Snapshot() {
		if err := s.backing.Save(ctx, cp); err != nil {
			return err
		}
	}
	return nil
}

// Run persists the checkpoint map every interval until ctx is cancelled, then performs one final
// flush before returning. Intended to be launched as its own task by the supervisor (C10).
func (s *Store) Run(ctx context.Context, interval time.Duration, onErr func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Flush(context.Background()); err != nil && onErr != nil {
				onErr(err)
			}
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil && onErr != nil {
				onErr(err)
			}
		}
	}
}

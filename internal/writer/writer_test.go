package writer

import (
	"context"
	"sync"
	"testing"
	"time"

	"solana-event-listener/internal/domain"
)

type fakeStore struct {
	mu   sync.Mutex
	rows map[domain.EventKey]domain.EventRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[domain.EventKey]domain.EventRecord)}
}

func (f *fakeStore) InsertBatch(ctx context.Context, events []domain.EventRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range events {
		f.rows[domain.EventKeyOf(e)] = e
	}
	return nil
}

func (f *fakeStore) ExistingKeys(ctx context.Context, keys []domain.EventKey) (map[domain.EventKey]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[domain.EventKey]bool)
	for _, k := range keys {
		if _, ok := f.rows[k]; ok {
			out[k] = true
		}
	}
	return out, nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func TestWriter_IdempotentSubmit(t *testing.T) {
	store := newFakeStore()
	w := New(store, Config{BatchSize: 10, FlushInterval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	rec := domain.EventRecord{Signature: "sigA", EventName: "InitPool", LogIndex: 0, Slot: 100}
	for i := 0; i < 5; i++ {
		if err := w.Submit(context.Background(), rec); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	w.AwaitSignature("sigA")
	cancel()

	if got := store.count(); got != 1 {
		t.Fatalf("stored rows = %d, want 1 (idempotent on key)", got)
	}
}

func TestWriter_AwaitSignatureUnblocksAfterFlush(t *testing.T) {
	store := newFakeStore()
	w := New(store, Config{BatchSize: 500, FlushInterval: 20 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	done := make(chan struct{})
	go func() {
		w.AwaitSignature("sigB")
		close(done)
	}()

	if err := w.Submit(context.Background(), domain.EventRecord{Signature: "sigB", EventName: "Swap", LogIndex: 0}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AwaitSignature did not unblock after flush")
	}

	if got := store.count(); got != 1 {
		t.Fatalf("stored rows = %d, want 1", got)
	}
}

package checkpoint

import (
	"context"
	"testing"

	"solana-event-listener/internal/domain"
)

type fakeBacking struct {
	saved map[string]domain.Checkpoint
}

func newFakeBacking() *fakeBacking {
	return &fakeBacking{saved: make(map[string]domain.Checkpoint)}
}

func (f *fakeBacking) Load(ctx context.Context) (map[string]domain.Checkpoint, error) {
	out := make(map[string]domain.Checkpoint, len(f.saved))
	for k, v := range f.saved {
		out[k] = v
	}
	return out, nil
}

func (f *fakeBacking) Save(ctx context.Context, cp domain.Checkpoint) error {
	f.saved[cp.Key()] = cp
	return nil
}

func TestAdvance_MonotonicNonDecreasing(t *testing.T) {
	s := New(newFakeBacking())

	s.Advance("P", "InitPool", 100, "sigA")
	s.Advance("P", "InitPool", 50, "sigOld") // stale, must be ignored
	cp, ok := s.Get("P", "InitPool")
	if !ok {
		t.Fatal("expected checkpoint to exist")
	}
	if cp.LastSlot != 100 || cp.LastSignature != "sigA" {
		t.Fatalf("got %+v, want slot=100 sig=sigA", cp)
	}

	s.Advance("P", "InitPool", 200, "sigB")
	cp, _ = s.Get("P", "InitPool")
	if cp.LastSlot != 200 || cp.LastSignature != "sigB" {
		t.Fatalf("got %+v, want slot=200 sig=sigB", cp)
	}
}

func TestFlushAndLoad_RoundTrip(t *testing.T) {
	backing := newFakeBacking()
	s := New(backing)
	s.Advance("P1", "", 10, "sig1")
	s.Advance("P2", "Swap", 20, "sig2")

	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	restored := New(backing)
	if err := restored.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cp1, ok := restored.Get("P1", "")
	if !ok || cp1.LastSlot != 10 {
		t.Fatalf("P1 checkpoint = %+v, ok=%v", cp1, ok)
	}
	cp2, ok := restored.Get("P2", "Swap")
	if !ok || cp2.LastSlot != 20 {
		t.Fatalf("P2 checkpoint = %+v, ok=%v", cp2, ok)
	}
}

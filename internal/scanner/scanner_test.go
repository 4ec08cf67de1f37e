package scanner

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"solana-event-listener/internal/checkpoint"
	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/events"
	"solana-event-listener/internal/registry"
	"solana-event-listener/internal/solana"
	"solana-event-listener/internal/writer"
)

type fakeRPC struct {
	sigs map[string][]solana.SignatureInfo
	txs  map[string]*solana.Transaction
}

func (f *fakeRPC) GetTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	return f.txs[signature], nil
}

func (f *fakeRPC) GetSlot(ctx context.Context) (int64, error) { return 0, nil }

func (f *fakeRPC) GetSignaturesForAddress(ctx context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	return f.sigs[address], nil
}

type fakeEventStore struct {
	mu   sync.Mutex
	rows map[domain.EventKey]domain.EventRecord
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{rows: make(map[domain.EventKey]domain.EventRecord)}
}

func (f *fakeEventStore) InsertBatch(ctx context.Context, evs []domain.EventRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range evs {
		f.rows[domain.EventKeyOf(e)] = e
	}
	return nil
}

func (f *fakeEventStore) ExistingKeys(ctx context.Context, keys []domain.EventKey) (map[domain.EventKey]bool, error) {
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

func (f *fakeEventStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeScanStore struct {
	mu   sync.Mutex
	rows map[string]domain.ScanRecord
}

func newFakeScanStore() *fakeScanStore { return &fakeScanStore{rows: make(map[string]domain.ScanRecord)} }

func (f *fakeScanStore) Create(ctx context.Context, rec domain.ScanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[rec.ScanID] = rec
	return nil
}

func (f *fakeScanStore) Complete(ctx context.Context, rec domain.ScanRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[rec.ScanID] = rec
	return nil
}

func TestScanner_BackfillsAndAdvancesCheckpoint(t *testing.T) {
	table, err := registry.New()
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	programID := "Prog11111111111111111111111111111111111"

	const key = "11111111111111111111111111111111" // valid base58, decodes to 32 zero bytes
	payload := domain.Swap{PoolID: key, InputMint: key, OutputMint: key, InputAmount: 10, OutputAmount: 9}
	raw, err := events.Encode(table, registry.EventSwap, payload)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	b64 := base64.StdEncoding.EncodeToString(raw)

	rpc := &fakeRPC{
		sigs: map[string][]solana.SignatureInfo{
			programID: {
				{Signature: "sig2", Slot: 20},
				{Signature: "sig1", Slot: 10},
			},
		},
		txs: map[string]*solana.Transaction{
			"sig1": {Slot: 10, Signature: "sig1", Meta: &solana.TransactionMeta{LogMessages: []string{
				"Program " + programID + " invoke [1]",
				"Program data: " + b64,
				"Program " + programID + " success",
			}}},
			"sig2": {Slot: 20, Signature: "sig2", Meta: &solana.TransactionMeta{LogMessages: []string{}}},
		},
	}

	store := newFakeEventStore()
	w := writer.New(store, writer.Config{BatchSize: 10, FlushInterval: 10 * time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	cpStore := checkpoint.New(noopCheckpointBacking{})
	scans := newFakeScanStore()

	s := New(Config{RPC: rpc, Table: table, Writer: w, Checkpoints: cpStore, Scans: scans, Concurrency: 2})

	if err := s.ScanSince(context.Background(), programID, ""); err != nil {
		t.Fatalf("ScanSince() error = %v", err)
	}

	if store.count() != 1 {
		t.Fatalf("stored events = %d, want 1", store.count())
	}
	cp, ok := cpStore.Get(programID, "")
	if !ok || cp.LastSlot != 20 {
		t.Fatalf("checkpoint = %+v, ok=%v, want last slot 20 (most recent processed sig)", cp, ok)
	}
}

type noopCheckpointBacking struct{}

func (noopCheckpointBacking) Load(ctx context.Context) (map[string]domain.Checkpoint, error) {
	return map[string]domain.Checkpoint{}, nil
}

func (noopCheckpointBacking) Save(ctx context.Context, cp domain.Checkpoint) error { return nil }

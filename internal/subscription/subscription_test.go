package subscription

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

type fakeWS struct {
	ch chan solana.LogNotification
}

func newFakeWS() *fakeWS {
	return &fakeWS{ch: make(chan solana.LogNotification, 16)}
}

func (f *fakeWS) SubscribeLogs(ctx context.Context, filter solana.LogsFilter) (<-chan solana.LogNotification, error) {
	return f.ch, nil
}

func (f *fakeWS) Close() error { close(f.ch); return nil }

type fakeEventStore struct {
	mu   sync.Mutex
	rows map[domain.EventKey]domain.EventRecord
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{rows: make(map[domain.EventKey]domain.EventRecord)}
}

func (f *fakeEventStore) InsertBatch(ctx context.Context, events []domain.EventRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range events {
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

type fakeCheckpointBacking struct {
	mu   sync.Mutex
	rows map[string]domain.Checkpoint
}

func newFakeCheckpointBacking() *fakeCheckpointBacking {
	return &fakeCheckpointBacking{rows: make(map[string]domain.Checkpoint)}
}

func (f *fakeCheckpointBacking) Load(ctx context.Context) (map[string]domain.Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]domain.Checkpoint, len(f.rows))
	for k, v := range f.rows {
		out[k] = v
	}
	return out, nil
}

func (f *fakeCheckpointBacking) Save(ctx context.Context, cp domain.Checkpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[cp.Key()] = cp
	return nil
}

func TestSubscriber_DecodesPersistsAndAdvancesCheckpoint(t *testing.T) {
	table, err := registry.New()
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}

	programID := "Prog11111111111111111111111111111111111"
	const key = "11111111111111111111111111111111" // valid base58, decodes to 32 zero bytes
	payload := domain.InitPool{
		PoolID: key, Creator: key, Mint0: key, Mint1: key,
		Vault0: key, Vault1: key, LpMint: key, Decimals: 9, AmmConfig: key,
	}
	wire, err := buildWirePayload(table, payload)
	if err != nil {
		t.Fatalf("buildWirePayload() error = %v", err)
	}

	store := newFakeEventStore()
	w := writer.New(store, writer.Config{BatchSize: 10, FlushInterval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	cpStore := checkpoint.New(newFakeCheckpointBacking())

	ws := newFakeWS()
	sub := New(Config{
		ProgramID:   programID,
		WS:          ws,
		Table:       table,
		Writer:      w,
		Checkpoints: cpStore,
		IdleTimeout: time.Hour,
	})

	subCtx, subCancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(subCtx) }()

	// Let Run reach Subscribed before pushing a notification.
	time.Sleep(20 * time.Millisecond)

	ws.ch <- solana.LogNotification{
		Signature: "sigInitPool",
		Slot:      42,
		Logs: []string{
			"Program " + programID + " invoke [1]",
			"Program data: " + wire,
			"Program " + programID + " success",
		},
	}

	time.Sleep(100 * time.Millisecond)
	subCancel()
	<-done

	if store.count() != 1 {
		t.Fatalf("stored events = %d, want 1", store.count())
	}
	cp, ok := cpStore.Get(programID, "")
	if !ok || cp.LastSlot != 42 || cp.LastSignature != "sigInitPool" {
		t.Fatalf("checkpoint = %+v, ok=%v, want slot=42 sig=sigInitPool", cp, ok)
	}
}

func buildWirePayload(table *registry.Table, payload domain.InitPool) (string, error) {
	raw, err := events.Encode(table, registry.EventInitPool, payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

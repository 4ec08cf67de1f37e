package views

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

type fakePoolStore struct {
	mu    sync.Mutex
	pools map[string]domain.Pool
}

func newFakePoolStore() *fakePoolStore { return &fakePoolStore{pools: make(map[string]domain.Pool)} }

func (f *fakePoolStore) UpsertIfNewer(ctx context.Context, pool domain.Pool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.pools[pool.PoolID]
	if ok && existing.LastEventSlot > pool.LastEventSlot {
		return false, nil
	}
	f.pools[pool.PoolID] = pool
	return true, nil
}

func (f *fakePoolStore) Get(ctx context.Context, poolID string) (domain.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[poolID]
	if !ok {
		return domain.Pool{}, storage.ErrNotFound
	}
	return p, nil
}

type fakeLpChangeStore struct {
	mu   sync.Mutex
	rows map[string]domain.LpChangeRecord
}

func newFakeLpChangeStore() *fakeLpChangeStore {
	return &fakeLpChangeStore{rows: make(map[string]domain.LpChangeRecord)}
}

func (f *fakeLpChangeStore) Insert(ctx context.Context, rec domain.LpChangeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fmt.Sprintf("%s/%d", rec.Signature, rec.LogIndex)
	f.rows[key] = rec
	return nil
}

func (f *fakeLpChangeStore) LatestForPool(ctx context.Context, poolID string) (domain.LpChangeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best domain.LpChangeRecord
	var found bool
	for _, r := range f.rows {
		if r.PoolID != poolID {
			continue
		}
		if !found || r.Slot > best.Slot {
			best = r
			found = true
		}
	}
	if !found {
		return domain.LpChangeRecord{}, storage.ErrNotFound
	}
	return best, nil
}

type fakeNftClaimStore struct {
	mu     sync.Mutex
	claims []domain.NftClaimRecord
	stats  map[string]domain.NftClaimStats
}

func newFakeNftClaimStore() *fakeNftClaimStore {
	return &fakeNftClaimStore{stats: make(map[string]domain.NftClaimStats)}
}

func (f *fakeNftClaimStore) Insert(ctx context.Context, rec domain.NftClaimRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims = append(f.claims, rec)
	return nil
}

func (f *fakeNftClaimStore) RecomputeStats(ctx context.Context, nftMint string, throughSlot int64) (domain.NftClaimStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claimers := make(map[string]bool)
	var stats domain.NftClaimStats
	stats.NftMint = nftMint
	for _, c := range f.claims {
		if c.NftMint != nftMint || c.Slot > throughSlot {
			continue
		}
		stats.ClaimCount++
		stats.TotalAmount += c.ClaimAmount
		if c.ClaimTime > stats.LastClaimTime {
			stats.LastClaimTime = c.ClaimTime
		}
		claimers[c.Claimer] = true
	}
	stats.UniqueClaimers = len(claimers)
	f.stats[nftMint] = stats
	return stats, nil
}

type fakeReferralStore struct {
	mu    sync.Mutex
	edges map[string]domain.Referral
}

func newFakeReferralStore() *fakeReferralStore {
	return &fakeReferralStore{edges: make(map[string]domain.Referral)}
}

func (f *fakeReferralStore) Insert(ctx context.Context, rec domain.Referral) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.edges[rec.Lower]
	if ok {
		if existing.Upper != rec.Upper {
			return storage.ErrReferralConflict
		}
		return nil
	}
	f.edges[rec.Lower] = rec
	return nil
}

func (f *fakeReferralStore) Get(ctx context.Context, lower string) (domain.Referral, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.edges[lower]
	if !ok {
		return domain.Referral{}, storage.ErrNotFound
	}
	return r, nil
}

type fakePointsStore struct {
	mu   sync.Mutex
	rows map[string]domain.PointsLedgerEntry
	seen map[string]bool
}

func newFakePointsStore() *fakePointsStore {
	return &fakePointsStore{rows: make(map[string]domain.PointsLedgerEntry), seen: make(map[string]bool)}
}

func (f *fakePointsStore) InsertFirstOrSubsequent(ctx context.Context, entry domain.PointsLedgerEntry) (domain.PointsLedgerEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := entry.Wallet + "/" + entry.Signature
	if existing, ok := f.rows[key]; ok {
		return existing, false, nil
	}
	entry.IsFirstTransaction = !f.seen[entry.Wallet]
	if entry.IsFirstTransaction {
		entry.PointsGained = 200
	} else {
		entry.PointsGained = 10
	}
	f.seen[entry.Wallet] = true
	f.rows[key] = entry
	return entry, true, nil
}

type fakeRewardStore struct {
	mu   sync.Mutex
	rows []domain.RewardDistributionRecord
}

func (f *fakeRewardStore) Insert(ctx context.Context, rec domain.RewardDistributionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rec)
	return nil
}

func newTestUpdaters() (*Updaters, *fakePointsStore, *fakeReferralStore) {
	points := newFakePointsStore()
	referrals := newFakeReferralStore()
	u := New(newFakePoolStore(), newFakeLpChangeStore(), newFakeNftClaimStore(), referrals, points, &fakeRewardStore{}, nil)
	return u, points, referrals
}

func TestApplyPoints_FirstTransactionGrantsBonus(t *testing.T) {
	u, points, _ := newTestUpdaters()
	ctx := context.Background()

	claimer := "walletA"
	ref := "walletReferrer"
	rec1 := domain.EventRecord{Signature: "sig1", Slot: 10, EventPayload: domain.NftClaim{
		NftMint: "mintX", Claimer: claimer, Referrer: &ref, HasReferrer: true, ClaimAmount: 5,
	}}
	if err := u.Apply(ctx, rec1); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	entry, ok := points.rows[claimer+"/sig1"]
	if !ok || !entry.IsFirstTransaction || entry.PointsGained != 200 {
		t.Fatalf("first claim = %+v, ok=%v, want IsFirstTransaction=true PointsGained=200", entry, ok)
	}

	rec2 := domain.EventRecord{Signature: "sig2", Slot: 20, EventPayload: domain.NftClaim{
		NftMint: "mintX", Claimer: claimer, Referrer: &ref, HasReferrer: true, ClaimAmount: 5,
	}}
	if err := u.Apply(ctx, rec2); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	entry2 := points.rows[claimer+"/sig2"]
	if entry2.IsFirstTransaction || entry2.PointsGained != 10 {
		t.Fatalf("second claim = %+v, want IsFirstTransaction=false PointsGained=10", entry2)
	}
}

func TestApplyNftClaim_ReferralConflictIsNonFatal(t *testing.T) {
	u, _, referrals := newTestUpdaters()
	ctx := context.Background()

	claimer := "walletB"
	refA := "referrerA"
	refB := "referrerB"

	rec1 := domain.EventRecord{Signature: "sigA", Slot: 1, EventPayload: domain.NftClaim{
		NftMint: "mintY", Claimer: claimer, Referrer: &refA, HasReferrer: true,
	}}
	if err := u.Apply(ctx, rec1); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}

	rec2 := domain.EventRecord{Signature: "sigB", Slot: 2, EventPayload: domain.NftClaim{
		NftMint: "mintY", Claimer: claimer, Referrer: &refB, HasReferrer: true,
	}}
	if err := u.Apply(ctx, rec2); err != nil {
		t.Fatalf("conflicting Apply() should be swallowed as non-fatal, got error = %v", err)
	}

	edge, err := referrals.Get(ctx, strings.ToLower(claimer))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if edge.Upper != refA {
		t.Fatalf("referral edge = %q, want immutable first binding %q", edge.Upper, refA)
	}
}

func TestApplySwap_NoPointsGranted(t *testing.T) {
	u, points, _ := newTestUpdaters()
	ctx := context.Background()

	rec := domain.EventRecord{Signature: "sigSwap", Slot: 1, EventPayload: domain.Swap{
		PoolID: "poolA", InputMint: "m0", OutputMint: "m1", InputAmount: 1, OutputAmount: 1,
	}}
	if err := u.Apply(ctx, rec); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(points.rows) != 0 {
		t.Fatalf("Swap must not grant points, got %d ledger rows", len(points.rows))
	}
}

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/storage"
)

func TestEventStore_InsertBatchIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewEventStore(pool)
	rec := domain.EventRecord{
		Signature: "sig1", Slot: 100, ProgramID: "prog1", EventName: "InitPool", LogIndex: 0,
		EventPayload: map[string]any{"poolId": "pool1"}, IngestedAt: 1000, Source: domain.SourceLive,
	}

	require.NoError(t, store.InsertBatch(ctx, []domain.EventRecord{rec}))
	require.NoError(t, store.InsertBatch(ctx, []domain.EventRecord{rec}))

	existing, err := store.ExistingKeys(ctx, []domain.EventKey{domain.EventKeyOf(rec)})
	require.NoError(t, err)
	require.True(t, existing[domain.EventKeyOf(rec)])
}

func TestCheckpointStore_SaveIsMonotonic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewCheckpointStore(pool)
	cp := domain.Checkpoint{ProgramID: "prog1", EventName: "Swap", LastSlot: 100, LastSignature: "sigA", UpdatedAt: 10}
	require.NoError(t, store.Save(ctx, cp))

	stale := cp
	stale.LastSlot = 50
	stale.LastSignature = "sigStale"
	require.NoError(t, store.Save(ctx, stale))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(100), loaded[cp.Key()].LastSlot)
}

func TestPoolStore_UpsertIfNewerRejectsStaleSlot(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewPoolStore(pool)
	p := domain.Pool{PoolID: "poolA", Mint0: "m0", Mint1: "m1", Vault0: "v0", Vault1: "v1", LpMint: "lp", Creator: "c", CreatedSlot: 10, LastEventSlot: 100}
	applied, err := store.UpsertIfNewer(ctx, p)
	require.NoError(t, err)
	require.True(t, applied)

	stale := p
	stale.LastEventSlot = 50
	applied, err = store.UpsertIfNewer(ctx, stale)
	require.NoError(t, err)
	require.False(t, applied)

	got, err := store.Get(ctx, "poolA")
	require.NoError(t, err)
	require.Equal(t, int64(100), got.LastEventSlot)
}

func TestReferralStore_ConflictingUpperIsRejected(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewReferralStore(pool)
	require.NoError(t, store.Insert(ctx, domain.Referral{Lower: "wallet1", Upper: "refA", Timestamp: 1}))
	require.NoError(t, store.Insert(ctx, domain.Referral{Lower: "wallet1", Upper: "refA", Timestamp: 2}))

	err := store.Insert(ctx, domain.Referral{Lower: "wallet1", Upper: "refB", Timestamp: 3})
	require.ErrorIs(t, err, storage.ErrReferralConflict)

	got, err := store.Get(ctx, "wallet1")
	require.NoError(t, err)
	require.Equal(t, "refA", got.Upper)
}

func TestPointsLedgerStore_FirstTransactionGetsBonus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewPointsLedgerStore(pool)
	first, inserted, err := store.InsertFirstOrSubsequent(ctx, domain.PointsLedgerEntry{Wallet: "walletA", Signature: "sig1", Slot: 1, RecordedAt: 1})
	require.NoError(t, err)
	require.True(t, inserted)
	require.True(t, first.IsFirstTransaction)
	require.Equal(t, 200, first.PointsGained)

	second, inserted, err := store.InsertFirstOrSubsequent(ctx, domain.PointsLedgerEntry{Wallet: "walletA", Signature: "sig2", Slot: 2, RecordedAt: 2})
	require.NoError(t, err)
	require.True(t, inserted)
	require.False(t, second.IsFirstTransaction)
	require.Equal(t, 10, second.PointsGained)

	replay, inserted, err := store.InsertFirstOrSubsequent(ctx, domain.PointsLedgerEntry{Wallet: "walletA", Signature: "sig1", Slot: 1, RecordedAt: 1})
	require.NoError(t, err)
	require.False(t, inserted)
	require.True(t, replay.IsFirstTransaction)
}

func TestNftClaimStore_RecomputeStatsAggregates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	store := NewNftClaimStore(pool)
	require.NoError(t, store.Insert(ctx, domain.NftClaimRecord{Signature: "s1", LogIndex: 0, NftMint: "mint1", Claimer: "a", ClaimAmount: 10, Slot: 1, ClaimTime: 100}))
	require.NoError(t, store.Insert(ctx, domain.NftClaimRecord{Signature: "s2", LogIndex: 0, NftMint: "mint1", Claimer: "b", ClaimAmount: 20, Slot: 2, ClaimTime: 200}))

	stats, err := store.RecomputeStats(ctx, "mint1", 2)
	require.NoError(t, err)
	require.Equal(t, 2, stats.ClaimCount)
	require.Equal(t, uint64(30), stats.TotalAmount)
	require.Equal(t, 2, stats.UniqueClaimers)
	require.Equal(t, int64(200), stats.LastClaimTime)
}

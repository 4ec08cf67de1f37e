package domain

// Pool is the current materialized state of a CPMM pool.
// Corresponds to the pools table in PostgreSQL. Upserted by InitPool, mutated by LpChange.
type Pool struct {
	PoolID        string
	Mint0         string
	Mint1         string
	Vault0        string
	Vault1        string
	LpMint        string
	Creator       string
	CreatedSlot   int64
	LastEventSlot int64
}

// LpChangeRecord is one append-only row in the LP change ledger.
// Corresponds to the lp_changes table in PostgreSQL.
type LpChangeRecord struct {
	Signature    string
	LogIndex     int
	PoolID       string
	User         string
	ChangeType   LpChangeType
	LpBefore     uint64
	LpAfter      uint64
	Delta        int64 // signed change in LP supply, LpAfter-LpBefore
	Vault0Before uint64
	Vault0After  uint64
	Vault1Before uint64
	Vault1After  uint64
	Slot         int64
}

// NftClaimRecord is one append-only row in the NFT claim ledger.
// Corresponds to the nft_claims table in PostgreSQL.
type NftClaimRecord struct {
	Signature   string
	LogIndex    int
	NftMint     string
	Claimer     string
	Referrer    *string
	ClaimAmount uint64
	Slot        int64
	ClaimTime   int64 // unix ms
}

// NftClaimStats is the per-mint aggregate, rebuildable from NftClaimRecord rows.
// Corresponds to the nft_claim_stats_by_mint table in PostgreSQL.
type NftClaimStats struct {
	NftMint        string
	ClaimCount     int
	TotalAmount    uint64
	LastClaimTime  int64
	UniqueClaimers int
}

// Referral is one immutable edge in the referral graph, keyed on the lowercased claimer address.
// Corresponds to the referrals table in PostgreSQL. First claim wins; later conflicting claims do
// not overwrite the edge (see views.ReferralUpdater).
type Referral struct {
	Lower     string // lowercased claimer address
	Upper     string // referrer address
	Timestamp int64  // unix ms of the binding claim
}

// PointsLedgerEntry is one append-only row per (wallet, signature).
// Corresponds to the points_ledger table in PostgreSQL.
type PointsLedgerEntry struct {
	Wallet            string
	Signature         string
	IsFirstTransaction bool
	PointsGained      int
	Slot              int64
	RecordedAt        int64 // unix ms
}

// RewardDistributionRecord is one append-only row in the reward ledger, supplementing the spec's
// core registry with the reward crate's model from original_source/.
// Corresponds to the reward_distributions table in PostgreSQL.
type RewardDistributionRecord struct {
	Signature        string
	LogIndex         int
	DistributionID   string
	Recipient        string
	Referrer         *string
	RewardTokenMint  string
	RewardAmount     uint64
	IsLocked         bool
	UnlockTimestamp  *int64
	IsReferralReward bool
	Slot             int64
}

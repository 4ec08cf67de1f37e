package domain

// LpChangeType enumerates the three liquidity-change variants carried by LpChange.
type LpChangeType uint8

const (
	LpChangeDeposit  LpChangeType = 0
	LpChangeWithdraw LpChangeType = 1
	LpChangeInit     LpChangeType = 2
)

// InitPool is emitted once when a CPMM pool is created.
type InitPool struct {
	PoolID    string
	Creator   string
	Mint0     string
	Mint1     string
	Vault0    string
	Vault1    string
	LpMint    string
	Decimals  uint8
	AmmConfig string
}

// LpChange is emitted on every deposit, withdraw, or pool-init liquidity change.
type LpChange struct {
	User            string
	PoolID          string
	ChangeType      LpChangeType
	LpBefore        uint64
	LpAfter         uint64
	Token0Amount    uint64
	Token1Amount    uint64
	Vault0Before    uint64
	Vault0After     uint64
	Vault1Before    uint64
	Vault1After     uint64
	TransferFees    uint64
}

// Swap is emitted on every CPMM swap.
type Swap struct {
	PoolID       string
	InputMint    string
	OutputMint   string
	BaseInput    bool
	InputAmount  uint64
	OutputAmount uint64
	TradeFee     uint64
	CreatorFee   uint64
}

// NftClaim is emitted when a referral NFT is claimed.
type NftClaim struct {
	NftMint     string
	Claimer     string
	Referrer    *string
	Tier        uint8
	ClaimAmount uint64
	HasReferrer bool
}

// RewardDistribution is emitted when a reward (locked or liquid, referral or direct) is paid out.
type RewardDistribution struct {
	DistributionID   string
	Recipient        string
	Referrer         *string
	RewardTokenMint  string
	RewardAmount     uint64
	IsLocked         bool
	UnlockTimestamp  *int64
	IsReferralReward bool
}

// Launch is emitted when a meme-token launch configuration goes live.
type Launch struct {
	MemeTokenMint string
	BaseTokenMint string
	User          string
	ConfigIndex   uint16
	OpenPrice     uint64
	TargetPrice   uint64
	BaseAmount    uint64
	MemeAmount    uint64
	OpenTime      int64
}

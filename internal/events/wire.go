package events

// Wire-format structs decoded directly from the Borsh-serialized event body (the payload bytes
// after the 8-byte discriminator has been stripped) via github.com/gagliardetto/binary's Borsh
// decoder. Pubkeys are fixed [32]byte arrays on the wire; they are converted to base58 strings when
// building the domain.* record (see convert.go). Option<T> fields are represented as Go pointers,
// which the Borsh decoder reads as a presence tag byte followed by the value when present.

type wireInitPool struct {
	PoolID    [32]byte `bin:"borsh"`
	Creator   [32]byte `bin:"borsh"`
	Mint0     [32]byte `bin:"borsh"`
	Mint1     [32]byte `bin:"borsh"`
	Vault0    [32]byte `bin:"borsh"`
	Vault1    [32]byte `bin:"borsh"`
	LpMint    [32]byte `bin:"borsh"`
	Decimals  uint8    `bin:"borsh"`
	AmmConfig [32]byte `bin:"borsh"`
}

type wireLpChange struct {
	User         [32]byte `bin:"borsh"`
	PoolID       [32]byte `bin:"borsh"`
	ChangeType   uint8    `bin:"borsh"`
	LpBefore     uint64   `bin:"borsh"`
	LpAfter      uint64   `bin:"borsh"`
	Token0Amount uint64   `bin:"borsh"`
	Token1Amount uint64   `bin:"borsh"`
	Vault0Before uint64   `bin:"borsh"`
	Vault0After  uint64   `bin:"borsh"`
	Vault1Before uint64   `bin:"borsh"`
	Vault1After  uint64   `bin:"borsh"`
	TransferFees uint64   `bin:"borsh"`
}

type wireSwap struct {
	PoolID       [32]byte `bin:"borsh"`
	InputMint    [32]byte `bin:"borsh"`
	OutputMint   [32]byte `bin:"borsh"`
	BaseInput    bool     `bin:"borsh"`
	InputAmount  uint64   `bin:"borsh"`
	OutputAmount uint64   `bin:"borsh"`
	TradeFee     uint64   `bin:"borsh"`
	CreatorFee   uint64   `bin:"borsh"`
}

type wireNftClaim struct {
	NftMint     [32]byte  `bin:"borsh"`
	Claimer     [32]byte  `bin:"borsh"`
	Referrer    *[32]byte `bin:"borsh"`
	Tier        uint8     `bin:"borsh"`
	ClaimAmount uint64    `bin:"borsh"`
	HasReferrer bool      `bin:"borsh"`
}

type wireRewardDistribution struct {
	DistributionID   [32]byte  `bin:"borsh"`
	Recipient        [32]byte  `bin:"borsh"`
	Referrer         *[32]byte `bin:"borsh"`
	RewardTokenMint  [32]byte  `bin:"borsh"`
	RewardAmount     uint64    `bin:"borsh"`
	IsLocked         bool      `bin:"borsh"`
	UnlockTimestamp  *int64    `bin:"borsh"`
	IsReferralReward bool      `bin:"borsh"`
}

type wireLaunch struct {
	MemeTokenMint [32]byte `bin:"borsh"`
	BaseTokenMint [32]byte `bin:"borsh"`
	User          [32]byte `bin:"borsh"`
	ConfigIndex   uint16   `bin:"borsh"`
	OpenPrice     uint64   `bin:"borsh"`
	TargetPrice   uint64   `bin:"borsh"`
	BaseAmount    uint64   `bin:"borsh"`
	MemeAmount    uint64   `bin:"borsh"`
	OpenTime      int64    `bin:"borsh"`
}

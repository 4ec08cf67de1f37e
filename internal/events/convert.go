package events

import (
	"github.com/mr-tron/base58"

	"solana-event-listener/internal/domain"
)

func pubkeyString(b [32]byte) string {
	return base58.Encode(b[:])
}

func optionalPubkeyString(b *[32]byte) *string {
	if b == nil {
		return nil
	}
	s := pubkeyString(*b)
	return &s
}

func pubkeyBytes(s string) ([32]byte, error) {
	var out [32]byte
	decoded, err := base58.Decode(s)
	if err != nil {
		return out, err
	}
	if len(decoded) != 32 {
		return out, ErrTruncated
	}
	copy(out[:], decoded)
	return out, nil
}

func optionalPubkeyBytes(s *string) (*[32]byte, error) {
	if s == nil {
		return nil, nil
	}
	b, err := pubkeyBytes(*s)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (w wireInitPool) toDomain() domain.InitPool {
	return domain.InitPool{
		PoolID:    pubkeyString(w.PoolID),
		Creator:   pubkeyString(w.Creator),
		Mint0:     pubkeyString(w.Mint0),
		Mint1:     pubkeyString(w.Mint1),
		Vault0:    pubkeyString(w.Vault0),
		Vault1:    pubkeyString(w.Vault1),
		LpMint:    pubkeyString(w.LpMint),
		Decimals:  w.Decimals,
		AmmConfig: pubkeyString(w.AmmConfig),
	}
}

func (w wireLpChange) toDomain() (domain.LpChange, error) {
	if w.ChangeType > uint8(domain.LpChangeInit) {
		return domain.LpChange{}, ErrInvalidEnumTag
	}
	return domain.LpChange{
		User:         pubkeyString(w.User),
		PoolID:       pubkeyString(w.PoolID),
		ChangeType:   domain.LpChangeType(w.ChangeType),
		LpBefore:     w.LpBefore,
		LpAfter:      w.LpAfter,
		Token0Amount: w.Token0Amount,
		Token1Amount: w.Token1Amount,
		Vault0Before: w.Vault0Before,
		Vault0After:  w.Vault0After,
		Vault1Before: w.Vault1Before,
		Vault1After:  w.Vault1After,
		TransferFees: w.TransferFees,
	}, nil
}

func (w wireSwap) toDomain() domain.Swap {
	return domain.Swap{
		PoolID:       pubkeyString(w.PoolID),
		InputMint:    pubkeyString(w.InputMint),
		OutputMint:   pubkeyString(w.OutputMint),
		BaseInput:    w.BaseInput,
		InputAmount:  w.InputAmount,
		OutputAmount: w.OutputAmount,
		TradeFee:     w.TradeFee,
		CreatorFee:   w.CreatorFee,
	}
}

func (w wireNftClaim) toDomain() domain.NftClaim {
	return domain.NftClaim{
		NftMint:     pubkeyString(w.NftMint),
		Claimer:     pubkeyString(w.Claimer),
		Referrer:    optionalPubkeyString(w.Referrer),
		Tier:        w.Tier,
		ClaimAmount: w.ClaimAmount,
		HasReferrer: w.HasReferrer,
	}
}

func (w wireRewardDistribution) toDomain() domain.RewardDistribution {
	return domain.RewardDistribution{
		DistributionID:   pubkeyString(w.DistributionID),
		Recipient:        pubkeyString(w.Recipient),
		Referrer:         optionalPubkeyString(w.Referrer),
		RewardTokenMint:  pubkeyString(w.RewardTokenMint),
		RewardAmount:     w.RewardAmount,
		IsLocked:         w.IsLocked,
		UnlockTimestamp:  w.UnlockTimestamp,
		IsReferralReward: w.IsReferralReward,
	}
}

func (w wireLaunch) toDomain() domain.Launch {
	return domain.Launch{
		MemeTokenMint: pubkeyString(w.MemeTokenMint),
		BaseTokenMint: pubkeyString(w.BaseTokenMint),
		User:          pubkeyString(w.User),
		ConfigIndex:   w.ConfigIndex,
		OpenPrice:     w.OpenPrice,
		TargetPrice:   w.TargetPrice,
		BaseAmount:    w.BaseAmount,
		MemeAmount:    w.MemeAmount,
		OpenTime:      w.OpenTime,
	}
}

// fromDomain* are the inverse conversions, used by Encode to build test fixtures and to assert the
// decode round-trip invariant (TESTABLE PROPERTIES §8.2).

func fromDomainInitPool(d domain.InitPool) (wireInitPool, error) {
	var w wireInitPool
	var err error
	if w.PoolID, err = pubkeyBytes(d.PoolID); err != nil {
		return w, err
	}
	if w.Creator, err = pubkeyBytes(d.Creator); err != nil {
		return w, err
	}
	if w.Mint0, err = pubkeyBytes(d.Mint0); err != nil {
		return w, err
	}
	if w.Mint1, err = pubkeyBytes(d.Mint1); err != nil {
		return w, err
	}
	if w.Vault0, err = pubkeyBytes(d.Vault0); err != nil {
		return w, err
	}
	if w.Vault1, err = pubkeyBytes(d.Vault1); err != nil {
		return w, err
	}
	if w.LpMint, err = pubkeyBytes(d.LpMint); err != nil {
		return w, err
	}
	if w.AmmConfig, err = pubkeyBytes(d.AmmConfig); err != nil {
		return w, err
	}
	w.Decimals = d.Decimals
	return w, nil
}

func fromDomainLpChange(d domain.LpChange) (wireLpChange, error) {
	var w wireLpChange
	var err error
	if w.User, err = pubkeyBytes(d.User); err != nil {
		return w, err
	}
	if w.PoolID, err = pubkeyBytes(d.PoolID); err != nil {
		return w, err
	}
	w.ChangeType = uint8(d.ChangeType)
	w.LpBefore = d.LpBefore
	w.LpAfter = d.LpAfter
	w.Token0Amount = d.Token0Amount
	w.Token1Amount = d.Token1Amount
	w.Vault0Before = d.Vault0Before
	w.Vault0After = d.Vault0After
	w.Vault1Before = d.Vault1Before
	w.Vault1After = d.Vault1After
	w.TransferFees = d.TransferFees
	return w, nil
}

func fromDomainSwap(d domain.Swap) (wireSwap, error) {
	var w wireSwap
	var err error
	if w.PoolID, err = pubkeyBytes(d.PoolID); err != nil {
		return w, err
	}
	if w.InputMint, err = pubkeyBytes(d.InputMint); err != nil {
		return w, err
	}
	if w.OutputMint, err = pubkeyBytes(d.OutputMint); err != nil {
		return w, err
	}
	w.BaseInput = d.BaseInput
	w.InputAmount = d.InputAmount
	w.OutputAmount = d.OutputAmount
	w.TradeFee = d.TradeFee
	w.CreatorFee = d.CreatorFee
	return w, nil
}

func fromDomainNftClaim(d domain.NftClaim) (wireNftClaim, error) {
	var w wireNftClaim
	var err error
	if w.NftMint, err = pubkeyBytes(d.NftMint); err != nil {
		return w, err
	}
	if w.Claimer, err = pubkeyBytes(d.Claimer); err != nil {
		return w, err
	}
	if w.Referrer, err = optionalPubkeyBytes(d.Referrer); err != nil {
		return w, err
	}
	w.Tier = d.Tier
	w.ClaimAmount = d.ClaimAmount
	w.HasReferrer = d.HasReferrer
	return w, nil
}

func fromDomainRewardDistribution(d domain.RewardDistribution) (wireRewardDistribution, error) {
	var w wireRewardDistribution
	var err error
	if w.DistributionID, err = pubkeyBytes(d.DistributionID); err != nil {
		return w, err
	}
	if w.Recipient, err = pubkeyBytes(d.Recipient); err != nil {
		return w, err
	}
	if w.Referrer, err = optionalPubkeyBytes(d.Referrer); err != nil {
		return w, err
	}
	if w.RewardTokenMint, err = pubkeyBytes(d.RewardTokenMint); err != nil {
		return w, err
	}
	w.RewardAmount = d.RewardAmount
	w.IsLocked = d.IsLocked
	w.UnlockTimestamp = d.UnlockTimestamp
	w.IsReferralReward = d.IsReferralReward
	return w, nil
}

func fromDomainLaunch(d domain.Launch) (wireLaunch, error) {
	var w wireLaunch
	var err error
	if w.MemeTokenMint, err = pubkeyBytes(d.MemeTokenMint); err != nil {
		return w, err
	}
	if w.BaseTokenMint, err = pubkeyBytes(d.BaseTokenMint); err != nil {
		return w, err
	}
	if w.User, err = pubkeyBytes(d.User); err != nil {
		return w, err
	}
	w.ConfigIndex = d.ConfigIndex
	w.OpenPrice = d.OpenPrice
	w.TargetPrice = d.TargetPrice
	w.BaseAmount = d.BaseAmount
	w.MemeAmount = d.MemeAmount
	w.OpenTime = d.OpenTime
	return w, nil
}

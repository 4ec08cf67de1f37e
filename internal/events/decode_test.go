package events

import (
	"reflect"
	"testing"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/registry"
)

func mustTable(t *testing.T) *registry.Table {
	t.Helper()
	table, err := registry.New()
	if err != nil {
		t.Fatalf("registry.New() error = %v", err)
	}
	return table
}

const samplePubkey = "11111111111111111111111111111111"

func TestDecode_RoundTrip(t *testing.T) {
	table := mustTable(t)

	referrer := samplePubkey
	cases := []struct {
		name   string
		record interface{}
	}{
		{registry.EventInitPool, domain.InitPool{
			PoolID: samplePubkey, Creator: samplePubkey, Mint0: samplePubkey, Mint1: samplePubkey,
			Vault0: samplePubkey, Vault1: samplePubkey, LpMint: samplePubkey, Decimals: 9, AmmConfig: samplePubkey,
		}},
		{registry.EventLpChange, domain.LpChange{
			User: samplePubkey, PoolID: samplePubkey, ChangeType: domain.LpChangeDeposit,
			LpBefore: 0, LpAfter: 1000, Token0Amount: 500, Token1Amount: 500,
			Vault0Before: 0, Vault0After: 500, Vault1Before: 0, Vault1After: 500, TransferFees: 1,
		}},
		{registry.EventSwap, domain.Swap{
			PoolID: samplePubkey, InputMint: samplePubkey, OutputMint: samplePubkey,
			BaseInput: true, InputAmount: 100, OutputAmount: 95, TradeFee: 3, CreatorFee: 2,
		}},
		{registry.EventNftClaim, domain.NftClaim{
			NftMint: samplePubkey, Claimer: samplePubkey, Referrer: &referrer,
			Tier: 1, ClaimAmount: 500, HasReferrer: true,
		}},
		{registry.EventRewardDistribution, domain.RewardDistribution{
			DistributionID: samplePubkey, Recipient: samplePubkey, Referrer: &referrer,
			RewardTokenMint: samplePubkey, RewardAmount: 100, IsLocked: false, IsReferralReward: true,
		}},
		{registry.EventLaunch, domain.Launch{
			MemeTokenMint: samplePubkey, BaseTokenMint: samplePubkey, User: samplePubkey,
			ConfigIndex: 1, OpenPrice: 10, TargetPrice: 20, BaseAmount: 1000, MemeAmount: 2000, OpenTime: 123,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := Encode(table, tc.name, tc.record)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			gotName, gotRecord, err := Decode(table, payload)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if gotName != tc.name {
				t.Errorf("name = %q, want %q", gotName, tc.name)
			}
			if !reflect.DeepEqual(gotRecord, tc.record) {
				t.Errorf("record = %+v, want %+v", gotRecord, tc.record)
			}
		})
	}
}

func TestDecode_TruncatedPayload(t *testing.T) {
	table := mustTable(t)
	payload, err := Encode(table, registry.EventInitPool, domain.InitPool{
		PoolID: samplePubkey, Creator: samplePubkey, Mint0: samplePubkey, Mint1: samplePubkey,
		Vault0: samplePubkey, Vault1: samplePubkey, LpMint: samplePubkey, Decimals: 9, AmmConfig: samplePubkey,
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	truncated := payload[:len(payload)-4]
	if _, _, err := Decode(table, truncated); err != ErrTruncated {
		t.Errorf("Decode(truncated) error = %v, want ErrTruncated", err)
	}
}

func TestDecode_DiscriminatorMismatch(t *testing.T) {
	table := mustTable(t)
	bogus := make([]byte, 16)
	if _, _, err := Decode(table, bogus); err != ErrDiscriminatorMismatch {
		t.Errorf("Decode(bogus) error = %v, want ErrDiscriminatorMismatch", err)
	}
}

func TestDecode_InvalidEnumTag(t *testing.T) {
	table := mustTable(t)
	payload, err := Encode(table, registry.EventLpChange, domain.LpChange{
		User: samplePubkey, PoolID: samplePubkey, ChangeType: domain.LpChangeInit,
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	// Corrupt the change_type byte (right after the two 32-byte pubkeys) to an out-of-range tag.
	payload[registry.DiscriminatorSize+32+32] = 7

	if _, _, err := Decode(table, payload); err != ErrInvalidEnumTag {
		t.Errorf("Decode(corrupted enum) error = %v, want ErrInvalidEnumTag", err)
	}
}

package pdautil

import (
	"testing"

	"github.com/mr-tron/base58"
)

func TestDerive_Deterministic(t *testing.T) {
	programID := make([]byte, 32)
	for i := range programID {
		programID[i] = byte(i)
	}
	seeds := [][]byte{[]byte("pool"), []byte("seed-a")}

	addr1, bump1, err := Derive(seeds, programID)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	addr2, bump2, err := Derive(seeds, programID)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if addr1 != addr2 || bump1 != bump2 {
		t.Errorf("Derive() not deterministic: (%s,%d) != (%s,%d)", addr1, bump1, addr2, bump2)
	}
}

func TestDerive_DifferentSeedsDiffer(t *testing.T) {
	programID := make([]byte, 32)
	a, _, err := Derive([][]byte{[]byte("a")}, programID)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	b, _, err := Derive([][]byte{[]byte("b")}, programID)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if a == b {
		t.Error("different seeds produced the same PDA")
	}
}

func TestDerive_ResultIsOffCurve(t *testing.T) {
	programID := make([]byte, 32)
	addr, _, err := Derive([][]byte{[]byte("metadata")}, programID)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	decoded, err := base58.Decode(addr)
	if err != nil {
		t.Fatalf("decode pda: %v", err)
	}
	if isOnCurve(decoded) {
		t.Error("derived PDA must be off-curve")
	}
}

func TestDeriveBase58_InvalidProgramID(t *testing.T) {
	if _, err := DeriveBase58("not-base58!!!", []byte("seed")); err == nil {
		t.Error("expected error for invalid program id")
	}
}

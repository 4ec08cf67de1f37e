package registry

import (
	"crypto/sha256"
	"testing"
)

func TestCompute_MatchesCanonicalFormula(t *testing.T) {
	for _, name := range AllEventNames {
		want := sha256.Sum256([]byte("event:" + name))
		got := Compute(name)
		for i := 0; i < DiscriminatorSize; i++ {
			if got[i] != want[i] {
				t.Fatalf("Compute(%q)[%d] = %x, want %x", name, i, got[i], want[i])
			}
		}
	}
}

func TestNew_SelfTestPasses(t *testing.T) {
	table, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := table.SelfTest(); err != nil {
		t.Fatalf("SelfTest() error = %v", err)
	}
}

func TestLookup_RoundTrip(t *testing.T) {
	table, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, name := range AllEventNames {
		d, ok := table.DiscriminatorFor(name)
		if !ok {
			t.Fatalf("DiscriminatorFor(%q) missing", name)
		}
		gotName, ok := table.Lookup(d)
		if !ok || gotName != name {
			t.Fatalf("Lookup(%x) = (%q, %v), want (%q, true)", d, gotName, ok, name)
		}
	}
}

func TestLookup_UnknownDiscriminator(t *testing.T) {
	table, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var bogus Discriminator
	if _, ok := table.Lookup(bogus); ok {
		t.Error("expected zero-value discriminator to be unrecognized")
	}
}

// Package registry is the discriminator table (C1): the closed, compile-time-known mapping from an
// 8-byte Anchor event discriminator to an event name. An Anchor event is framed on the wire as the
// first 8 bytes of SHA256("event:<EventName>") followed by its Borsh-serialized struct; this package
// owns only the discriminator half of that contract, the same way the teacher's internal/idhash
// computes deterministic identifiers via SHA256 over a canonical string (see
// idhash.ComputeTradeID/ComputeCandidateID) rather than a derive-macro or codegen step.
//
// The registry is closed: the recognized event set is fixed at compile time and verified against
// its own hashes at startup (Table.SelfTest), never extended at runtime.
package registry

import (
	"crypto/sha256"
	"fmt"
)

// DiscriminatorSize is the fixed width of an Anchor event tag.
const DiscriminatorSize = 8

// Discriminator is an 8-byte Anchor event tag.
type Discriminator [DiscriminatorSize]byte

// Compute returns the canonical discriminator for an event name: the first 8 bytes of
// SHA256("event:<name>").
func Compute(eventName string) Discriminator {
	sum := sha256.Sum256([]byte("event:" + eventName))
	var d Discriminator
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// Names recognized by the registry, in the closed order from SPEC_FULL.md §4.1.
const (
	EventInitPool           = "InitPool"
	EventLpChange           = "LpChange"
	EventSwap               = "Swap"
	EventNftClaim           = "NftClaim"
	EventRewardDistribution = "RewardDistribution"
	EventLaunch             = "Launch"
)

// AllEventNames lists every recognized event name.
var AllEventNames = []string{
	EventInitPool,
	EventLpChange,
	EventSwap,
	EventNftClaim,
	EventRewardDistribution,
	EventLaunch,
}

// Table maps discriminators to event names.
type Table struct {
	byDiscriminator map[Discriminator]string
	byName          map[string]Discriminator
}

// New builds the registry's discriminator table and runs the startup self-test: every entry must
// recompute to the exact discriminator recorded for it. A mismatch is a fatal configuration error
// (SPEC_FULL.md §7 "Fatal config/schema") since it means the compiled table has drifted from the
// canonical naming scheme.
func New() (*Table, error) {
	t := &Table{
		byDiscriminator: make(map[Discriminator]string, len(AllEventNames)),
		byName:          make(map[string]Discriminator, len(AllEventNames)),
	}
	for _, name := range AllEventNames {
		d := Compute(name)
		if existing, ok := t.byDiscriminator[d]; ok {
			return nil, fmt.Errorf("registry: discriminator collision between %q and %q", existing, name)
		}
		t.byDiscriminator[d] = name
		t.byName[name] = d
	}
	if err := t.SelfTest(); err != nil {
		return nil, err
	}
	return t, nil
}

// SelfTest recomputes every registered discriminator from its canonical name and fails on any
// mismatch, implementing TESTABLE PROPERTIES §8.1 (discriminator stability) as a runtime check.
func (t *Table) SelfTest() error {
	for name, want := range t.byName {
		got := Compute(name)
		if got != want {
			return fmt.Errorf("registry: discriminator self-test failed for %q: recomputed %x, registered %x", name, got, want)
		}
	}
	return nil
}

// Lookup resolves a discriminator to its event name. ok is false for unrecognized discriminators.
func (t *Table) Lookup(d Discriminator) (name string, ok bool) {
	name, ok = t.byDiscriminator[d]
	return
}

// DiscriminatorFor returns the discriminator registered for a known event name.
func (t *Table) DiscriminatorFor(name string) (Discriminator, bool) {
	d, ok := t.byName[name]
	return d, ok
}

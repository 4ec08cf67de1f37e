// Package events is C2, the parser set: Borsh-decoding event payload bytes (post-discriminator) into
// the typed domain.* structs. Decode never performs I/O and never blocks (SPEC_FULL.md §4.1).
//
// Grounded on other_examples/95ee73a0_nick199910-SolRoute's `bin:"borsh"` struct-tag decoding via
// github.com/gagliardetto/binary, the vetted Borsh decoder named in SPEC_FULL.md §9 ("implementers
// should use a vetted decoder; no custom parser is required").
package events

import (
	"bytes"
	"errors"
	"io"

	bin "github.com/gagliardetto/binary"

	"solana-event-listener/internal/domain"
	"solana-event-listener/internal/registry"
)

// Decode strips the 8-byte discriminator from payload, looks it up in table, and Borsh-decodes the
// remainder into the matching domain.* event. name is the resolved event name; record is one of
// domain.InitPool, domain.LpChange, domain.Swap, domain.NftClaim, domain.RewardDistribution, or
// domain.Launch.
func Decode(table *registry.Table, payload []byte) (name string, record interface{}, err error) {
	if len(payload) < registry.DiscriminatorSize {
		return "", nil, ErrTruncated
	}

	var disc registry.Discriminator
	copy(disc[:], payload[:registry.DiscriminatorSize])
	body := payload[registry.DiscriminatorSize:]

	name, ok := table.Lookup(disc)
	if !ok {
		return "", nil, ErrDiscriminatorMismatch
	}

	switch name {
	case registry.EventInitPool:
		var w wireInitPool
		if err := decodeBorsh(body, &w); err != nil {
			return name, nil, err
		}
		return name, w.toDomain(), nil

	case registry.EventLpChange:
		var w wireLpChange
		if err := decodeBorsh(body, &w); err != nil {
			return name, nil, err
		}
		rec, err := w.toDomain()
		if err != nil {
			return name, nil, err
		}
		return name, rec, nil

	case registry.EventSwap:
		var w wireSwap
		if err := decodeBorsh(body, &w); err != nil {
			return name, nil, err
		}
		return name, w.toDomain(), nil

	case registry.EventNftClaim:
		var w wireNftClaim
		if err := decodeBorsh(body, &w); err != nil {
			return name, nil, err
		}
		return name, w.toDomain(), nil

	case registry.EventRewardDistribution:
		var w wireRewardDistribution
		if err := decodeBorsh(body, &w); err != nil {
			return name, nil, err
		}
		return name, w.toDomain(), nil

	case registry.EventLaunch:
		var w wireLaunch
		if err := decodeBorsh(body, &w); err != nil {
			return name, nil, err
		}
		return name, w.toDomain(), nil

	default:
		return name, nil, ErrDiscriminatorMismatch
	}
}

func decodeBorsh(body []byte, v interface{}) error {
	dec := bin.NewBorshDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return ErrTruncated
		}
		// Every wire struct is fixed-layout (byte arrays, integers, bools, option tags), so the
		// decoder can only fail by running out of bytes; its short-read errors are plain
		// fmt errors that do not wrap io.EOF.
		return ErrTruncated
	}
	return nil
}

// Encode is the inverse of Decode: it Borsh-serializes record (one of the domain.* event structs)
// prefixed with its canonical discriminator, for use by property tests asserting the decode
// round-trip invariant (TESTABLE PROPERTIES §8.2) and by test fixtures that synthesize payloads.
func Encode(table *registry.Table, name string, record interface{}) ([]byte, error) {
	disc, ok := table.DiscriminatorFor(name)
	if !ok {
		return nil, ErrDiscriminatorMismatch
	}

	var wire interface{}
	switch name {
	case registry.EventInitPool:
		w, err := fromDomainInitPool(record.(domain.InitPool))
		if err != nil {
			return nil, err
		}
		wire = w
	case registry.EventLpChange:
		w, err := fromDomainLpChange(record.(domain.LpChange))
		if err != nil {
			return nil, err
		}
		wire = w
	case registry.EventSwap:
		w, err := fromDomainSwap(record.(domain.Swap))
		if err != nil {
			return nil, err
		}
		wire = w
	case registry.EventNftClaim:
		w, err := fromDomainNftClaim(record.(domain.NftClaim))
		if err != nil {
			return nil, err
		}
		wire = w
	case registry.EventRewardDistribution:
		w, err := fromDomainRewardDistribution(record.(domain.RewardDistribution))
		if err != nil {
			return nil, err
		}
		wire = w
	case registry.EventLaunch:
		w, err := fromDomainLaunch(record.(domain.Launch))
		if err != nil {
			return nil, err
		}
		wire = w
	default:
		return nil, ErrDiscriminatorMismatch
	}

	var body bytes.Buffer
	enc := bin.NewBorshEncoder(&body)
	if err := enc.Encode(wire); err != nil {
		return nil, err
	}

	out := make([]byte, 0, registry.DiscriminatorSize+body.Len())
	out = append(out, disc[:]...)
	out = append(out, body.Bytes()...)
	return out, nil
}

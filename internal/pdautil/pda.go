// Package pdautil derives Solana Program-Derived Addresses. It is a pure, I/O-free utility package
// consumed by HTTP controllers, transaction-building helpers, and other external collaborators that
// sit outside the listener itself (see SPEC_FULL.md §1) as well as by the listener's own view
// updaters when a PDA needs to be recomputed rather than read off an event payload.
//
// Adapted from the teacher's derivePDA/isOnCurve in internal/ingestion/rpc_sources.go, generalized
// to arbitrary seed sets instead of one hard-coded Metaplex metadata derivation.
package pdautil

import (
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const maxBump = 255

// ErrNoValidBump is returned when no bump seed in [0, 255] yields an off-curve address.
var ErrNoValidBump = errors.New("pdautil: no off-curve address found for any bump seed")

// Derive computes the canonical Program Derived Address for the given seeds under programID,
// searching bump seeds from 255 downward and returning the first off-curve result, matching the
// algorithm used by the Solana runtime itself.
func Derive(seeds [][]byte, programID []byte) (address string, bump byte, err error) {
	for b := maxBump; b >= 0; b-- {
		candidate := buildPreimage(seeds, byte(b), programID)
		hash := sha256.Sum256(candidate)
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), byte(b), nil
		}
	}
	return "", 0, ErrNoValidBump
}

// DeriveBase58 is a convenience wrapper over Derive for base58-encoded seeds/program id.
func DeriveBase58(programIDBase58 string, seeds ...[]byte) (string, error) {
	programID, err := base58.Decode(programIDBase58)
	if err != nil {
		return "", errors.New("pdautil: invalid program id: " + err.Error())
	}
	address, _, err := Derive(seeds, programID)
	return address, err
}

func buildPreimage(seeds [][]byte, bump byte, programID []byte) []byte {
	size := 1 + len(programID) + len("ProgramDerivedAddress")
	for _, s := range seeds {
		size += len(s)
	}
	out := make([]byte, 0, size)
	for _, s := range seeds {
		out = append(out, s...)
	}
	out = append(out, bump)
	out = append(out, programID...)
	out = append(out, []byte("ProgramDerivedAddress")...)
	return out
}

// isOnCurve reports whether point, interpreted as a compressed ed25519 point, lies on the curve.
// A PDA is only valid once it is provably *off* the curve (SetBytes fails on points that are not
// canonically encoded curve points, which is the off-curve signal the PDA algorithm depends on).
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// Package pda derives program addresses: deterministic 32-byte addresses that
// are guaranteed not to be valid Ed25519 public keys, so no private key can
// ever sign for them. Only the deriving program can act on their behalf by
// presenting the seeds and bump used to derive them.
package pda

import (
	"bytes"
	"crypto/sha256"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	// AddressSize is the length of a derived address.
	AddressSize = 32
	// MaxSeeds bounds the number of seeds including the bump.
	MaxSeeds = 16
	// MaxSeedLen bounds the length of a single seed.
	MaxSeedLen = 32

	derivationMarker = "ProgramDerivedAddress"
)

var (
	ErrMaxSeedLengthExceeded = errors.New("length of a seed exceeds the maximum")
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrOnCurve               = errors.New("derived address lies on the ed25519 curve")
	ErrNoViableBump          = errors.New("unable to find a viable program address bump")
	ErrInvalidAddress        = errors.New("invalid address")
)

// Address is a 32-byte account address rendered in base58.
type Address [AddressSize]byte

// String returns the base58 encoding of the address.
func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a copy of the raw address.
func (a Address) Bytes() []byte {
	return append([]byte(nil), a[:]...)
}

// ParseAddress decodes a base58 address string.
func ParseAddress(s string) (Address, error) {
	var a Address
	raw, err := base58.Decode(s)
	if err != nil {
		return a, errors.Wrapf(ErrInvalidAddress, "decode %q: %v", s, err)
	}
	if len(raw) != AddressSize {
		return a, errors.Wrapf(ErrInvalidAddress, "expected %d bytes, got %d", AddressSize, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// IsOnCurve reports whether b decodes to a point on the ed25519 curve.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// CreateProgramAddress hashes seeds with the program id and rejects results
// that are valid curve points.
func CreateProgramAddress(seeds [][]byte, program Address) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, ErrTooManySeeds
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Address{}, errors.Wrapf(ErrMaxSeedLengthExceeded, "seed of %d bytes", len(seed))
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(derivationMarker))

	var out Address
	copy(out[:], h.Sum(nil))
	if IsOnCurve(out[:]) {
		return Address{}, ErrOnCurve
	}
	return out, nil
}

// FindProgramAddress searches bumps from 255 downwards and returns the first
// off-curve address together with the bump that produced it.
func FindProgramAddress(seeds [][]byte, program Address) (Address, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		switch {
		case err == nil:
			return addr, uint8(bump), nil
		case errors.Is(err, ErrOnCurve):
			continue
		default:
			return Address{}, 0, err
		}
	}
	return Address{}, 0, ErrNoViableBump
}

// VerifyProgramAddress recomputes an address from its seeds and recorded bump
// and checks it against expected.
func VerifyProgramAddress(seeds [][]byte, bump uint8, program, expected Address) error {
	withBump := append(append([][]byte(nil), seeds...), []byte{bump})
	addr, err := CreateProgramAddress(withBump, program)
	if err != nil {
		return err
	}
	if !bytes.Equal(addr[:], expected[:]) {
		return errors.Wrapf(ErrInvalidAddress, "seeds derive %s, expected %s", addr, expected)
	}
	return nil
}

// Package sigverify checks Ed25519 withdrawal authorizations.
package sigverify

import (
	"crypto/ed25519"
	"encoding/hex"

	"github.com/pkg/errors"
)

const (
	// PublicKeySize is the length of a raw Ed25519 verification key.
	PublicKeySize = ed25519.PublicKeySize
	// SignatureSize is the length of a raw Ed25519 signature.
	SignatureSize = ed25519.SignatureSize
)

// Verify reports whether sig is a valid signature of message under publicKey.
// Inputs of the wrong length are rejected before any curve arithmetic.
func Verify(publicKey, message, sig []byte) bool {
	if len(publicKey) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, sig)
}

// ParsePublicKey decodes a hex verification key and checks its length.
func ParsePublicKey(publicKeyHex string) ([PublicKeySize]byte, error) {
	var out [PublicKeySize]byte
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return out, errors.Wrap(err, "failed to decode public key hex")
	}
	if len(raw) != PublicKeySize {
		return out, errors.Errorf("invalid public key size: expected %d, got %d", PublicKeySize, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// ParseSignature decodes a hex signature and checks its length.
func ParseSignature(sigHex string) ([SignatureSize]byte, error) {
	var out [SignatureSize]byte
	raw, err := hex.DecodeString(sigHex)
	if err != nil {
		return out, errors.Wrap(err, "failed to decode signature hex")
	}
	if len(raw) != SignatureSize {
		return out, errors.Errorf("invalid signature size: expected %d, got %d", SignatureSize, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

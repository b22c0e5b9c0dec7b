package oracle

import (
	"fmt"
	"strings"
)

// Algorithm names a threshold signature scheme served by the oracle.
type Algorithm string

const (
	AlgorithmEd25519         Algorithm = "ed25519"
	AlgorithmBip340Secp256k1 Algorithm = "bip340secp256k1"
)

// Deployment profiles select which oracle-managed key authorizes withdrawals.
const (
	ProfileLocal      = "local"
	ProfileTest       = "test"
	ProfileProduction = "production"
)

// Key names provisioned by the signing subsystem for each profile.
const (
	KeyNameLocalDevelopment = "dfx_test_key"
	KeyNameTest             = "test_key_1"
	KeyNameProduction       = "key_1"
)

// KeyID references an externally managed signing key.
type KeyID struct {
	Algorithm Algorithm `json:"algorithm"`
	Name      string    `json:"name"`
}

// String renders the key id as algorithm:name.
func (k KeyID) String() string {
	return string(k.Algorithm) + ":" + k.Name
}

// Profiles lists the accepted deployment profile names.
func Profiles() []string {
	return []string{ProfileLocal, ProfileTest, ProfileProduction}
}

// KeyIDForProfile returns the Ed25519 key id used by a deployment profile.
func KeyIDForProfile(profile string) (KeyID, error) {
	var name string
	switch strings.ToLower(profile) {
	case ProfileLocal:
		name = KeyNameLocalDevelopment
	case ProfileTest:
		name = KeyNameTest
	case ProfileProduction:
		name = KeyNameProduction
	default:
		return KeyID{}, fmt.Errorf("unknown key profile %q", profile)
	}
	return KeyID{Algorithm: AlgorithmEd25519, Name: name}, nil
}

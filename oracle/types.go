// Package oracle is the client side of the threshold signing service that
// holds the bridge's authorization key. The service itself runs as an actor;
// callers reach it through request futures with a fixed timeout.
package oracle

// PublicKeyRequest asks the signer for the public key of a managed key.
type PublicKeyRequest struct {
	KeyID          KeyID    `json:"key_id"`
	DerivationPath [][]byte `json:"derivation_path,omitempty"`
}

// PublicKeyResponse carries the raw public key and its chain code.
type PublicKeyResponse struct {
	PublicKey   []byte `json:"public_key"`
	ChainCode   []byte `json:"chain_code"`
	Error       string `json:"error,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// SignRequest asks the signer to sign Message under KeyID. Fee is the number
// of cycles attached to the call.
type SignRequest struct {
	KeyID          KeyID    `json:"key_id"`
	Message        []byte   `json:"message"`
	DerivationPath [][]byte `json:"derivation_path,omitempty"`
	Fee            uint64   `json:"fee"`
}

// SignResponse carries the raw signature.
type SignResponse struct {
	Signature   []byte `json:"signature"`
	Error       string `json:"error,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// PublicKeyReply is what the client hands back to callers.
type PublicKeyReply struct {
	PublicKey []byte
	ChainCode []byte
}

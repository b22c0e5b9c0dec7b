package oracle

import (
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"slices"

	"github.com/asynkron/protoactor-go/actor"
	"lukechampine.com/blake3"

	"github.com/sonr-io/vaultbridge/crypto/secure"
)

const (
	keyDerivationContext   = "vaultbridge threshold signer 2024-06 ed25519 key"
	chainCodeDerivationCtx = "vaultbridge threshold signer 2024-06 chain code"
)

// SignerConfig provisions the threshold signer actor.
type SignerConfig struct {
	// MasterSecret is the root secret the signer derives its managed keys from.
	// A signer without one never initializes and every request reports the
	// oracle as unavailable.
	MasterSecret []byte
	// Keys lists the key ids this signer serves.
	Keys []KeyID
	// MinFee is the smallest fee accepted with a sign request.
	MinFee uint64
}

// ThresholdSigner is the actor standing in for the external key management
// subsystem. It never exposes private key material.
type ThresholdSigner struct {
	behavior actor.Behavior
	config   SignerConfig
	master   *secure.Secret
	keys     map[KeyID]ed25519.PrivateKey
}

// SignerProps returns actor properties for a signer provisioned with config.
func SignerProps(config SignerConfig) *actor.Props {
	return actor.PropsFromProducer(func() actor.Actor {
		s := &ThresholdSigner{
			behavior: actor.NewBehavior(),
			config:   config,
		}
		s.behavior.Become(s.uninitialized)
		return s
	})
}

// Receive handles lifecycle messages and delegates the rest to the current behavior.
func (s *ThresholdSigner) Receive(c actor.Context) {
	switch c.Message().(type) {
	case *actor.Started:
		s.handleStarted(c)
	case *actor.Stopping:
		s.wipe()
	default:
		s.behavior.Receive(c)
	}
}

func (s *ThresholdSigner) handleStarted(c actor.Context) {
	if len(s.config.MasterSecret) == 0 {
		c.Logger().Warn("No master secret provided, threshold signer will not initialize")
		return
	}

	s.master = secure.FromBytes(s.config.MasterSecret)
	s.keys = make(map[KeyID]ed25519.PrivateKey, len(s.config.Keys))
	for _, id := range s.config.Keys {
		if id.Algorithm != AlgorithmEd25519 {
			c.Logger().Warn("Skipping unsupported key algorithm", slog.String("key_id", id.String()))
			continue
		}
		_ = s.master.Use(func(master []byte) error {
			s.keys[id] = deriveSigningKey(master, id)
			return nil
		})
	}

	c.Logger().Info("Threshold signer started", slog.Int("keys", len(s.keys)))
	s.behavior.Become(s.initialized)
}

func (s *ThresholdSigner) uninitialized(c actor.Context) {
	switch c.Message().(type) {
	case *PublicKeyRequest:
		c.Respond(&PublicKeyResponse{Error: "signer not initialized", Unavailable: true})
	case *SignRequest:
		c.Respond(&SignResponse{Error: "signer not initialized", Unavailable: true})
	}
}

func (s *ThresholdSigner) initialized(c actor.Context) {
	switch msg := c.Message().(type) {
	case *PublicKeyRequest:
		s.handlePublicKey(c, msg)
	case *SignRequest:
		s.handleSign(c, msg)
	}
}

func (s *ThresholdSigner) handlePublicKey(c actor.Context, msg *PublicKeyRequest) {
	key, ok := s.lookup(msg.KeyID, msg.DerivationPath)
	if !ok {
		c.Respond(&PublicKeyResponse{Error: fmt.Sprintf("unknown key %s", msg.KeyID)})
		return
	}
	var chainCode []byte
	if err := s.master.Use(func(master []byte) error {
		chainCode = deriveChainCode(master, msg.KeyID)
		return nil
	}); err != nil {
		c.Respond(&PublicKeyResponse{Error: err.Error(), Unavailable: true})
		return
	}
	c.Respond(&PublicKeyResponse{
		PublicKey: append([]byte(nil), key.Public().(ed25519.PublicKey)...),
		ChainCode: chainCode,
	})
}

func (s *ThresholdSigner) handleSign(c actor.Context, msg *SignRequest) {
	if msg.Fee < s.config.MinFee {
		c.Respond(&SignResponse{
			Error: fmt.Sprintf("fee %d below required %d cycles", msg.Fee, s.config.MinFee),
		})
		return
	}
	key, ok := s.lookup(msg.KeyID, msg.DerivationPath)
	if !ok {
		c.Respond(&SignResponse{Error: fmt.Sprintf("unknown key %s", msg.KeyID)})
		return
	}
	c.Respond(&SignResponse{Signature: ed25519.Sign(key, msg.Message)})
}

// lookup only serves the root of each managed key; derivation paths are not supported.
func (s *ThresholdSigner) lookup(id KeyID, path [][]byte) (ed25519.PrivateKey, bool) {
	if len(path) != 0 {
		return nil, false
	}
	key, ok := s.keys[id]
	return key, ok
}

// wipe zeroes every derived key and the master secret copy.
func (s *ThresholdSigner) wipe() {
	keys := make([][]byte, 0, len(s.keys))
	for id, key := range s.keys {
		keys = append(keys, key)
		delete(s.keys, id)
	}
	secure.ZeroizeMultiple(keys...)
	if s.master != nil {
		s.master.Clear()
	}
}

// Served reports whether the config provisions id.
func (c SignerConfig) Served(id KeyID) bool {
	return slices.Contains(c.Keys, id)
}

func deriveSigningKey(master []byte, id KeyID) ed25519.PrivateKey {
	seed := make([]byte, ed25519.SeedSize)
	defer secure.Zeroize(seed)
	blake3.DeriveKey(seed, keyDerivationContext+" "+id.String(), master)
	return ed25519.NewKeyFromSeed(seed)
}

func deriveChainCode(master []byte, id KeyID) []byte {
	cc := make([]byte, 32)
	blake3.DeriveKey(cc, chainCodeDerivationCtx+" "+id.String(), master)
	return cc
}

// SpawnSigner starts a signer actor in system.
func SpawnSigner(system *actor.ActorSystem, config SignerConfig) *actor.PID {
	return system.Root.SpawnPrefix(SignerProps(config), "threshold-signer")
}

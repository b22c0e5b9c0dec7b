package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/mr-tron/base58"
	mb "github.com/multiformats/go-multibase"
	varint "github.com/multiformats/go-varint"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"
)

const (
	// DefaultRequestTimeout bounds a single round trip to the signer.
	DefaultRequestTimeout = 20 * time.Second
	// DefaultSignFee is the cycles attached to every signing call.
	DefaultSignFee uint64 = 25_000_000_000

	publicKeySize = 32
	didKeyPrefix  = "did:key"
	// multicodecEd25519PubKey is the ed25519-pub multicodec.
	multicodecEd25519PubKey = 0xed
)

// ClientConfig configures a Client.
type ClientConfig struct {
	RequestTimeout time.Duration
	SignFee        uint64
	// CycleBudget caps the cycles the client may spend on fees. Zero disables
	// the cap.
	CycleBudget uint64
}

// Client requests public keys and signatures from the threshold signer actor.
type Client struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger log.Logger
	config ClientConfig

	mu    sync.Mutex
	spent uint64
}

// NewClient returns a client for the signer behind pid.
func NewClient(system *actor.ActorSystem, pid *actor.PID, logger log.Logger, config ClientConfig) *Client {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	return &Client{
		system: system,
		pid:    pid,
		logger: logger.With(log.ModuleKey, ModuleName),
		config: config,
	}
}

// CyclesSpent returns the fees charged so far.
func (c *Client) CyclesSpent() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spent
}

// PublicKey fetches the public key material of keyID.
func (c *Client) PublicKey(ctx context.Context, keyID KeyID) (PublicKeyReply, error) {
	resp, err := c.request(ctx, &PublicKeyRequest{KeyID: keyID})
	if err != nil {
		return PublicKeyReply{}, err
	}

	switch resp := resp.(type) {
	case *PublicKeyResponse:
		if resp.Unavailable {
			return PublicKeyReply{}, errors.Wrap(ErrOracleUnavailable, resp.Error)
		}
		if resp.Error != "" {
			return PublicKeyReply{}, errors.Wrap(ErrSigningRejected, resp.Error)
		}
		if len(resp.PublicKey) != publicKeySize {
			return PublicKeyReply{}, errors.Wrapf(ErrInvalidPublicKey, "got %d bytes", len(resp.PublicKey))
		}
		return PublicKeyReply{PublicKey: resp.PublicKey, ChainCode: resp.ChainCode}, nil
	default:
		return PublicKeyReply{}, errors.Wrapf(ErrOracleUnavailable, "invalid response type: %T", resp)
	}
}

// Sign requests a signature over message under keyID. The signing fee is
// charged up front and refunded when the call does not produce a signature.
func (c *Client) Sign(ctx context.Context, keyID KeyID, message []byte) ([]byte, error) {
	if err := c.charge(); err != nil {
		return nil, err
	}

	sig, err := c.sign(ctx, keyID, message)
	if err != nil {
		c.refund()
		c.logger.Error("signing request failed", "key_id", keyID.String(), "error", err)
		return nil, err
	}
	return sig, nil
}

func (c *Client) sign(ctx context.Context, keyID KeyID, message []byte) ([]byte, error) {
	resp, err := c.request(ctx, &SignRequest{
		KeyID:   keyID,
		Message: message,
		Fee:     c.config.SignFee,
	})
	if err != nil {
		return nil, err
	}

	switch resp := resp.(type) {
	case *SignResponse:
		if resp.Unavailable {
			return nil, errors.Wrap(ErrOracleUnavailable, resp.Error)
		}
		if resp.Error != "" {
			return nil, errors.Wrap(ErrSigningRejected, resp.Error)
		}
		return resp.Signature, nil
	default:
		return nil, errors.Wrapf(ErrOracleUnavailable, "invalid response type: %T", resp)
	}
}

// Address returns the externally visible address of keyID.
func (c *Client) Address(ctx context.Context, keyID KeyID) (string, error) {
	reply, err := c.PublicKey(ctx, keyID)
	if err != nil {
		return "", err
	}
	return DeriveAddress(reply.PublicKey), nil
}

func (c *Client) request(ctx context.Context, msg any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(ErrOracleUnavailable, err.Error())
	}

	timeout := c.config.RequestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, errors.Wrap(ErrOracleUnavailable, context.DeadlineExceeded.Error())
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	resp, err := c.system.Root.RequestFuture(c.pid, msg, timeout).Result()
	if err != nil {
		return nil, errors.Wrap(ErrOracleUnavailable, err.Error())
	}
	return resp, nil
}

func (c *Client) charge() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.CycleBudget > 0 && c.spent+c.config.SignFee > c.config.CycleBudget {
		return errors.Wrapf(
			ErrSigningRejected,
			"insufficient cycles: fee %d exceeds remaining budget %d",
			c.config.SignFee,
			c.config.CycleBudget-c.spent,
		)
	}
	c.spent += c.config.SignFee
	return nil
}

func (c *Client) refund() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spent -= c.config.SignFee
}

// DeriveAddress renders a raw public key as a base58 account address.
func DeriveAddress(publicKey []byte) string {
	return base58.Encode(publicKey)
}

// DIDKey renders an Ed25519 public key as a did:key identifier.
func DIDKey(publicKey []byte) (string, error) {
	if len(publicKey) != publicKeySize {
		return "", errors.Wrapf(ErrInvalidPublicKey, "got %d bytes", len(publicKey))
	}

	size := varint.UvarintSize(multicodecEd25519PubKey)
	data := make([]byte, size+len(publicKey))
	n := varint.PutUvarint(data, multicodecEd25519PubKey)
	copy(data[n:], publicKey)

	encoded, err := mb.Encode(mb.Base58BTC, data)
	if err != nil {
		return "", err
	}
	return didKeyPrefix + ":" + encoded, nil
}

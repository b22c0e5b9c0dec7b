package types

import (
	"context"

	"github.com/sonr-io/vaultbridge/oracle"
	"github.com/sonr-io/vaultbridge/types/token"
)

// TokenLedger is the transfer-from primitive of the pooled ledger's token.
type TokenLedger interface {
	TransferFrom(ctx context.Context, args token.TransferFromArgs) (uint64, error)
}

// SigningOracle produces signatures with an externally managed key.
type SigningOracle interface {
	PublicKey(ctx context.Context, keyID oracle.KeyID) (oracle.PublicKeyReply, error)
	Sign(ctx context.Context, keyID oracle.KeyID, message []byte) ([]byte, error)
}

// StrandedNotifier is told about debits whose authorization could not be
// signed.
type StrandedNotifier interface {
	NotifyStranded(ctx context.Context, record StrandedAuthorization) error
}

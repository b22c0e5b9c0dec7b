package types

import (
	"context"

	"github.com/sonr-io/vaultbridge/types/token"
)

// TokenProgram is the token ledger of the vault chain.
type TokenProgram interface {
	CreateAccount(ctx context.Context, acc token.Account) error
	Account(ctx context.Context, address string) (token.Account, error)
	Transfer(ctx context.Context, args token.TransferArgs) error
}

package token

import "cosmossdk.io/errors"

// ModuleName is the codespace of token ledger errors.
const ModuleName = "token"

var (
	ErrAccountNotFound       = errors.Register(ModuleName, 2, "token account not found")
	ErrAccountExists         = errors.Register(ModuleName, 3, "token account already exists")
	ErrInsufficientFunds     = errors.Register(ModuleName, 4, "insufficient funds")
	ErrInsufficientAllowance = errors.Register(ModuleName, 5, "insufficient allowance")
	ErrBadFee                = errors.Register(ModuleName, 6, "bad fee")
	ErrMemoTooLong           = errors.Register(ModuleName, 7, "memo too long")
	ErrAssetMismatch         = errors.Register(ModuleName, 8, "asset mismatch")
	ErrUnauthorized          = errors.Register(ModuleName, 9, "signer does not own the source account")
	ErrInvalidAmount         = errors.Register(ModuleName, 10, "invalid amount")
)

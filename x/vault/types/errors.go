package types

import "cosmossdk.io/errors"

// x/vault module sentinel errors
var (
	ErrInvalidAmount           = errors.Register(ModuleName, 2, "invalid amount")
	ErrOverflow                = errors.Register(ModuleName, 3, "arithmetic overflow")
	ErrSignatureInvalid        = errors.Register(ModuleName, 4, "invalid authorization signature")
	ErrVaultNotInitialized     = errors.Register(ModuleName, 5, "vault not initialized")
	ErrVaultAlreadyInitialized = errors.Register(ModuleName, 6, "vault already initialized")
	ErrUnauthorized            = errors.Register(ModuleName, 7, "caller is not the vault owner")
	ErrInvalidAsset            = errors.Register(ModuleName, 8, "token account does not hold the vault asset")
	ErrTransferFailed          = errors.Register(ModuleName, 9, "transfer failed")
	ErrInvalidAddress          = errors.Register(ModuleName, 10, "invalid address")
	ErrInvalidPublicKey        = errors.Register(ModuleName, 11, "invalid authorization public key")

	// ErrInsufficientFunds is an ErrInvalidAmount raised when the vault holds
	// less than a requested withdrawal.
	ErrInsufficientFunds = ErrInvalidAmount.Wrap("insufficient funds")
)

package types

import "cosmossdk.io/errors"

// x/pool module sentinel errors
var (
	ErrInsufficientBalance = errors.Register(ModuleName, 2, "insufficient balance")
	ErrInvalidAmount       = errors.Register(ModuleName, 3, "invalid amount")
	ErrOverflow            = errors.Register(ModuleName, 4, "arithmetic overflow")
	ErrTransferFailed      = errors.Register(ModuleName, 5, "transfer failed")
	ErrInvalidDestination  = errors.Register(ModuleName, 6, "invalid destination address")
	ErrStrandedNotFound    = errors.Register(ModuleName, 7, "stranded authorization not found")
	ErrResignInProgress    = errors.Register(ModuleName, 8, "stranded authorization is being re-signed")
	ErrInvariantBroken     = errors.Register(ModuleName, 9, "pool balance does not match credit balances")
	ErrInvalidPrincipal    = errors.Register(ModuleName, 10, "invalid principal")
)

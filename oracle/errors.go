package oracle

import (
	"cosmossdk.io/errors"
)

// ModuleName is the error codespace of the signing oracle client.
const ModuleName = "oracle"

var (
	ErrOracleUnavailable = errors.Register(ModuleName, 2, "signing oracle unavailable")
	ErrSigningRejected   = errors.Register(ModuleName, 3, "signing request rejected")
	ErrInvalidPublicKey  = errors.Register(ModuleName, 4, "invalid public key")
)

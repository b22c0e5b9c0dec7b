package types

import "cosmossdk.io/collections"

const (
	// ModuleName defines the name of module.
	ModuleName = "vault"

	// StoreKey is the store key string for the module.
	StoreKey = ModuleName
)

// Seed domain tags of the derived vault addresses.
const (
	VaultSeed        = "vault"
	AuthoritySeed    = "authority"
	TokenAccountSeed = "token_account"
)

var VaultsPrefix = collections.NewPrefix(0)

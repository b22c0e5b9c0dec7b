package types

import "cosmossdk.io/collections"

const (
	// ModuleName defines the name of module.
	ModuleName = "pool"

	// StoreKey is the store key string for the module.
	StoreKey = ModuleName
)

var (
	BalancesPrefix    = collections.NewPrefix(0)
	PoolBalancePrefix = collections.NewPrefix(1)
	StrandedPrefix    = collections.NewPrefix(2)
	ResolvedPrefix    = collections.NewPrefix(3)
)

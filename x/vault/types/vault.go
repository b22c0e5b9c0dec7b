package types

import (
	"cosmossdk.io/errors"
)

// VaultAccount is the custody record of one owner and asset. The bumps are
// the ones found when the vault was initialized and are used to re-create
// its derived addresses from then on.
type VaultAccount struct {
	Owner             string `json:"owner"`
	Asset             string `json:"asset"`
	DepositedAmount   uint64 `json:"deposited_amount"`
	WithdrawnAmount   uint64 `json:"withdrawn_amount"`
	LastDepositAmount uint64 `json:"last_deposit_amount"`
	Initialized       bool   `json:"initialized"`
	VaultBump         uint8  `json:"vault_bump"`
	AuthorityBump     uint8  `json:"authority_bump"`
	TokenAccountBump  uint8  `json:"token_account_bump"`
}

// Outstanding is what has been deposited and not yet withdrawn.
func (v VaultAccount) Outstanding() uint64 {
	return v.DepositedAmount - v.WithdrawnAmount
}

// Validate checks the accounting invariant.
func (v VaultAccount) Validate() error {
	if v.WithdrawnAmount > v.DepositedAmount {
		return errors.Wrapf(ErrInvalidAmount, "withdrawn %d exceeds deposited %d", v.WithdrawnAmount, v.DepositedAmount)
	}
	return nil
}

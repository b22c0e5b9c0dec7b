package types

import (
	"cosmossdk.io/errors"

	"github.com/sonr-io/vaultbridge/crypto/pda"
)

// MsgInitializeVault creates the vault of Owner and Asset funded with Amount
// out of OwnerTokenAccount.
type MsgInitializeVault struct {
	Owner             string `json:"owner"`
	Asset             string `json:"asset"`
	OwnerTokenAccount string `json:"owner_token_account"`
	Amount            uint64 `json:"amount"`
}

// ValidateBasic performs stateless checks.
func (m MsgInitializeVault) ValidateBasic() error {
	return validateVaultMsg(m.Owner, m.Asset, m.OwnerTokenAccount, m.Amount)
}

// MsgDeposit adds Amount out of OwnerTokenAccount to an existing vault.
type MsgDeposit struct {
	Owner             string `json:"owner"`
	Asset             string `json:"asset"`
	OwnerTokenAccount string `json:"owner_token_account"`
	Amount            uint64 `json:"amount"`
}

// ValidateBasic performs stateless checks.
func (m MsgDeposit) ValidateBasic() error {
	return validateVaultMsg(m.Owner, m.Asset, m.OwnerTokenAccount, m.Amount)
}

// MsgWithdraw releases Amount to OwnerTokenAccount. Signature is the hex
// authorization produced by the pool for (Amount, OwnerTokenAccount).
type MsgWithdraw struct {
	Owner             string `json:"owner"`
	Asset             string `json:"asset"`
	OwnerTokenAccount string `json:"owner_token_account"`
	Amount            uint64 `json:"amount"`
	Signature         string `json:"signature"`
}

// ValidateBasic performs stateless checks.
func (m MsgWithdraw) ValidateBasic() error {
	if err := validateVaultMsg(m.Owner, m.Asset, m.OwnerTokenAccount, m.Amount); err != nil {
		return err
	}
	if m.Signature == "" {
		return errors.Wrap(ErrSignatureInvalid, "signature cannot be empty")
	}
	return nil
}

func validateVaultMsg(owner, asset, tokenAccount string, amount uint64) error {
	if _, err := pda.ParseAddress(owner); err != nil {
		return errors.Wrapf(ErrInvalidAddress, "owner: %v", err)
	}
	if _, err := pda.ParseAddress(asset); err != nil {
		return errors.Wrapf(ErrInvalidAddress, "asset: %v", err)
	}
	if tokenAccount == "" {
		return errors.Wrap(ErrInvalidAddress, "owner token account cannot be empty")
	}
	if amount == 0 {
		return errors.Wrap(ErrInvalidAmount, "amount must be positive")
	}
	return nil
}

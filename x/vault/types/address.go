package types

import (
	"cosmossdk.io/errors"

	"github.com/sonr-io/vaultbridge/crypto/pda"
)

// Addresses are the program derived addresses of one vault.
type Addresses struct {
	Vault        pda.Address
	Authority    pda.Address
	TokenAccount pda.Address

	VaultBump        uint8
	AuthorityBump    uint8
	TokenAccountBump uint8
}

// DeriveAddresses finds the vault of owner and asset under program, then the
// authority and token account derived from the vault address.
func DeriveAddresses(program, owner, asset pda.Address) (Addresses, error) {
	var (
		out Addresses
		err error
	)
	out.Vault, out.VaultBump, err = pda.FindProgramAddress(VaultSeeds(owner, asset), program)
	if err != nil {
		return out, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	out.Authority, out.AuthorityBump, err = pda.FindProgramAddress(AuthoritySeeds(out.Vault), program)
	if err != nil {
		return out, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	out.TokenAccount, out.TokenAccountBump, err = pda.FindProgramAddress(TokenAccountSeeds(out.Vault), program)
	if err != nil {
		return out, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	return out, nil
}

// Restore re-creates the derived addresses of v from its recorded bumps.
func (v VaultAccount) Restore(program pda.Address) (Addresses, error) {
	owner, err := pda.ParseAddress(v.Owner)
	if err != nil {
		return Addresses{}, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	asset, err := pda.ParseAddress(v.Asset)
	if err != nil {
		return Addresses{}, errors.Wrap(ErrInvalidAddress, err.Error())
	}

	out := Addresses{
		VaultBump:        v.VaultBump,
		AuthorityBump:    v.AuthorityBump,
		TokenAccountBump: v.TokenAccountBump,
	}
	if out.Vault, err = pda.CreateProgramAddress(withBump(VaultSeeds(owner, asset), v.VaultBump), program); err != nil {
		return out, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	if out.Authority, err = pda.CreateProgramAddress(withBump(AuthoritySeeds(out.Vault), v.AuthorityBump), program); err != nil {
		return out, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	if out.TokenAccount, err = pda.CreateProgramAddress(withBump(TokenAccountSeeds(out.Vault), v.TokenAccountBump), program); err != nil {
		return out, errors.Wrap(ErrInvalidAddress, err.Error())
	}
	return out, nil
}

// VerifyAddress checks that the recorded vault bump re-derives vault from
// the owner and asset of v.
func (v VaultAccount) VerifyAddress(program, vault pda.Address) error {
	owner, err := pda.ParseAddress(v.Owner)
	if err != nil {
		return errors.Wrap(ErrInvalidAddress, err.Error())
	}
	asset, err := pda.ParseAddress(v.Asset)
	if err != nil {
		return errors.Wrap(ErrInvalidAddress, err.Error())
	}
	if err := pda.VerifyProgramAddress(VaultSeeds(owner, asset), v.VaultBump, program, vault); err != nil {
		return errors.Wrap(ErrInvalidAddress, err.Error())
	}
	return nil
}

// VaultSeeds are the seeds of the vault record address.
func VaultSeeds(owner, asset pda.Address) [][]byte {
	return [][]byte{[]byte(VaultSeed), owner.Bytes(), asset.Bytes()}
}

// AuthoritySeeds are the seeds of the vault's signing authority.
func AuthoritySeeds(vault pda.Address) [][]byte {
	return [][]byte{[]byte(AuthoritySeed), vault.Bytes()}
}

// TokenAccountSeeds are the seeds of the vault's token holding account.
func TokenAccountSeeds(vault pda.Address) [][]byte {
	return [][]byte{[]byte(TokenAccountSeed), vault.Bytes()}
}

func withBump(seeds [][]byte, bump uint8) [][]byte {
	return append(seeds, []byte{bump})
}

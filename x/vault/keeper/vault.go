package keeper

import (
	"context"
	"math/bits"

	"cosmossdk.io/errors"

	"github.com/sonr-io/vaultbridge/crypto/sigverify"
	"github.com/sonr-io/vaultbridge/types/token"
	pooltypes "github.com/sonr-io/vaultbridge/x/pool/types"
	"github.com/sonr-io/vaultbridge/x/vault/types"
)

// InitializeVault creates the vault of msg.Owner and msg.Asset and funds it
// with msg.Amount out of the owner's token account.
func (k *Keeper) InitializeVault(ctx context.Context, msg types.MsgInitializeVault) (types.VaultAccount, error) {
	if err := msg.ValidateBasic(); err != nil {
		return types.VaultAccount{}, err
	}
	addrs, err := k.Addresses(msg.Owner, msg.Asset)
	if err != nil {
		return types.VaultAccount{}, err
	}

	unlock := k.locks.Lock(addrs.Vault.String())
	defer unlock()

	has, err := k.Vaults.Has(ctx, addrs.Vault.String())
	if err != nil {
		return types.VaultAccount{}, err
	}
	if has {
		return types.VaultAccount{}, errors.Wrap(types.ErrVaultAlreadyInitialized, addrs.Vault.String())
	}

	if err := k.checkOwnerAccount(ctx, msg.OwnerTokenAccount, msg.Owner, msg.Asset); err != nil {
		return types.VaultAccount{}, err
	}
	if err := k.ensureTokenAccount(ctx, addrs, msg.Asset); err != nil {
		return types.VaultAccount{}, err
	}

	if err := k.tokens.Transfer(ctx, token.TransferArgs{
		From:      msg.OwnerTokenAccount,
		To:        addrs.TokenAccount.String(),
		Authority: msg.Owner,
		Amount:    msg.Amount,
	}); err != nil {
		return types.VaultAccount{}, errors.Wrap(types.ErrTransferFailed, err.Error())
	}

	vault := types.VaultAccount{
		Owner:             msg.Owner,
		Asset:             msg.Asset,
		DepositedAmount:   msg.Amount,
		LastDepositAmount: msg.Amount,
		Initialized:       true,
		VaultBump:         addrs.VaultBump,
		AuthorityBump:     addrs.AuthorityBump,
		TokenAccountBump:  addrs.TokenAccountBump,
	}
	if err := k.Vaults.Set(ctx, addrs.Vault.String(), vault); err != nil {
		k.refund(ctx, addrs, msg.OwnerTokenAccount, msg.Amount, err)
		return types.VaultAccount{}, err
	}

	k.logger.Info("vault initialized",
		"vault", addrs.Vault.String(),
		"owner", msg.Owner,
		"asset", msg.Asset,
		"amount", msg.Amount,
	)
	return vault, nil
}

// Deposit adds msg.Amount to an initialized vault.
func (k *Keeper) Deposit(ctx context.Context, msg types.MsgDeposit) (types.VaultAccount, error) {
	if err := msg.ValidateBasic(); err != nil {
		return types.VaultAccount{}, err
	}
	addrs, err := k.Addresses(msg.Owner, msg.Asset)
	if err != nil {
		return types.VaultAccount{}, err
	}

	unlock := k.locks.Lock(addrs.Vault.String())
	defer unlock()

	vault, err := k.load(ctx, addrs.Vault)
	if err != nil {
		return vault, err
	}
	if vault.Owner != msg.Owner {
		return vault, errors.Wrapf(types.ErrUnauthorized, "%s does not own vault %s", msg.Owner, addrs.Vault)
	}
	if err := k.checkOwnerAccount(ctx, msg.OwnerTokenAccount, msg.Owner, vault.Asset); err != nil {
		return vault, err
	}

	deposited, carry := bits.Add64(vault.DepositedAmount, msg.Amount, 0)
	if carry != 0 {
		return vault, errors.Wrapf(types.ErrOverflow, "deposit %d onto %d", msg.Amount, vault.DepositedAmount)
	}

	updated := vault
	updated.DepositedAmount = deposited
	updated.LastDepositAmount = msg.Amount
	if err := updated.Validate(); err != nil {
		return vault, err
	}

	restored, err := vault.Restore(k.program)
	if err != nil {
		return vault, err
	}
	if err := k.tokens.Transfer(ctx, token.TransferArgs{
		From:      msg.OwnerTokenAccount,
		To:        restored.TokenAccount.String(),
		Authority: msg.Owner,
		Amount:    msg.Amount,
	}); err != nil {
		return vault, errors.Wrap(types.ErrTransferFailed, err.Error())
	}

	if err := k.Vaults.Set(ctx, addrs.Vault.String(), updated); err != nil {
		k.refund(ctx, restored, msg.OwnerTokenAccount, msg.Amount, err)
		return vault, err
	}

	k.logger.Info("vault deposit", "vault", addrs.Vault.String(), "amount", msg.Amount, "deposited", deposited)
	return updated, nil
}

// Withdraw releases msg.Amount from the vault to the owner's token account
// once msg.Signature is verified against the authorization key. The release
// is signed by the vault authority re-created from its recorded bump.
func (k *Keeper) Withdraw(ctx context.Context, msg types.MsgWithdraw) (types.VaultAccount, error) {
	if err := msg.ValidateBasic(); err != nil {
		return types.VaultAccount{}, err
	}
	addrs, err := k.Addresses(msg.Owner, msg.Asset)
	if err != nil {
		return types.VaultAccount{}, err
	}

	unlock := k.locks.Lock(addrs.Vault.String())
	defer unlock()

	vault, err := k.load(ctx, addrs.Vault)
	if err != nil {
		return vault, err
	}
	if vault.Owner != msg.Owner {
		return vault, errors.Wrapf(types.ErrUnauthorized, "%s does not own vault %s", msg.Owner, addrs.Vault)
	}
	if err := k.checkOwnerAccount(ctx, msg.OwnerTokenAccount, msg.Owner, vault.Asset); err != nil {
		return vault, err
	}

	restored, err := vault.Restore(k.program)
	if err != nil {
		return vault, err
	}
	holding, err := k.tokens.Account(ctx, restored.TokenAccount.String())
	if err != nil {
		return vault, errors.Wrap(types.ErrTransferFailed, err.Error())
	}
	if holding.Balance < msg.Amount {
		return vault, errors.Wrapf(types.ErrInsufficientFunds, "vault holds %d, requested %d", holding.Balance, msg.Amount)
	}
	withdrawn, carry := bits.Add64(vault.WithdrawnAmount, msg.Amount, 0)
	if carry != 0 {
		return vault, errors.Wrapf(types.ErrOverflow, "withdraw %d onto %d", msg.Amount, vault.WithdrawnAmount)
	}
	updated := vault
	updated.WithdrawnAmount = withdrawn
	if err := updated.Validate(); err != nil {
		return vault, errors.Wrapf(types.ErrInsufficientFunds, "%d outstanding, requested %d", vault.Outstanding(), msg.Amount)
	}

	if !k.verify(msg) {
		k.logger.Warn("rejected withdrawal signature", "vault", addrs.Vault.String(), "amount", msg.Amount)
		return vault, errors.Wrapf(types.ErrSignatureInvalid, "amount %d to %s", msg.Amount, msg.OwnerTokenAccount)
	}

	if err := k.tokens.Transfer(ctx, token.TransferArgs{
		From:      restored.TokenAccount.String(),
		To:        msg.OwnerTokenAccount,
		Authority: restored.Authority.String(),
		Amount:    msg.Amount,
	}); err != nil {
		return vault, errors.Wrap(types.ErrTransferFailed, err.Error())
	}

	if err := k.Vaults.Set(ctx, addrs.Vault.String(), updated); err != nil {
		k.reclaim(ctx, restored, msg.OwnerTokenAccount, msg.Owner, msg.Amount, err)
		return vault, err
	}

	k.logger.Info("vault withdrawal", "vault", addrs.Vault.String(), "amount", msg.Amount, "withdrawn", withdrawn)
	return updated, nil
}

func (k *Keeper) verify(msg types.MsgWithdraw) bool {
	sig, err := sigverify.ParseSignature(msg.Signature)
	if err != nil {
		return false
	}
	return sigverify.Verify(k.authorization[:], pooltypes.AuthorizationMessage(msg.Amount, msg.OwnerTokenAccount), sig[:])
}

// refund returns a deposit to the owner's token account after the vault
// record could not be written.
func (k *Keeper) refund(ctx context.Context, addrs types.Addresses, ownerAccount string, amount uint64, cause error) {
	err := k.tokens.Transfer(ctx, token.TransferArgs{
		From:      addrs.TokenAccount.String(),
		To:        ownerAccount,
		Authority: addrs.Authority.String(),
		Amount:    amount,
	})
	k.logRollback("deposit", addrs, amount, cause, err)
}

// reclaim moves a withdrawal back into the vault after the vault record
// could not be written.
func (k *Keeper) reclaim(ctx context.Context, addrs types.Addresses, ownerAccount, owner string, amount uint64, cause error) {
	err := k.tokens.Transfer(ctx, token.TransferArgs{
		From:      ownerAccount,
		To:        addrs.TokenAccount.String(),
		Authority: owner,
		Amount:    amount,
	})
	k.logRollback("withdrawal", addrs, amount, cause, err)
}

func (k *Keeper) logRollback(op string, addrs types.Addresses, amount uint64, cause, err error) {
	if err != nil {
		k.logger.Error("vault record write failed and funds could not be moved back",
			"op", op,
			"vault", addrs.Vault.String(),
			"amount", amount,
			"error", cause,
			"rollback_error", err,
		)
		return
	}
	k.logger.Error("vault record write failed, funds moved back",
		"op", op,
		"vault", addrs.Vault.String(),
		"amount", amount,
		"error", cause,
	)
}

// checkOwnerAccount requires address to be a token account of owner holding
// asset.
func (k *Keeper) checkOwnerAccount(ctx context.Context, address, owner, asset string) error {
	acc, err := k.tokens.Account(ctx, address)
	if err != nil {
		return errors.Wrapf(types.ErrInvalidAddress, "owner token account: %v", err)
	}
	if acc.Owner != owner {
		return errors.Wrapf(types.ErrUnauthorized, "token account %s is owned by %s", address, acc.Owner)
	}
	if acc.Asset != asset {
		return errors.Wrapf(types.ErrInvalidAsset, "token account %s holds %s, vault asset is %s", address, acc.Asset, asset)
	}
	return nil
}

// ensureTokenAccount opens the vault's token account under its authority.
// An account left behind by an earlier failed initialize is reused.
func (k *Keeper) ensureTokenAccount(ctx context.Context, addrs types.Addresses, asset string) error {
	acc, err := k.tokens.Account(ctx, addrs.TokenAccount.String())
	switch {
	case err == nil:
		if acc.Owner != addrs.Authority.String() || acc.Asset != asset {
			return errors.Wrapf(types.ErrInvalidAddress, "token account %s exists with another owner or asset", addrs.TokenAccount)
		}
		return nil
	case errors.IsOf(err, token.ErrAccountNotFound):
		return k.tokens.CreateAccount(ctx, token.Account{
			Address: addrs.TokenAccount.String(),
			Owner:   addrs.Authority.String(),
			Asset:   asset,
		})
	default:
		return err
	}
}

package keeper

import (
	"context"
	"encoding/hex"

	"cosmossdk.io/errors"

	"github.com/sonr-io/vaultbridge/types/token"
	"github.com/sonr-io/vaultbridge/x/pool/types"
)

// DepositToPool moves funds from the principal's token account into the
// bridge's custody account and credits the principal with the amount the
// token ledger reports as moved. Nothing is credited if the transfer fails.
func (k *Keeper) DepositToPool(ctx context.Context, msg types.MsgDepositToPool) (uint64, error) {
	if err := msg.ValidateBasic(); err != nil {
		return 0, err
	}

	moved, err := k.tokens.TransferFrom(ctx, token.TransferFromArgs{
		From:    token.AccountAddress(msg.Principal, msg.FromSubaccount),
		To:      k.identity,
		Spender: token.AccountAddress(k.identity, msg.SpenderSubaccount),
		Amount:  msg.Amount,
		Fee:     msg.Fee,
		Memo:    msg.Memo,
	})
	if err != nil {
		return 0, errors.Wrap(types.ErrTransferFailed, err.Error())
	}

	if err := k.Credit(ctx, msg.Principal, moved); err != nil {
		k.logger.Error("transfer succeeded but credit failed",
			"principal", msg.Principal,
			"amount", moved,
			"error", err,
		)
		return 0, err
	}

	k.logger.Info("deposit credited", "principal", msg.Principal, "amount", moved)
	return moved, nil
}

// WithdrawAuthorization debits the principal and returns the hex signature
// over AuthorizationMessage(amount, destination). The debit is committed
// before the oracle is asked to sign and is not reversed if signing fails;
// such a failure is recorded as a stranded authorization instead. Once the
// debit is committed the caller's cancellation no longer reaches the oracle;
// the client's request timeout still bounds the call.
func (k *Keeper) WithdrawAuthorization(ctx context.Context, msg types.MsgWithdrawAuthorization) (string, error) {
	if err := msg.ValidateBasic(); err != nil {
		return "", err
	}

	if err := k.Debit(ctx, msg.Principal, msg.Amount); err != nil {
		return "", err
	}

	signCtx := context.WithoutCancel(ctx)
	sig, err := k.oracle.Sign(signCtx, k.keyID, types.AuthorizationMessage(msg.Amount, msg.Destination))
	if err != nil {
		id := k.strand(signCtx, msg, err)
		return "", errors.Wrapf(err, "debit committed, authorization %s stranded", id)
	}

	k.logger.Info("withdrawal authorized",
		"principal", msg.Principal,
		"amount", msg.Amount,
		"destination", msg.Destination,
	)
	return hex.EncodeToString(sig), nil
}

// SigningPublicKey returns the raw authorization public key.
func (k *Keeper) SigningPublicKey(ctx context.Context) ([]byte, error) {
	reply, err := k.oracle.PublicKey(ctx, k.keyID)
	if err != nil {
		return nil, err
	}
	return reply.PublicKey, nil
}

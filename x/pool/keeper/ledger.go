package keeper

import (
	"context"
	"math/bits"
	"sync"

	"cosmossdk.io/collections"
	"cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/x/pool/types"
)

// Ledger tracks per-principal credit balances and the aggregate pool balance.
// Every mutation checks and writes under one lock so a balance can never be
// read stale between its check and its update.
type Ledger struct {
	mu     sync.Mutex
	logger log.Logger

	Balances collections.Map[string, uint64]
	Pool     collections.Item[uint64]
}

// NewLedger registers the ledger collections on sb.
func NewLedger(sb *collections.SchemaBuilder, logger log.Logger) *Ledger {
	return &Ledger{
		logger: logger,
		Balances: collections.NewMap(
			sb,
			types.BalancesPrefix,
			"balances",
			collections.StringKey,
			collections.Uint64Value,
		),
		Pool: collections.NewItem(
			sb,
			types.PoolBalancePrefix,
			"pool_balance",
			collections.Uint64Value,
		),
	}
}

// Credit adds amount to principal and to the pool.
func (l *Ledger) Credit(ctx context.Context, principal string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, pool, err := l.read(ctx, principal)
	if err != nil {
		return err
	}

	newBalance, carry := bits.Add64(balance, amount, 0)
	if carry != 0 {
		return errors.Wrapf(types.ErrOverflow, "credit %d to balance %d of %s", amount, balance, principal)
	}
	newPool, carry := bits.Add64(pool, amount, 0)
	if carry != 0 {
		return errors.Wrapf(types.ErrOverflow, "credit %d to pool balance %d", amount, pool)
	}
	return l.write(ctx, principal, balance, newBalance, newPool)
}

// Debit removes amount from principal and from the pool. A short balance
// fails with ErrInsufficientBalance and changes nothing.
func (l *Ledger) Debit(ctx context.Context, principal string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, pool, err := l.read(ctx, principal)
	if err != nil {
		return err
	}
	if balance < amount {
		return errors.Wrapf(types.ErrInsufficientBalance, "%s has %d, requested %d", principal, balance, amount)
	}
	if pool < amount {
		// Only reachable if the store was edited outside the ledger.
		return errors.Wrapf(types.ErrInvariantBroken, "pool balance %d below debit %d", pool, amount)
	}
	return l.write(ctx, principal, balance, balance-amount, pool-amount)
}

// BalanceOf returns the credit of principal, zero if it never deposited.
func (l *Ledger) BalanceOf(ctx context.Context, principal string) (uint64, error) {
	balance, err := l.Balances.Get(ctx, principal)
	if errors.IsOf(err, collections.ErrNotFound) {
		return 0, nil
	}
	return balance, err
}

// PoolBalance returns the aggregate pool balance.
func (l *Ledger) PoolBalance(ctx context.Context) (uint64, error) {
	pool, err := l.Pool.Get(ctx)
	if errors.IsOf(err, collections.ErrNotFound) {
		return 0, nil
	}
	return pool, err
}

func (l *Ledger) read(ctx context.Context, principal string) (uint64, uint64, error) {
	balance, err := l.BalanceOf(ctx, principal)
	if err != nil {
		return 0, 0, err
	}
	pool, err := l.PoolBalance(ctx)
	if err != nil {
		return 0, 0, err
	}
	return balance, pool, nil
}

// write stores the new balance of principal and the new pool balance. When
// the pool write fails the previous balance is put back so both stay equal.
func (l *Ledger) write(ctx context.Context, principal string, previous, balance, pool uint64) error {
	if err := l.Balances.Set(ctx, principal, balance); err != nil {
		return err
	}
	if err := l.Pool.Set(ctx, pool); err != nil {
		if rerr := l.Balances.Set(ctx, principal, previous); rerr != nil {
			l.logger.Error("pool balance write failed and balance could not be restored",
				"principal", principal,
				"balance", balance,
				"previous", previous,
				"pool", pool,
				"error", err,
				"restore_error", rerr,
			)
			return errors.Wrapf(types.ErrInvariantBroken, "pool write: %v, restore: %v", err, rerr)
		}
		l.logger.Error("pool balance write failed, balance restored",
			"principal", principal,
			"previous", previous,
			"error", err,
		)
		return err
	}
	return nil
}

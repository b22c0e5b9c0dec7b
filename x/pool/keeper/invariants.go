package keeper

import (
	"context"

	"cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/sonr-io/vaultbridge/x/pool/types"
)

// CheckInvariant verifies that the pool balance equals the sum of all credit
// balances. The sum is computed without overflow.
func (k *Keeper) CheckInvariant(ctx context.Context) error {
	k.Ledger.mu.Lock()
	defer k.Ledger.mu.Unlock()

	sum := math.ZeroUint()
	err := k.Balances.Walk(ctx, nil, func(_ string, balance uint64) (bool, error) {
		sum = sum.Add(math.NewUint(balance))
		return false, nil
	})
	if err != nil {
		return err
	}

	pool, err := k.PoolBalance(ctx)
	if err != nil {
		return err
	}
	if !sum.Equal(math.NewUint(pool)) {
		return errors.Wrapf(types.ErrInvariantBroken, "credit balances sum to %s, pool balance is %d", sum, pool)
	}
	return nil
}

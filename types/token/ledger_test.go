package token

import (
	"context"
	"testing"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/stretchr/testify/require"

	"github.com/sonr-io/vaultbridge/app/store"
)

func setupLedger(t *testing.T, fee uint64) (*Ledger, context.Context) {
	t.Helper()
	svc := store.NewService(dbm.NewMemDB())
	return NewLedger(svc.ModuleService(ModuleName), fee), context.Background()
}

func openFunded(t *testing.T, l *Ledger, ctx context.Context, addr, owner string, balance uint64) {
	t.Helper()
	require.NoError(t, l.CreateAccount(ctx, Account{Address: addr, Owner: owner, Asset: "usdc"}))
	if balance > 0 {
		require.NoError(t, l.Mint(ctx, addr, balance))
	}
}

func TestAccountAddress(t *testing.T) {
	require.Equal(t, "alice", AccountAddress("alice", nil))
	require.Equal(t, "alice", AccountAddress("alice", make([]byte, 32)))
	require.Equal(t, "alice.0001", AccountAddress("alice", []byte{0, 1}))
}

func TestCreateAccountTwice(t *testing.T) {
	l, ctx := setupLedger(t, 0)
	openFunded(t, l, ctx, "a", "alice", 0)

	err := l.CreateAccount(ctx, Account{Address: "a", Owner: "bob", Asset: "usdc"})
	require.ErrorIs(t, err, ErrAccountExists)

	acc, err := l.Account(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "alice", acc.Owner)
}

func TestTransfer(t *testing.T) {
	l, ctx := setupLedger(t, 0)
	openFunded(t, l, ctx, "a", "alice", 100)
	openFunded(t, l, ctx, "b", "bob", 0)

	testCases := []struct {
		name    string
		args    TransferArgs
		wantErr error
	}{
		{"wrong authority", TransferArgs{From: "a", To: "b", Authority: "bob", Amount: 10}, ErrUnauthorized},
		{"zero amount", TransferArgs{From: "a", To: "b", Authority: "alice"}, ErrInvalidAmount},
		{"missing destination", TransferArgs{From: "a", To: "c", Authority: "alice", Amount: 10}, ErrAccountNotFound},
		{"overdraw", TransferArgs{From: "a", To: "b", Authority: "alice", Amount: 101}, ErrInsufficientFunds},
		{"ok", TransferArgs{From: "a", To: "b", Authority: "alice", Amount: 60}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := l.Transfer(ctx, tc.args)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	a, _ := l.Account(ctx, "a")
	b, _ := l.Account(ctx, "b")
	require.Equal(t, uint64(40), a.Balance)
	require.Equal(t, uint64(60), b.Balance)
}

func TestTransferAssetMismatch(t *testing.T) {
	l, ctx := setupLedger(t, 0)
	openFunded(t, l, ctx, "a", "alice", 100)
	require.NoError(t, l.CreateAccount(ctx, Account{Address: "b", Owner: "bob", Asset: "eurc"}))

	err := l.Transfer(ctx, TransferArgs{From: "a", To: "b", Authority: "alice", Amount: 1})
	require.ErrorIs(t, err, ErrAssetMismatch)
}

func TestTransferFromUsesAllowanceAndFee(t *testing.T) {
	l, ctx := setupLedger(t, 10)
	openFunded(t, l, ctx, "alice", "alice", 1_000)
	openFunded(t, l, ctx, "pool", "pool", 0)

	args := TransferFromArgs{From: "alice", To: "pool", Spender: "pool", Amount: 500}

	_, err := l.TransferFrom(ctx, args)
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, l.Approve(ctx, "alice", "alice", "pool", 510))

	moved, err := l.TransferFrom(ctx, args)
	require.NoError(t, err)
	require.Equal(t, uint64(500), moved)

	alice, _ := l.Account(ctx, "alice")
	pool, _ := l.Account(ctx, "pool")
	require.Equal(t, uint64(490), alice.Balance)
	require.Equal(t, uint64(500), pool.Balance)

	left, err := l.Allowance(ctx, "alice", "pool")
	require.NoError(t, err)
	require.Zero(t, left)

	_, err = l.TransferFrom(ctx, args)
	require.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestTransferFromValidation(t *testing.T) {
	l, ctx := setupLedger(t, 10)
	openFunded(t, l, ctx, "alice", "alice", 1_000)
	openFunded(t, l, ctx, "pool", "pool", 0)

	wrongFee := uint64(5)
	_, err := l.TransferFrom(ctx, TransferFromArgs{From: "alice", To: "pool", Spender: "alice", Amount: 1, Fee: &wrongFee})
	require.ErrorIs(t, err, ErrBadFee)

	_, err = l.TransferFrom(ctx, TransferFromArgs{From: "alice", To: "pool", Spender: "alice", Amount: 1, Memo: make([]byte, 33)})
	require.ErrorIs(t, err, ErrMemoTooLong)

	fee := uint64(10)
	moved, err := l.TransferFrom(ctx, TransferFromArgs{From: "alice", To: "pool", Spender: "alice", Amount: 990, Fee: &fee, Memo: []byte("deposit")})
	require.NoError(t, err)
	require.Equal(t, uint64(990), moved)

	_, err = l.TransferFrom(ctx, TransferFromArgs{From: "alice", To: "pool", Spender: "alice", Amount: 1})
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestApproveRequiresOwner(t *testing.T) {
	l, ctx := setupLedger(t, 0)
	openFunded(t, l, ctx, "alice", "alice", 10)

	err := l.Approve(ctx, "alice", "mallory", "mallory", 10)
	require.ErrorIs(t, err, ErrUnauthorized)
}

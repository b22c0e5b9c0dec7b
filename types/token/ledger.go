// Package token is a fungible token ledger used as the transfer primitive on
// both sides of the bridge. Accounts are addressed by string and each account
// holds a single asset.
package token

import (
	"context"
	"encoding/hex"
	"math/bits"
	"sync"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"cosmossdk.io/errors"

	"github.com/sonr-io/vaultbridge/types/collcodec"
)

// MaxMemoLength bounds the memo attached to a transfer.
const MaxMemoLength = 32

// Account is a token holding account.
type Account struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Asset   string `json:"asset"`
	Balance uint64 `json:"balance"`
}

// TransferArgs moves funds signed by the source account's owner.
type TransferArgs struct {
	From      string
	To        string
	Authority string
	Amount    uint64
}

// TransferFromArgs moves funds on behalf of the source account's owner using
// an allowance granted to Spender.
type TransferFromArgs struct {
	From    string
	To      string
	Spender string
	Amount  uint64
	// Fee, when set, must match the ledger fee.
	Fee  *uint64
	Memo []byte
}

// AccountAddress renders the address of owner's subaccount. The default
// subaccount (nil or all zero) is addressed by the owner alone.
func AccountAddress(owner string, subaccount []byte) string {
	for _, b := range subaccount {
		if b != 0 {
			return owner + "." + hex.EncodeToString(subaccount)
		}
	}
	return owner
}

// Ledger stores token accounts and allowances.
type Ledger struct {
	fee uint64

	mu         sync.Mutex
	Schema     collections.Schema
	Accounts   collections.Map[string, Account]
	Allowances collections.Map[collections.Pair[string, string], uint64]
}

// NewLedger builds a ledger charging fee on every TransferFrom.
func NewLedger(storeService store.KVStoreService, fee uint64) *Ledger {
	sb := collections.NewSchemaBuilder(storeService)
	l := &Ledger{
		fee: fee,
		Accounts: collections.NewMap(
			sb,
			collections.NewPrefix(0),
			"accounts",
			collections.StringKey,
			collcodec.BareValue[Account](),
		),
		Allowances: collections.NewMap(
			sb,
			collections.NewPrefix(1),
			"allowances",
			collections.PairKeyCodec(collections.StringKey, collections.StringKey),
			collections.Uint64Value,
		),
	}
	schema, err := sb.Build()
	if err != nil {
		panic(err)
	}
	l.Schema = schema
	return l
}

// CreateAccount opens an empty account.
func (l *Ledger) CreateAccount(ctx context.Context, acc Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	has, err := l.Accounts.Has(ctx, acc.Address)
	if err != nil {
		return err
	}
	if has {
		return errors.Wrap(ErrAccountExists, acc.Address)
	}
	acc.Balance = 0
	return l.Accounts.Set(ctx, acc.Address, acc)
}

// Account returns the account at address.
func (l *Ledger) Account(ctx context.Context, address string) (Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.account(ctx, address)
}

// Mint issues amount new tokens into address.
func (l *Ledger) Mint(ctx context.Context, address string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.account(ctx, address)
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(acc.Balance, amount, 0)
	if carry != 0 {
		return errors.Wrap(ErrInvalidAmount, "balance overflow")
	}
	acc.Balance = sum
	return l.Accounts.Set(ctx, address, acc)
}

// Approve lets spender move up to amount out of the account at from. The
// allowance replaces any previous one.
func (l *Ledger) Approve(ctx context.Context, from, authority, spender string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, err := l.account(ctx, from)
	if err != nil {
		return err
	}
	if acc.Owner != authority {
		return errors.Wrapf(ErrUnauthorized, "%s cannot approve spending from %s", authority, from)
	}
	return l.Allowances.Set(ctx, collections.Join(from, spender), amount)
}

// Allowance returns what spender may still move out of from.
func (l *Ledger) Allowance(ctx context.Context, from, spender string) (uint64, error) {
	v, err := l.Allowances.Get(ctx, collections.Join(from, spender))
	if errors.IsOf(err, collections.ErrNotFound) {
		return 0, nil
	}
	return v, err
}

// Transfer moves amount between two accounts holding the same asset. The
// authority must own the source account.
func (l *Ledger) Transfer(ctx context.Context, args TransferArgs) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if args.Amount == 0 {
		return errors.Wrap(ErrInvalidAmount, "amount must be positive")
	}
	from, to, err := l.pair(ctx, args.From, args.To)
	if err != nil {
		return err
	}
	if from.Owner != args.Authority {
		return errors.Wrapf(ErrUnauthorized, "%s does not own %s", args.Authority, args.From)
	}
	return l.move(ctx, from, to, args.Amount, 0)
}

// TransferFrom moves amount out of From into To using Spender's allowance and
// returns the amount moved. The ledger fee is burned from the source and
// counts against the allowance.
func (l *Ledger) TransferFrom(ctx context.Context, args TransferFromArgs) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if args.Amount == 0 {
		return 0, errors.Wrap(ErrInvalidAmount, "amount must be positive")
	}
	if args.Fee != nil && *args.Fee != l.fee {
		return 0, errors.Wrapf(ErrBadFee, "expected fee %d", l.fee)
	}
	if len(args.Memo) > MaxMemoLength {
		return 0, errors.Wrapf(ErrMemoTooLong, "%d bytes exceeds %d", len(args.Memo), MaxMemoLength)
	}

	from, to, err := l.pair(ctx, args.From, args.To)
	if err != nil {
		return 0, err
	}

	total, carry := bits.Add64(args.Amount, l.fee, 0)
	if carry != 0 {
		return 0, errors.Wrap(ErrInvalidAmount, "amount plus fee overflows")
	}

	allowanceKey := collections.Join(args.From, args.Spender)
	delegated := from.Owner != args.Spender
	var allowance uint64
	if delegated {
		allowance, err = l.Allowances.Get(ctx, allowanceKey)
		if err != nil && !errors.IsOf(err, collections.ErrNotFound) {
			return 0, err
		}
		if allowance < total {
			return 0, errors.Wrapf(ErrInsufficientAllowance, "allowance %d, required %d", allowance, total)
		}
	}

	if err := l.move(ctx, from, to, args.Amount, l.fee); err != nil {
		return 0, err
	}
	if delegated {
		if err := l.Allowances.Set(ctx, allowanceKey, allowance-total); err != nil {
			return 0, err
		}
	}
	return args.Amount, nil
}

func (l *Ledger) move(ctx context.Context, from, to Account, amount, fee uint64) error {
	total, carry := bits.Add64(amount, fee, 0)
	if carry != 0 || from.Balance < total {
		return errors.Wrapf(ErrInsufficientFunds, "%s holds %d, required %d", from.Address, from.Balance, total)
	}
	credited, carry := bits.Add64(to.Balance, amount, 0)
	if carry != 0 {
		return errors.Wrap(ErrInvalidAmount, "destination balance overflow")
	}

	from.Balance -= total
	if from.Address == to.Address {
		from.Balance += amount
		return l.Accounts.Set(ctx, from.Address, from)
	}
	to.Balance = credited
	if err := l.Accounts.Set(ctx, from.Address, from); err != nil {
		return err
	}
	return l.Accounts.Set(ctx, to.Address, to)
}

func (l *Ledger) pair(ctx context.Context, fromAddr, toAddr string) (Account, Account, error) {
	from, err := l.account(ctx, fromAddr)
	if err != nil {
		return Account{}, Account{}, err
	}
	to, err := l.account(ctx, toAddr)
	if err != nil {
		return Account{}, Account{}, err
	}
	if from.Asset != to.Asset {
		return Account{}, Account{}, errors.Wrapf(ErrAssetMismatch, "%s holds %s, %s holds %s", from.Address, from.Asset, to.Address, to.Asset)
	}
	return from, to, nil
}

func (l *Ledger) account(ctx context.Context, address string) (Account, error) {
	acc, err := l.Accounts.Get(ctx, address)
	if errors.IsOf(err, collections.ErrNotFound) {
		return Account{}, errors.Wrap(ErrAccountNotFound, address)
	}
	return acc, err
}

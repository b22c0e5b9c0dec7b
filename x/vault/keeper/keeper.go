package keeper

import (
	"context"
	"fmt"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/crypto/pda"
	"github.com/sonr-io/vaultbridge/crypto/sigverify"
	"github.com/sonr-io/vaultbridge/types/collcodec"
	"github.com/sonr-io/vaultbridge/x/vault/types"
)

// Keeper runs the vault state machine of the vault chain.
type Keeper struct {
	storeService store.KVStoreService
	schema       collections.Schema
	logger       log.Logger

	program       pda.Address
	authorization [sigverify.PublicKeySize]byte
	tokens        types.TokenProgram
	locks         *keyedMutex

	// Vaults are keyed by the base58 vault address.
	Vaults collections.Map[string, types.VaultAccount]
}

// NewKeeper creates a vault keeper for program. authorizationKeyHex is the
// fixed Ed25519 key that must have signed every withdrawal.
func NewKeeper(
	storeService store.KVStoreService,
	logger log.Logger,
	tokens types.TokenProgram,
	program pda.Address,
	authorizationKeyHex string,
) (*Keeper, error) {
	authorization, err := sigverify.ParsePublicKey(authorizationKeyHex)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidPublicKey, err.Error())
	}

	sb := collections.NewSchemaBuilder(storeService)
	k := &Keeper{
		storeService:  storeService,
		logger:        logger.With(log.ModuleKey, "x/"+types.ModuleName),
		program:       program,
		authorization: authorization,
		tokens:        tokens,
		locks:         newKeyedMutex(),

		Vaults: collections.NewMap(
			sb,
			types.VaultsPrefix,
			"vaults",
			collections.StringKey,
			collcodec.BareValue[types.VaultAccount](),
		),
	}

	schema, err := sb.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build vault schema: %w", err)
	}
	k.schema = schema

	return k, nil
}

// Logger returns the module logger.
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// ProgramID returns the program the vault addresses are derived under.
func (k *Keeper) ProgramID() pda.Address {
	return k.program
}

// AuthorizationKey returns the verification key of withdrawal signatures.
func (k *Keeper) AuthorizationKey() []byte {
	return append([]byte(nil), k.authorization[:]...)
}

// Addresses derives the vault addresses of owner and asset.
func (k *Keeper) Addresses(owner, asset string) (types.Addresses, error) {
	ownerAddr, err := pda.ParseAddress(owner)
	if err != nil {
		return types.Addresses{}, errors.Wrapf(types.ErrInvalidAddress, "owner: %v", err)
	}
	assetAddr, err := pda.ParseAddress(asset)
	if err != nil {
		return types.Addresses{}, errors.Wrapf(types.ErrInvalidAddress, "asset: %v", err)
	}
	return types.DeriveAddresses(k.program, ownerAddr, assetAddr)
}

// Vault returns the vault of owner and asset.
func (k *Keeper) Vault(ctx context.Context, owner, asset string) (types.VaultAccount, error) {
	addrs, err := k.Addresses(owner, asset)
	if err != nil {
		return types.VaultAccount{}, err
	}
	return k.load(ctx, addrs.Vault)
}

// VaultBalance returns what the vault's token account currently holds.
func (k *Keeper) VaultBalance(ctx context.Context, owner, asset string) (uint64, error) {
	vault, err := k.Vault(ctx, owner, asset)
	if err != nil {
		return 0, err
	}
	addrs, err := vault.Restore(k.program)
	if err != nil {
		return 0, err
	}
	acc, err := k.tokens.Account(ctx, addrs.TokenAccount.String())
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

func (k *Keeper) load(ctx context.Context, vault pda.Address) (types.VaultAccount, error) {
	acc, err := k.Vaults.Get(ctx, vault.String())
	if errors.IsOf(err, collections.ErrNotFound) {
		return acc, errors.Wrap(types.ErrVaultNotInitialized, vault.String())
	}
	if err != nil {
		return acc, err
	}
	if !acc.Initialized {
		return acc, errors.Wrap(types.ErrVaultNotInitialized, vault.String())
	}
	if err := acc.VerifyAddress(k.program, vault); err != nil {
		return acc, err
	}
	return acc, nil
}

// Package app assembles the bridge state machines: the pooled ledger on one
// side, the vault program on the other, and the threshold signer between them.
package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"cosmossdk.io/errors"
	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/app/store"
	"github.com/sonr-io/vaultbridge/crypto/pda"
	"github.com/sonr-io/vaultbridge/oracle"
	"github.com/sonr-io/vaultbridge/types/token"
	poolkeeper "github.com/sonr-io/vaultbridge/x/pool/keeper"
	pooltypes "github.com/sonr-io/vaultbridge/x/pool/types"
	vaultkeeper "github.com/sonr-io/vaultbridge/x/vault/keeper"
	vaulttypes "github.com/sonr-io/vaultbridge/x/vault/types"
)

const (
	// Name of the bridge database.
	Name = "vaultbridge"

	// DefaultVaultProgramID is the vault program address used when none is configured.
	DefaultVaultProgramID = "5fRRp5pw4VQFyteiXPLngsEmzUbcR4njpNZGgcHjv8hj"
	// DefaultBridgeIdentity is the principal owning the pool custody account.
	DefaultBridgeIdentity = "vaultbridge-pool"
	// DefaultPoolAsset is the token held by the pool custody account.
	DefaultPoolAsset = "ckusdc"

	poolLedgerStore  = "ledger/pool"
	vaultLedgerStore = "ledger/vault"

	startupTimeout = 10 * time.Second
)

// Options configure New.
type Options struct {
	DataDir      string
	StoreBackend string

	KeyProfile    string
	SignerSecret  []byte
	SignFee       uint64
	CycleBudget   uint64
	OracleTimeout time.Duration

	// AuthorizationPublicKey is the hex Ed25519 key the vault verifies
	// withdrawals against. Only the local profile may leave it empty, in
	// which case the signer's own key is used.
	AuthorizationPublicKey string

	BridgeIdentity string
	PoolAsset      string
	VaultProgramID string
	TokenFee       uint64
}

// App holds the wired keepers.
type App struct {
	logger log.Logger
	store  *store.Service
	system *actor.ActorSystem
	signer *actor.PID

	KeyID       oracle.KeyID
	Oracle      *oracle.Client
	PoolTokens  *token.Ledger
	VaultTokens *token.Ledger
	PoolKeeper  *poolkeeper.Keeper
	VaultKeeper *vaultkeeper.Keeper
}

// New opens the store, starts the signer and builds both keepers.
func New(logger log.Logger, opts Options) (*App, error) {
	opts = withDefaults(opts)

	keyID, err := oracle.KeyIDForProfile(opts.KeyProfile)
	if err != nil {
		return nil, err
	}
	program, err := pda.ParseAddress(opts.VaultProgramID)
	if err != nil {
		return nil, fmt.Errorf("vault program id: %w", err)
	}

	db, err := store.Open(Name, opts.StoreBackend, opts.DataDir)
	if err != nil {
		return nil, err
	}

	a := &App{
		logger:      logger,
		store:       db,
		system:      actor.NewActorSystem(),
		KeyID:       keyID,
		PoolTokens:  token.NewLedger(db.ModuleService(poolLedgerStore), opts.TokenFee),
		VaultTokens: token.NewLedger(db.ModuleService(vaultLedgerStore), opts.TokenFee),
	}

	signerConfig := oracle.SignerConfig{
		MasterSecret: opts.SignerSecret,
		Keys:         []oracle.KeyID{keyID},
		MinFee:       opts.SignFee,
	}
	if !signerConfig.Served(keyID) {
		a.closeStore()
		return nil, errors.Wrapf(oracle.ErrSigningRejected, "signer does not serve %s", keyID)
	}
	a.signer = oracle.SpawnSigner(a.system, signerConfig)
	a.Oracle = oracle.NewClient(a.system, a.signer, logger, oracle.ClientConfig{
		RequestTimeout: opts.OracleTimeout,
		SignFee:        opts.SignFee,
		CycleBudget:    opts.CycleBudget,
	})

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	authKey, err := a.authorizationKey(ctx, opts)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.PoolKeeper = poolkeeper.NewKeeper(
		db.ModuleService(pooltypes.ModuleName),
		logger,
		a.PoolTokens,
		a.Oracle,
		opts.BridgeIdentity,
		keyID,
	)
	a.VaultKeeper, err = vaultkeeper.NewKeeper(
		db.ModuleService(vaulttypes.ModuleName),
		logger,
		a.VaultTokens,
		program,
		authKey,
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.openCustodyAccount(ctx, opts); err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("bridge initialized",
		"key_id", keyID.String(),
		"bridge_identity", opts.BridgeIdentity,
		"vault_program", program.String(),
		"store", opts.StoreBackend,
	)
	return a, nil
}

// Logger returns the application logger.
func (a *App) Logger() log.Logger {
	return a.logger
}

// Close stops the signer and closes the store.
func (a *App) Close() error {
	if a.system != nil && a.signer != nil {
		if err := a.system.Root.StopFuture(a.signer).Wait(); err != nil {
			a.logger.Error("failed to stop signer", "error", err)
		}
	}
	return a.closeStore()
}

func (a *App) closeStore() error {
	return a.store.Close()
}

func (a *App) authorizationKey(ctx context.Context, opts Options) (string, error) {
	if opts.AuthorizationPublicKey != "" {
		return opts.AuthorizationPublicKey, nil
	}
	if opts.KeyProfile != oracle.ProfileLocal {
		return "", errors.Wrapf(vaulttypes.ErrInvalidPublicKey, "authorization public key is required for profile %s", opts.KeyProfile)
	}

	reply, err := a.Oracle.PublicKey(ctx, a.KeyID)
	if err != nil {
		return "", errors.Wrap(err, "fetch authorization key from signer")
	}
	a.logger.Warn("no authorization public key configured, trusting the local signer key",
		"public_key", hex.EncodeToString(reply.PublicKey))
	return hex.EncodeToString(reply.PublicKey), nil
}

// openCustodyAccount creates the account deposits are moved into.
func (a *App) openCustodyAccount(ctx context.Context, opts Options) error {
	err := a.PoolTokens.CreateAccount(ctx, token.Account{
		Address: opts.BridgeIdentity,
		Owner:   opts.BridgeIdentity,
		Asset:   opts.PoolAsset,
	})
	if errors.IsOf(err, token.ErrAccountExists) {
		return nil
	}
	return err
}

func withDefaults(opts Options) Options {
	if opts.KeyProfile == "" {
		opts.KeyProfile = oracle.ProfileLocal
	}
	if opts.BridgeIdentity == "" {
		opts.BridgeIdentity = DefaultBridgeIdentity
	}
	if opts.PoolAsset == "" {
		opts.PoolAsset = DefaultPoolAsset
	}
	if opts.VaultProgramID == "" {
		opts.VaultProgramID = DefaultVaultProgramID
	}
	if opts.StoreBackend == "" {
		opts.StoreBackend = store.BackendMemory
	}
	return opts
}

package keeper

import (
	"fmt"
	"sync"

	"cosmossdk.io/collections"
	"cosmossdk.io/core/store"
	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/oracle"
	"github.com/sonr-io/vaultbridge/types/collcodec"
	"github.com/sonr-io/vaultbridge/x/pool/types"
)

// Keeper owns the pooled ledger and authorizes withdrawals out of it.
type Keeper struct {
	*Ledger

	storeService store.KVStoreService
	schema       collections.Schema
	logger       log.Logger

	tokens   types.TokenLedger
	oracle   types.SigningOracle
	notifier types.StrandedNotifier

	identity string
	keyID    oracle.KeyID

	Stranded collections.Map[string, types.StrandedAuthorization]
	Resolved collections.Map[string, types.ResolvedAuthorization]

	resignMu  sync.Mutex
	resigning map[string]struct{}
}

// NewKeeper creates a pool keeper. identity is the bridge's own principal,
// which owns the custody account deposits are moved into; keyID selects the
// oracle key that signs withdrawal authorizations.
func NewKeeper(
	storeService store.KVStoreService,
	logger log.Logger,
	tokens types.TokenLedger,
	signer types.SigningOracle,
	identity string,
	keyID oracle.KeyID,
) *Keeper {
	sb := collections.NewSchemaBuilder(storeService)
	logger = logger.With(log.ModuleKey, "x/"+types.ModuleName)

	k := &Keeper{
		Ledger:       NewLedger(sb, logger),
		storeService: storeService,
		logger:       logger,
		tokens:       tokens,
		oracle:       signer,
		identity:     identity,
		keyID:        keyID,
		resigning:    make(map[string]struct{}),

		Stranded: collections.NewMap(
			sb,
			types.StrandedPrefix,
			"stranded",
			collections.StringKey,
			collcodec.BareValue[types.StrandedAuthorization](),
		),
		Resolved: collections.NewMap(
			sb,
			types.ResolvedPrefix,
			"resolved",
			collections.StringKey,
			collcodec.BareValue[types.ResolvedAuthorization](),
		),
	}

	schema, err := sb.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build pool schema: %v", err))
	}
	k.schema = schema

	return k
}

// SetStrandedNotifier sets the notifier told about stranded authorizations
// (called after the queue client is available).
func (k *Keeper) SetStrandedNotifier(n types.StrandedNotifier) {
	k.notifier = n
}

// Logger returns the module logger.
func (k *Keeper) Logger() log.Logger {
	return k.logger
}

// BridgeIdentity returns the bridge's own principal on the pooled ledger.
func (k *Keeper) BridgeIdentity() string {
	return k.identity
}

// KeyID returns the oracle key that signs withdrawal authorizations.
func (k *Keeper) KeyID() oracle.KeyID {
	return k.keyID
}

package handlers_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmossdk.io/log"

	"github.com/sonr-io/vaultbridge/app/store"
	"github.com/sonr-io/vaultbridge/bridge/handlers"
	"github.com/sonr-io/vaultbridge/bridge/server"
	"github.com/sonr-io/vaultbridge/bridge/tasks"
	"github.com/sonr-io/vaultbridge/crypto/pda"
	"github.com/sonr-io/vaultbridge/crypto/sigverify"
	"github.com/sonr-io/vaultbridge/oracle"
	"github.com/sonr-io/vaultbridge/types/token"
	poolkeeper "github.com/sonr-io/vaultbridge/x/pool/keeper"
	pooltypes "github.com/sonr-io/vaultbridge/x/pool/types"
	vaultkeeper "github.com/sonr-io/vaultbridge/x/vault/keeper"
	vaulttypes "github.com/sonr-io/vaultbridge/x/vault/types"
)

var jwtSecret = []byte("handlers-test-secret")

const (
	bridgeIdentity = "bridge-canister"
	ownerAccount   = "owner-token-account"
)

func testAddress(b byte) pda.Address {
	var a pda.Address
	for i := range a {
		a[i] = b + byte(i)
	}
	return a
}

// fakeOracle signs with a fixed key unless err is set.
type fakeOracle struct {
	mu  sync.Mutex
	key ed25519.PrivateKey
	err error
}

func (o *fakeOracle) setErr(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

func (o *fakeOracle) PublicKey(context.Context, oracle.KeyID) (oracle.PublicKeyReply, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return oracle.PublicKeyReply{}, o.err
	}
	return oracle.PublicKeyReply{PublicKey: o.key.Public().(ed25519.PublicKey)}, nil
}

func (o *fakeOracle) Sign(_ context.Context, _ oracle.KeyID, msg []byte) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	return ed25519.Sign(o.key, msg), nil
}

// fakeQueue records enqueued tasks and rejects duplicate task ids.
type fakeQueue struct {
	mu    sync.Mutex
	ids   map[string]bool
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	id := task.Type() + ":" + string(task.Payload())
	if q.ids[id] {
		return nil, asynq.ErrTaskIDConflict
	}
	q.ids[id] = true
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: id, Type: task.Type(), Queue: tasks.QueueCritical}, nil
}

func (q *fakeQueue) Ping() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

func (q *fakeQueue) enqueued() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

type testFixture struct {
	ctx    context.Context
	srv    *server.Server
	pool   *poolkeeper.Keeper
	vault  *vaultkeeper.Keeper
	oracle *fakeOracle
	queue  *fakeQueue

	poolTokens  *token.Ledger
	vaultTokens *token.Ledger

	owner string
	asset string
}

func SetupTest(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{ctx: context.Background()}
	f.oracle = &fakeOracle{key: ed25519.NewKeyFromSeed([]byte("handlers-test-oracle-signing-key"))}
	f.queue = &fakeQueue{ids: make(map[string]bool)}
	f.owner = testAddress(1).String()
	f.asset = testAddress(100).String()

	logger := log.NewTestLogger(t)
	svc := store.NewService(dbm.NewMemDB())
	f.poolTokens = token.NewLedger(svc.ModuleService("ledger/pool"), 0)
	f.vaultTokens = token.NewLedger(svc.ModuleService("ledger/vault"), 0)

	keyID, err := oracle.KeyIDForProfile(oracle.ProfileLocal)
	require.NoError(t, err)

	notifier := tasks.NewNotifier(f.queue)
	f.pool = poolkeeper.NewKeeper(svc.ModuleService(pooltypes.ModuleName), logger, f.poolTokens, f.oracle, bridgeIdentity, keyID)
	f.pool.SetStrandedNotifier(notifier)

	pub := f.oracle.key.Public().(ed25519.PublicKey)
	f.vault, err = vaultkeeper.NewKeeper(svc.ModuleService(vaulttypes.ModuleName), logger, f.vaultTokens, testAddress(200), hex.EncodeToString(pub))
	require.NoError(t, err)

	health := handlers.NewHealthChecker(handlers.HealthCheck{
		Name:     "pool_invariant",
		Critical: true,
		Check:    f.pool.CheckInvariant,
	})
	health.CheckDependencies(f.ctx)

	f.srv = server.NewServer(&server.Config{JWTSecret: jwtSecret}, server.Handlers{
		Pool:   handlers.NewPoolHandlers(f.pool, 6),
		Vault:  handlers.NewVaultHandlers(f.vault, 6),
		Admin:  handlers.NewAdminHandlers(f.pool, notifier),
		Health: health,
	})

	require.NoError(t, f.poolTokens.CreateAccount(f.ctx, token.Account{Address: bridgeIdentity, Owner: bridgeIdentity, Asset: "ckusdc"}))
	require.NoError(t, f.poolTokens.CreateAccount(f.ctx, token.Account{Address: f.owner, Owner: f.owner, Asset: "ckusdc"}))
	require.NoError(t, f.poolTokens.Mint(f.ctx, f.owner, 1_000))
	require.NoError(t, f.poolTokens.Approve(f.ctx, f.owner, f.owner, bridgeIdentity, 1_000))

	require.NoError(t, f.vaultTokens.CreateAccount(f.ctx, token.Account{Address: ownerAccount, Owner: f.owner, Asset: f.asset}))
	require.NoError(t, f.vaultTokens.Mint(f.ctx, ownerAccount, 10_000))
	return f
}

func (f *testFixture) token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := handlers.IssueToken(jwtSecret, subject, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (f *testFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.srv.Echo().ServeHTTP(rec, req)
	return rec
}

// verifyHex checks a hex signature returned by the bridge.
func verifyHex(t *testing.T, pub, msg []byte, sigHex string) bool {
	t.Helper()
	sig, err := hex.DecodeString(sigHex)
	require.NoError(t, err)
	return sigverify.Verify(pub, msg, sig)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestPoolDepositAndWithdraw(t *testing.T) {
	f := SetupTest(t)
	user := f.token(t, f.owner, handlers.RoleUser)

	rec := f.do(t, http.MethodPost, "/pool/deposit", user, handlers.DepositRequest{Amount: 100})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dep := decode[handlers.DepositResponse](t, rec)
	assert.Equal(t, uint64(100), dep.Credited.Raw)
	assert.Equal(t, "0.000100", dep.Balance.Display)

	rec = f.do(t, http.MethodPost, "/pool/withdraw", user, handlers.WithdrawRequest{Amount: 40, Destination: ownerAccount})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	wd := decode[handlers.WithdrawResponse](t, rec)
	pub := f.oracle.key.Public().(ed25519.PublicKey)
	assert.True(t, verifyHex(t, pub, pooltypes.AuthorizationMessage(40, ownerAccount), wd.Signature))

	rec = f.do(t, http.MethodGet, "/pool/balance/"+f.owner, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(60), decode[handlers.BalanceResponse](t, rec).Balance.Raw)

	rec = f.do(t, http.MethodGet, "/pool/balance", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(60), decode[handlers.PoolBalanceResponse](t, rec).PoolBalance.Raw)
}

func TestPoolWithdrawInsufficientBalance(t *testing.T) {
	f := SetupTest(t)
	user := f.token(t, f.owner, handlers.RoleUser)

	rec := f.do(t, http.MethodPost, "/pool/withdraw", user, handlers.WithdrawRequest{Amount: 1, Destination: ownerAccount})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[handlers.ErrorResponse](t, rec)
	assert.Equal(t, pooltypes.ModuleName, body.Codespace)
	assert.Equal(t, pooltypes.ErrInsufficientBalance.ABCICode(), body.Code)
}

func TestPoolRequestValidation(t *testing.T) {
	f := SetupTest(t)
	user := f.token(t, f.owner, handlers.RoleUser)

	rec := f.do(t, http.MethodPost, "/pool/withdraw", user, handlers.WithdrawRequest{Amount: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/pool/deposit", user, handlers.DepositRequest{Amount: 1, FromSubaccount: "zz"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/pool/deposit", user, handlers.DepositRequest{Amount: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := SetupTest(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/pool/deposit"},
		{http.MethodPost, "/pool/withdraw"},
		{http.MethodGet, "/pool/authorizations/x"},
		{http.MethodGet, "/vault/" + f.asset},
		{http.MethodPost, "/vault/" + f.asset + "/initialize"},
		{http.MethodGet, "/admin/stranded"},
	} {
		rec := f.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}

	rec := f.do(t, http.MethodPost, "/pool/deposit", "", handlers.DepositRequest{Amount: 1})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing token", decode[handlers.ErrorResponse](t, rec).Error)

	rec = f.do(t, http.MethodPost, "/pool/deposit", "not.a.jwt", handlers.DepositRequest{Amount: 1})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", decode[handlers.ErrorResponse](t, rec).Error)

	forged, err := handlers.IssueToken([]byte("other-secret"), f.owner, handlers.RoleUser, time.Hour)
	require.NoError(t, err)
	rec = f.do(t, http.MethodPost, "/pool/withdraw", forged, handlers.WithdrawRequest{Amount: 1, Destination: ownerAccount})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentity(t *testing.T) {
	f := SetupTest(t)

	rec := f.do(t, http.MethodGet, "/pool/identity", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	id := decode[handlers.IdentityResponse](t, rec)

	pub := f.oracle.key.Public().(ed25519.PublicKey)
	assert.Equal(t, bridgeIdentity, id.BridgeIdentity)
	assert.Equal(t, oracle.DeriveAddress(pub), id.SigningAddress)
	assert.Equal(t, hex.EncodeToString(pub), id.PublicKey)
	assert.Contains(t, id.DID, "did:key:z")

	f.oracle.setErr(oracle.ErrOracleUnavailable)
	rec = f.do(t, http.MethodGet, "/pool/identity", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVaultLifecycle(t *testing.T) {
	f := SetupTest(t)
	user := f.token(t, f.owner, handlers.RoleUser)
	base := "/vault/" + f.asset

	rec := f.do(t, http.MethodGet, base, user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, base+"/initialize", user, handlers.VaultRequest{Amount: 1000, TokenAccount: ownerAccount})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := decode[handlers.VaultResponse](t, rec)
	assert.Equal(t, uint64(1000), v.Deposited.Raw)
	assert.Equal(t, uint64(1000), v.Holding.Raw)
	addrs, err := f.vault.Addresses(f.owner, f.asset)
	require.NoError(t, err)
	assert.Equal(t, addrs.Vault.String(), v.Vault)

	rec = f.do(t, http.MethodPost, base+"/initialize", user, handlers.VaultRequest{Amount: 1, TokenAccount: ownerAccount})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, base+"/deposit", user, handlers.VaultRequest{Amount: 500, TokenAccount: ownerAccount})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(500), decode[handlers.VaultResponse](t, rec).LastDepositAmount.Raw)

	sig := hex.EncodeToString(ed25519.Sign(f.oracle.key, pooltypes.AuthorizationMessage(300, ownerAccount)))
	rec = f.do(t, http.MethodPost, base+"/withdraw", user, handlers.VaultWithdrawRequest{Amount: 300, TokenAccount: ownerAccount, Signature: sig})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v = decode[handlers.VaultResponse](t, rec)
	assert.Equal(t, uint64(300), v.Withdrawn.Raw)
	assert.Equal(t, uint64(1200), v.Holding.Raw)

	// A signature for another amount is rejected.
	rec = f.do(t, http.MethodPost, base+"/withdraw", user, handlers.VaultWithdrawRequest{Amount: 301, TokenAccount: ownerAccount, Signature: sig})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestVaultInvalidAsset(t *testing.T) {
	f := SetupTest(t)
	user := f.token(t, f.owner, handlers.RoleUser)

	rec := f.do(t, http.MethodPost, "/vault/not-an-address/initialize", user, handlers.VaultRequest{Amount: 1, TokenAccount: ownerAccount})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/vault/"+testAddress(150).String()+"/initialize", user, handlers.VaultRequest{Amount: 1, TokenAccount: ownerAccount})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPoolToVaultRedemption(t *testing.T) {
	f := SetupTest(t)
	user := f.token(t, f.owner, handlers.RoleUser)
	base := "/vault/" + f.asset

	rec := f.do(t, http.MethodPost, base+"/initialize", user, handlers.VaultRequest{Amount: 1000, TokenAccount: ownerAccount})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = f.do(t, http.MethodPost, "/pool/deposit", user, handlers.DepositRequest{Amount: 500})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/pool/withdraw", user, handlers.WithdrawRequest{Amount: 250, Destination: ownerAccount})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sig := decode[handlers.WithdrawResponse](t, rec).Signature

	rec = f.do(t, http.MethodPost, base+"/withdraw", user, handlers.VaultWithdrawRequest{Amount: 250, TokenAccount: ownerAccount, Signature: sig})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v := decode[handlers.VaultResponse](t, rec)
	assert.Equal(t, uint64(250), v.Withdrawn.Raw)
	assert.Equal(t, uint64(750), v.Holding.Raw)

	acc, err := f.vaultTokens.Account(f.ctx, ownerAccount)
	require.NoError(t, err)
	assert.Equal(t, uint64(9_250), acc.Balance)
}

func TestStrandedOperatorFlow(t *testing.T) {
	f := SetupTest(t)
	user := f.token(t, f.owner, handlers.RoleUser)
	operator := f.token(t, "ops", handlers.RoleOperator)

	rec := f.do(t, http.MethodPost, "/pool/deposit", user, handlers.DepositRequest{Amount: 100})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f.oracle.setErr(oracle.ErrOracleUnavailable)
	rec = f.do(t, http.MethodPost, "/pool/withdraw", user, handlers.WithdrawRequest{Amount: 40, Destination: ownerAccount})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Users cannot reach the operator surface.
	rec = f.do(t, http.MethodGet, "/admin/stranded", user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/stranded", operator, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[handlers.StrandedListResponse](t, rec)
	require.Len(t, list.Stranded, 1)
	record := list.Stranded[0]
	assert.Equal(t, f.owner, record.Principal)
	assert.Equal(t, uint64(40), record.Amount)

	rec = f.do(t, http.MethodPost, "/admin/stranded/"+record.ID+"/resign", operator, nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, record.ID, decode[handlers.ResignResponse](t, rec).ID)

	rec = f.do(t, http.MethodPost, "/admin/stranded/"+record.ID+"/resign", operator, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/admin/stranded/unknown/resign", operator, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The queued task re-signs; afterwards the principal fetches the result.
	f.oracle.setErr(nil)
	_, err := f.pool.ResignStranded(f.ctx, record.ID)
	require.NoError(t, err)

	rec = f.do(t, http.MethodGet, "/pool/authorizations/"+record.ID, user, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resolved := decode[pooltypes.ResolvedAuthorization](t, rec)
	pub := f.oracle.key.Public().(ed25519.PublicKey)
	assert.True(t, verifyHex(t, pub, pooltypes.AuthorizationMessage(40, ownerAccount), resolved.Signature))

	other := f.token(t, testAddress(2).String(), handlers.RoleUser)
	rec = f.do(t, http.MethodGet, "/pool/authorizations/"+record.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminResignQueueFailure(t *testing.T) {
	f := SetupTest(t)
	operator := f.token(t, "ops", handlers.RoleOperator)

	require.NoError(t, f.pool.Credit(f.ctx, f.owner, 10))
	f.oracle.setErr(oracle.ErrOracleUnavailable)
	_, err := f.pool.WithdrawAuthorization(f.ctx, pooltypes.MsgWithdrawAuthorization{Principal: f.owner, Amount: 5, Destination: ownerAccount})
	require.Error(t, err)
	records, err := f.pool.ListStranded(f.ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	f.queue.err = errors.New("redis: connection refused")
	rec := f.do(t, http.MethodPost, "/admin/stranded/"+records[0].ID+"/resign", operator, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	f := SetupTest(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[handlers.HealthStatus](t, rec)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.Dependencies["pool_invariant"])

	rec = f.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthCheckerStates(t *testing.T) {
	failing := handlers.HealthCheck{Name: "redis", Critical: true, Check: func(context.Context) error {
		return errors.New("dial tcp: connection refused")
	}}
	optional := handlers.HealthCheck{Name: "metrics", Check: func(context.Context) error {
		return errors.New("down")
	}}

	hc := handlers.NewHealthChecker(failing)
	assert.Equal(t, "starting", hc.GetStatus().Status)
	assert.False(t, hc.IsReady())

	hc.CheckDependencies(context.Background())
	assert.Equal(t, "unhealthy", hc.GetStatus().Status)
	assert.Contains(t, hc.GetStatus().Dependencies["redis"], "connection refused")

	hc = handlers.NewHealthChecker(optional)
	hc.CheckDependencies(context.Background())
	assert.True(t, hc.IsReady())
	assert.Equal(t, "healthy", hc.GetStatus().Status)
}

func TestRedisCheckPingsWithoutEnqueuing(t *testing.T) {
	q := &fakeQueue{ids: map[string]bool{}}
	hc := handlers.NewHealthChecker(handlers.RedisCheck(q))

	for i := 0; i < 3; i++ {
		hc.CheckDependencies(context.Background())
	}
	assert.True(t, hc.IsReady())
	assert.Equal(t, "healthy", hc.GetStatus().Dependencies["redis"])
	assert.Zero(t, q.enqueued())

	q.mu.Lock()
	q.err = errors.New("dial tcp: connection refused")
	q.mu.Unlock()
	hc.CheckDependencies(context.Background())
	assert.False(t, hc.IsReady())
	assert.Contains(t, hc.GetStatus().Dependencies["redis"], "connection refused")
	assert.Zero(t, q.enqueued())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.000100", handlers.FormatAmount(100, 6))
	assert.Equal(t, "1234.5", handlers.FormatAmount(12345, 1))
	assert.Equal(t, "42", handlers.FormatAmount(42, 0))
	assert.Equal(t, "18446744073709.551615", handlers.FormatAmount(^uint64(0), 6))
}

package handlers

import (
	"encoding/hex"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sonr-io/vaultbridge/oracle"
	poolkeeper "github.com/sonr-io/vaultbridge/x/pool/keeper"
	pooltypes "github.com/sonr-io/vaultbridge/x/pool/types"
)

// PoolHandlers serve the pooled ledger.
type PoolHandlers struct {
	keeper   *poolkeeper.Keeper
	decimals int32
}

// NewPoolHandlers creates pool handlers displaying amounts with decimals.
func NewPoolHandlers(keeper *poolkeeper.Keeper, decimals int32) *PoolHandlers {
	return &PoolHandlers{keeper: keeper, decimals: decimals}
}

// BalanceResponse reports a credit balance.
type BalanceResponse struct {
	Principal string `json:"principal"`
	Balance   Amount `json:"balance"`
}

// PoolBalanceResponse reports the aggregate pool balance.
type PoolBalanceResponse struct {
	PoolBalance Amount `json:"pool_balance"`
}

// IdentityResponse describes the bridge's signing identity.
type IdentityResponse struct {
	BridgeIdentity string `json:"bridge_identity"`
	KeyID          string `json:"key_id"`
	SigningAddress string `json:"signing_address"`
	PublicKey      string `json:"public_key"`
	DID            string `json:"did"`
}

// DepositResponse reports a credited deposit.
type DepositResponse struct {
	Principal string `json:"principal"`
	Credited  Amount `json:"credited"`
	Balance   Amount `json:"balance"`
}

// WithdrawResponse carries the authorization for the vault.
type WithdrawResponse struct {
	Amount      uint64 `json:"amount"`
	Destination string `json:"destination"`
	Signature   string `json:"signature"`
}

// BalanceHandler returns the balance of :principal.
func (h *PoolHandlers) BalanceHandler(c echo.Context) error {
	principal := c.Param("principal")
	balance, err := h.keeper.BalanceOf(c.Request().Context(), principal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, BalanceResponse{Principal: principal, Balance: NewAmount(balance, h.decimals)})
}

// PoolBalanceHandler returns the aggregate pool balance.
func (h *PoolHandlers) PoolBalanceHandler(c echo.Context) error {
	pool, err := h.keeper.PoolBalance(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, PoolBalanceResponse{PoolBalance: NewAmount(pool, h.decimals)})
}

// IdentityHandler returns the bridge identity and its signing address.
func (h *PoolHandlers) IdentityHandler(c echo.Context) error {
	pub, err := h.keeper.SigningPublicKey(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	did, err := oracle.DIDKey(pub)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, IdentityResponse{
		BridgeIdentity: h.keeper.BridgeIdentity(),
		KeyID:          h.keeper.KeyID().String(),
		SigningAddress: oracle.DeriveAddress(pub),
		PublicKey:      hex.EncodeToString(pub),
		DID:            did,
	})
}

// DepositHandler moves the caller's tokens into the pool and credits them.
func (h *PoolHandlers) DepositHandler(c echo.Context) error {
	principal, err := requireSubject(c)
	if err != nil {
		return err
	}
	var req DepositRequest
	if err := bind(c, &req, DepositRequestSchema); err != nil {
		return err
	}

	ctx := c.Request().Context()
	credited, err := h.keeper.DepositToPool(ctx, pooltypes.MsgDepositToPool{
		Principal:         principal,
		Amount:            req.Amount,
		FromSubaccount:    decodeSubaccount(req.FromSubaccount),
		SpenderSubaccount: decodeSubaccount(req.SpenderSubaccount),
		Memo:              []byte(req.Memo),
		Fee:               req.Fee,
	})
	if err != nil {
		return respondError(c, err)
	}

	balance, err := h.keeper.BalanceOf(ctx, principal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, DepositResponse{
		Principal: principal,
		Credited:  NewAmount(credited, h.decimals),
		Balance:   NewAmount(balance, h.decimals),
	})
}

// WithdrawHandler debits the caller and returns the signed authorization.
func (h *PoolHandlers) WithdrawHandler(c echo.Context) error {
	principal, err := requireSubject(c)
	if err != nil {
		return err
	}
	var req WithdrawRequest
	if err := bind(c, &req, WithdrawRequestSchema); err != nil {
		return err
	}

	sig, err := h.keeper.WithdrawAuthorization(c.Request().Context(), pooltypes.MsgWithdrawAuthorization{
		Principal:   principal,
		Amount:      req.Amount,
		Destination: req.Destination,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, WithdrawResponse{Amount: req.Amount, Destination: req.Destination, Signature: sig})
}

// AuthorizationHandler returns the caller's re-signed authorization :id.
func (h *PoolHandlers) AuthorizationHandler(c echo.Context) error {
	principal, err := requireSubject(c)
	if err != nil {
		return err
	}
	resolved, err := h.keeper.GetResolved(c.Request().Context(), c.Param("id"), principal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resolved)
}

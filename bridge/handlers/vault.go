package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	vaultkeeper "github.com/sonr-io/vaultbridge/x/vault/keeper"
	vaulttypes "github.com/sonr-io/vaultbridge/x/vault/types"
)

// VaultHandlers serve the caller's vaults. The caller's token subject is the
// vault owner and :asset selects the vault.
type VaultHandlers struct {
	keeper   *vaultkeeper.Keeper
	decimals int32
}

// NewVaultHandlers creates vault handlers displaying amounts with decimals.
func NewVaultHandlers(keeper *vaultkeeper.Keeper, decimals int32) *VaultHandlers {
	return &VaultHandlers{keeper: keeper, decimals: decimals}
}

// VaultResponse describes a vault.
type VaultResponse struct {
	Vault             string `json:"vault"`
	Authority         string `json:"authority"`
	TokenAccount      string `json:"token_account"`
	Owner             string `json:"owner"`
	Asset             string `json:"asset"`
	Deposited         Amount `json:"deposited"`
	Withdrawn         Amount `json:"withdrawn"`
	LastDepositAmount Amount `json:"last_deposit_amount"`
	Holding           Amount `json:"holding"`
}

// InitializeHandler creates the caller's vault for :asset.
func (h *VaultHandlers) InitializeHandler(c echo.Context) error {
	owner, err := requireSubject(c)
	if err != nil {
		return err
	}
	var req VaultRequest
	if err := bind(c, &req, VaultRequestSchema); err != nil {
		return err
	}
	if _, err := h.keeper.InitializeVault(c.Request().Context(), vaulttypes.MsgInitializeVault{
		Owner:             owner,
		Asset:             c.Param("asset"),
		OwnerTokenAccount: req.TokenAccount,
		Amount:            req.Amount,
	}); err != nil {
		return respondError(c, err)
	}
	return h.respondVault(c, http.StatusCreated, owner)
}

// DepositHandler adds to the caller's vault for :asset.
func (h *VaultHandlers) DepositHandler(c echo.Context) error {
	owner, err := requireSubject(c)
	if err != nil {
		return err
	}
	var req VaultRequest
	if err := bind(c, &req, VaultRequestSchema); err != nil {
		return err
	}
	if _, err := h.keeper.Deposit(c.Request().Context(), vaulttypes.MsgDeposit{
		Owner:             owner,
		Asset:             c.Param("asset"),
		OwnerTokenAccount: req.TokenAccount,
		Amount:            req.Amount,
	}); err != nil {
		return respondError(c, err)
	}
	return h.respondVault(c, http.StatusOK, owner)
}

// WithdrawHandler releases funds from the caller's vault for :asset.
func (h *VaultHandlers) WithdrawHandler(c echo.Context) error {
	owner, err := requireSubject(c)
	if err != nil {
		return err
	}
	var req VaultWithdrawRequest
	if err := bind(c, &req, VaultWithdrawRequestSchema); err != nil {
		return err
	}

	if _, err := h.keeper.Withdraw(c.Request().Context(), vaulttypes.MsgWithdraw{
		Owner:             owner,
		Asset:             c.Param("asset"),
		OwnerTokenAccount: req.TokenAccount,
		Amount:            req.Amount,
		Signature:         req.Signature,
	}); err != nil {
		return respondError(c, err)
	}
	return h.respondVault(c, http.StatusOK, owner)
}

// GetHandler returns the caller's vault for :asset.
func (h *VaultHandlers) GetHandler(c echo.Context) error {
	owner, err := requireSubject(c)
	if err != nil {
		return err
	}
	return h.respondVault(c, http.StatusOK, owner)
}

func (h *VaultHandlers) respondVault(c echo.Context, status int, owner string) error {
	ctx := c.Request().Context()
	asset := c.Param("asset")

	vault, err := h.keeper.Vault(ctx, owner, asset)
	if err != nil {
		return respondError(c, err)
	}
	addrs, err := vault.Restore(h.keeper.ProgramID())
	if err != nil {
		return respondError(c, err)
	}
	holding, err := h.keeper.VaultBalance(ctx, owner, asset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(status, VaultResponse{
		Vault:             addrs.Vault.String(),
		Authority:         addrs.Authority.String(),
		TokenAccount:      addrs.TokenAccount.String(),
		Owner:             vault.Owner,
		Asset:             vault.Asset,
		Deposited:         NewAmount(vault.DepositedAmount, h.decimals),
		Withdrawn:         NewAmount(vault.WithdrawnAmount, h.decimals),
		LastDepositAmount: NewAmount(vault.LastDepositAmount, h.decimals),
		Holding:           NewAmount(holding, h.decimals),
	})
}

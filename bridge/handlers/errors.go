package handlers

import (
	"fmt"
	"net/http"

	z "github.com/Oudwins/zog"
	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"

	"cosmossdk.io/errors"

	"github.com/sonr-io/vaultbridge/oracle"
	pooltypes "github.com/sonr-io/vaultbridge/x/pool/types"
	vaulttypes "github.com/sonr-io/vaultbridge/x/vault/types"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Codespace string `json:"codespace,omitempty"`
	Code      uint32 `json:"code,omitempty"`
}

// statusFor maps typed failures onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.IsOf(err,
		pooltypes.ErrInvalidAmount,
		pooltypes.ErrInvalidDestination,
		pooltypes.ErrInvalidPrincipal,
		vaulttypes.ErrInvalidAmount,
		vaulttypes.ErrInvalidAddress,
		vaulttypes.ErrInvalidAsset,
	):
		return http.StatusBadRequest
	case errors.IsOf(err, vaulttypes.ErrSignatureInvalid, vaulttypes.ErrUnauthorized):
		return http.StatusForbidden
	case errors.IsOf(err, vaulttypes.ErrVaultNotInitialized, pooltypes.ErrStrandedNotFound):
		return http.StatusNotFound
	case errors.IsOf(err,
		vaulttypes.ErrVaultAlreadyInitialized,
		pooltypes.ErrResignInProgress,
		asynq.ErrTaskIDConflict,
	):
		return http.StatusConflict
	case errors.IsOf(err,
		pooltypes.ErrInsufficientBalance,
		pooltypes.ErrOverflow,
		vaulttypes.ErrOverflow,
	):
		return http.StatusUnprocessableEntity
	case errors.IsOf(err,
		pooltypes.ErrTransferFailed,
		vaulttypes.ErrTransferFailed,
		oracle.ErrSigningRejected,
	):
		return http.StatusBadGateway
	case errors.IsOf(err, oracle.ErrOracleUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with its status and registered code. Unregistered
// errors are reported without detail.
func respondError(c echo.Context, err error) error {
	codespace, code, msg := errors.ABCIInfo(err, false)
	status := statusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusServiceUnavailable {
		c.Logger().Errorf("request failed: %v", err)
	}
	return c.JSON(status, ErrorResponse{Error: msg, Codespace: codespace, Code: code})
}

// bind decodes the request body into req and validates it with schema.
func bind(c echo.Context, req any, schema *z.StructSchema) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "Invalid JSON payload"})
	}
	if errs := schema.Validate(req); errs != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("validation failed: %v", errs)})
	}
	return nil
}

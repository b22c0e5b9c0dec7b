package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sonr-io/vaultbridge/bridge/tasks"
	poolkeeper "github.com/sonr-io/vaultbridge/x/pool/keeper"
	pooltypes "github.com/sonr-io/vaultbridge/x/pool/types"
)

// AdminHandlers expose stranded authorizations to operators.
type AdminHandlers struct {
	keeper   *poolkeeper.Keeper
	notifier *tasks.Notifier
}

// NewAdminHandlers creates operator handlers.
func NewAdminHandlers(keeper *poolkeeper.Keeper, notifier *tasks.Notifier) *AdminHandlers {
	return &AdminHandlers{keeper: keeper, notifier: notifier}
}

// StrandedListResponse lists unresolved stranded authorizations.
type StrandedListResponse struct {
	Stranded []pooltypes.StrandedAuthorization `json:"stranded"`
}

// ResignResponse acknowledges a queued re-sign.
type ResignResponse struct {
	ID     string `json:"id"`
	TaskID string `json:"task_id"`
	Queue  string `json:"queue"`
}

// ListStrandedHandler lists stranded authorizations.
func (h *AdminHandlers) ListStrandedHandler(c echo.Context) error {
	records, err := h.keeper.ListStranded(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if records == nil {
		records = []pooltypes.StrandedAuthorization{}
	}
	return c.JSON(http.StatusOK, StrandedListResponse{Stranded: records})
}

// ResignHandler queues the re-signing of stranded authorization :id.
func (h *AdminHandlers) ResignHandler(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	if _, err := h.keeper.GetStranded(ctx, id); err != nil {
		return respondError(c, err)
	}
	info, err := h.notifier.RequestResign(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, ResignResponse{ID: id, TaskID: info.ID, Queue: info.Queue})
}

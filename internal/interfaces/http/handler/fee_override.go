package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/orderprofit/backend/internal/domain/profit"
)

// FeeOverrideStore manages per-source fee overrides
type FeeOverrideStore interface {
	ListOverrides(ctx context.Context) ([]profit.FeeOverride, error)
	SetOverride(ctx context.Context, source string, percent decimal.Decimal) (*profit.FeeOverride, error)
	DeleteOverride(ctx context.Context, source string) error
}

// FeeOverrideHandler serves the fee override endpoints
type FeeOverrideHandler struct {
	BaseHandler
	store FeeOverrideStore
}

// NewFeeOverrideHandler creates a FeeOverrideHandler
func NewFeeOverrideHandler(store FeeOverrideStore) *FeeOverrideHandler {
	return &FeeOverrideHandler{store: store}
}

// List handles GET /api/v1/fee-overrides
func (h *FeeOverrideHandler) List(c *gin.Context) {
	overrides, err := h.store.ListOverrides(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if overrides == nil {
		overrides = []profit.FeeOverride{}
	}
	h.Success(c, overrides)
}

// Set handles PUT /api/v1/fee-overrides/:source
func (h *FeeOverrideHandler) Set(c *gin.Context) {
	var req FeeOverrideRequest
	if !h.bindJSON(c, &req) {
		return
	}

	override, err := h.store.SetOverride(c.Request.Context(), c.Param("source"), *req.Percent)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, override)
}

// Delete handles DELETE /api/v1/fee-overrides/:source
func (h *FeeOverrideHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteOverride(c.Request.Context(), c.Param("source")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

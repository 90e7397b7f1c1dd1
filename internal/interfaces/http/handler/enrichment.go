package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/orderprofit/backend/internal/application/enrichment"
	"github.com/orderprofit/backend/internal/domain/profit"
)

// Enricher runs the paced enrichment of order identifiers
type Enricher interface {
	Enrich(ctx context.Context, credential string, orderIDs []string) (*enrichment.Run, error)
}

// EnrichmentHandler serves the enrichment endpoint
type EnrichmentHandler struct {
	BaseHandler
	enricher Enricher
}

// NewEnrichmentHandler creates an EnrichmentHandler
func NewEnrichmentHandler(enricher Enricher) *EnrichmentHandler {
	return &EnrichmentHandler{enricher: enricher}
}

// Enrich handles POST /api/v1/enrichment.
// Results come back in request order; per-order failures stay in the list
// with success=false and never fail the request.
func (h *EnrichmentHandler) Enrich(c *gin.Context) {
	var req EnrichmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	run, err := h.enricher.Enrich(c.Request.Context(), credentialFrom(c, req.AuthToken), profit.OrderIdentifierStrings(req.OrderIDs))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

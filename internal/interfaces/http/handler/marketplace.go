package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/orderprofit/backend/internal/domain/profit"
)

// MarketplaceHandler exposes the marketplace catalog
type MarketplaceHandler struct {
	BaseHandler
	catalog *profit.Catalog
}

// NewMarketplaceHandler creates a MarketplaceHandler
func NewMarketplaceHandler(catalog *profit.Catalog) *MarketplaceHandler {
	return &MarketplaceHandler{catalog: catalog}
}

// List handles GET /api/v1/marketplaces
func (h *MarketplaceHandler) List(c *gin.Context) {
	h.Success(c, MarketplacesResponse{
		Properties:   h.catalog.Properties(),
		Marketplaces: h.catalog.Marketplaces(),
	})
}

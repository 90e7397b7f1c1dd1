package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderprofit/backend/internal/domain/profit"
)

func TestMarketplaceHandler_List(t *testing.T) {
	catalog, err := profit.NewCatalog(
		profit.PropertyNames{Cost: "Cost", Freight: "Freight", Courier: "Courier", DealPrice: "DealPrice"},
		[]profit.Marketplace{
			{Key: "AMAZON", Name: "Amazon", FeeProperty: "AmazonFee"},
			{Key: "EBAY", Name: "eBay", Aliases: []string{"EBAY1"}},
		},
	)
	require.NoError(t, err)
	h := NewMarketplaceHandler(catalog)

	w := performJSON(t, http.MethodGet, "/marketplaces", nil, nil, func(r *gin.Engine) {
		r.GET("/marketplaces", h.List)
	})

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "Cost", data["properties"].(map[string]any)["cost"])
	marketplaces := data["marketplaces"].([]any)
	require.Len(t, marketplaces, 2)
	assert.Equal(t, "AMAZON", marketplaces[0].(map[string]any)["key"])
	assert.Equal(t, "AMAZON", marketplaces[0].(map[string]any)["fee_key"])
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/orderprofit/backend/internal/interfaces/http/dto"
)

func bodyLimitRouter(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), BodyLimit(limit))
	router.POST("/api/v1/enrichment", func(c *gin.Context) {
		var req struct {
			OrderIDs []string `json:"order_ids" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.String(http.StatusOK, "%d", len(req.OrderIDs))
	})
	return router
}

func TestBodyLimit(t *testing.T) {
	small := `{"order_ids":["a","b"]}`
	large := `{"order_ids":["` + strings.Repeat("x", 200) + `"]}`

	tests := []struct {
		name          string
		limit         int64
		body          string
		contentLength int64
		status        int
	}{
		{"within limit", 1024, small, int64(len(small)), http.StatusOK},
		{"declared length over limit", 64, large, int64(len(large)), http.StatusRequestEntityTooLarge},
		{"streamed body over limit", 64, large, -1, http.StatusRequestEntityTooLarge},
		{"zero limit disables check", 0, large, int64(len(large)), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/enrichment", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.ContentLength = tt.contentLength

			w := httptest.NewRecorder()
			bodyLimitRouter(tt.limit).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusRequestEntityTooLarge {
				assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)
				assert.Contains(t, w.Body.String(), w.Header().Get(RequestIDHeader))
			}
		})
	}
}

func TestBodyLimit_IgnoresBodylessRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BodyLimit(1))
	router.GET("/api/v1/marketplaces", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/marketplaces", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

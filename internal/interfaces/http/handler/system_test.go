package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("order-profit", "1.0.0", nil)
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("order-profit", "1.2.3", nil)

	w := performJSON(t, http.MethodGet, "/system/info", nil, nil, func(r *gin.Engine) {
		r.GET("/system/info", h.GetSystemInfo)
	})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "order-profit", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
		want   string
	}{
		{
			name:   "no checks",
			status: http.StatusOK,
			want:   "ok",
		},
		{
			name: "all healthy",
			checks: map[string]HealthCheck{
				"database": func(context.Context) error { return nil },
			},
			status: http.StatusOK,
			want:   "ok",
		},
		{
			name: "database down",
			checks: map[string]HealthCheck{
				"database": func(context.Context) error { return errors.New("connection refused") },
				"cache":    func(context.Context) error { return nil },
			},
			status: http.StatusServiceUnavailable,
			want:   "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("order-profit", "1.0.0", tt.checks)

			w := performJSON(t, http.MethodGet, "/health", nil, nil, func(r *gin.Engine) {
				r.GET("/health", h.Health)
			})

			require.Equal(t, tt.status, w.Code)
			data := decodeResponse(t, w).Data.(map[string]any)
			assert.Equal(t, tt.want, data["status"])
			if tt.want == "degraded" {
				checks := data["checks"].(map[string]any)
				assert.Equal(t, "connection refused", checks["database"])
				assert.Equal(t, "ok", checks["cache"])
			}
		})
	}
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderprofit/backend/internal/interfaces/http/dto"
)

type runInput struct {
	FromDate string   `json:"from_date" binding:"required,datetime=2006-01-02"`
	OrderIDs []string `json:"order_ids" binding:"required,max=3"`
	Source   string   `json:"source" binding:"omitempty,notblank"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req runInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	router := newValidationRouter()

	t.Run("field errors use json names", func(t *testing.T) {
		w := postJSON(router, `{"from_date": "01/02/2024", "order_ids": ["a","b","c","d"], "source": "   "}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		assert.NotEmpty(t, resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Must be a date in 2006-01-02 format", fields["from_date"])
		assert.Equal(t, "Must be at most 3", fields["order_ids"])
		assert.Equal(t, "Must not be blank", fields["source"])
	})

	t.Run("required field missing", func(t *testing.T) {
		w := postJSON(router, `{"from_date": "2024-01-02"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"order_ids"`)
		assert.Contains(t, w.Body.String(), "This field is required")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		w := postJSON(router, `{"from_date": }`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	})

	t.Run("empty body", func(t *testing.T) {
		w := postJSON(router, ``)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Request body is required")
	})

	t.Run("wrong JSON type", func(t *testing.T) {
		w := postJSON(router, `{"from_date": "2024-01-02", "order_ids": "not-a-list"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
	})

	t.Run("valid input", func(t *testing.T) {
		w := postJSON(router, `{"from_date": "2024-01-02", "order_ids": ["a"], "source": "AMAZON"}`)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

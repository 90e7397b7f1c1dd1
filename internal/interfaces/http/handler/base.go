package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/domain/shared"
	"github.com/orderprofit/backend/internal/infrastructure/logger"
	"github.com/orderprofit/backend/internal/interfaces/http/dto"
	"github.com/orderprofit/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	return middleware.GetRequestID(c)
}

// credentialFrom returns the upstream token from the body, falling back to
// the Authorization header with an optional Bearer prefix.
func credentialFrom(c *gin.Context, bodyToken string) string {
	if token := strings.TrimSpace(bodyToken); token != "" {
		return token
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// bindJSON binds the request body, writing a 400 response on failure
func (h *BaseHandler) bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	code = dto.NormalizeErrorCode(code)
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ServiceUnavailable sends a 503 response
func (h *BaseHandler) ServiceUnavailable(c *gin.Context, message string) {
	h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeServiceUnavailable, message)
}

// sentinelCodes maps plain sentinel errors to API error codes. Order matters:
// the first match wins.
var sentinelCodes = []struct {
	err  error
	code string
	help string
}{
	{profit.ErrMissingCredential, dto.ErrCodeMissingCredential, credentialHelp},
	{profit.ErrMissingOrderIDs, dto.ErrCodeValidationRequired, ""},
	{profit.ErrInvalidFeeOverride, dto.ErrCodeValidationRange, ""},
	{profit.ErrInvalidMarketplace, dto.ErrCodeInvalidInput, ""},
	{profit.ErrFeeOverrideNotFound, dto.ErrCodeNotFound, ""},
	{integration.ErrInvalidSearchRequest, dto.ErrCodeInvalidInput, ""},
	{integration.ErrPlatformAuthFailed, dto.ErrCodeUpstreamAuth, credentialHelp},
	{integration.ErrPlatformNotConfigured, dto.ErrCodeServiceUnavailable, ""},
	{integration.ErrPlatformUnavailable, dto.ErrCodeServiceUnavailable, ""},
	{integration.ErrPlatformRequestFailed, dto.ErrCodeUpstreamFailure, ""},
	{integration.ErrPlatformInvalidResponse, dto.ErrCodeUpstreamFailure, ""},
	{context.DeadlineExceeded, dto.ErrCodeServiceUnavailable, ""},
}

const credentialHelp = "Send a Linnworks session token as auth_token in the body or in the Authorization header, or request one from POST /api/v1/auth/token"

// HandleError converts service errors to HTTP responses. Sentinel errors
// are matched first, then shared.DomainError codes; anything else is a 500
// whose cause is logged but not returned.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	requestID := getRequestID(c)

	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			c.JSON(dto.GetHTTPStatus(s.code), dto.NewErrorResponseWithHelp(s.code, err.Error(), requestID, s.help))
			return
		}
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, err.Error(), requestID))
		return
	}

	logger.L(c.Request.Context()).Error("unhandled request error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

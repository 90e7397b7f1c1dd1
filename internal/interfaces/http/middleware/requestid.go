package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orderprofit/backend/internal/infrastructure/logger"
)

const (
	// RequestIDHeader carries the caller's or the generated request ID
	RequestIDHeader = "X-Request-ID"
	// MaxRequestIDLength truncates caller-supplied request IDs
	MaxRequestIDLength = 128
)

// RequestID tags every request with an ID, echoed in the response header.
// A caller-supplied X-Request-ID is kept so a client can correlate its own
// retries with server logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := clampRequestID(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(logger.GinRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the ID set by RequestID. Outside that middleware it
// falls back to the request header.
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	return clampRequestID(c.GetHeader(RequestIDHeader))
}

func clampRequestID(id string) string {
	if len(id) > MaxRequestIDLength {
		return id[:MaxRequestIDLength]
	}
	return id
}

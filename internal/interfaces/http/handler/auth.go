package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/orderprofit/backend/internal/domain/integration"
)

// SessionSource issues upstream sessions from the server's application credentials
type SessionSource interface {
	Session(ctx context.Context) (*integration.Session, error)
}

// AuthHandler serves upstream token requests
type AuthHandler struct {
	BaseHandler
	sessions SessionSource
}

// NewAuthHandler creates an AuthHandler
func NewAuthHandler(sessions SessionSource) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Token handles POST /api/v1/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	session, err := h.sessions.Session(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, TokenResponse{
		Token:     session.Token,
		ServerURL: session.ServerURL,
		IssuedAt:  session.IssuedAt,
	})
}

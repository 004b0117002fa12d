package dispatch

import (
	"errors"
	"strings"

	"github.com/somar/dispatch/internal/http/response"
	"github.com/somar/dispatch/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest is the dispatcher login payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a dashboard operator and issues a JWT.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "username and password required", err)
		return
	}

	dispatcher, token, expiresAt, err := h.AuthService.LoginDispatcher(strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, response.CodeUnauthorized, "invalid username or password", nil)
			return
		}
		respondError(c, response.CodeInternal, "login failed", err)
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt.Unix(),
		"dispatcher": gin.H{
			"id":       dispatcher.ID,
			"username": dispatcher.Username,
		},
	})
}

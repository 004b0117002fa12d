package rider

import (
	"errors"
	"strings"

	handlershared "github.com/somar/dispatch/internal/http/handlers/shared"
	"github.com/somar/dispatch/internal/http/response"
	"github.com/somar/dispatch/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest is the rider login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a rider by email and issues a JWT.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "email and password required", err)
		return
	}

	rider, token, expiresAt, err := h.AuthService.LoginRider(strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "invalid email or password", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			respondError(c, response.CodeForbidden, "rider account is disabled", nil)
		default:
			respondError(c, response.CodeInternal, "login failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt.Unix(),
		"rider":      rider,
	})
}

// Me returns the rider profile. An identity seen for the first time gets its
// rider row provisioned here.
func (h *Handler) Me(c *gin.Context) {
	authUID := handlershared.GetContextString(c, "auth_uid")
	if authUID != "" {
		rider, err := h.AuthService.GetOrProvisionRider(service.ProvisionRiderInput{
			AuthUID: authUID,
			Name:    handlershared.GetContextString(c, "rider_name"),
		})
		if err != nil {
			respondServiceError(c, err)
			return
		}
		response.Success(c, rider)
		return
	}

	riderID, ok := getRiderID(c)
	if !ok {
		return
	}
	rider, err := h.RiderRepo.GetByID(riderID)
	if err != nil {
		respondError(c, response.CodeInternal, "profile fetch failed", err)
		return
	}
	if rider == nil {
		respondError(c, response.CodeNotFound, "rider not found", nil)
		return
	}
	response.Success(c, rider)
}

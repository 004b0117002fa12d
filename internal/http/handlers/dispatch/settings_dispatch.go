package dispatch

import (
	"strings"

	"github.com/somar/dispatch/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetConfig returns the resolved global dispatch configuration.
func (h *Handler) GetConfig(c *gin.Context) {
	cfg, err := h.SettingsService.GlobalConfig()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cfg)
}

// UpdateSettingRequest sets one configuration value.
type UpdateSettingRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// UpdateSetting stores a split percentage or the custody limit. Existing
// orders keep their stored splits; only new computations see the change.
func (h *Handler) UpdateSetting(c *gin.Context) {
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "key and value required", err)
		return
	}
	value, err := decimal.NewFromString(strings.TrimSpace(req.Value))
	if err != nil {
		respondError(c, response.CodeBadRequest, "value must be a decimal number", err)
		return
	}
	if err := h.SettingsService.UpdateSetting(strings.TrimSpace(req.Key), value); err != nil {
		respondError(c, response.CodeBadRequest, "setting update rejected", err)
		return
	}
	cfg, err := h.SettingsService.GlobalConfig()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, cfg)
}

package rider

import (
	"strconv"
	"strings"

	handlershared "github.com/somar/dispatch/internal/http/handlers/shared"
	"github.com/somar/dispatch/internal/http/response"
	"github.com/somar/dispatch/internal/repository"

	"github.com/gin-gonic/gin"
)

// Stats returns the rider's delivery and earnings summary with the level tier.
func (h *Handler) Stats(c *gin.Context) {
	riderID, ok := getRiderID(c)
	if !ok {
		return
	}
	stats, err := h.StatsService.RiderStats(riderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// Movements pages through the rider's own cash ledger.
func (h *Handler) Movements(c *gin.Context) {
	riderID, ok := getRiderID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	movements, total, err := h.LedgerService.ListMovements(repository.CashMovementListFilter{
		Page:     page,
		PageSize: pageSize,
		RiderID:  riderID,
		Type:     strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, movements, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// Balance returns the rider's current cash on hand.
func (h *Handler) Balance(c *gin.Context) {
	riderID, ok := getRiderID(c)
	if !ok {
		return
	}
	balance, err := h.LedgerService.Balance(riderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"cash_on_hand": balance})
}

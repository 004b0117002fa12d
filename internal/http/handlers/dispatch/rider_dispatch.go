package dispatch

import (
	"strconv"
	"strings"

	handlershared "github.com/somar/dispatch/internal/http/handlers/shared"
	"github.com/somar/dispatch/internal/http/response"
	"github.com/somar/dispatch/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListRiders serves the assignment picker with custody balances.
func (h *Handler) ListRiders(c *gin.Context) {
	filter := repository.RiderListFilter{
		OnlyActive: c.Query("only_active") == "true",
		Keyword:    strings.TrimSpace(c.Query("keyword")),
	}
	riders, total, err := h.DispatchService.RiderDirectory(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"riders": riders,
		"total":  total,
	})
}

// ListRiderMovements pages through one rider's cash ledger.
func (h *Handler) ListRiderMovements(c *gin.Context) {
	riderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid rider id", nil)
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

// SettleRiderRequest records cash handed back at the office.
type SettleRiderRequest struct {
	Amount string `json:"amount" binding:"required"`
	Remark string `json:"remark"`
}

// SettleRider debits a rider's custody balance after they hand cash over.
func (h *Handler) SettleRider(c *gin.Context) {
	riderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid rider id", nil)
		return
	}
	var req SettleRiderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "amount required", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		respondError(c, response.CodeBadRequest, "invalid amount", err)
		return
	}

	rider, movement, err := h.LedgerService.Settle(riderID, amount, strings.TrimSpace(req.Remark))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("rider_settled",
		"rider_id", riderID,
		"amount", amount.Round(2).StringFixed(2),
	)
	response.Success(c, gin.H{
		"rider":    rider,
		"movement": movement,
	})
}

package dispatch

import (
	"strconv"
	"strings"

	handlershared "github.com/somar/dispatch/internal/http/handlers/shared"
	"github.com/somar/dispatch/internal/http/response"
	"github.com/somar/dispatch/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateOrder registers a new delivery order.
func (h *Handler) CreateOrder(c *gin.Context) {
	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "invalid order payload", err)
		return
	}

	order, err := h.DispatchService.CreateOrder(input)
	if err != nil {
		// A failed direct assignment still created the order.
		if order != nil {
			requestLog(c).Warnw("order_created_assign_failed",
				"order_id", order.ID,
				"error", err,
			)
			response.ErrorWithData(c, response.CodeConflict, "order created but assignment failed", gin.H{
				"order": order,
			})
			return
		}
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders serves the dashboard order list with the coarse status filter.
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	var riderID uint
	if raw := strings.TrimSpace(c.Query("rider_id")); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "invalid rider_id", nil)
			return
		}
		riderID = uint(parsed)
	}

	views, total, err := h.OrderService.ListDashboard(service.DashboardListInput{
		Page:         page,
		PageSize:     pageSize,
		CoarseStatus: strings.TrimSpace(c.Query("status")),
		Keyword:      strings.TrimSpace(c.Query("keyword")),
		RiderID:      riderID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, views, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetOrder returns one order with its coarse status.
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, err := h.OrderService.Get(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, service.OrderView{
		Order:           *order,
		DashboardStatus: service.CoarseStatus(order.Status),
	})
}

// PreviewSplitRequest carries draft order amounts.
type PreviewSplitRequest struct {
	ShippingFee   decimal.Decimal `json:"shipping_fee"`
	PurchaseTotal decimal.Decimal `json:"purchase_total"`
	Tip           decimal.Decimal `json:"tip"`
	PaymentMethod string          `json:"payment_method"`
}

// PreviewSplit computes the money split for a draft order without storing it.
func (h *Handler) PreviewSplit(c *gin.Context) {
	var req PreviewSplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid preview payload", err)
		return
	}
	split, err := h.DispatchService.PreviewSplit(req.ShippingFee, req.PurchaseTotal, req.Tip, req.PaymentMethod)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, split)
}

// AssignOrderRequest names the rider to hand an order to.
type AssignOrderRequest struct {
	RiderID uint `json:"rider_id" binding:"required"`
}

// AssignOrder hands an unassigned order to a rider from the dashboard.
func (h *Handler) AssignOrder(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	var req AssignOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "rider_id required", err)
		return
	}
	order, err := h.OrderService.Assign(orderID, req.RiderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder cancels an order that has not been picked up yet.
func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	order, err := h.DispatchService.Cancel(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ValidateTransfer stores the customer's transfer proof and unblocks finalize.
func (h *Handler) ValidateTransfer(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	dispatcherID, ok := getDispatcherID(c)
	if !ok {
		return
	}
	receipt, err := c.FormFile("receipt")
	if err != nil {
		respondError(c, response.CodeBadRequest, "receipt file required", err)
		return
	}
	order, err := h.DispatchService.ValidateTransferReceipt(orderID, dispatcherID, receipt)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ListTransferLogs returns the validation audit trail for one order.
func (h *Handler) ListTransferLogs(c *gin.Context) {
	orderID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}
	logs, err := h.OrderService.ListTransferLogs(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, logs)
}

func parsePathUint(c *gin.Context, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(key))
	if raw == "" {
		return 0, false
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}

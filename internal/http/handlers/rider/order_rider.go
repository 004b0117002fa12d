package rider

import (
	"strconv"
	"strings"

	"github.com/somar/dispatch/internal/constants"
	handlershared "github.com/somar/dispatch/internal/http/handlers/shared"
	"github.com/somar/dispatch/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AvailableOrders lists unassigned orders offered to every rider.
func (h *Handler) AvailableOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListAssignable(page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// ActiveOrders lists the orders the rider is currently working.
func (h *Handler) ActiveOrders(c *gin.Context) {
	riderID, ok := getRiderID(c)
	if !ok {
		return
	}
	orders, err := h.OrderService.ListActiveForRider(riderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, orders)
}

// AcceptOrder claims an unassigned order for the rider.
func (h *Handler) AcceptOrder(c *gin.Context) {
	orderID, riderID, ok := orderAndRider(c)
	if !ok {
		return
	}
	order, err := h.OrderService.Assign(orderID, riderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// AtMerchant marks arrival at the merchant.
func (h *Handler) AtMerchant(c *gin.Context) {
	orderID, riderID, ok := orderAndRider(c)
	if !ok {
		return
	}
	order, err := h.OrderService.ReachMerchant(orderID, riderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// Pickup confirms the goods are in hand. Purchase orders require the spent
// total and the receipt photo as multipart fields; pickup orders take no body.
func (h *Handler) Pickup(c *gin.Context) {
	orderID, riderID, ok := orderAndRider(c)
	if !ok {
		return
	}

	order, err := h.OrderService.Get(orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if order.Type == constants.OrderTypePurchase {
		total, parseErr := decimal.NewFromString(strings.TrimSpace(c.PostForm("purchase_total")))
		if parseErr != nil {
			respondError(c, response.CodeBadRequest, "purchase_total must be a decimal number", parseErr)
			return
		}
		receipt, fileErr := c.FormFile("receipt")
		if fileErr != nil {
			receipt = nil
		}
		updated, err := h.OrderService.ConfirmPurchase(orderID, riderID, total, receipt)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		response.Success(c, updated)
		return
	}

	updated, err := h.OrderService.ConfirmPickup(orderID, riderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, updated)
}

// Depart marks the rider en route to the customer.
func (h *Handler) Depart(c *gin.Context) {
	orderID, riderID, ok := orderAndRider(c)
	if !ok {
		return
	}
	order, err := h.OrderService.Depart(orderID, riderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// Arrive marks arrival at the customer address.
func (h *Handler) Arrive(c *gin.Context) {
	orderID, riderID, ok := orderAndRider(c)
	if !ok {
		return
	}
	order, err := h.OrderService.ReachCustomer(orderID, riderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// Deliver finalizes the order. Cash orders credit the rider's custody balance
// in the same transaction.
func (h *Handler) Deliver(c *gin.Context) {
	orderID, riderID, ok := orderAndRider(c)
	if !ok {
		return
	}
	order, err := h.OrderService.Finalize(orderID, riderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("order_delivered",
		"order_id", order.ID,
		"rider_id", riderID,
		"payment_method", order.PaymentMethod,
	)
	response.Success(c, order)
}

func orderAndRider(c *gin.Context) (uint, uint, bool) {
	riderID, ok := getRiderID(c)
	if !ok {
		return 0, 0, false
	}
	raw := strings.TrimSpace(c.Param("id"))
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return 0, 0, false
	}
	return uint(parsed), riderID, true
}

package service

import (
	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/repository"
)

// activeRiderStatuses are the states a rider is still working an order in.
var activeRiderStatuses = []string{
	constants.OrderStatusAssigned,
	constants.OrderStatusAtMerchant,
	constants.OrderStatusPickedUp,
	constants.OrderStatusEnRoute,
	constants.OrderStatusArrived,
}

// CoarseStatus collapses the canonical lifecycle state into the dashboard
// projection. Read-side only; the fine-grained state stays canonical.
func CoarseStatus(status string) string {
	switch status {
	case constants.OrderStatusUnassigned:
		return constants.DashboardStatusPending
	case constants.OrderStatusAssigned, constants.OrderStatusAtMerchant, constants.OrderStatusPickedUp:
		return constants.DashboardStatusAssigned
	case constants.OrderStatusEnRoute, constants.OrderStatusArrived:
		return constants.DashboardStatusEnRoute
	case constants.OrderStatusDelivered:
		return constants.DashboardStatusDelivered
	case constants.OrderStatusCanceled:
		return constants.DashboardStatusCanceled
	default:
		return status
	}
}

// coarseStatusGroups maps each dashboard filter value back to the canonical
// states it covers.
var coarseStatusGroups = map[string][]string{
	constants.DashboardStatusPending: {constants.OrderStatusUnassigned},
	constants.DashboardStatusAssigned: {
		constants.OrderStatusAssigned,
		constants.OrderStatusAtMerchant,
		constants.OrderStatusPickedUp,
	},
	constants.DashboardStatusEnRoute: {
		constants.OrderStatusEnRoute,
		constants.OrderStatusArrived,
	},
	constants.DashboardStatusDelivered: {constants.OrderStatusDelivered},
	constants.DashboardStatusCanceled:  {constants.OrderStatusCanceled},
}

// Get fetches one order.
func (s *OrderService) Get(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListAssignable returns unassigned orders offered to riders.
func (s *OrderService) ListAssignable(page, pageSize int) ([]models.Order, int64, error) {
	return s.orderRepo.List(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   constants.OrderStatusUnassigned,
	})
}

// ListActiveForRider returns the orders a rider is currently working.
func (s *OrderService) ListActiveForRider(riderID uint) ([]models.Order, error) {
	orders, _, err := s.orderRepo.List(repository.OrderListFilter{
		RiderID:  riderID,
		Statuses: activeRiderStatuses,
	})
	return orders, err
}

// DashboardListInput filters the dispatch dashboard order list.
type DashboardListInput struct {
	Page         int
	PageSize     int
	CoarseStatus string
	Keyword      string
	RiderID      uint
}

// OrderView is an order decorated with its coarse dashboard status.
type OrderView struct {
	models.Order
	DashboardStatus string `json:"dashboard_status"`
}

// ListDashboard returns orders for the dispatch dashboard, filterable by the
// coarse projection.
func (s *OrderService) ListDashboard(input DashboardListInput) ([]OrderView, int64, error) {
	filter := repository.OrderListFilter{
		Page:     input.Page,
		PageSize: input.PageSize,
		Keyword:  input.Keyword,
		RiderID:  input.RiderID,
	}
	if input.CoarseStatus != "" {
		statuses, ok := coarseStatusGroups[input.CoarseStatus]
		if !ok {
			return nil, 0, NewValidationError(map[string]string{"status": "unknown dashboard status"})
		}
		filter.Statuses = statuses
	}

	orders, total, err := s.orderRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, OrderView{
			Order:           order,
			DashboardStatus: CoarseStatus(order.Status),
		})
	}
	return views, total, nil
}

// ListTransferLogs lists validation audit rows for one order.
func (s *OrderService) ListTransferLogs(orderID uint) ([]models.TransferLog, error) {
	return s.orderRepo.ListTransferLogs(orderID)
}

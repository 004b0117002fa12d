package service

import (
	"mime/multipart"
	"time"

	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/logger"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RealtimeNotifier pushes order events to subscribed clients. Best-effort:
// implementations must never block or return errors into a transition.
type RealtimeNotifier interface {
	PublishOrderCreated(order *models.Order)
	PublishOrderUpdated(orderID uint, status string)
}

// allowedTransitions is the canonical lifecycle graph. Terminal states have
// no outgoing edges.
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusUnassigned: {
		constants.OrderStatusAssigned: true,
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusAssigned: {
		constants.OrderStatusAtMerchant: true,
		constants.OrderStatusCanceled:   true,
	},
	constants.OrderStatusAtMerchant: {
		constants.OrderStatusPickedUp: true,
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusPickedUp: {
		constants.OrderStatusEnRoute: true,
	},
	constants.OrderStatusEnRoute: {
		constants.OrderStatusArrived: true,
	},
	constants.OrderStatusArrived: {
		constants.OrderStatusDelivered: true,
	},
}

// OrderService executes guarded lifecycle transitions. Every transition is a
// conditional UPDATE on the current status, so a lost race leaves the order
// untouched.
type OrderService struct {
	orderRepo repository.OrderRepository
	riderRepo repository.RiderRepository
	ledger    *LedgerService
	settings  *SettingsService
	uploader  *UploadService
	notifier  RealtimeNotifier
}

// NewOrderService creates the order lifecycle service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	riderRepo repository.RiderRepository,
	ledger *LedgerService,
	settings *SettingsService,
	uploader *UploadService,
	notifier RealtimeNotifier,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		riderRepo: riderRepo,
		ledger:    ledger,
		settings:  settings,
		uploader:  uploader,
		notifier:  notifier,
	}
}

// CanTransition reports whether the lifecycle graph allows from -> to.
func CanTransition(from, to string) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Assign hands an unassigned order to a rider. The rider row is locked for
// the duration so the custody check cannot interleave with a concurrent
// delivery credit, and the status flip is a compare-and-swap: the loser of a
// race gets ErrOrderTaken.
func (s *OrderService) Assign(orderID, riderID uint) (*models.Order, error) {
	cfg, err := s.settings.GlobalConfig()
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		riderRepo := s.riderRepo.WithTx(tx)

		order, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.Status != constants.OrderStatusUnassigned || order.RiderID != nil {
			if order.RiderID != nil {
				return ErrOrderTaken
			}
			return ErrInvalidTransition
		}

		rider, err := riderRepo.GetByIDForUpdate(riderID)
		if err != nil {
			return err
		}
		if rider == nil {
			return ErrRiderNotFound
		}
		if !rider.Active {
			return ErrRiderInactive
		}
		if order.PaymentMethod == constants.PaymentMethodCash &&
			!s.ledger.IsEligibleForCashOrder(rider, cfg.CashCustodyLimit) {
			return ErrCustodyLimitReached
		}

		now := time.Now()
		rows, err := orderRepo.UpdateStatusFrom(orderID, constants.OrderStatusUnassigned, constants.OrderStatusAssigned, map[string]interface{}{
			"rider_id":    riderID,
			"assigned_at": now,
			"updated_at":  now,
		})
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if rows == 0 {
			return ErrOrderTaken
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.notifyUpdated(orderID, constants.OrderStatusAssigned)
	return s.orderRepo.GetByID(orderID)
}

// ReachMerchant marks the rider arrived at the merchant.
func (s *OrderService) ReachMerchant(orderID, riderID uint) (*models.Order, error) {
	order, err := s.ownedOrder(orderID, riderID)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusAssigned {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	rows, err := s.orderRepo.UpdateStatusFrom(orderID, constants.OrderStatusAssigned, constants.OrderStatusAtMerchant, map[string]interface{}{
		"at_merchant_at": now,
		"updated_at":     now,
	})
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	s.notifyUpdated(orderID, constants.OrderStatusAtMerchant)
	return s.orderRepo.GetByID(orderID)
}

// ConfirmPurchase records the merchant purchase on a purchase-type order:
// actual total plus a mandatory receipt. The receipt blob is stored before
// the status flip; an upload failure aborts the transition with the order
// unchanged. AmountDue is recomputed because the real total can differ from
// the dispatcher's estimate.
func (s *OrderService) ConfirmPurchase(orderID, riderID uint, total decimal.Decimal, receipt *multipart.FileHeader) (*models.Order, error) {
	order, err := s.ownedOrder(orderID, riderID)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusAtMerchant || order.Type != constants.OrderTypePurchase {
		return nil, ErrInvalidTransition
	}
	if receipt == nil || total.LessThanOrEqual(decimal.Zero) {
		return nil, ErrMissingPurchaseProof
	}

	cfg, err := s.settings.GlobalConfig()
	if err != nil {
		return nil, err
	}

	receiptURL, err := s.uploader.SaveFile(receipt, constants.UploadScenePurchase)
	if err != nil {
		return nil, err
	}

	split := ComputeSplit(order.ShippingFee.Decimal, total, order.Tip.Decimal, order.PaymentMethod, cfg.SplitConfig())

	now := time.Now()
	rows, err := s.orderRepo.UpdateStatusFrom(orderID, constants.OrderStatusAtMerchant, constants.OrderStatusPickedUp, map[string]interface{}{
		"purchase_total":       models.NewMoneyFromDecimal(total),
		"amount_due":           split.AmountDue,
		"rider_earning":        split.RiderEarning,
		"platform_margin":      split.PlatformMargin,
		"purchase_receipt_url": receiptURL,
		"picked_up_at":         now,
		"updated_at":           now,
	})
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	s.notifyUpdated(orderID, constants.OrderStatusPickedUp)
	return s.orderRepo.GetByID(orderID)
}

// ConfirmPickup advances a pickup-type order past the merchant, no proof
// required.
func (s *OrderService) ConfirmPickup(orderID, riderID uint) (*models.Order, error) {
	order, err := s.ownedOrder(orderID, riderID)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusAtMerchant || order.Type != constants.OrderTypePickup {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	rows, err := s.orderRepo.UpdateStatusFrom(orderID, constants.OrderStatusAtMerchant, constants.OrderStatusPickedUp, map[string]interface{}{
		"picked_up_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	s.notifyUpdated(orderID, constants.OrderStatusPickedUp)
	return s.orderRepo.GetByID(orderID)
}

// Depart marks the rider en route to the customer.
func (s *OrderService) Depart(orderID, riderID uint) (*models.Order, error) {
	return s.simpleTransition(orderID, riderID, constants.OrderStatusPickedUp, constants.OrderStatusEnRoute, "en_route_at")
}

// ReachCustomer marks the rider arrived at the customer.
func (s *OrderService) ReachCustomer(orderID, riderID uint) (*models.Order, error) {
	return s.simpleTransition(orderID, riderID, constants.OrderStatusEnRoute, constants.OrderStatusArrived, "arrived_at")
}

// Finalize completes the delivery. Transfer orders require a validated
// receipt first. For cash orders the custody credit commits in the same
// transaction as the status flip: both happen or neither does.
func (s *OrderService) Finalize(orderID, riderID uint) (*models.Order, error) {
	order, err := s.ownedOrder(orderID, riderID)
	if err != nil {
		return nil, err
	}
	if order.Status != constants.OrderStatusArrived {
		return nil, ErrInvalidTransition
	}
	if order.PaymentMethod == constants.PaymentMethodTransfer &&
		order.ReceiptStatus != constants.ReceiptStatusValidated {
		return nil, ErrTransferNotConfirmed
	}

	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)

		now := time.Now()
		rows, err := orderRepo.UpdateStatusFrom(orderID, constants.OrderStatusArrived, constants.OrderStatusDelivered, map[string]interface{}{
			"delivered_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if rows == 0 {
			return ErrInvalidTransition
		}

		if order.PaymentMethod == constants.PaymentMethodCash &&
			order.AmountDue.Decimal.GreaterThan(decimal.Zero) {
			if _, _, err := s.ledger.CreditDeliveryInTx(tx, riderID, orderID, order.AmountDue.Decimal); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.notifyUpdated(orderID, constants.OrderStatusDelivered)
	return s.orderRepo.GetByID(orderID)
}

// Cancel terminates an order that has not been picked up yet and releases
// the rider assignment.
func (s *OrderService) Cancel(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !CanTransition(order.Status, constants.OrderStatusCanceled) {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	rows, err := s.orderRepo.UpdateStatusFrom(orderID, order.Status, constants.OrderStatusCanceled, map[string]interface{}{
		"rider_id":    nil,
		"canceled_at": now,
		"updated_at":  now,
	})
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	s.notifyUpdated(orderID, constants.OrderStatusCanceled)
	return s.orderRepo.GetByID(orderID)
}

// CancelIfUnassigned cancels only when the order is still unassigned.
// Used by the stale-order job; losing the race is not an error.
func (s *OrderService) CancelIfUnassigned(orderID uint) (bool, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return false, ErrOrderFetchFailed
	}
	if order == nil {
		return false, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusUnassigned {
		return false, nil
	}

	now := time.Now()
	rows, err := s.orderRepo.UpdateStatusFrom(orderID, constants.OrderStatusUnassigned, constants.OrderStatusCanceled, map[string]interface{}{
		"canceled_at": now,
		"updated_at":  now,
	})
	if err != nil {
		return false, ErrOrderUpdateFailed
	}
	if rows == 0 {
		return false, nil
	}

	s.notifyUpdated(orderID, constants.OrderStatusCanceled)
	return true, nil
}

func (s *OrderService) simpleTransition(orderID, riderID uint, from, to, stampColumn string) (*models.Order, error) {
	order, err := s.ownedOrder(orderID, riderID)
	if err != nil {
		return nil, err
	}
	if order.Status != from {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	rows, err := s.orderRepo.UpdateStatusFrom(orderID, from, to, map[string]interface{}{
		stampColumn:  now,
		"updated_at": now,
	})
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if rows == 0 {
		return nil, ErrInvalidTransition
	}

	s.notifyUpdated(orderID, to)
	return s.orderRepo.GetByID(orderID)
}

// ownedOrder loads the order and checks it belongs to the acting rider.
func (s *OrderService) ownedOrder(orderID, riderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.RiderID == nil || *order.RiderID != riderID {
		return nil, ErrNotOrderRider
	}
	return order, nil
}

func (s *OrderService) notifyUpdated(orderID uint, status string) {
	if s.notifier == nil {
		return
	}
	s.notifier.PublishOrderUpdated(orderID, status)
	logger.Debugw("order_status_published", "order_id", orderID, "status", status)
}

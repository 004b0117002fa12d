package service

import (
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/logger"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/queue"
	"github.com/somar/dispatch/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderNoSeqWidth = 5

// DispatchService owns order intake and the dispatch-side workflows around
// the lifecycle: creation, transfer receipt validation, cancellation
// forwarding, split previews, and the rider directory.
type DispatchService struct {
	orderRepo              repository.OrderRepository
	riderRepo              repository.RiderRepository
	customerRepo           repository.CustomerRepository
	merchantRepo           repository.MerchantRepository
	orders                 *OrderService
	settings               *SettingsService
	uploader               *UploadService
	notifier               RealtimeNotifier
	queueClient            *queue.Client
	staleUnassignedMinutes int
}

// NewDispatchService creates the dispatch service. staleUnassignedMinutes <= 0
// disables the auto-cancel of orders nobody accepts.
func NewDispatchService(
	orderRepo repository.OrderRepository,
	riderRepo repository.RiderRepository,
	customerRepo repository.CustomerRepository,
	merchantRepo repository.MerchantRepository,
	orders *OrderService,
	settings *SettingsService,
	uploader *UploadService,
	notifier RealtimeNotifier,
	queueClient *queue.Client,
	staleUnassignedMinutes int,
) *DispatchService {
	return &DispatchService{
		orderRepo:              orderRepo,
		riderRepo:              riderRepo,
		customerRepo:           customerRepo,
		merchantRepo:           merchantRepo,
		orders:                 orders,
		settings:               settings,
		uploader:               uploader,
		notifier:               notifier,
		queueClient:            queueClient,
		staleUnassignedMinutes: staleUnassignedMinutes,
	}
}

// CreateOrderInput is the dispatch order intake payload.
type CreateOrderInput struct {
	Type            string          `json:"type"`
	CustomerID      *uint           `json:"customer_id"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	DeliveryAddress string          `json:"delivery_address"`
	MerchantID      *uint           `json:"merchant_id"`
	ShippingFee     decimal.Decimal `json:"shipping_fee"`
	PurchaseTotal   decimal.Decimal `json:"purchase_total"`
	Tip             decimal.Decimal `json:"tip"`
	PaymentMethod   string          `json:"payment_method"`
	RiderID         *uint           `json:"rider_id"`
	Note            string          `json:"note"`
}

// CreateOrder validates the intake, computes the initial split, assigns the
// next sequential order number, and optionally hands the order straight to a
// rider. A direct-assign failure leaves the created order unassigned and
// surfaces the assignment error.
func (s *DispatchService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if err := s.resolveCustomer(&input); err != nil {
		return nil, err
	}
	if err := validateCreateOrder(input); err != nil {
		return nil, err
	}
	if input.MerchantID != nil {
		merchant, err := s.merchantRepo.GetByID(*input.MerchantID)
		if err != nil {
			return nil, err
		}
		if merchant == nil {
			return nil, NewValidationError(map[string]string{"merchant_id": "merchant not found"})
		}
	}

	cfg, err := s.settings.GlobalConfig()
	if err != nil {
		return nil, err
	}
	split := ComputeSplit(input.ShippingFee, input.PurchaseTotal, input.Tip, input.PaymentMethod, cfg.SplitConfig())

	now := time.Now()
	order := &models.Order{
		Type:            input.Type,
		Status:          constants.OrderStatusUnassigned,
		CustomerID:      input.CustomerID,
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
		MerchantID:      input.MerchantID,
		ShippingFee:     models.NewMoneyFromDecimal(clampNonNegative(input.ShippingFee)),
		PurchaseTotal:   models.NewMoneyFromDecimal(clampNonNegative(input.PurchaseTotal)),
		Tip:             models.NewMoneyFromDecimal(clampNonNegative(input.Tip)),
		PaymentMethod:   input.PaymentMethod,
		RiderEarning:    split.RiderEarning,
		PlatformMargin:  split.PlatformMargin,
		AmountDue:       split.AmountDue,
		ReceiptStatus:   constants.ReceiptStatusNone,
		Note:            strings.TrimSpace(input.Note),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.createWithSequentialNo(order); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.PublishOrderCreated(order)
	}
	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"type", order.Type,
		"payment_method", order.PaymentMethod,
	)
	s.scheduleStaleCancel(order)

	if input.RiderID != nil {
		assigned, err := s.orders.Assign(order.ID, *input.RiderID)
		if err != nil {
			return order, err
		}
		return assigned, nil
	}
	return order, nil
}

// createWithSequentialNo inserts the order under the next PED- number,
// retrying on a lost numbering race.
func (s *DispatchService) createWithSequentialNo(order *models.Order) error {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
			repo := s.orderRepo.WithTx(tx)
			seq, err := repo.NextSequence()
			if err != nil {
				return err
			}
			order.OrderNo = fmt.Sprintf("%s%0*d", constants.OrderNoPrefix, orderNoSeqWidth, seq)
			return repo.Create(order)
		})
		if err == nil {
			return nil
		}
		lastErr = err
		order.ID = 0
	}
	return lastErr
}

// scheduleStaleCancel queues a delayed cancellation for orders nobody
// accepts. The worker re-checks the status, so an already assigned order
// makes the job a no-op.
func (s *DispatchService) scheduleStaleCancel(order *models.Order) {
	if s.staleUnassignedMinutes <= 0 || !s.queueClient.Enabled() {
		return
	}
	delay := time.Duration(s.staleUnassignedMinutes) * time.Minute
	err := s.queueClient.EnqueueOrderStaleCancel(queue.OrderStaleCancelPayload{OrderID: order.ID}, delay)
	if err != nil {
		logger.Warnw("stale_cancel_enqueue_failed", "order_id", order.ID, "error", err)
	}
}

// PreviewSplit recomputes the split for a draft order. Pure and repeatable:
// the operator calls this live while editing.
func (s *DispatchService) PreviewSplit(shippingFee, purchaseTotal, tip decimal.Decimal, paymentMethod string) (SplitResult, error) {
	cfg, err := s.settings.GlobalConfig()
	if err != nil {
		return SplitResult{}, err
	}
	return ComputeSplit(shippingFee, purchaseTotal, tip, paymentMethod, cfg.SplitConfig()), nil
}

// Cancel forwards to the state machine; the dispatch side owns no extra
// cancellation rules.
func (s *DispatchService) Cancel(orderID uint) (*models.Order, error) {
	return s.orders.Cancel(orderID)
}

// ValidateTransferReceipt stores the transfer proof and marks the order's
// receipt as validated so finalize can proceed, recording an audit row.
func (s *DispatchService) ValidateTransferReceipt(orderID, dispatcherID uint, receipt *multipart.FileHeader) (*models.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != constants.PaymentMethodTransfer {
		return nil, NewValidationError(map[string]string{"payment_method": "order is not paid by transfer"})
	}
	if order.Status == constants.OrderStatusCanceled || order.Status == constants.OrderStatusDelivered {
		return nil, ErrInvalidTransition
	}
	if receipt == nil {
		return nil, NewValidationError(map[string]string{"receipt": "receipt file required"})
	}

	receiptURL, err := s.uploader.SaveFile(receipt, constants.UploadSceneTransfer)
	if err != nil {
		return nil, err
	}

	transferAmount := order.PurchaseTotal.Decimal.
		Add(order.ShippingFee.Decimal).
		Add(order.Tip.Decimal)

	now := time.Now()
	if err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		if err := repo.Update(orderID, map[string]interface{}{
			"receipt_url":          receiptURL,
			"receipt_status":       constants.ReceiptStatusValidated,
			"receipt_validated_at": now,
			"updated_at":           now,
		}); err != nil {
			return err
		}
		return repo.CreateTransferLog(&models.TransferLog{
			OrderID:      orderID,
			DispatcherID: dispatcherID,
			Amount:       models.NewMoneyFromDecimal(transferAmount),
			ReceiptURL:   receiptURL,
			CreatedAt:    now,
		})
	}); err != nil {
		return nil, err
	}

	logger.Infow("transfer_receipt_validated",
		"order_id", orderID,
		"dispatcher_id", dispatcherID,
		"amount", transferAmount.Round(2).StringFixed(2),
	)
	return s.orders.Get(orderID)
}

// RiderDirectory lists riders with their custody balances for the
// assignment picker.
func (s *DispatchService) RiderDirectory(filter repository.RiderListFilter) ([]models.Rider, int64, error) {
	return s.riderRepo.List(filter)
}

func (s *DispatchService) resolveCustomer(input *CreateOrderInput) error {
	if input.CustomerID == nil {
		return nil
	}
	customer, err := s.customerRepo.GetByID(*input.CustomerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return NewValidationError(map[string]string{"customer_id": "customer not found"})
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		input.CustomerName = customer.Name
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		input.CustomerPhone = customer.Phone
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		input.DeliveryAddress = customer.Address
	}
	return nil
}

func validateCreateOrder(input CreateOrderInput) error {
	fields := map[string]string{}
	switch input.Type {
	case constants.OrderTypePurchase, constants.OrderTypePickup:
	default:
		fields["type"] = "must be purchase or pickup"
	}
	switch input.PaymentMethod {
	case constants.PaymentMethodCash, constants.PaymentMethodTransfer:
	default:
		fields["payment_method"] = "must be cash or transfer"
	}
	if strings.TrimSpace(input.CustomerName) == "" && input.CustomerID == nil {
		fields["customer_name"] = "customer name or customer profile required"
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		fields["delivery_address"] = "delivery address required"
	}
	if input.ShippingFee.LessThanOrEqual(decimal.Zero) {
		fields["shipping_fee"] = "must be positive"
	}
	if len(fields) > 0 {
		return NewValidationError(fields)
	}
	return nil
}

package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"sync/atomic"
	"testing"
	"time"

	"github.com/somar/dispatch/internal/config"
	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var testOrderSeq int64

type orderServiceFixture struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	riderRepo repository.RiderRepository
	ledger    *LedgerService
	settings  *SettingsService
	orders    *OrderService
}

func setupOrderServiceTest(t *testing.T) *orderServiceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Rider{}, &models.Merchant{}, &models.Customer{},
		&models.Order{}, &models.CashMovement{}, &models.TransferLog{}, &models.Setting{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	riderRepo := repository.NewRiderRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	ledger := NewLedgerService(riderRepo)
	settings := NewSettingsService(settingRepo)
	uploader := NewUploadService(&config.Config{})
	orders := NewOrderService(orderRepo, riderRepo, ledger, settings, uploader, nil)

	return &orderServiceFixture{
		db:        db,
		orderRepo: orderRepo,
		riderRepo: riderRepo,
		ledger:    ledger,
		settings:  settings,
		orders:    orders,
	}
}

func createTestRider(t *testing.T, db *gorm.DB, name string, cashOnHand string, active bool) *models.Rider {
	t.Helper()
	rider := &models.Rider{
		AuthUID:      fmt.Sprintf("uid-%s-%d", name, atomic.AddInt64(&testOrderSeq, 1)),
		Name:         name,
		Email:        fmt.Sprintf("%s-%d@example.com", name, atomic.AddInt64(&testOrderSeq, 1)),
		PasswordHash: "x",
		CashOnHand:   models.NewMoneyFromDecimal(decimal.RequireFromString(cashOnHand)),
		Active:       active,
		Verified:     true,
	}
	if err := db.Create(rider).Error; err != nil {
		t.Fatalf("failed to create test rider: %v", err)
	}
	return rider
}

func createTestOrder(t *testing.T, db *gorm.DB, status, orderType, paymentMethod string, riderID *uint) *models.Order {
	t.Helper()
	seq := atomic.AddInt64(&testOrderSeq, 1)
	order := &models.Order{
		OrderNo:         fmt.Sprintf("PED-T%05d", seq),
		Type:            orderType,
		Status:          status,
		CustomerName:    "María López",
		CustomerPhone:   "+57 310 555 0101",
		DeliveryAddress: "Calle 22 #3-15",
		PaymentMethod:   paymentMethod,
		ShippingFee:     models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		PurchaseTotal:   models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
		Tip:             models.NewMoneyFromDecimal(decimal.NewFromInt(20)),
		RiderEarning:    models.NewMoneyFromDecimal(decimal.RequireFromString("86.66")),
		PlatformMargin:  models.NewMoneyFromDecimal(decimal.RequireFromString("33.34")),
		ReceiptStatus:   constants.ReceiptStatusNone,
		RiderID:         riderID,
	}
	if paymentMethod == constants.PaymentMethodCash {
		order.AmountDue = models.NewMoneyFromDecimal(decimal.NewFromInt(620))
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("failed to create test order: %v", err)
	}
	return order
}

func TestCashOrderFullLifecycle(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "andres", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusUnassigned, constants.OrderTypePickup, constants.PaymentMethodCash, nil)

	assigned, err := f.orders.Assign(order.ID, rider.ID)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if assigned.Status != constants.OrderStatusAssigned {
		t.Fatalf("status = %s, want assigned", assigned.Status)
	}
	if assigned.RiderID == nil || *assigned.RiderID != rider.ID {
		t.Fatalf("rider not recorded on order")
	}
	if assigned.AssignedAt == nil {
		t.Fatalf("assigned_at not stamped")
	}

	if _, err := f.orders.ReachMerchant(order.ID, rider.ID); err != nil {
		t.Fatalf("ReachMerchant failed: %v", err)
	}
	if _, err := f.orders.ConfirmPickup(order.ID, rider.ID); err != nil {
		t.Fatalf("ConfirmPickup failed: %v", err)
	}
	if _, err := f.orders.Depart(order.ID, rider.ID); err != nil {
		t.Fatalf("Depart failed: %v", err)
	}
	if _, err := f.orders.ReachCustomer(order.ID, rider.ID); err != nil {
		t.Fatalf("ReachCustomer failed: %v", err)
	}

	delivered, err := f.orders.Finalize(order.ID, rider.ID)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if delivered.Status != constants.OrderStatusDelivered {
		t.Fatalf("status = %s, want delivered", delivered.Status)
	}
	if delivered.DeliveredAt == nil {
		t.Fatalf("delivered_at not stamped")
	}

	reloaded, err := f.riderRepo.GetByID(rider.ID)
	if err != nil {
		t.Fatalf("rider reload failed: %v", err)
	}
	if got := reloaded.CashOnHand.String(); got != "620.00" {
		t.Fatalf("cash on hand = %s, want 620.00", got)
	}
	movement, err := f.riderRepo.GetMovementByReference(DeliveryReference(order.ID))
	if err != nil {
		t.Fatalf("movement lookup failed: %v", err)
	}
	if movement == nil {
		t.Fatalf("delivery credit movement missing")
	}
	if got := movement.BalanceAfter.String(); got != "620.00" {
		t.Fatalf("movement balance after = %s, want 620.00", got)
	}
}

func TestAssignTakenOrder(t *testing.T) {
	f := setupOrderServiceTest(t)
	first := createTestRider(t, f.db, "camila", "0", true)
	second := createTestRider(t, f.db, "julian", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusUnassigned, constants.OrderTypePickup, constants.PaymentMethodCash, nil)

	if _, err := f.orders.Assign(order.ID, first.ID); err != nil {
		t.Fatalf("first Assign failed: %v", err)
	}
	if _, err := f.orders.Assign(order.ID, second.ID); !errors.Is(err, ErrOrderTaken) {
		t.Fatalf("second Assign error = %v, want ErrOrderTaken", err)
	}
}

func TestAssignInactiveRider(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "suspendido", "0", false)
	order := createTestOrder(t, f.db, constants.OrderStatusUnassigned, constants.OrderTypePickup, constants.PaymentMethodCash, nil)

	if _, err := f.orders.Assign(order.ID, rider.ID); !errors.Is(err, ErrRiderInactive) {
		t.Fatalf("Assign error = %v, want ErrRiderInactive", err)
	}
}

func TestAssignCustodyLimit(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "lleno", "300", true)
	cashOrder := createTestOrder(t, f.db, constants.OrderStatusUnassigned, constants.OrderTypePickup, constants.PaymentMethodCash, nil)

	if _, err := f.orders.Assign(cashOrder.ID, rider.ID); !errors.Is(err, ErrCustodyLimitReached) {
		t.Fatalf("cash Assign error = %v, want ErrCustodyLimitReached", err)
	}

	// The limit only gates cash custody; transfer orders stay assignable.
	transferOrder := createTestOrder(t, f.db, constants.OrderStatusUnassigned, constants.OrderTypePickup, constants.PaymentMethodTransfer, nil)
	if _, err := f.orders.Assign(transferOrder.ID, rider.ID); err != nil {
		t.Fatalf("transfer Assign failed: %v", err)
	}
}

func TestTransitionsRejectWrongState(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "andres", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusAssigned, constants.OrderTypePickup, constants.PaymentMethodCash, &rider.ID)

	if _, err := f.orders.Depart(order.ID, rider.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Depart from assigned error = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.orders.Finalize(order.ID, rider.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Finalize from assigned error = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionsRejectForeignRider(t *testing.T) {
	f := setupOrderServiceTest(t)
	owner := createTestRider(t, f.db, "camila", "0", true)
	intruder := createTestRider(t, f.db, "otro", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusAssigned, constants.OrderTypePickup, constants.PaymentMethodCash, &owner.ID)

	if _, err := f.orders.ReachMerchant(order.ID, intruder.ID); !errors.Is(err, ErrNotOrderRider) {
		t.Fatalf("ReachMerchant error = %v, want ErrNotOrderRider", err)
	}
}

func TestConfirmPurchaseRequiresProof(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "andres", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusAtMerchant, constants.OrderTypePurchase, constants.PaymentMethodCash, &rider.ID)

	if _, err := f.orders.ConfirmPurchase(order.ID, rider.ID, decimal.NewFromInt(500), nil); !errors.Is(err, ErrMissingPurchaseProof) {
		t.Fatalf("nil receipt error = %v, want ErrMissingPurchaseProof", err)
	}
	if _, err := f.orders.ConfirmPurchase(order.ID, rider.ID, decimal.Zero, &multipart.FileHeader{Filename: "r.jpg"}); !errors.Is(err, ErrMissingPurchaseProof) {
		t.Fatalf("zero total error = %v, want ErrMissingPurchaseProof", err)
	}
}

func TestConfirmPickupRejectsPurchaseOrder(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "andres", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusAtMerchant, constants.OrderTypePurchase, constants.PaymentMethodCash, &rider.ID)

	if _, err := f.orders.ConfirmPickup(order.ID, rider.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("ConfirmPickup error = %v, want ErrInvalidTransition", err)
	}
}

func TestFinalizeTransferRequiresValidatedReceipt(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "camila", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusArrived, constants.OrderTypePickup, constants.PaymentMethodTransfer, &rider.ID)

	if _, err := f.orders.Finalize(order.ID, rider.ID); !errors.Is(err, ErrTransferNotConfirmed) {
		t.Fatalf("Finalize error = %v, want ErrTransferNotConfirmed", err)
	}

	if err := f.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("receipt_status", constants.ReceiptStatusValidated).Error; err != nil {
		t.Fatalf("failed to validate receipt: %v", err)
	}
	delivered, err := f.orders.Finalize(order.ID, rider.ID)
	if err != nil {
		t.Fatalf("Finalize after validation failed: %v", err)
	}
	if delivered.Status != constants.OrderStatusDelivered {
		t.Fatalf("status = %s, want delivered", delivered.Status)
	}

	// Transfer orders collect no cash, so the guaca stays untouched.
	reloaded, _ := f.riderRepo.GetByID(rider.ID)
	if got := reloaded.CashOnHand.String(); got != "0.00" {
		t.Fatalf("cash on hand = %s, want 0.00", got)
	}
	var movements int64
	f.db.Model(&models.CashMovement{}).Count(&movements)
	if movements != 0 {
		t.Fatalf("movement count = %d, want 0", movements)
	}
}

func TestFinalizeTwiceCreditsOnce(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "andres", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusArrived, constants.OrderTypePickup, constants.PaymentMethodCash, &rider.ID)

	if _, err := f.orders.Finalize(order.ID, rider.ID); err != nil {
		t.Fatalf("first Finalize failed: %v", err)
	}
	if _, err := f.orders.Finalize(order.ID, rider.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second Finalize error = %v, want ErrInvalidTransition", err)
	}

	reloaded, _ := f.riderRepo.GetByID(rider.ID)
	if got := reloaded.CashOnHand.String(); got != "620.00" {
		t.Fatalf("cash on hand = %s, want 620.00", got)
	}
}

func TestCancelReleasesRider(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "camila", "0", true)
	order := createTestOrder(t, f.db, constants.OrderStatusAssigned, constants.OrderTypePickup, constants.PaymentMethodCash, &rider.ID)

	canceled, err := f.orders.Cancel(order.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if canceled.Status != constants.OrderStatusCanceled {
		t.Fatalf("status = %s, want canceled", canceled.Status)
	}
	if canceled.RiderID != nil {
		t.Fatalf("rider_id not released")
	}
	if canceled.CanceledAt == nil {
		t.Fatalf("canceled_at not stamped")
	}
}

func TestCancelRejectedPastPickup(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "andres", "0", true)
	for _, status := range []string{
		constants.OrderStatusPickedUp,
		constants.OrderStatusEnRoute,
		constants.OrderStatusArrived,
		constants.OrderStatusDelivered,
	} {
		order := createTestOrder(t, f.db, status, constants.OrderTypePickup, constants.PaymentMethodCash, &rider.ID)
		if _, err := f.orders.Cancel(order.ID); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Cancel from %s error = %v, want ErrInvalidTransition", status, err)
		}
	}
}

func TestCancelIfUnassigned(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "camila", "0", true)

	stale := createTestOrder(t, f.db, constants.OrderStatusUnassigned, constants.OrderTypePickup, constants.PaymentMethodCash, nil)
	canceled, err := f.orders.CancelIfUnassigned(stale.ID)
	if err != nil {
		t.Fatalf("CancelIfUnassigned failed: %v", err)
	}
	if !canceled {
		t.Fatalf("stale order not canceled")
	}

	taken := createTestOrder(t, f.db, constants.OrderStatusAssigned, constants.OrderTypePickup, constants.PaymentMethodCash, &rider.ID)
	canceled, err = f.orders.CancelIfUnassigned(taken.ID)
	if err != nil {
		t.Fatalf("CancelIfUnassigned on assigned order failed: %v", err)
	}
	if canceled {
		t.Fatalf("assigned order was canceled")
	}
	reloaded, _ := f.orderRepo.GetByID(taken.ID)
	if reloaded.Status != constants.OrderStatusAssigned {
		t.Fatalf("status = %s, want assigned", reloaded.Status)
	}
}

func TestCoarseStatusProjection(t *testing.T) {
	cases := map[string]string{
		constants.OrderStatusUnassigned: constants.DashboardStatusPending,
		constants.OrderStatusAssigned:   constants.DashboardStatusAssigned,
		constants.OrderStatusAtMerchant: constants.DashboardStatusAssigned,
		constants.OrderStatusPickedUp:   constants.DashboardStatusAssigned,
		constants.OrderStatusEnRoute:    constants.DashboardStatusEnRoute,
		constants.OrderStatusArrived:    constants.DashboardStatusEnRoute,
		constants.OrderStatusDelivered:  constants.DashboardStatusDelivered,
		constants.OrderStatusCanceled:   constants.DashboardStatusCanceled,
	}
	for fine, coarse := range cases {
		if got := CoarseStatus(fine); got != coarse {
			t.Fatalf("CoarseStatus(%s) = %s, want %s", fine, got, coarse)
		}
	}
}

func TestListDashboardCoarseFilter(t *testing.T) {
	f := setupOrderServiceTest(t)
	rider := createTestRider(t, f.db, "andres", "0", true)
	createTestOrder(t, f.db, constants.OrderStatusUnassigned, constants.OrderTypePickup, constants.PaymentMethodCash, nil)
	createTestOrder(t, f.db, constants.OrderStatusAtMerchant, constants.OrderTypePickup, constants.PaymentMethodCash, &rider.ID)
	createTestOrder(t, f.db, constants.OrderStatusArrived, constants.OrderTypePickup, constants.PaymentMethodCash, &rider.ID)

	views, total, err := f.orders.ListDashboard(DashboardListInput{CoarseStatus: constants.DashboardStatusEnRoute})
	if err != nil {
		t.Fatalf("ListDashboard failed: %v", err)
	}
	if total != 1 || len(views) != 1 {
		t.Fatalf("total = %d len = %d, want 1", total, len(views))
	}
	if views[0].DashboardStatus != constants.DashboardStatusEnRoute {
		t.Fatalf("dashboard status = %s, want en_route", views[0].DashboardStatus)
	}

	if _, _, err := f.orders.ListDashboard(DashboardListInput{CoarseStatus: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown dashboard status")
	}
}

package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupLedgerServiceTest(t *testing.T) (*LedgerService, repository.RiderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Rider{}, &models.CashMovement{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	models.DB = db

	riderRepo := repository.NewRiderRepository(db)
	return NewLedgerService(riderRepo), riderRepo, db
}

func TestCreditDeliveryRecordsMovement(t *testing.T) {
	ledger, riderRepo, db := setupLedgerServiceTest(t)
	rider := createTestRider(t, db, "andres", "100", true)

	updated, movement, err := ledger.CreditDelivery(rider.ID, 7, decimal.RequireFromString("620"))
	if err != nil {
		t.Fatalf("CreditDelivery failed: %v", err)
	}
	if got := updated.CashOnHand.String(); got != "720.00" {
		t.Fatalf("cash on hand = %s, want 720.00", got)
	}
	if movement.Type != constants.CashMovementTypeDelivery {
		t.Fatalf("movement type = %s, want delivery_credit", movement.Type)
	}
	if got := movement.BalanceBefore.String(); got != "100.00" {
		t.Fatalf("balance before = %s, want 100.00", got)
	}
	if got := movement.BalanceAfter.String(); got != "720.00" {
		t.Fatalf("balance after = %s, want 720.00", got)
	}
	if movement.Reference != DeliveryReference(7) {
		t.Fatalf("reference = %s, want %s", movement.Reference, DeliveryReference(7))
	}

	reloaded, err := riderRepo.GetByID(rider.ID)
	if err != nil {
		t.Fatalf("rider reload failed: %v", err)
	}
	if got := reloaded.CashOnHand.String(); got != "720.00" {
		t.Fatalf("persisted cash on hand = %s, want 720.00", got)
	}
}

func TestCreditDeliveryIdempotentByReference(t *testing.T) {
	ledger, riderRepo, db := setupLedgerServiceTest(t)
	rider := createTestRider(t, db, "camila", "0", true)

	if _, _, err := ledger.CreditDelivery(rider.ID, 9, decimal.NewFromInt(250)); err != nil {
		t.Fatalf("first CreditDelivery failed: %v", err)
	}
	_, movement, err := ledger.CreditDelivery(rider.ID, 9, decimal.NewFromInt(250))
	if err != nil {
		t.Fatalf("repeated CreditDelivery failed: %v", err)
	}
	if got := movement.BalanceAfter.String(); got != "250.00" {
		t.Fatalf("movement balance after = %s, want 250.00", got)
	}

	reloaded, _ := riderRepo.GetByID(rider.ID)
	if got := reloaded.CashOnHand.String(); got != "250.00" {
		t.Fatalf("cash on hand = %s, want 250.00", got)
	}
	var count int64
	db.Model(&models.CashMovement{}).Where("reference = ?", DeliveryReference(9)).Count(&count)
	if count != 1 {
		t.Fatalf("movement count = %d, want 1", count)
	}
}

func TestCreditDeliveryUnknownRider(t *testing.T) {
	ledger, _, _ := setupLedgerServiceTest(t)
	if _, _, err := ledger.CreditDelivery(9999, 1, decimal.NewFromInt(100)); !errors.Is(err, ErrRiderNotFound) {
		t.Fatalf("CreditDelivery error = %v, want ErrRiderNotFound", err)
	}
}

func TestSettleReducesBalance(t *testing.T) {
	ledger, riderRepo, db := setupLedgerServiceTest(t)
	rider := createTestRider(t, db, "julian", "500", true)

	updated, movement, err := ledger.Settle(rider.ID, decimal.NewFromInt(300), "entrega en oficina")
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if got := updated.CashOnHand.String(); got != "200.00" {
		t.Fatalf("cash on hand = %s, want 200.00", got)
	}
	if movement.Type != constants.CashMovementTypeSettlement {
		t.Fatalf("movement type = %s, want settlement", movement.Type)
	}
	if movement.Remark != "entrega en oficina" {
		t.Fatalf("remark = %s", movement.Remark)
	}

	reloaded, _ := riderRepo.GetByID(rider.ID)
	if got := reloaded.CashOnHand.String(); got != "200.00" {
		t.Fatalf("persisted cash on hand = %s, want 200.00", got)
	}
}

func TestSettleCannotExceedHeldCash(t *testing.T) {
	ledger, riderRepo, db := setupLedgerServiceTest(t)
	rider := createTestRider(t, db, "andres", "150", true)

	if _, _, err := ledger.Settle(rider.ID, decimal.NewFromInt(200), ""); !errors.Is(err, ErrSettlementExceedsHeld) {
		t.Fatalf("Settle error = %v, want ErrSettlementExceedsHeld", err)
	}
	reloaded, _ := riderRepo.GetByID(rider.ID)
	if got := reloaded.CashOnHand.String(); got != "150.00" {
		t.Fatalf("cash on hand = %s, want 150.00 unchanged", got)
	}

	// Settling the exact balance drains the guaca to zero.
	if _, _, err := ledger.Settle(rider.ID, decimal.NewFromInt(150), ""); err != nil {
		t.Fatalf("exact Settle failed: %v", err)
	}
	reloaded, _ = riderRepo.GetByID(rider.ID)
	if got := reloaded.CashOnHand.String(); got != "0.00" {
		t.Fatalf("cash on hand = %s, want 0.00", got)
	}
}

func TestSettleRejectsNonPositiveAmount(t *testing.T) {
	ledger, _, db := setupLedgerServiceTest(t)
	rider := createTestRider(t, db, "camila", "100", true)

	var validationErr *ValidationError
	if _, _, err := ledger.Settle(rider.ID, decimal.Zero, ""); !errors.As(err, &validationErr) {
		t.Fatalf("Settle error = %v, want ValidationError", err)
	}
}

func TestIsEligibleForCashOrder(t *testing.T) {
	ledger, _, _ := setupLedgerServiceTest(t)
	limit := decimal.NewFromInt(300)

	under := &models.Rider{CashOnHand: models.NewMoneyFromDecimal(decimal.RequireFromString("299.99"))}
	if !ledger.IsEligibleForCashOrder(under, limit) {
		t.Fatalf("rider under the limit should be eligible")
	}
	at := &models.Rider{CashOnHand: models.NewMoneyFromDecimal(limit)}
	if ledger.IsEligibleForCashOrder(at, limit) {
		t.Fatalf("rider at the limit should not be eligible")
	}
	if ledger.IsEligibleForCashOrder(nil, limit) {
		t.Fatalf("nil rider should not be eligible")
	}
}

func TestBalanceUnknownRider(t *testing.T) {
	ledger, _, _ := setupLedgerServiceTest(t)
	if _, err := ledger.Balance(9999); !errors.Is(err, ErrRiderNotFound) {
		t.Fatalf("Balance error = %v, want ErrRiderNotFound", err)
	}
}

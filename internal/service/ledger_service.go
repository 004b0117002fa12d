package service

import (
	"fmt"
	"time"

	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService owns the rider cash custody balance ("la guaca").
// Rider.CashOnHand is mutated only here; every mutation writes exactly one
// CashMovement row under a unique reference.
type LedgerService struct {
	riderRepo repository.RiderRepository
}

// NewLedgerService creates the ledger service.
func NewLedgerService(riderRepo repository.RiderRepository) *LedgerService {
	return &LedgerService{riderRepo: riderRepo}
}

// DeliveryReference is the idempotency key of the credit for one order.
func DeliveryReference(orderID uint) string {
	return fmt.Sprintf("order:%d:delivery", orderID)
}

// CreditDelivery credits the customer cash collected on a delivered order.
// Safe to retry: a repeated reference returns the recorded movement unchanged.
func (s *LedgerService) CreditDelivery(riderID, orderID uint, amount decimal.Decimal) (*models.Rider, *models.CashMovement, error) {
	var riderResult *models.Rider
	var movementResult *models.CashMovement
	if err := s.riderRepo.Transaction(func(tx *gorm.DB) error {
		rider, movement, err := s.CreditDeliveryInTx(tx, riderID, orderID, amount)
		if err != nil {
			return err
		}
		riderResult = rider
		movementResult = movement
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return riderResult, movementResult, nil
}

// CreditDeliveryInTx performs the credit inside the caller's transaction so a
// status flip and its ledger entry commit together.
func (s *LedgerService) CreditDeliveryInTx(tx *gorm.DB, riderID, orderID uint, amount decimal.Decimal) (*models.Rider, *models.CashMovement, error) {
	repo := s.riderRepo.WithTx(tx)
	reference := DeliveryReference(orderID)

	existing, err := repo.GetMovementByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		rider, err := repo.GetByID(riderID)
		if err != nil {
			return nil, nil, err
		}
		return rider, existing, nil
	}

	rider, err := repo.GetByIDForUpdate(riderID)
	if err != nil {
		return nil, nil, err
	}
	if rider == nil {
		return nil, nil, ErrRiderNotFound
	}

	now := time.Now()
	before := rider.CashOnHand.Decimal.Round(2)
	after := before.Add(amount.Round(2)).Round(2)

	rider.CashOnHand = models.NewMoneyFromDecimal(after)
	rider.UpdatedAt = now
	if err := repo.Update(rider); err != nil {
		return nil, nil, ErrLedgerCreditFailed
	}

	movement := &models.CashMovement{
		RiderID:       riderID,
		OrderID:       &orderID,
		Type:          constants.CashMovementTypeDelivery,
		Amount:        models.NewMoneyFromDecimal(amount),
		BalanceBefore: models.NewMoneyFromDecimal(before),
		BalanceAfter:  models.NewMoneyFromDecimal(after),
		Reference:     reference,
		Remark:        "cash collected on delivery",
		CreatedAt:     now,
	}
	if err := repo.CreateMovement(movement); err != nil {
		return nil, nil, ErrLedgerCreditFailed
	}
	return rider, movement, nil
}

// Settle records a rider handing collected cash back to the platform.
func (s *LedgerService) Settle(riderID uint, amount decimal.Decimal, remark string) (*models.Rider, *models.CashMovement, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, NewValidationError(map[string]string{"amount": "must be positive"})
	}
	var riderResult *models.Rider
	var movementResult *models.CashMovement
	if err := s.riderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.riderRepo.WithTx(tx)
		rider, err := repo.GetByIDForUpdate(riderID)
		if err != nil {
			return err
		}
		if rider == nil {
			return ErrRiderNotFound
		}

		now := time.Now()
		before := rider.CashOnHand.Decimal.Round(2)
		after := before.Sub(amount.Round(2)).Round(2)
		if after.LessThan(decimal.Zero) {
			return ErrSettlementExceedsHeld
		}

		rider.CashOnHand = models.NewMoneyFromDecimal(after)
		rider.UpdatedAt = now
		if err := repo.Update(rider); err != nil {
			return ErrLedgerCreditFailed
		}

		movement := &models.CashMovement{
			RiderID:       riderID,
			Type:          constants.CashMovementTypeSettlement,
			Amount:        models.NewMoneyFromDecimal(amount),
			BalanceBefore: models.NewMoneyFromDecimal(before),
			BalanceAfter:  models.NewMoneyFromDecimal(after),
			Reference:     fmt.Sprintf("settle:%d:%d", riderID, now.UnixNano()),
			Remark:        remark,
			CreatedAt:     now,
		}
		if err := repo.CreateMovement(movement); err != nil {
			return ErrLedgerCreditFailed
		}
		riderResult = rider
		movementResult = movement
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return riderResult, movementResult, nil
}

// Balance returns the rider's current cash on hand.
func (s *LedgerService) Balance(riderID uint) (models.Money, error) {
	rider, err := s.riderRepo.GetByID(riderID)
	if err != nil {
		return models.Money{}, err
	}
	if rider == nil {
		return models.Money{}, ErrRiderNotFound
	}
	return rider.CashOnHand, nil
}

// IsEligibleForCashOrder reports whether the rider may take another cash
// order. Only collected cash counts against the limit; cash pledged on
// undelivered orders does not.
func (s *LedgerService) IsEligibleForCashOrder(rider *models.Rider, limit decimal.Decimal) bool {
	if rider == nil {
		return false
	}
	return rider.CashOnHand.Decimal.LessThan(limit)
}

// ListMovements pages through a rider's ledger history.
func (s *LedgerService) ListMovements(filter repository.CashMovementListFilter) ([]models.CashMovement, int64, error) {
	return s.riderRepo.ListMovements(filter)
}

package service

import (
	"testing"

	"github.com/somar/dispatch/internal/constants"

	"github.com/shopspring/decimal"
)

func defaultSplitConfig() SplitConfig {
	return SplitConfig{
		RiderSharePercent:    decimal.RequireFromString("66.66"),
		PlatformSharePercent: decimal.RequireFromString("33.34"),
	}
}

func TestComputeSplitCashOrder(t *testing.T) {
	result := ComputeSplit(
		decimal.NewFromInt(100),
		decimal.NewFromInt(500),
		decimal.NewFromInt(20),
		constants.PaymentMethodCash,
		defaultSplitConfig(),
	)

	if got := result.RiderEarning.String(); got != "86.66" {
		t.Fatalf("rider earning = %s, want 86.66", got)
	}
	if got := result.PlatformMargin.String(); got != "33.34" {
		t.Fatalf("platform margin = %s, want 33.34", got)
	}
	if got := result.AmountDue.String(); got != "620.00" {
		t.Fatalf("amount due = %s, want 620.00", got)
	}
}

func TestComputeSplitTransferOrderHasNoAmountDue(t *testing.T) {
	result := ComputeSplit(
		decimal.NewFromInt(100),
		decimal.NewFromInt(500),
		decimal.NewFromInt(20),
		constants.PaymentMethodTransfer,
		defaultSplitConfig(),
	)

	if got := result.AmountDue.String(); got != "0.00" {
		t.Fatalf("amount due = %s, want 0.00", got)
	}
	if got := result.RiderEarning.String(); got != "86.66" {
		t.Fatalf("rider earning = %s, want 86.66", got)
	}
}

func TestComputeSplitClampsNegativeInputs(t *testing.T) {
	result := ComputeSplit(
		decimal.NewFromInt(-50),
		decimal.NewFromInt(-10),
		decimal.NewFromInt(-5),
		constants.PaymentMethodCash,
		defaultSplitConfig(),
	)

	if got := result.RiderEarning.String(); got != "0.00" {
		t.Fatalf("rider earning = %s, want 0.00", got)
	}
	if got := result.PlatformMargin.String(); got != "0.00" {
		t.Fatalf("platform margin = %s, want 0.00", got)
	}
	if got := result.AmountDue.String(); got != "0.00" {
		t.Fatalf("amount due = %s, want 0.00", got)
	}
}

func TestComputeSplitIsIdempotent(t *testing.T) {
	cfg := defaultSplitConfig()
	first := ComputeSplit(decimal.NewFromInt(300), decimal.NewFromInt(1250), decimal.NewFromInt(0), constants.PaymentMethodCash, cfg)
	second := ComputeSplit(decimal.NewFromInt(300), decimal.NewFromInt(1250), decimal.NewFromInt(0), constants.PaymentMethodCash, cfg)

	if first.RiderEarning.String() != second.RiderEarning.String() ||
		first.PlatformMargin.String() != second.PlatformMargin.String() ||
		first.AmountDue.String() != second.AmountDue.String() {
		t.Fatalf("repeat computation differs: %+v vs %+v", first, second)
	}
}

func TestComputeSplitPickupOrderWithoutPurchase(t *testing.T) {
	result := ComputeSplit(
		decimal.NewFromInt(250),
		decimal.Zero,
		decimal.NewFromInt(50),
		constants.PaymentMethodCash,
		defaultSplitConfig(),
	)

	// 250 * 66.66% + 50 = 216.65
	if got := result.RiderEarning.String(); got != "216.65" {
		t.Fatalf("rider earning = %s, want 216.65", got)
	}
	if got := result.AmountDue.String(); got != "300.00" {
		t.Fatalf("amount due = %s, want 300.00", got)
	}
}

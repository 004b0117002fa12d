package service

import (
	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/models"

	"github.com/shopspring/decimal"
)

// SplitConfig carries the revenue split percentages.
type SplitConfig struct {
	RiderSharePercent    decimal.Decimal
	PlatformSharePercent decimal.Decimal
}

// SplitResult is the computed settlement of one order.
type SplitResult struct {
	RiderEarning   models.Money `json:"rider_earning"`
	PlatformMargin models.Money `json:"platform_margin"`
	AmountDue      models.Money `json:"amount_due"`
}

var oneHundred = decimal.NewFromInt(100)

// ComputeSplit derives the rider earning, platform margin and cash due for an
// order. Pure: no I/O, no clock. Negative inputs are treated as zero and
// rounding happens only at the Money boundary.
func ComputeSplit(shippingFee, purchaseTotal, tip decimal.Decimal, paymentMethod string, cfg SplitConfig) SplitResult {
	shippingFee = clampNonNegative(shippingFee)
	purchaseTotal = clampNonNegative(purchaseTotal)
	tip = clampNonNegative(tip)

	riderEarning := shippingFee.Mul(cfg.RiderSharePercent).Div(oneHundred).Add(tip)
	platformMargin := shippingFee.Mul(cfg.PlatformSharePercent).Div(oneHundred)

	amountDue := decimal.Zero
	if paymentMethod == constants.PaymentMethodCash {
		amountDue = purchaseTotal.Add(shippingFee).Add(tip)
	}

	return SplitResult{
		RiderEarning:   models.NewMoneyFromDecimal(riderEarning),
		PlatformMargin: models.NewMoneyFromDecimal(platformMargin),
		AmountDue:      models.NewMoneyFromDecimal(amountDue),
	}
}

func clampNonNegative(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return v
}

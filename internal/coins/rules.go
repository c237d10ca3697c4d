// Package coins implements the loyalty-coin arithmetic: how many coins an
// order earns and what discount a coin redemption buys. It is pure; balance
// persistence and ledger writes stay with the callers.
package coins

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientCoins = errors.New("insufficient coin balance")
	ErrInvalidInput      = errors.New("invalid redemption input")
)

// EarningRule awards Coins once an order's paid total reaches Threshold.
type EarningRule struct {
	Threshold float64 `json:"threshold"`
	Coins     int     `json:"coins"`
}

// RedemptionRule grants DiscountPercent off per Coins redeemed.
type RedemptionRule struct {
	Coins           int     `json:"coins"`
	DiscountPercent float64 `json:"discount_percent"`
}

// Defaults used when no rule rows have been configured.
var (
	DefaultEarningRule    = EarningRule{Threshold: 5000, Coins: 10}
	DefaultRedemptionRule = RedemptionRule{Coins: 50, DiscountPercent: 5}
)

// Redemption describes what a coin redemption buys. CoinsRemaining is the
// leftover that bought no discount unit; it is informational only and is
// still debited with the rest.
type Redemption struct {
	DiscountAmount  float64 `json:"discount_amount"`
	DiscountPercent float64 `json:"discount_percent"`
	CoinsRemaining  int     `json:"coins_remaining"`
}

// CalculateRedemption computes the discount for redeeming coinsToRedeem
// against a subtotal. Whole units of rule.Coins each grant
// rule.DiscountPercent off; the amount is rounded to two decimals.
func CalculateRedemption(coinsToRedeem, balance int, subtotal float64, rule RedemptionRule) (*Redemption, error) {
	if coinsToRedeem <= 0 || subtotal <= 0 || rule.Coins <= 0 {
		return nil, ErrInvalidInput
	}
	if balance < coinsToRedeem {
		return nil, ErrInsufficientCoins
	}

	units := coinsToRedeem / rule.Coins
	discountPercent := rule.DiscountPercent * float64(units)

	amount := decimal.NewFromFloat(subtotal).
		Mul(decimal.NewFromFloat(rule.DiscountPercent)).
		Mul(decimal.NewFromInt(int64(units))).
		Div(decimal.NewFromInt(100)).
		Round(2)

	return &Redemption{
		DiscountAmount:  amount.InexactFloat64(),
		DiscountPercent: discountPercent,
		CoinsRemaining:  coinsToRedeem % rule.Coins,
	}, nil
}

// EarnedForOrder returns the coins a paid order credits, zero when the
// total is under the earning threshold.
func EarnedForOrder(orderTotal float64, rule EarningRule) int {
	if orderTotal >= rule.Threshold {
		return rule.Coins
	}
	return 0
}

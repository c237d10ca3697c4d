package promo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/urbankart/urbankart-api/internal/models"
)

// DiscountSummary is the public projection of a store-wide promotion.
type DiscountSummary struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Instruction string    `json:"instruction,omitempty"`
	Type        string    `json:"type"`
	Value       float64   `json:"value"`
	MaxDiscount *float64  `json:"max_discount,omitempty"`
	MinOrder    float64   `json:"min_order"`
	EndDate     time.Time `json:"end_date"`
}

// DiscountResult is the outcome of validating a discount against an order.
type DiscountResult struct {
	Code               string   `json:"code"`
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	Value              float64  `json:"value"`
	MaxDiscount        *float64 `json:"max_discount,omitempty"`
	CalculatedDiscount float64  `json:"calculated_discount"`
}

// FilterAvailableDiscounts returns the discounts currently usable. There is
// no per-user ledger for discounts; only the global counter and the date
// window (date-only comparison) apply.
func FilterAvailableDiscounts(discounts []models.Discount, ctx OrderContext, now time.Time) []DiscountSummary {
	available := lo.Filter(discounts, func(d models.Discount, _ int) bool {
		return DiscountAvailability(&d, ctx, now) == nil
	})

	return lo.Map(available, func(d models.Discount, _ int) DiscountSummary {
		return DiscountSummary{
			ID:          d.ID,
			Code:        d.Code,
			Name:        d.Name,
			Instruction: d.Instruction,
			Type:        d.Type,
			Value:       d.Value,
			MaxDiscount: d.MaxDiscount,
			MinOrder:    d.MinOrder,
			EndDate:     d.EndDate,
		}
	})
}

// DiscountAvailability reports why a discount is excluded from the
// available list, or nil when it qualifies. Dates are compared at day
// granularity here; ValidateDiscount keeps the full timestamps.
func DiscountAvailability(d *models.Discount, ctx OrderContext, now time.Time) error {
	if d.Status != "active" {
		return fmt.Errorf("discount %s: %w", d.Code, ErrNotFound)
	}

	today := dateOnly(now)
	if today.Before(dateOnly(d.StartDate)) {
		return fmt.Errorf("discount %s: %w", d.Code, ErrNotStarted)
	}
	if today.After(dateOnly(d.EndDate)) {
		return fmt.Errorf("discount %s: %w", d.Code, ErrExpired)
	}

	if d.UsageLimit != nil && d.Used >= *d.UsageLimit {
		return fmt.Errorf("discount %s: %w", d.Code, ErrLimitReached)
	}

	if ctx.OrderTotal != nil && d.MinOrder > 0 && *ctx.OrderTotal < d.MinOrder {
		return fmt.Errorf("discount %s: %w", d.Code, ErrBelowMinimum)
	}

	return nil
}

// ValidateDiscountContext carries the order state for discount validation.
// CartItems are needed for instruction-based (custom) discounts.
type ValidateDiscountContext struct {
	OrderTotal float64
	CartItems  []CartItem
}

// ValidateDiscount checks one discount against an order and computes the
// amount it yields. The date window uses full timestamps, unlike the
// filter. Fixed discounts are clamped to the order total; custom discounts
// delegate to the instruction parser.
func ValidateDiscount(discount *models.Discount, ctx ValidateDiscountContext, now time.Time) (*DiscountResult, error) {
	if discount == nil {
		return nil, ErrNotFound
	}

	if now.Before(discount.StartDate) || now.After(discount.EndDate) {
		return nil, fmt.Errorf("discount %s is not valid at this time: %w", discount.Code, ErrExpired)
	}

	if discount.UsageLimit != nil && discount.Used >= *discount.UsageLimit {
		return nil, fmt.Errorf("discount usage limit reached: %w", ErrLimitReached)
	}

	if ctx.OrderTotal < discount.MinOrder {
		return nil, fmt.Errorf("minimum order of %.2f required: %w", discount.MinOrder, ErrBelowMinimum)
	}

	result := &DiscountResult{
		Code:        discount.Code,
		Name:        discount.Name,
		Type:        discount.Type,
		Value:       discount.Value,
		MaxDiscount: discount.MaxDiscount,
	}

	switch discount.Type {
	case models.DiscountTypePercentage:
		calculated := ctx.OrderTotal * discount.Value / 100
		if discount.MaxDiscount != nil && calculated > *discount.MaxDiscount {
			calculated = *discount.MaxDiscount
		}
		result.CalculatedDiscount = calculated
	case models.DiscountTypeFixed:
		calculated := discount.Value
		if calculated > ctx.OrderTotal {
			calculated = ctx.OrderTotal
		}
		result.CalculatedDiscount = calculated
	case models.DiscountTypeCustom:
		result.CalculatedDiscount = ParseInstruction(discount.Instruction, ctx.CartItems, ctx.OrderTotal)
	}

	return result, nil
}

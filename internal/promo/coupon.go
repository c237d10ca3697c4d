package promo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/urbankart/urbankart-api/internal/models"
)

// OrderContext carries the caller's state into the eligibility filters.
// UserID is nil for guests; OrderTotal is nil when no cart total is known
// yet, in which case minimum-purchase checks are skipped.
type OrderContext struct {
	UserID     *uuid.UUID
	OrderTotal *float64
}

// CouponUsageStats is the per-user slice of the coupon_usages ledger,
// pre-aggregated by the caller.
type CouponUsageStats struct {
	// UsedCouponIDs holds coupons with at least one usage row for the user.
	UsedCouponIDs map[uuid.UUID]bool
	// UsageCounts holds the per-user usage row count per coupon.
	UsageCounts map[uuid.UUID]int
}

// CouponSummary is the public projection of a coupon. Internal counters
// (Used, UsageLimit) are deliberately excluded.
type CouponSummary struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Type        string    `json:"type"`
	Discount    float64   `json:"discount"`
	MaxDiscount *float64  `json:"max_discount,omitempty"`
	Description string    `json:"description,omitempty"`
	MinPurchase float64   `json:"min_purchase"`
	ValidUntil  time.Time `json:"valid_until"`
}

// CouponResult is the outcome of validating a single coupon against an
// order. CalculatedDiscount is the amount the coupon takes off this order;
// for free_shipping coupons it is zero and FreeShipping is set instead.
type CouponResult struct {
	Code               string   `json:"code"`
	Type               string   `json:"type"`
	Discount           float64  `json:"discount"`
	MaxDiscount        *float64 `json:"max_discount,omitempty"`
	CalculatedDiscount float64  `json:"calculated_discount"`
	FreeShipping       bool     `json:"free_shipping"`
}

// dateOnly strips the time-of-day. The eligibility filters compare calendar
// dates while the validators compare full timestamps; both behaviors are
// kept as observed and pinned by tests.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FilterAvailableCoupons returns the subset of coupons the caller can use
// right now, projected for public consumption. Rejection rules follow the
// order: status, date window (date-only), single-use per user, per-user cap,
// global cap, minimum purchase.
func FilterAvailableCoupons(coupons []models.Coupon, ctx OrderContext, usage CouponUsageStats, now time.Time) []CouponSummary {
	available := lo.Filter(coupons, func(c models.Coupon, _ int) bool {
		return CouponAvailability(&c, ctx, usage, now) == nil
	})

	return lo.Map(available, func(c models.Coupon, _ int) CouponSummary {
		return CouponSummary{
			ID:          c.ID,
			Code:        c.Code,
			Type:        c.Type,
			Discount:    c.Discount,
			MaxDiscount: c.MaxDiscount,
			Description: c.Description,
			MinPurchase: c.MinPurchase,
			ValidUntil:  c.ValidUntil,
		}
	})
}

// CouponAvailability reports why a coupon is excluded from the available
// list, or nil when it qualifies. The date window is compared at day
// granularity, unlike ValidateCoupon, which keeps the full timestamps.
func CouponAvailability(c *models.Coupon, ctx OrderContext, usage CouponUsageStats, now time.Time) error {
	if c.Status != "active" {
		return fmt.Errorf("coupon %s: %w", c.Code, ErrNotFound)
	}

	today := dateOnly(now)
	if today.Before(dateOnly(c.ValidFrom)) {
		return fmt.Errorf("coupon %s: %w", c.Code, ErrNotStarted)
	}
	if today.After(dateOnly(c.ValidUntil)) {
		return fmt.Errorf("coupon %s: %w", c.Code, ErrExpired)
	}

	if ctx.UserID != nil {
		if c.UserUsageLimit == models.UserUsageOnce && usage.UsedCouponIDs[c.ID] {
			return fmt.Errorf("coupon %s: %w", c.Code, ErrLimitReached)
		}
		if c.UsageLimit != nil && usage.UsageCounts[c.ID] >= *c.UsageLimit {
			return fmt.Errorf("coupon %s: %w", c.Code, ErrLimitReached)
		}
	}

	if c.UsageLimit != nil && c.Used >= *c.UsageLimit {
		return fmt.Errorf("coupon %s: %w", c.Code, ErrLimitReached)
	}

	if ctx.OrderTotal != nil && c.MinPurchase > 0 && *ctx.OrderTotal < c.MinPurchase {
		return fmt.Errorf("coupon %s: %w", c.Code, ErrBelowMinimum)
	}

	return nil
}

// ValidateCouponContext carries the order state for a single-coupon
// validation. UserUsageCount is the number of usage-ledger rows for this
// user and coupon; it is ignored for guests.
type ValidateCouponContext struct {
	OrderTotal     float64
	UserID         *uuid.UUID
	UserUsageCount int
}

// ValidateCoupon checks one coupon against an order and computes the
// discount it yields. Unlike the filter, the date window is compared with
// full timestamps, and a not-yet-started coupon reports as expired.
func ValidateCoupon(coupon *models.Coupon, ctx ValidateCouponContext, now time.Time) (*CouponResult, error) {
	if coupon == nil {
		return nil, ErrNotFound
	}

	if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
		return nil, fmt.Errorf("coupon %s is not valid at this time: %w", coupon.Code, ErrExpired)
	}

	if ctx.UserID != nil && coupon.UsageLimit != nil && ctx.UserUsageCount >= *coupon.UsageLimit {
		return nil, fmt.Errorf("coupon can only be used %d time(s) per user: %w", *coupon.UsageLimit, ErrLimitReached)
	}

	if ctx.OrderTotal < coupon.MinPurchase {
		return nil, fmt.Errorf("minimum purchase of %.2f required: %w", coupon.MinPurchase, ErrBelowMinimum)
	}

	result := &CouponResult{
		Code:        coupon.Code,
		Type:        coupon.Type,
		Discount:    coupon.Discount,
		MaxDiscount: coupon.MaxDiscount,
	}

	switch coupon.Type {
	case models.CouponTypePercentage:
		calculated := ctx.OrderTotal * coupon.Discount / 100
		if coupon.MaxDiscount != nil && calculated > *coupon.MaxDiscount {
			calculated = *coupon.MaxDiscount
		}
		result.CalculatedDiscount = calculated
	case models.CouponTypeFixed:
		// The fixed amount is intentionally not clamped to the order
		// total here; the discount validator clamps, this one does not.
		result.CalculatedDiscount = coupon.Discount
	case models.CouponTypeFreeShipping:
		result.FreeShipping = true
	}

	return result, nil
}

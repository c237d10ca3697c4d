package promo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbankart/urbankart-api/internal/models"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func baseCoupon() models.Coupon {
	return models.Coupon{
		ID:             uuid.New(),
		Code:           "WELCOME10",
		Type:           models.CouponTypePercentage,
		Discount:       10,
		ValidFrom:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:     time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		UserUsageLimit: models.UserUsageOnce,
		Status:         "active",
	}
}

func TestFilterAvailableCoupons(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	tests := []struct {
		name   string
		mutate func(*models.Coupon)
		ctx    OrderContext
		usage  CouponUsageStats
		want   int
	}{
		{
			name: "active coupon in window is available",
			want: 1,
		},
		{
			name:   "inactive coupon is excluded",
			mutate: func(c *models.Coupon) { c.Status = "inactive" },
			want:   0,
		},
		{
			name:   "not yet started coupon is excluded",
			mutate: func(c *models.Coupon) { c.ValidFrom = now.AddDate(0, 0, 1) },
			want:   0,
		},
		{
			name:   "expired coupon is excluded",
			mutate: func(c *models.Coupon) { c.ValidUntil = now.AddDate(0, 0, -1) },
			want:   0,
		},
		{
			name: "valid-until later today still counts as available",
			// Date-only comparison: a window that closed at 00:00 today
			// is still open for the whole day.
			mutate: func(c *models.Coupon) { c.ValidUntil = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) },
			want:   1,
		},
		{
			name: "single-use coupon already used by user is excluded",
			ctx:  OrderContext{UserID: &userID},
			usage: CouponUsageStats{
				UsedCouponIDs: map[uuid.UUID]bool{},
			},
			mutate: func(c *models.Coupon) { c.UserUsageLimit = models.UserUsageOnce },
			want:   1, // no usage recorded yet
		},
		{
			name:   "global usage cap reached is excluded",
			mutate: func(c *models.Coupon) { c.UsageLimit = ptrInt(100); c.Used = 100 },
			want:   0,
		},
		{
			name:   "order total below minimum purchase is excluded",
			mutate: func(c *models.Coupon) { c.MinPurchase = 500 },
			ctx:    OrderContext{OrderTotal: ptrFloat(300)},
			want:   0,
		},
		{
			name:   "no order total skips minimum purchase check",
			mutate: func(c *models.Coupon) { c.MinPurchase = 500 },
			want:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCoupon()
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			got := FilterAvailableCoupons([]models.Coupon{c}, tt.ctx, tt.usage, now)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestFilterAvailableCoupons_SingleUsePerUser(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	c := baseCoupon()

	usage := CouponUsageStats{
		UsedCouponIDs: map[uuid.UUID]bool{c.ID: true},
		UsageCounts:   map[uuid.UUID]int{c.ID: 1},
	}

	got := FilterAvailableCoupons([]models.Coupon{c}, OrderContext{UserID: &userID}, usage, now)
	assert.Empty(t, got, "user with a usage row must be rejected regardless of global count")

	// Guests are unaffected by the per-user ledger.
	got = FilterAvailableCoupons([]models.Coupon{c}, OrderContext{}, usage, now)
	assert.Len(t, got, 1)
}

func TestFilterAvailableCoupons_PerUserCap(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	c := baseCoupon()
	c.UserUsageLimit = models.UserUsageMultiple
	c.UsageLimit = ptrInt(3)

	usage := CouponUsageStats{UsageCounts: map[uuid.UUID]int{c.ID: 3}}
	got := FilterAvailableCoupons([]models.Coupon{c}, OrderContext{UserID: &userID}, usage, now)
	assert.Empty(t, got)

	usage.UsageCounts[c.ID] = 2
	got = FilterAvailableCoupons([]models.Coupon{c}, OrderContext{UserID: &userID}, usage, now)
	assert.Len(t, got, 1)
}

func TestFilterAvailableCoupons_ProjectionExcludesCounters(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c := baseCoupon()
	c.MaxDiscount = ptrFloat(100)
	c.Used = 42

	got := FilterAvailableCoupons([]models.Coupon{c}, OrderContext{}, CouponUsageStats{}, now)
	require.Len(t, got, 1)
	assert.Equal(t, c.ID, got[0].ID)
	assert.Equal(t, "WELCOME10", got[0].Code)
	assert.Equal(t, models.CouponTypePercentage, got[0].Type)
	assert.Equal(t, 10.0, got[0].Discount)
	assert.Equal(t, 100.0, *got[0].MaxDiscount)
}

func TestFilterAvailableCoupons_Idempotent(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	coupons := []models.Coupon{baseCoupon(), baseCoupon(), baseCoupon()}
	coupons[1].Status = "inactive"

	first := FilterAvailableCoupons(coupons, OrderContext{}, CouponUsageStats{}, now)
	second := FilterAvailableCoupons(coupons, OrderContext{}, CouponUsageStats{}, now)
	assert.Equal(t, first, second)
}

func TestValidateCoupon(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	tests := []struct {
		name         string
		mutate       func(*models.Coupon)
		ctx          ValidateCouponContext
		wantErr      error
		wantDiscount float64
	}{
		{
			name:         "percentage discount",
			ctx:          ValidateCouponContext{OrderTotal: 500},
			wantDiscount: 50,
		},
		{
			name:         "percentage discount capped at max",
			mutate:       func(c *models.Coupon) { c.Discount = 20; c.MaxDiscount = ptrFloat(100) },
			ctx:          ValidateCouponContext{OrderTotal: 1000},
			wantDiscount: 100,
		},
		{
			name:         "fixed discount is not clamped to order total",
			mutate:       func(c *models.Coupon) { c.Type = models.CouponTypeFixed; c.Discount = 75 },
			ctx:          ValidateCouponContext{OrderTotal: 50},
			wantDiscount: 75,
		},
		{
			name:    "expired coupon",
			mutate:  func(c *models.Coupon) { c.ValidUntil = now.Add(-time.Hour) },
			ctx:     ValidateCouponContext{OrderTotal: 500},
			wantErr: ErrExpired,
		},
		{
			name:    "not yet started coupon collapses into expired",
			mutate:  func(c *models.Coupon) { c.ValidFrom = now.Add(time.Hour) },
			ctx:     ValidateCouponContext{OrderTotal: 500},
			wantErr: ErrExpired,
		},
		{
			name:   "per-user usage cap reached",
			mutate: func(c *models.Coupon) { c.UsageLimit = ptrInt(2) },
			ctx: ValidateCouponContext{
				OrderTotal:     500,
				UserID:         &userID,
				UserUsageCount: 2,
			},
			wantErr: ErrLimitReached,
		},
		{
			name:    "below minimum purchase",
			mutate:  func(c *models.Coupon) { c.MinPurchase = 1000 },
			ctx:     ValidateCouponContext{OrderTotal: 500},
			wantErr: ErrBelowMinimum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCoupon()
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			got, err := ValidateCoupon(&c, tt.ctx, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiscount, got.CalculatedDiscount)
		})
	}
}

func TestValidateCoupon_FreeShipping(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c := baseCoupon()
	c.Type = models.CouponTypeFreeShipping

	got, err := ValidateCoupon(&c, ValidateCouponContext{OrderTotal: 500}, now)
	require.NoError(t, err)
	assert.True(t, got.FreeShipping)
	assert.Zero(t, got.CalculatedDiscount)
}

func TestValidateCoupon_NilCoupon(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	_, err := ValidateCoupon(nil, ValidateCouponContext{OrderTotal: 500}, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

// The eligibility filter compares calendar dates while the validator
// compares full timestamps. A coupon whose window closed at midnight today
// is therefore still listed as available but fails validation. This
// discrepancy is intentional until the product owner decides which
// granularity wins; the test keeps any future unification deliberate.
func TestCouponDateGranularityDiscrepancy(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	c := baseCoupon()
	c.ValidUntil = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	listed := FilterAvailableCoupons([]models.Coupon{c}, OrderContext{}, CouponUsageStats{}, now)
	assert.Len(t, listed, 1, "filter uses date-only comparison")

	_, err := ValidateCoupon(&c, ValidateCouponContext{OrderTotal: 500}, now)
	assert.ErrorIs(t, err, ErrExpired, "validator uses full-timestamp comparison")
}

// Only the availability check distinguishes a window that has not opened
// from one that has closed; ValidateCoupon reports both as expired.
func TestCouponAvailability_NotStartedDistinctFromExpired(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	early := baseCoupon()
	early.ValidFrom = now.AddDate(0, 0, 1)
	assert.ErrorIs(t, CouponAvailability(&early, OrderContext{}, CouponUsageStats{}, now), ErrNotStarted)

	late := baseCoupon()
	late.ValidUntil = now.AddDate(0, 0, -1)
	assert.ErrorIs(t, CouponAvailability(&late, OrderContext{}, CouponUsageStats{}, now), ErrExpired)

	_, err := ValidateCoupon(&early, ValidateCouponContext{OrderTotal: 500}, now)
	assert.ErrorIs(t, err, ErrExpired)
}

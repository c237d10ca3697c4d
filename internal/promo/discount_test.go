package promo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbankart/urbankart-api/internal/models"
)

func baseDiscount() models.Discount {
	return models.Discount{
		ID:        uuid.New(),
		Code:      "SUMMER",
		Name:      "Summer Sale",
		Type:      models.DiscountTypePercentage,
		Value:     15,
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:    "active",
	}
}

func TestFilterAvailableDiscounts(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*models.Discount)
		ctx    OrderContext
		want   int
	}{
		{name: "active discount in window", want: 1},
		{
			name:   "inactive discount excluded",
			mutate: func(d *models.Discount) { d.Status = "inactive" },
			want:   0,
		},
		{
			name:   "global cap reached excluded",
			mutate: func(d *models.Discount) { d.UsageLimit = ptrInt(10); d.Used = 10 },
			want:   0,
		},
		{
			name:   "below minimum order excluded",
			mutate: func(d *models.Discount) { d.MinOrder = 1000 },
			ctx:    OrderContext{OrderTotal: ptrFloat(500)},
			want:   0,
		},
		{
			name:   "ended before today excluded",
			mutate: func(d *models.Discount) { d.EndDate = now.AddDate(0, 0, -1) },
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := baseDiscount()
			if tt.mutate != nil {
				tt.mutate(&d)
			}
			got := FilterAvailableDiscounts([]models.Discount{d}, tt.ctx, now)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestValidateDiscount(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		mutate       func(*models.Discount)
		ctx          ValidateDiscountContext
		wantErr      error
		wantDiscount float64
	}{
		{
			name:         "percentage discount",
			ctx:          ValidateDiscountContext{OrderTotal: 1000},
			wantDiscount: 150,
		},
		{
			name:         "percentage capped at max",
			mutate:       func(d *models.Discount) { d.MaxDiscount = ptrFloat(100) },
			ctx:          ValidateDiscountContext{OrderTotal: 1000},
			wantDiscount: 100,
		},
		{
			name:         "fixed discount clamped to order total",
			mutate:       func(d *models.Discount) { d.Type = models.DiscountTypeFixed; d.Value = 200 },
			ctx:          ValidateDiscountContext{OrderTotal: 120},
			wantDiscount: 120,
		},
		{
			name:   "custom discount delegates to instruction parser",
			mutate: func(d *models.Discount) { d.Type = models.DiscountTypeCustom; d.Instruction = "10% off" },
			ctx: ValidateDiscountContext{
				OrderTotal: 500,
				CartItems:  []CartItem{{Price: 500, Quantity: 1}},
			},
			wantDiscount: 50,
		},
		{
			name:    "outside window",
			mutate:  func(d *models.Discount) { d.EndDate = now.Add(-time.Minute) },
			ctx:     ValidateDiscountContext{OrderTotal: 1000},
			wantErr: ErrExpired,
		},
		{
			name:    "usage limit reached",
			mutate:  func(d *models.Discount) { d.UsageLimit = ptrInt(5); d.Used = 5 },
			ctx:     ValidateDiscountContext{OrderTotal: 1000},
			wantErr: ErrLimitReached,
		},
		{
			name:    "below minimum order",
			mutate:  func(d *models.Discount) { d.MinOrder = 2000 },
			ctx:     ValidateDiscountContext{OrderTotal: 1000},
			wantErr: ErrBelowMinimum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := baseDiscount()
			if tt.mutate != nil {
				tt.mutate(&d)
			}
			got, err := ValidateDiscount(&d, tt.ctx, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiscount, got.CalculatedDiscount)
		})
	}
}

// Coupon fixed amounts are returned as-is while discount fixed amounts are
// clamped to the order total. Both behaviors are pinned here side by side
// so neither gets "fixed" to match the other by accident.
func TestFixedClampAsymmetry(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	c := baseCoupon()
	c.Type = models.CouponTypeFixed
	c.Discount = 300
	couponResult, err := ValidateCoupon(&c, ValidateCouponContext{OrderTotal: 100}, now)
	require.NoError(t, err)
	assert.Equal(t, 300.0, couponResult.CalculatedDiscount)

	d := baseDiscount()
	d.Type = models.DiscountTypeFixed
	d.Value = 300
	discountResult, err := ValidateDiscount(&d, ValidateDiscountContext{OrderTotal: 100}, now)
	require.NoError(t, err)
	assert.Equal(t, 100.0, discountResult.CalculatedDiscount)
}

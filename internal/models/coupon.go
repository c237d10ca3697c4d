package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CouponTypePercentage   = "percentage"
	CouponTypeFixed        = "fixed"
	CouponTypeFreeShipping = "free_shipping"

	UserUsageOnce     = "once"
	UserUsageMultiple = "multiple"
)

type Coupon struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key"`
	Code           string    `gorm:"not null;unique"`
	Description    string
	Type           string  `gorm:"not null;default:'percentage'"`
	Discount       float64 `gorm:"not null"`
	MinPurchase    float64 `gorm:"not null;default:0"`
	MaxDiscount    *float64
	ValidFrom      time.Time `gorm:"not null"`
	ValidUntil     time.Time `gorm:"not null"`
	UsageLimit     *int
	UserUsageLimit string `gorm:"not null;default:'once'"`
	Used           int    `gorm:"not null;default:0"`
	Status         string `gorm:"not null;default:'active'"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

// CouponUsage is an append-only ledger, one row per redemption. UserID is
// nil for guest checkouts.
type CouponUsage struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primary_key"`
	CouponID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null"`
	UsedAt    time.Time  `gorm:"not null"`
	CreatedAt time.Time
}

func (CouponUsage) TableName() string {
	return "coupon_usages"
}

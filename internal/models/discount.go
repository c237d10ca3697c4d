package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
	DiscountTypeCustom     = "custom"
)

// Discount is a store-wide promotion. Custom discounts carry a free-text
// instruction interpreted by the promo package.
type Discount struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key"`
	Code        string    `gorm:"not null;unique"`
	Name        string    `gorm:"not null"`
	Type        string    `gorm:"not null;default:'percentage'"`
	Value       float64   `gorm:"not null;default:0"`
	MinOrder    float64   `gorm:"not null;default:0"`
	MaxDiscount *float64
	UsageLimit  *int
	Used        int       `gorm:"not null;default:0"`
	StartDate   time.Time `gorm:"not null"`
	EndDate     time.Time `gorm:"not null"`
	Status      string    `gorm:"not null;default:'active'"`
	Instruction string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

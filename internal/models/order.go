package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
	OrderStatusReturned  = "returned"
)

type Order struct {
	gorm.Model
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index"`
	User            User
	Items           []OrderItem
	Subtotal        float64 `gorm:"not null"`
	CouponCode      *string
	CouponDiscount  float64 `gorm:"not null;default:0"`
	DiscountCode    *string
	DiscountAmount  float64 `gorm:"not null;default:0"`
	CoinsUsed       int     `gorm:"not null;default:0"`
	CoinDiscount    float64 `gorm:"not null;default:0"`
	ShippingFee     float64 `gorm:"not null;default:0"`
	FreeShipping    bool    `gorm:"not null;default:false"`
	Total           float64 `gorm:"not null"`
	Status          string  `gorm:"not null;default:'pending'"`
	ShippingAddress string  `gorm:"not null"`
	Payment         *Payment
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"`
	Product   *Product  `gorm:"foreignKey:ProductID"`
	Quantity  int       `gorm:"not null"`
	Price     float64   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (order *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return
}

package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ReturnStatusRequested = "requested"
	ReturnStatusApproved  = "approved"
	ReturnStatusRejected  = "rejected"
	ReturnStatusReceived  = "received"
	ReturnStatusRefunded  = "refunded"
)

type Return struct {
	gorm.Model
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Order         Order
	UserID        uuid.UUID `gorm:"type:uuid;not null;index"`
	User          User
	Reason        string `gorm:"not null"`
	Status        string `gorm:"not null;default:'requested'"`
	RMACode       string `gorm:"unique;not null"`
	RefundAmount  float64
	CoinsRefunded int `gorm:"not null;default:0"`
}

func (ret *Return) BeforeCreate(tx *gorm.DB) (err error) {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	return
}

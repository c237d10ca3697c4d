package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Product struct {
	gorm.Model
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	Name           string    `gorm:"not null"`
	Description    string
	Price          float64 `gorm:"not null"`
	Stock          int     `gorm:"not null;default:0"`
	ImageURL       string
	Specifications datatypes.JSONMap
	Status         string `gorm:"not null;default:'active'"`
	CategoryID     uuid.UUID
	Category       Category
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	return
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	CoinTxEarned   = "earned"
	CoinTxSpent    = "spent"
	CoinTxExpired  = "expired"
	CoinTxRefunded = "refunded"

	CoinRuleEarning    = "earning"
	CoinRuleRedemption = "redemption"
)

// CoinTransaction is an append-only ledger. Amount is always positive; the
// direction is encoded by Type. BalanceAfter is the user's balance
// immediately after this transaction was applied.
type CoinTransaction struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Type         string    `gorm:"not null"`
	Amount       int       `gorm:"not null"`
	BalanceAfter int       `gorm:"not null"`
	Description  string
	OrderID      *uuid.UUID `gorm:"type:uuid"`
	Metadata     datatypes.JSONMap
	CreatedAt    time.Time
}

// CoinRule holds the two singleton configuration rows, keyed by Kind.
// Earning rows use Threshold and Coins, redemption rows use Coins and
// DiscountPercent.
type CoinRule struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key"`
	Kind            string    `gorm:"unique;not null"`
	Threshold       float64   `gorm:"not null;default:0"`
	Coins           int       `gorm:"not null;default:0"`
	DiscountPercent float64   `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

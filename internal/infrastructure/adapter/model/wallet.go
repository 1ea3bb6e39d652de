package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet represents the database model for internal fiat wallets
type Wallet struct {
	ID        uint64          `gorm:"primaryKey;autoIncrement"`
	UserID    uint64          `gorm:"uniqueIndex;not null"`
	Balance   decimal.Decimal `gorm:"type:numeric;not null"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName specifies the table name for Wallet
func (Wallet) TableName() string {
	return "wallets"
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents the database model for a user's position in one coin
type Holding struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	UserID      uint64          `gorm:"not null;uniqueIndex:idx_holdings_user_coin"`
	CoinID      uint64          `gorm:"not null;uniqueIndex:idx_holdings_user_coin"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null"`
	AvgBuyPrice decimal.Decimal `gorm:"type:numeric;not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName specifies the table name for Holding
func (Holding) TableName() string {
	return "holdings"
}

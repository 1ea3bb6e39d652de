package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Commission represents the database model for per-transaction fees.
// Rows are insert-only.
type Commission struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement"`
	TransactionID string          `gorm:"uniqueIndex;not null;size:36"`
	Amount        decimal.Decimal `gorm:"type:numeric;not null"`
	Rate          decimal.Decimal `gorm:"type:numeric;not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName specifies the table name for Commission
func (Commission) TableName() string {
	return "commissions"
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents the database model for trade transactions
type Transaction struct {
	ID            string          `gorm:"primaryKey;size:36"`
	UserID        uint64          `gorm:"not null;index"`
	CoinID        uint64          `gorm:"not null;index"`
	Kind          string          `gorm:"not null;size:10"`
	Amount        decimal.Decimal `gorm:"type:numeric;not null"`
	PricePerUnit  decimal.Decimal `gorm:"type:numeric;not null"`
	TotalValue    decimal.Decimal `gorm:"type:numeric;not null"`
	Funding       string          `gorm:"not null;size:10"`
	Payout        string          `gorm:"not null;size:10"`
	PayerPhone    string          `gorm:"size:15"`
	ExternalRef   string          `gorm:"index;size:100"`
	ReceiptNumber string          `gorm:"size:50"`
	Status        string          `gorm:"not null;size:20;index"`
	FailureReason string          `gorm:"type:text"`
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null;index"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"

	tport "github.com/coinpesa/coinpesa/internal/domain/port/core"
)

// Commission is the fee earned on one completed transaction.
// Created exactly once per completed transaction, never updated.
type Commission struct {
	ID            uint64
	TransactionID string
	Amount        decimal.Decimal
	Rate          decimal.Decimal
	CreatedAt     time.Time
}

// NewCommission computes the fee for a completed transaction at the
// configured rate
func NewCommission(transactionID string, totalValue, rate decimal.Decimal, timeProvider tport.TimeProvider) *Commission {
	return &Commission{
		TransactionID: transactionID,
		Amount:        totalValue.Mul(rate),
		Rate:          rate,
		CreatedAt:     timeProvider.Now(),
	}
}

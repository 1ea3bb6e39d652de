package entity

import (
	"time"

	"github.com/shopspring/decimal"

	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	tport "github.com/coinpesa/coinpesa/internal/domain/port/core"
)

// Wallet is a user's internal fiat balance, used for the synchronous
// (non-gateway) funding path and for crediting sell proceeds
type Wallet struct {
	UserID    uint64
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewWallet creates an empty wallet for a user
func NewWallet(userID uint64, timeProvider tport.TimeProvider) *Wallet {
	now := timeProvider.Now()
	return &Wallet{
		UserID:    userID,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Debit removes funds from the wallet, refusing to go negative
func (w *Wallet) Debit(amount decimal.Decimal, timeProvider tport.TimeProvider) error {
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}
	if amount.GreaterThan(w.Balance) {
		return errs.ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = timeProvider.Now()
	return nil
}

// Credit adds funds to the wallet
func (w *Wallet) Credit(amount decimal.Decimal, timeProvider tport.TimeProvider) error {
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}
	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = timeProvider.Now()
	return nil
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"

	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	tport "github.com/coinpesa/coinpesa/internal/domain/port/core"
)

// Holding represents a user's position in one coin. Holdings are mutated
// only by settlement; a holding whose amount reaches zero is removed, not
// kept at zero.
type Holding struct {
	UserID      uint64
	CoinID      uint64
	Amount      decimal.Decimal
	AvgBuyPrice decimal.Decimal // Volume-weighted average buy price
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewHolding creates a holding from a first buy
func NewHolding(userID, coinID uint64, amount, price decimal.Decimal, timeProvider tport.TimeProvider) *Holding {
	now := timeProvider.Now()
	return &Holding{
		UserID:      userID,
		CoinID:      coinID,
		Amount:      amount,
		AvgBuyPrice: price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ApplyBuy merges a buy into the holding, recomputing the volume-weighted
// average price:
//
//	new_avg = (old_amount*old_avg + bought*price) / (old_amount + bought)
func (h *Holding) ApplyBuy(amount, price decimal.Decimal, timeProvider tport.TimeProvider) error {
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}

	newAmount := h.Amount.Add(amount)
	weighted := h.Amount.Mul(h.AvgBuyPrice).Add(amount.Mul(price))
	h.AvgBuyPrice = weighted.Div(newAmount)
	h.Amount = newAmount
	h.UpdatedAt = timeProvider.Now()
	return nil
}

// ApplySell decrements the held amount. The average buy price is left
// untouched; it reflects what was paid, not what was sold.
func (h *Holding) ApplySell(amount decimal.Decimal, timeProvider tport.TimeProvider) error {
	if !amount.IsPositive() {
		return errs.ErrInvalidAmount
	}
	if amount.GreaterThan(h.Amount) {
		return errs.NewInsufficientHoldingError(h.UserID, h.CoinID, amount.String(), h.Amount.String())
	}

	h.Amount = h.Amount.Sub(amount)
	h.UpdatedAt = timeProvider.Now()
	return nil
}

// IsEmpty reports whether the position is fully sold out
func (h *Holding) IsEmpty() bool {
	return h.Amount.IsZero()
}

package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	tport "github.com/coinpesa/coinpesa/internal/domain/port/core"
)

// TradeKind represents the direction of a trade
type TradeKind string

// Trade kinds
const (
	KindBuy  TradeKind = "buy"
	KindSell TradeKind = "sell"
)

// FundingSource represents how a trade is paid for or paid out
type FundingSource string

// Funding sources
const (
	FundingWallet FundingSource = "wallet"
	FundingMpesa  FundingSource = "mpesa"
)

// TransactionStatus defines possible lifecycle states for a transaction
type TransactionStatus string

// Transaction lifecycle states. StatusCompleted, StatusFailed and
// StatusTimeout are terminal: once reached, no further transition is
// permitted. The transition into a terminal state is the idempotency
// boundary for ledger settlement.
const (
	StatusPending   TransactionStatus = "pending"
	StatusStkSent   TransactionStatus = "stk_sent"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusTimeout   TransactionStatus = "timeout"
)

// NonTerminalStatuses lists the states a transaction may still leave.
// Used as the guard set for conditional status updates.
func NonTerminalStatuses() []TransactionStatus {
	return []TransactionStatus{StatusPending, StatusStkSent}
}

// Transaction represents a single buy or sell intent and its lifecycle
type Transaction struct {
	ID            string            // Opaque unique key (uuid)
	UserID        uint64            // User this trade belongs to
	CoinID        uint64            // Coin being traded
	Kind          TradeKind         // buy or sell
	Amount        decimal.Decimal   // Unit amount, always positive
	PricePerUnit  decimal.Decimal   // Price snapshotted at intent time
	TotalValue    decimal.Decimal   // Amount x PricePerUnit at creation
	Funding       FundingSource     // wallet (synchronous) or mpesa (gateway)
	Payout        FundingSource     // Destination of sell proceeds
	PayerPhone    string            // Canonical international form, mpesa only
	ExternalRef   string            // Gateway correlation id (CheckoutRequestID)
	ReceiptNumber string            // Gateway receipt, set on completion
	Status        TransactionStatus // Lifecycle state
	FailureReason string            // Why the transaction failed or timed out
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewTransaction creates a new pending transaction with a snapshotted price.
// TotalValue is fixed here and never recomputed later.
func NewTransaction(
	userID uint64,
	coinID uint64,
	kind TradeKind,
	amount decimal.Decimal,
	pricePerUnit decimal.Decimal,
	funding FundingSource,
	payerPhone string,
	timeProvider tport.TimeProvider,
) (*Transaction, error) {
	if kind != KindBuy && kind != KindSell {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidTradeKind, kind)
	}
	if funding != FundingWallet && funding != FundingMpesa {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidFunding, funding)
	}
	if !amount.IsPositive() {
		return nil, errs.ErrInvalidAmount
	}

	phone := payerPhone
	if funding == FundingMpesa {
		normalized, err := NormalizePhone(payerPhone)
		if err != nil {
			return nil, err
		}
		phone = normalized
	}

	now := timeProvider.Now()
	return &Transaction{
		ID:           uuid.NewString(),
		UserID:       userID,
		CoinID:       coinID,
		Kind:         kind,
		Amount:       amount,
		PricePerUnit: pricePerUnit,
		TotalValue:   amount.Mul(pricePerUnit),
		Funding:      funding,
		Payout:       FundingWallet,
		PayerPhone:   phone,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsTerminal reports whether the transaction reached a final state
func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed || t.Status == StatusTimeout
}

// MarkStkSent records gateway acceptance of the push-payment request
func (t *Transaction) MarkStkSent(externalRef string, timeProvider tport.TimeProvider) error {
	if t.Status != StatusPending {
		return fmt.Errorf("%w: cannot send STK from %s", errs.ErrTransactionTerminal, t.Status)
	}
	t.ExternalRef = externalRef
	t.Status = StatusStkSent
	t.UpdatedAt = timeProvider.Now()
	return nil
}

// MarkCompleted records external confirmation of success. The repository
// guard, not this method, enforces that only one caller performs it.
func (t *Transaction) MarkCompleted(receiptNumber string, timeProvider tport.TimeProvider) error {
	if t.IsTerminal() {
		return errs.ErrTransactionTerminal
	}
	t.ReceiptNumber = receiptNumber
	t.Status = StatusCompleted
	t.UpdatedAt = timeProvider.Now()
	return nil
}

// MarkFailed records a gateway rejection, payment failure or cancellation
func (t *Transaction) MarkFailed(reason string, timeProvider tport.TimeProvider) error {
	if t.IsTerminal() {
		return errs.ErrTransactionTerminal
	}
	t.Status = StatusFailed
	t.FailureReason = reason
	t.UpdatedAt = timeProvider.Now()
	return nil
}

// MarkTimedOut records reconciliation exhaustion without a terminal gateway
// signal. A timed-out transaction never credits the ledger.
func (t *Transaction) MarkTimedOut(timeProvider tport.TimeProvider) error {
	if t.IsTerminal() {
		return errs.ErrTransactionTerminal
	}
	t.Status = StatusTimeout
	t.FailureReason = "no confirmation from payment gateway"
	t.UpdatedAt = timeProvider.Now()
	return nil
}

package dto

import (
	"time"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
)

// CreateTradeRequest represents the API request for creating a trade
type CreateTradeRequest struct {
	UserID  uint64 `json:"userId" binding:"required"`
	CoinID  uint64 `json:"coinId" binding:"required"`
	Kind    string `json:"kind" binding:"required,oneof=buy sell"`
	Amount  string `json:"amount" binding:"required"`
	Funding string `json:"funding" binding:"omitempty,oneof=wallet mpesa"`
	Payout  string `json:"payout" binding:"omitempty,oneof=wallet mpesa"`
	Phone   string `json:"phone"`
}

// TradeResponse represents the API view of a transaction
type TradeResponse struct {
	ID            string    `json:"id"`
	UserID        uint64    `json:"userId"`
	CoinID        uint64    `json:"coinId"`
	Kind          string    `json:"kind"`
	Amount        string    `json:"amount"`
	PricePerUnit  string    `json:"pricePerUnit"`
	TotalValue    string    `json:"totalValue"`
	Funding       string    `json:"funding"`
	Payout        string    `json:"payout"`
	Status        string    `json:"status"`
	ReceiptNumber string    `json:"receiptNumber,omitempty"`
	FailureReason string    `json:"failureReason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewTradeResponse maps a transaction entity to its API representation
func NewTradeResponse(txn *entity.Transaction) TradeResponse {
	return TradeResponse{
		ID:            txn.ID,
		UserID:        txn.UserID,
		CoinID:        txn.CoinID,
		Kind:          string(txn.Kind),
		Amount:        txn.Amount.String(),
		PricePerUnit:  txn.PricePerUnit.String(),
		TotalValue:    txn.TotalValue.String(),
		Funding:       string(txn.Funding),
		Payout:        string(txn.Payout),
		Status:        string(txn.Status),
		ReceiptNumber: txn.ReceiptNumber,
		FailureReason: txn.FailureReason,
		CreatedAt:     txn.CreatedAt,
		UpdatedAt:     txn.UpdatedAt,
	}
}

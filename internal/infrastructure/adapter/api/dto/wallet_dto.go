package dto

import (
	"time"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
)

// WalletResponse represents the API view of a user's fiat wallet
type WalletResponse struct {
	UserID    uint64    `json:"userId"`
	Balance   string    `json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HoldingResponse represents the API view of one position
type HoldingResponse struct {
	UserID      uint64    `json:"userId"`
	CoinID      uint64    `json:"coinId"`
	Amount      string    `json:"amount"`
	AvgBuyPrice string    `json:"avgBuyPrice"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewWalletResponse maps a wallet entity to its API representation
func NewWalletResponse(wallet *entity.Wallet) WalletResponse {
	return WalletResponse{
		UserID:    wallet.UserID,
		Balance:   wallet.Balance.String(),
		UpdatedAt: wallet.UpdatedAt,
	}
}

// NewHoldingResponse maps a holding entity to its API representation
func NewHoldingResponse(holding *entity.Holding) HoldingResponse {
	return HoldingResponse{
		UserID:      holding.UserID,
		CoinID:      holding.CoinID,
		Amount:      holding.Amount.String(),
		AvgBuyPrice: holding.AvgBuyPrice.String(),
		UpdatedAt:   holding.UpdatedAt,
	}
}

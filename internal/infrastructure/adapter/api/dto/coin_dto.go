package dto

import (
	"time"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
)

// CoinResponse represents the API view of a coin's aggregate state
type CoinResponse struct {
	ID                uint64    `json:"id"`
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	TotalSupply       string    `json:"totalSupply"`
	CirculatingSupply string    `json:"circulatingSupply"`
	BurnedSupply      string    `json:"burnedSupply"`
	HolderCount       uint64    `json:"holderCount"`
	CurrentPrice      string    `json:"currentPrice"`
	Liquidity         string    `json:"liquidity"`
	TradingPaused     bool      `json:"tradingPaused"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// QuoteResponse represents the current curve price for a coin
type QuoteResponse struct {
	CoinID       uint64 `json:"coinId"`
	PricePerUnit string `json:"pricePerUnit"`
}

// NewCoinResponse maps a coin entity to its API representation
func NewCoinResponse(coin *entity.Coin) CoinResponse {
	return CoinResponse{
		ID:                coin.ID,
		Symbol:            coin.Symbol,
		Name:              coin.Name,
		TotalSupply:       coin.TotalSupply.String(),
		CirculatingSupply: coin.CirculatingSupply.String(),
		BurnedSupply:      coin.BurnedSupply.String(),
		HolderCount:       coin.HolderCount,
		CurrentPrice:      coin.CurrentPrice.String(),
		Liquidity:         coin.Liquidity.String(),
		TradingPaused:     coin.TradingPaused,
		UpdatedAt:         coin.UpdatedAt,
	}
}

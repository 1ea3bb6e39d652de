package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coin is the tradable asset's aggregate state. Supply, holder count and
// price are mutated only by settlement; the current price is always a
// deterministic function of circulating supply, never set independently
// by a trade.
type Coin struct {
	ID                uint64
	Symbol            string
	Name              string
	TotalSupply       decimal.Decimal
	CirculatingSupply decimal.Decimal
	BurnedSupply      decimal.Decimal
	HolderCount       uint64
	CurrentPrice      decimal.Decimal
	Liquidity         decimal.Decimal
	TradingPaused     bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MintableSupply returns how many units can still enter circulation
func (c *Coin) MintableSupply() decimal.Decimal {
	return c.TotalSupply.Sub(c.CirculatingSupply).Sub(c.BurnedSupply)
}

// CanMint reports whether a buy of the given amount keeps
// circulating + burned within total supply
func (c *Coin) CanMint(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(c.MintableSupply())
}

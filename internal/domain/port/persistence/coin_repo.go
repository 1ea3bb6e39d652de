package persistence

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
)

// PriceFunc derives the new unit price from the coin's circulating supply
// after a settlement mutated it. Kept as a callback so the pricer stays a
// pure domain function.
type PriceFunc func(circulatingSupply decimal.Decimal) decimal.Decimal

// CoinRepository defines methods to interact with coin aggregate state
type CoinRepository interface {
	// GetByID retrieves a coin by ID
	//
	// Possible errors:
	// - ErrCoinNotFound: If the coin doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id uint64) (*entity.Coin, error)

	// List returns all coins
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	List(ctx context.Context) ([]*entity.Coin, error)

	// Create saves a new coin. Used by migration seeding.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, coin *entity.Coin) error

	// AdjustSupply applies one settlement's aggregate mutation atomically:
	// circulating supply changes by supplyDelta, holder count by
	// holderDelta, and the price is recomputed from the post-mutation
	// supply via priceFn. The increment is a serialized in-place update so
	// concurrent settlements on the same coin never lose updates.
	//
	// Possible errors:
	// - ErrCoinNotFound: If the coin doesn't exist
	// - ErrSupplyExhausted: If a positive delta would exceed mintable supply
	// - ErrDatabaseConnection: If database connection fails
	AdjustSupply(ctx context.Context, coinID uint64, supplyDelta decimal.Decimal, holderDelta int, priceFn PriceFunc) error
}

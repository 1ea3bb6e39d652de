package persistence

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
)

// WalletRepository defines methods to interact with internal fiat wallets
type WalletRepository interface {
	// GetByUserID retrieves a user's wallet
	//
	// Possible errors:
	// - ErrWalletNotFound: If the user has no wallet
	// - ErrDatabaseConnection: If database connection fails
	GetByUserID(ctx context.Context, userID uint64) (*entity.Wallet, error)

	// Create saves a new wallet
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, wallet *entity.Wallet) error

	// AdjustBalance applies a debit (negative delta) or credit (positive
	// delta) as a single conditional in-place update that refuses to take
	// the balance negative.
	//
	// Possible errors:
	// - ErrWalletNotFound: If the user has no wallet
	// - ErrInsufficientBalance: If a debit exceeds the balance
	// - ErrDatabaseConnection: If database connection fails
	AdjustBalance(ctx context.Context, userID uint64, delta decimal.Decimal) error
}

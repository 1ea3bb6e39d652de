package persistence

import (
	"context"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
)

// CommissionRepository records fees earned per completed transaction.
// Insert-only: commission rows are never updated.
type CommissionRepository interface {
	// Create records the commission for a completed transaction
	//
	// Possible errors:
	// - ErrDuplicateTransaction: If a commission already exists for the transaction
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, commission *entity.Commission) error

	// GetByTransactionID retrieves the commission recorded for a transaction
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	GetByTransactionID(ctx context.Context, transactionID string) (*entity.Commission, error)
}

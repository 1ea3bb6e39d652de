package persistence

import (
	"context"
	"time"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
)

// TransactionRepository defines essential methods to interact with transaction data
type TransactionRepository interface {
	// Create saves a new transaction
	//
	// Possible errors:
	// - ErrDuplicateTransaction: If a transaction with the same ID already exists
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, transaction *entity.Transaction) error

	// Update persists mutable fields of a non-terminal transaction.
	// Terminal transitions must go through ClaimTransition instead.
	//
	// Possible errors:
	// - ErrTransactionNotFound: If the transaction doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, transaction *entity.Transaction) error

	// GetByID retrieves a transaction by its opaque id
	//
	// Possible errors:
	// - ErrTransactionNotFound: If the transaction doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)

	// GetByExternalRef retrieves a transaction by the gateway's correlation id.
	// Used by the callback receiver.
	//
	// Possible errors:
	// - ErrTransactionNotFound: If no transaction carries the reference
	// - ErrDatabaseConnection: If database connection fails
	GetByExternalRef(ctx context.Context, externalRef string) (*entity.Transaction, error)

	// ClaimTransition performs the guarded conditional status update that is
	// the system's single mutual-exclusion point: it writes the transaction's
	// current (already mutated) state only if the stored status is still one
	// of fromStatuses. It returns true when this caller won the claim and
	// false when another completion path already moved the transaction to a
	// terminal state; a false return is not an error.
	//
	// Possible errors:
	// - ErrTransactionNotFound: If the transaction doesn't exist at all
	// - ErrDatabaseConnection: If database connection fails
	ClaimTransition(ctx context.Context, transaction *entity.Transaction, fromStatuses []entity.TransactionStatus) (bool, error)

	// ListStaleAwaitingPayment returns non-terminal gateway-funded
	// transactions last updated before the cutoff. Used by the background
	// reconciliation sweep.
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListStaleAwaitingPayment(ctx context.Context, cutoff time.Time) ([]*entity.Transaction, error)
}

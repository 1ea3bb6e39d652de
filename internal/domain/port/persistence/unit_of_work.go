package persistence

import (
	"context"
)

// UnitOfWork coordinates the multi-record settlement mutation (transaction
// claim, holding, coin aggregate, commission, wallet) as one atomic commit
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// GetTransactionRepository returns a transaction repository bound to the current transaction
	GetTransactionRepository(ctx context.Context) TransactionRepository

	// GetHoldingRepository returns a holding repository bound to the current transaction
	GetHoldingRepository(ctx context.Context) HoldingRepository

	// GetCoinRepository returns a coin repository bound to the current transaction
	GetCoinRepository(ctx context.Context) CoinRepository

	// GetCommissionRepository returns a commission repository bound to the current transaction
	GetCommissionRepository(ctx context.Context) CommissionRepository

	// GetWalletRepository returns a wallet repository bound to the current transaction
	GetWalletRepository(ctx context.Context) WalletRepository
}

package persistence

import (
	"context"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
)

// HoldingRepository defines methods to interact with user positions.
// Holdings are touched only by settlement; no other path mutates them.
type HoldingRepository interface {
	// Get retrieves a user's position in one coin
	//
	// Possible errors:
	// - ErrHoldingNotFound: If the user holds none of the coin
	// - ErrDatabaseConnection: If database connection fails
	Get(ctx context.Context, userID, coinID uint64) (*entity.Holding, error)

	// Save creates or updates a holding
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	Save(ctx context.Context, holding *entity.Holding) error

	// Delete removes a fully sold-out holding
	//
	// Possible errors:
	// - ErrHoldingNotFound: If the holding doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	Delete(ctx context.Context, userID, coinID uint64) error

	// ListByUser returns all of a user's positions
	//
	// Possible errors:
	// - ErrDatabaseConnection: If database connection fails
	ListByUser(ctx context.Context, userID uint64) ([]*entity.Holding, error)
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	coreport "github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/model"
)

// CommissionRepository implements CommissionRepository interface using GORM
type CommissionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewCommissionRepository creates a new CommissionRepository instance
func NewCommissionRepository(db *gorm.DB, logger coreport.Logger) *CommissionRepository {
	return &CommissionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// Create records the commission for a completed transaction. The unique
// index on transaction_id makes a second settlement attempt surface as a
// duplicate instead of double-counting fees.
func (r *CommissionRepository) Create(ctx context.Context, commission *entity.Commission) error {
	m := model.Commission{
		TransactionID: commission.TransactionID,
		Amount:        commission.Amount,
		Rate:          commission.Rate,
		CreatedAt:     commission.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Commission already recorded", map[string]any{
				"transaction_id": commission.TransactionID,
			})
			return errs.ErrDuplicateTransaction
		}
		r.logger.Error("Failed to create commission", map[string]any{
			"transaction_id": commission.TransactionID,
			"error":          result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	commission.ID = m.ID
	return nil
}

// GetByTransactionID retrieves the commission recorded for a transaction
func (r *CommissionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*entity.Commission, error) {
	var m model.Commission
	result := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&m)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return &entity.Commission{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		Amount:        m.Amount,
		Rate:          m.Rate,
		CreatedAt:     m.CreatedAt,
	}, nil
}

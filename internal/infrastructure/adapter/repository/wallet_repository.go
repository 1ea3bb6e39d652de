package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	coreport "github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/model"
)

// WalletRepository implements WalletRepository interface using GORM
type WalletRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewWalletRepository creates a new WalletRepository instance
func NewWalletRepository(db *gorm.DB, logger coreport.Logger) *WalletRepository {
	return &WalletRepository{db: db, logger: logger}
}

// GetByUserID retrieves a user's wallet
func (r *WalletRepository) GetByUserID(ctx context.Context, userID uint64) (*entity.Wallet, error) {
	var m model.Wallet
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrWalletNotFound
		}
		r.logger.Error("Failed to get wallet", map[string]any{
			"user_id": userID,
			"error":   result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return &entity.Wallet{
		UserID:    m.UserID,
		Balance:   m.Balance,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// Create saves a new wallet
func (r *WalletRepository) Create(ctx context.Context, wallet *entity.Wallet) error {
	m := model.Wallet{
		UserID:    wallet.UserID,
		Balance:   wallet.Balance,
		CreatedAt: wallet.CreatedAt,
		UpdatedAt: wallet.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		r.logger.Error("Failed to create wallet", map[string]any{
			"user_id": wallet.UserID,
			"error":   result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// AdjustBalance applies a debit or credit as a single conditional in-place
// update. The balance guard lives in the WHERE clause so concurrent
// settlements cannot interleave a read-modify-write into a negative balance.
func (r *WalletRepository) AdjustBalance(ctx context.Context, userID uint64, delta decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&model.Wallet{}).
		Where("user_id = ?", userID).
		Where("balance + ? >= 0", delta).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("Failed to adjust wallet balance", map[string]any{
			"user_id": userID,
			"delta":   delta,
			"error":   result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Wallet{}).
			Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
		}
		if count == 0 {
			return errs.ErrWalletNotFound
		}
		return errs.ErrInsufficientBalance
	}

	r.logger.Debug("Wallet balance adjusted", map[string]any{
		"user_id": userID,
		"delta":   delta,
	})
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	coreport "github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/model"
)

// HoldingRepository implements HoldingRepository interface using GORM
type HoldingRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewHoldingRepository creates a new HoldingRepository instance
func NewHoldingRepository(db *gorm.DB, logger coreport.Logger) *HoldingRepository {
	return &HoldingRepository{db: db, logger: logger}
}

func (r *HoldingRepository) modelToEntity(m *model.Holding) *entity.Holding {
	return &entity.Holding{
		UserID:      m.UserID,
		CoinID:      m.CoinID,
		Amount:      m.Amount,
		AvgBuyPrice: m.AvgBuyPrice,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// Get retrieves a user's position in one coin
func (r *HoldingRepository) Get(ctx context.Context, userID, coinID uint64) (*entity.Holding, error) {
	var m model.Holding
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND coin_id = ?", userID, coinID).
		First(&m)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrHoldingNotFound
		}
		r.logger.Error("Failed to get holding", map[string]any{
			"user_id": userID,
			"coin_id": coinID,
			"error":   result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(&m), nil
}

// Save creates or updates a holding, keyed by (user_id, coin_id)
func (r *HoldingRepository) Save(ctx context.Context, holding *entity.Holding) error {
	m := model.Holding{
		UserID:      holding.UserID,
		CoinID:      holding.CoinID,
		Amount:      holding.Amount,
		AvgBuyPrice: holding.AvgBuyPrice,
		CreatedAt:   holding.CreatedAt,
		UpdatedAt:   holding.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "coin_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"amount", "avg_buy_price", "updated_at",
		}),
	}).Create(&m)

	if result.Error != nil {
		r.logger.Error("Failed to save holding", map[string]any{
			"user_id": holding.UserID,
			"coin_id": holding.CoinID,
			"error":   result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	return nil
}

// Delete removes a fully sold-out holding
func (r *HoldingRepository) Delete(ctx context.Context, userID, coinID uint64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND coin_id = ?", userID, coinID).
		Delete(&model.Holding{})

	if result.Error != nil {
		r.logger.Error("Failed to delete holding", map[string]any{
			"user_id": userID,
			"coin_id": coinID,
			"error":   result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrHoldingNotFound
	}
	return nil
}

// ListByUser returns all of a user's positions
func (r *HoldingRepository) ListByUser(ctx context.Context, userID uint64) ([]*entity.Holding, error) {
	var models []model.Holding
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("coin_id").
		Find(&models)

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	holdings := make([]*entity.Holding, 0, len(models))
	for i := range models {
		holdings = append(holdings, r.modelToEntity(&models[i]))
	}
	return holdings, nil
}

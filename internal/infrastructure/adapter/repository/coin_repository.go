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
	"github.com/coinpesa/coinpesa/internal/domain/port/persistence"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/model"
)

// CoinRepository implements CoinRepository interface using GORM
type CoinRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewCoinRepository creates a new CoinRepository instance
func NewCoinRepository(db *gorm.DB, logger coreport.Logger) *CoinRepository {
	return &CoinRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *CoinRepository) modelToEntity(m *model.Coin) *entity.Coin {
	return &entity.Coin{
		ID:                m.ID,
		Symbol:            m.Symbol,
		Name:              m.Name,
		TotalSupply:       m.TotalSupply,
		CirculatingSupply: m.CirculatingSupply,
		BurnedSupply:      m.BurnedSupply,
		HolderCount:       m.HolderCount,
		CurrentPrice:      m.CurrentPrice,
		Liquidity:         m.Liquidity,
		TradingPaused:     m.TradingPaused,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// GetByID retrieves a coin by ID
func (r *CoinRepository) GetByID(ctx context.Context, id uint64) (*entity.Coin, error) {
	var m model.Coin
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&m)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrCoinNotFound
		}
		r.logger.Error("Failed to get coin", map[string]any{
			"coin_id": id,
			"error":   result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(&m), nil
}

// List returns all coins
func (r *CoinRepository) List(ctx context.Context) ([]*entity.Coin, error) {
	var models []model.Coin
	result := r.db.WithContext(ctx).Order("id").Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	coins := make([]*entity.Coin, 0, len(models))
	for i := range models {
		coins = append(coins, r.modelToEntity(&models[i]))
	}
	return coins, nil
}

// Create saves a new coin
func (r *CoinRepository) Create(ctx context.Context, coin *entity.Coin) error {
	m := model.Coin{
		ID:                coin.ID,
		Symbol:            coin.Symbol,
		Name:              coin.Name,
		TotalSupply:       coin.TotalSupply,
		CirculatingSupply: coin.CirculatingSupply,
		BurnedSupply:      coin.BurnedSupply,
		HolderCount:       coin.HolderCount,
		CurrentPrice:      coin.CurrentPrice,
		Liquidity:         coin.Liquidity,
		TradingPaused:     coin.TradingPaused,
		CreatedAt:         coin.CreatedAt,
		UpdatedAt:         coin.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Create(&m)
	if result.Error != nil {
		r.logger.Error("Failed to create coin", map[string]any{
			"symbol": coin.Symbol,
			"error":  result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	coin.ID = m.ID
	return nil
}

// AdjustSupply applies one settlement's aggregate mutation. The supply and
// holder count move through a single conditional in-place increment, then
// the price is recomputed from the supply the database actually holds.
func (r *CoinRepository) AdjustSupply(
	ctx context.Context,
	coinID uint64,
	supplyDelta decimal.Decimal,
	holderDelta int,
	priceFn persistence.PriceFunc,
) error {
	db := r.db.WithContext(ctx)

	query := db.Model(&model.Coin{}).
		Where("id = ?", coinID).
		Where("circulating_supply + ? >= 0", supplyDelta)
	if supplyDelta.IsPositive() {
		query = query.Where("circulating_supply + burned_supply + ? <= total_supply", supplyDelta)
	}

	result := query.Updates(map[string]interface{}{
		"circulating_supply": gorm.Expr("circulating_supply + ?", supplyDelta),
		"holder_count":       gorm.Expr("holder_count + ?", holderDelta),
		"updated_at":         time.Now(),
	})

	if result.Error != nil {
		r.logger.Error("Failed to adjust coin supply", map[string]any{
			"coin_id":      coinID,
			"supply_delta": supplyDelta,
			"error":        result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&model.Coin{}).Where("id = ?", coinID).Count(&count).Error; err != nil {
			return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
		}
		if count == 0 {
			return errs.ErrCoinNotFound
		}
		return errs.ErrSupplyExhausted
	}

	var m model.Coin
	if err := db.Where("id = ?", coinID).First(&m).Error; err != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	newPrice := priceFn(m.CirculatingSupply)
	if err := db.Model(&model.Coin{}).Where("id = ?", coinID).
		Update("current_price", newPrice).Error; err != nil {
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	r.logger.Debug("Coin supply adjusted", map[string]any{
		"coin_id":      coinID,
		"supply_delta": supplyDelta,
		"holder_delta": holderDelta,
		"new_price":    newPrice,
	})
	return nil
}

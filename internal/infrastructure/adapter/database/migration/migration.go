package migration

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	coreport "github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/model"
)

// SeedCoin describes the coin created on first boot if none exists
type SeedCoin struct {
	Symbol       string
	Name         string
	TotalSupply  decimal.Decimal
	InitialPrice decimal.Decimal
	Liquidity    decimal.Decimal
}

// MigrationManager manages schema migrations and initial seeding
type MigrationManager struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	return &MigrationManager{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

// MigrateAll creates or updates the schema for all models
func (m *MigrationManager) MigrateAll() error {
	m.logger.Info("Starting database migrations", nil)

	if err := m.db.AutoMigrate(
		&model.Coin{},
		&model.Wallet{},
		&model.Holding{},
		&model.Transaction{},
		&model.Commission{},
	); err != nil {
		m.logger.Error("Failed to migrate models", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	m.logger.Info("Database migrations completed", nil)
	return nil
}

// SeedDefaultCoin inserts the configured coin if no coin with its symbol
// exists yet. Safe to run on every boot.
func (m *MigrationManager) SeedDefaultCoin(ctx context.Context, seed SeedCoin) error {
	if seed.Symbol == "" {
		return nil
	}

	var existing model.Coin
	err := m.db.WithContext(ctx).Where("symbol = ?", seed.Symbol).First(&existing).Error
	if err == nil {
		m.logger.Debug("Seed coin already exists", map[string]any{
			"symbol": seed.Symbol,
		})
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := m.timeProvider.Now()
	coin := model.Coin{
		Symbol:            seed.Symbol,
		Name:              seed.Name,
		TotalSupply:       seed.TotalSupply,
		CirculatingSupply: decimal.Zero,
		BurnedSupply:      decimal.Zero,
		HolderCount:       0,
		CurrentPrice:      seed.InitialPrice,
		Liquidity:         seed.Liquidity,
		TradingPaused:     false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := m.db.WithContext(ctx).Create(&coin).Error; err != nil {
		m.logger.Error("Failed to seed default coin", map[string]any{
			"symbol": seed.Symbol,
			"error":  err.Error(),
		})
		return err
	}

	m.logger.Info("Seeded default coin", map[string]any{
		"symbol":  seed.Symbol,
		"coin_id": coin.ID,
	})
	return nil
}

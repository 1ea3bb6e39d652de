package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coin represents the database model for the tradable asset's aggregate state
type Coin struct {
	ID                uint64          `gorm:"primaryKey;autoIncrement"`
	Symbol            string          `gorm:"uniqueIndex;not null;size:16"`
	Name              string          `gorm:"not null;size:100"`
	TotalSupply       decimal.Decimal `gorm:"type:numeric;not null"`
	CirculatingSupply decimal.Decimal `gorm:"type:numeric;not null"`
	BurnedSupply      decimal.Decimal `gorm:"type:numeric;not null"`
	HolderCount       uint64          `gorm:"not null;default:0"`
	CurrentPrice      decimal.Decimal `gorm:"type:numeric;not null"`
	Liquidity         decimal.Decimal `gorm:"type:numeric;not null"`
	TradingPaused     bool            `gorm:"not null;default:false"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName specifies the table name for Coin
func (Coin) TableName() string {
	return "coins"
}

package trade_test

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	"github.com/coinpesa/coinpesa/internal/domain/port/gateway"
	"github.com/coinpesa/coinpesa/internal/domain/port/persistence"
	"github.com/coinpesa/coinpesa/internal/domain/pricing"
	"github.com/coinpesa/coinpesa/internal/domain/usecase/trade"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/database"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/logger"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/model"
	timeProvider "github.com/coinpesa/coinpesa/internal/infrastructure/adapter/time"
)

var testCurve = pricing.CurveParams{
	BasePrice: decimal.NewFromInt(2),
	Slope:     decimal.RequireFromString("0.01"),
}

var testFeeRate = decimal.RequireFromString("0.01")

// newTestStore opens an in-memory sqlite database with the full schema.
// A single connection keeps every query on the same in-memory instance.
func newTestStore(t *testing.T) (persistence.UnitOfWork, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Coin{},
		&model.Wallet{},
		&model.Holding{},
		&model.Transaction{},
		&model.Commission{},
	))

	return database.NewUnitOfWork(db, logger.NewNoopLogger()), db
}

func newTestApplier(uow persistence.UnitOfWork) *trade.Applier {
	return trade.NewApplier(uow, testCurve, testFeeRate,
		timeProvider.NewRealTimeProvider(), logger.NewNoopLogger())
}

func seedCoin(t *testing.T, db *gorm.DB, circulating decimal.Decimal) uint64 {
	t.Helper()

	now := time.Now()
	coin := model.Coin{
		Symbol:            "CPX",
		Name:              "CoinPesa Token",
		TotalSupply:       decimal.NewFromInt(1000),
		CirculatingSupply: circulating,
		BurnedSupply:      decimal.Zero,
		HolderCount:       0,
		CurrentPrice:      pricing.Price(circulating, testCurve),
		Liquidity:         decimal.Zero,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, db.Create(&coin).Error)
	return coin.ID
}

func seedWallet(t *testing.T, db *gorm.DB, userID uint64, balance decimal.Decimal) {
	t.Helper()

	now := time.Now()
	require.NoError(t, db.Create(&model.Wallet{
		UserID:    userID,
		Balance:   balance,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

func seedHolding(t *testing.T, db *gorm.DB, userID, coinID uint64, amount, avgPrice decimal.Decimal) {
	t.Helper()

	now := time.Now()
	require.NoError(t, db.Create(&model.Holding{
		UserID:      userID,
		CoinID:      coinID,
		Amount:      amount,
		AvgBuyPrice: avgPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error)
	require.NoError(t, db.Model(&model.Coin{}).Where("id = ?", coinID).
		Update("holder_count", gorm.Expr("holder_count + 1")).Error)
}

// createStkSentTransaction stores a gateway-funded buy awaiting payment
func createStkSentTransaction(t *testing.T, uow persistence.UnitOfWork, userID, coinID uint64, amount, price decimal.Decimal, externalRef string) *entity.Transaction {
	t.Helper()

	tp := timeProvider.NewRealTimeProvider()
	txn, err := entity.NewTransaction(userID, coinID, entity.KindBuy,
		amount, price, entity.FundingMpesa, "254712345678", tp)
	require.NoError(t, err)
	require.NoError(t, txn.MarkStkSent(externalRef, tp))

	ctx := context.Background()
	require.NoError(t, uow.GetTransactionRepository(ctx).Create(ctx, txn))
	return txn
}

func getCoin(t *testing.T, db *gorm.DB, coinID uint64) model.Coin {
	t.Helper()
	var coin model.Coin
	require.NoError(t, db.Where("id = ?", coinID).First(&coin).Error)
	return coin
}

func getWalletBalance(t *testing.T, db *gorm.DB, userID uint64) decimal.Decimal {
	t.Helper()
	var wallet model.Wallet
	require.NoError(t, db.Where("user_id = ?", userID).First(&wallet).Error)
	return wallet.Balance
}

func countCommissions(t *testing.T, db *gorm.DB, transactionID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.Commission{}).
		Where("transaction_id = ?", transactionID).Count(&count).Error)
	return count
}

// fakeGateway implements the payment gateway port for service tests
type fakeGateway struct {
	initiations []gateway.InitiateRequest
	externalRef string
	err         error
}

func (g *fakeGateway) Initiate(ctx context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	g.initiations = append(g.initiations, req)
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.InitiateResult{
		ExternalRef:       g.externalRef,
		MerchantRequestID: "merchant-1",
	}, nil
}

func newTestService(t *testing.T, uow persistence.UnitOfWork, gw gateway.PaymentGateway) (*trade.Service, *trade.Reconciler) {
	t.Helper()

	tp := timeProvider.NewRealTimeProvider()
	applier := newTestApplier(uow)
	// Long enough that no watcher declares timeout while a test runs;
	// reconciliation timing itself is covered separately.
	reconciler := trade.NewReconciler(applier, uow, trade.ReconcileConfig{
		InitialDelay: time.Second,
		Interval:     time.Second,
		MaxAttempts:  120,
		StaleAfter:   time.Minute,
	}, tp, logger.NewNoopLogger())
	t.Cleanup(reconciler.Shutdown)

	svc := trade.NewService(uow, gw, applier, reconciler, tp, logger.NewNoopLogger(), trade.Config{
		Curve:         testCurve,
		FeeRate:       testFeeRate,
		MinTradeValue: decimal.NewFromInt(1),
		MaxTradeValue: decimal.NewFromInt(150000),
	})
	return svc, reconciler
}

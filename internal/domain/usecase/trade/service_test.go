package trade_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	"github.com/coinpesa/coinpesa/internal/domain/port/gateway"
	"github.com/coinpesa/coinpesa/internal/domain/usecase/trade"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/model"
)

func TestCreateTradeWalletBuy(t *testing.T) {
	ctx := context.Background()
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.Zero)
	seedWallet(t, db, 1, decimal.NewFromInt(1000))
	svc, _ := newTestService(t, uow, &fakeGateway{})

	txn, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
		UserID:  1,
		CoinID:  coinID,
		Kind:    entity.KindBuy,
		Amount:  decimal.NewFromInt(50),
		Funding: entity.FundingWallet,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, txn.Status)
	assert.True(t, txn.TotalValue.Equal(decimal.NewFromInt(100)))

	// 50 units at 2 debit 100 from the wallet
	assert.True(t, getWalletBalance(t, db, 1).Equal(decimal.NewFromInt(900)))

	holding, err := uow.GetHoldingRepository(ctx).Get(ctx, 1, coinID)
	require.NoError(t, err)
	assert.True(t, holding.Amount.Equal(decimal.NewFromInt(50)))
	assert.True(t, holding.AvgBuyPrice.Equal(decimal.NewFromInt(2)))

	coin := getCoin(t, db, coinID)
	assert.True(t, coin.CirculatingSupply.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, uint64(1), coin.HolderCount)
	assert.True(t, coin.CurrentPrice.Equal(decimal.RequireFromString("2.5")))

	assert.Equal(t, int64(1), countCommissions(t, db, txn.ID))

	// The poll query sees the settled record
	stored, err := svc.GetTrade(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, stored.Status)
}

func TestCreateTradeWalletBuyInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.Zero)
	seedWallet(t, db, 1, decimal.NewFromInt(10))
	svc, _ := newTestService(t, uow, &fakeGateway{})

	txn, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
		UserID:  1,
		CoinID:  coinID,
		Kind:    entity.KindBuy,
		Amount:  decimal.NewFromInt(50),
		Funding: entity.FundingWallet,
	})
	assert.ErrorIs(t, err, errs.ErrInsufficientBalance)

	// Everything rolled back: no record, no debit, no holding
	_, err = uow.GetTransactionRepository(ctx).GetByID(ctx, txn.ID)
	assert.ErrorIs(t, err, errs.ErrTransactionNotFound)
	assert.True(t, getWalletBalance(t, db, 1).Equal(decimal.NewFromInt(10)))
	_, err = uow.GetHoldingRepository(ctx).Get(ctx, 1, coinID)
	assert.ErrorIs(t, err, errs.ErrHoldingNotFound)
}

func TestCreateTradeSell(t *testing.T) {
	ctx := context.Background()

	t.Run("partial sell credits the wallet net of commission", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.NewFromInt(100))
		seedHolding(t, db, 1, coinID, decimal.NewFromInt(100), decimal.NewFromInt(2))
		svc, _ := newTestService(t, uow, &fakeGateway{})

		// Price at 100 circulating is 3; 40 units gross 120, fee 1.2
		txn, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID: 1,
			CoinID: coinID,
			Kind:   entity.KindSell,
			Amount: decimal.NewFromInt(40),
			Payout: entity.FundingWallet,
		})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, txn.Status)

		// No wallet existed; the first credit creates one
		assert.True(t, getWalletBalance(t, db, 1).Equal(decimal.RequireFromString("118.8")))

		holding, err := uow.GetHoldingRepository(ctx).Get(ctx, 1, coinID)
		require.NoError(t, err)
		assert.True(t, holding.Amount.Equal(decimal.NewFromInt(60)))
		assert.True(t, holding.AvgBuyPrice.Equal(decimal.NewFromInt(2)),
			"sells must not disturb the average buy price")

		coin := getCoin(t, db, coinID)
		assert.True(t, coin.CirculatingSupply.Equal(decimal.NewFromInt(60)))
		assert.Equal(t, uint64(1), coin.HolderCount)
		assert.True(t, coin.CurrentPrice.Equal(decimal.RequireFromString("2.6")))
	})

	t.Run("full sell removes the position", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.NewFromInt(100))
		seedHolding(t, db, 1, coinID, decimal.NewFromInt(100), decimal.NewFromInt(2))
		svc, _ := newTestService(t, uow, &fakeGateway{})

		txn, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID: 1,
			CoinID: coinID,
			Kind:   entity.KindSell,
			Amount: decimal.NewFromInt(100),
			Payout: entity.FundingWallet,
		})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, txn.Status)

		_, err = uow.GetHoldingRepository(ctx).Get(ctx, 1, coinID)
		assert.ErrorIs(t, err, errs.ErrHoldingNotFound)

		coin := getCoin(t, db, coinID)
		assert.True(t, coin.CirculatingSupply.IsZero())
		assert.Equal(t, uint64(0), coin.HolderCount)

		// Gross 300 minus 1% commission
		assert.True(t, getWalletBalance(t, db, 1).Equal(decimal.NewFromInt(297)))
	})

	t.Run("mpesa payout skips the wallet", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.NewFromInt(100))
		seedHolding(t, db, 1, coinID, decimal.NewFromInt(100), decimal.NewFromInt(2))
		svc, _ := newTestService(t, uow, &fakeGateway{})

		txn, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID: 1,
			CoinID: coinID,
			Kind:   entity.KindSell,
			Amount: decimal.NewFromInt(40),
			Payout: entity.FundingMpesa,
			Phone:  "0712345678",
		})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, txn.Status)
		assert.Equal(t, entity.FundingMpesa, txn.Payout)
		assert.Equal(t, "254712345678", txn.PayerPhone)

		// Disbursement is out of band; no internal wallet appears
		var wallets int64
		require.NoError(t, db.Model(&model.Wallet{}).Where("user_id = ?", 1).Count(&wallets).Error)
		assert.Equal(t, int64(0), wallets)
	})

	t.Run("selling more than held", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.NewFromInt(100))
		seedHolding(t, db, 1, coinID, decimal.NewFromInt(10), decimal.NewFromInt(2))
		svc, _ := newTestService(t, uow, &fakeGateway{})

		_, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID: 1,
			CoinID: coinID,
			Kind:   entity.KindSell,
			Amount: decimal.NewFromInt(50),
			Payout: entity.FundingWallet,
		})
		assert.ErrorIs(t, err, errs.ErrInsufficientHolding)

		// Rolled back in full
		coin := getCoin(t, db, coinID)
		assert.True(t, coin.CirculatingSupply.Equal(decimal.NewFromInt(100)))
		holding, err := uow.GetHoldingRepository(ctx).Get(ctx, 1, coinID)
		require.NoError(t, err)
		assert.True(t, holding.Amount.Equal(decimal.NewFromInt(10)))
	})

	t.Run("selling with no position at all", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.NewFromInt(100))
		svc, _ := newTestService(t, uow, &fakeGateway{})

		_, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID: 7,
			CoinID: coinID,
			Kind:   entity.KindSell,
			Amount: decimal.NewFromInt(5),
			Payout: entity.FundingWallet,
		})
		assert.ErrorIs(t, err, errs.ErrInsufficientHolding)
	})
}

func TestCreateTradeMpesaBuy(t *testing.T) {
	ctx := context.Background()

	t.Run("initiates the push and parks the trade", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.Zero)
		gw := &fakeGateway{externalRef: "ws_CO_100"}
		svc, _ := newTestService(t, uow, gw)

		txn, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID:  1,
			CoinID:  coinID,
			Kind:    entity.KindBuy,
			Amount:  decimal.NewFromInt(50),
			Funding: entity.FundingMpesa,
			Phone:   "0712345678",
		})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusStkSent, txn.Status)
		assert.Equal(t, "ws_CO_100", txn.ExternalRef)

		require.Len(t, gw.initiations, 1)
		assert.Equal(t, "254712345678", gw.initiations[0].Phone)
		assert.True(t, gw.initiations[0].Amount.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, txn.ID, gw.initiations[0].TransactionRef)

		// Nothing settles until the payment result arrives
		coin := getCoin(t, db, coinID)
		assert.True(t, coin.CirculatingSupply.IsZero())
		_, err = uow.GetHoldingRepository(ctx).Get(ctx, 1, coinID)
		assert.ErrorIs(t, err, errs.ErrHoldingNotFound)
	})

	t.Run("success callback settles, re-delivery is a no-op", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.Zero)
		svc, _ := newTestService(t, uow, &fakeGateway{externalRef: "ws_CO_101"})

		txn, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID:  1,
			CoinID:  coinID,
			Kind:    entity.KindBuy,
			Amount:  decimal.NewFromInt(50),
			Funding: entity.FundingMpesa,
			Phone:   "0712345678",
		})
		require.NoError(t, err)

		result := &gateway.CallbackResult{
			ExternalRef:   "ws_CO_101",
			ResultCode:    0,
			ResultDesc:    "The service request is processed successfully.",
			ReceiptNumber: "NLJ7RT61SV",
			Amount:        decimal.NewFromInt(100),
		}
		require.NoError(t, svc.ProcessGatewayResult(ctx, result))

		stored, err := svc.GetTrade(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, stored.Status)
		assert.Equal(t, "NLJ7RT61SV", stored.ReceiptNumber)

		coin := getCoin(t, db, coinID)
		assert.True(t, coin.CirculatingSupply.Equal(decimal.NewFromInt(50)))

		// Providers re-deliver; the ledger must not move twice
		require.NoError(t, svc.ProcessGatewayResult(ctx, result))
		coin = getCoin(t, db, coinID)
		assert.True(t, coin.CirculatingSupply.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, int64(1), countCommissions(t, db, txn.ID))
	})

	t.Run("failure callback fails the trade without settling", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.Zero)
		svc, _ := newTestService(t, uow, &fakeGateway{externalRef: "ws_CO_102"})

		txn, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID:  1,
			CoinID:  coinID,
			Kind:    entity.KindBuy,
			Amount:  decimal.NewFromInt(50),
			Funding: entity.FundingMpesa,
			Phone:   "0712345678",
		})
		require.NoError(t, err)

		require.NoError(t, svc.ProcessGatewayResult(ctx, &gateway.CallbackResult{
			ExternalRef: "ws_CO_102",
			ResultCode:  1032,
			ResultDesc:  "Request cancelled by user",
		}))

		stored, err := svc.GetTrade(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusFailed, stored.Status)
		assert.Equal(t, "Request cancelled by user", stored.FailureReason)

		coin := getCoin(t, db, coinID)
		assert.True(t, coin.CirculatingSupply.IsZero())
	})

	t.Run("callback for an unknown reference is acknowledged", func(t *testing.T) {
		uow, db := newTestStore(t)
		seedCoin(t, db, decimal.Zero)
		svc, _ := newTestService(t, uow, &fakeGateway{})

		err := svc.ProcessGatewayResult(ctx, &gateway.CallbackResult{
			ExternalRef: "ws_CO_unseen",
			ResultCode:  0,
		})
		assert.NoError(t, err)
	})

	t.Run("gateway rejection fails the trade", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.Zero)
		gw := &fakeGateway{err: errs.NewGatewayError("1", "Unable to lock subscriber")}
		svc, _ := newTestService(t, uow, gw)

		txn, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID:  1,
			CoinID:  coinID,
			Kind:    entity.KindBuy,
			Amount:  decimal.NewFromInt(50),
			Funding: entity.FundingMpesa,
			Phone:   "0712345678",
		})
		assert.ErrorIs(t, err, errs.ErrGatewayRejected)

		// The intent is recorded as failed so support can see it
		stored, err := svc.GetTrade(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusFailed, stored.Status)
	})
}

func TestCreateTradeGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("trading paused", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.Zero)
		require.NoError(t, db.Model(&model.Coin{}).Where("id = ?", coinID).
			Update("trading_paused", true).Error)
		svc, _ := newTestService(t, uow, &fakeGateway{})

		_, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID:  1,
			CoinID:  coinID,
			Kind:    entity.KindBuy,
			Amount:  decimal.NewFromInt(10),
			Funding: entity.FundingWallet,
		})
		assert.ErrorIs(t, err, errs.ErrTradingPaused)
	})

	t.Run("value below minimum", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.Zero)
		svc, _ := newTestService(t, uow, &fakeGateway{})

		_, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID:  1,
			CoinID:  coinID,
			Kind:    entity.KindBuy,
			Amount:  decimal.RequireFromString("0.1"),
			Funding: entity.FundingWallet,
		})
		assert.ErrorIs(t, err, errs.ErrAmountOutOfRange)
	})

	t.Run("value above maximum", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.Zero)
		svc, _ := newTestService(t, uow, &fakeGateway{})

		_, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID:  1,
			CoinID:  coinID,
			Kind:    entity.KindBuy,
			Amount:  decimal.NewFromInt(80000),
			Funding: entity.FundingWallet,
		})
		assert.ErrorIs(t, err, errs.ErrAmountOutOfRange)
	})

	t.Run("supply exhausted", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.NewFromInt(500))
		svc, _ := newTestService(t, uow, &fakeGateway{})

		_, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID:  1,
			CoinID:  coinID,
			Kind:    entity.KindBuy,
			Amount:  decimal.NewFromInt(600),
			Funding: entity.FundingWallet,
		})
		assert.ErrorIs(t, err, errs.ErrSupplyExhausted)
	})

	t.Run("unknown coin", func(t *testing.T) {
		uow, _ := newTestStore(t)
		svc, _ := newTestService(t, uow, &fakeGateway{})

		_, err := svc.CreateTrade(ctx, trade.CreateTradeRequest{
			UserID:  1,
			CoinID:  99,
			Kind:    entity.KindBuy,
			Amount:  decimal.NewFromInt(10),
			Funding: entity.FundingWallet,
		})
		assert.ErrorIs(t, err, errs.ErrCoinNotFound)
	})
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.NewFromInt(100))
	svc, _ := newTestService(t, uow, &fakeGateway{})

	price, err := svc.Quote(ctx, coinID)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(3)))

	_, err = svc.Quote(ctx, 99)
	assert.ErrorIs(t, err, errs.ErrCoinNotFound)
}

func TestReadQueries(t *testing.T) {
	ctx := context.Background()
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.NewFromInt(100))
	seedWallet(t, db, 1, decimal.NewFromInt(250))
	seedHolding(t, db, 1, coinID, decimal.NewFromInt(100), decimal.NewFromInt(2))
	svc, _ := newTestService(t, uow, &fakeGateway{})

	coins, err := svc.ListCoins(ctx)
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, "CPX", coins[0].Symbol)

	wallet, err := svc.GetWallet(ctx, 1)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.Equal(decimal.NewFromInt(250)))

	holdings, err := svc.GetHoldings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, holdings, 1)
	assert.Equal(t, coinID, holdings[0].CoinID)

	_, err = svc.GetWallet(ctx, 42)
	assert.ErrorIs(t, err, errs.ErrWalletNotFound)
}

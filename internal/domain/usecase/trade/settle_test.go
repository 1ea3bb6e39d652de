package trade_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/model"
)

func TestApplierComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("credits the ledger exactly once", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.Zero)
		applier := newTestApplier(uow)

		// 50 units at the base price of 2, value 100
		txn := createStkSentTransaction(t, uow, 1, coinID,
			decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_001")

		won, err := applier.Complete(ctx, txn.ID, "NLJ7RT61SV")
		require.NoError(t, err)
		assert.True(t, won)

		stored, err := uow.GetTransactionRepository(ctx).GetByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, stored.Status)
		assert.Equal(t, "NLJ7RT61SV", stored.ReceiptNumber)

		holding, err := uow.GetHoldingRepository(ctx).Get(ctx, 1, coinID)
		require.NoError(t, err)
		assert.True(t, holding.Amount.Equal(decimal.NewFromInt(50)))
		assert.True(t, holding.AvgBuyPrice.Equal(decimal.NewFromInt(2)))

		coin := getCoin(t, db, coinID)
		assert.True(t, coin.CirculatingSupply.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, uint64(1), coin.HolderCount)
		assert.True(t, coin.CurrentPrice.Equal(decimal.RequireFromString("2.5")),
			"price should follow the curve after supply growth, got %s", coin.CurrentPrice)

		assert.Equal(t, int64(1), countCommissions(t, db, txn.ID))
	})

	t.Run("second completion is a no-op", func(t *testing.T) {
		uow, db := newTestStore(t)
		coinID := seedCoin(t, db, decimal.Zero)
		applier := newTestApplier(uow)

		txn := createStkSentTransaction(t, uow, 1, coinID,
			decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_002")

		won, err := applier.Complete(ctx, txn.ID, "NLJ7RT61SV")
		require.NoError(t, err)
		require.True(t, won)

		won, err = applier.Complete(ctx, txn.ID, "NLJ7RT61SV")
		require.NoError(t, err)
		assert.False(t, won)

		coin := getCoin(t, db, coinID)
		assert.True(t, coin.CirculatingSupply.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, int64(1), countCommissions(t, db, txn.ID))
	})

	t.Run("unknown transaction", func(t *testing.T) {
		uow, db := newTestStore(t)
		seedCoin(t, db, decimal.Zero)
		applier := newTestApplier(uow)

		_, err := applier.Complete(ctx, "no-such-id", "NLJ7RT61SV")
		assert.ErrorIs(t, err, errs.ErrTransactionNotFound)
	})
}

func TestApplierCompleteThenTimeout(t *testing.T) {
	ctx := context.Background()
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.Zero)
	applier := newTestApplier(uow)

	txn := createStkSentTransaction(t, uow, 1, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_003")

	won, err := applier.Complete(ctx, txn.ID, "NLJ7RT61SV")
	require.NoError(t, err)
	require.True(t, won)

	won, err = applier.Timeout(ctx, txn.ID)
	require.NoError(t, err)
	assert.False(t, won, "timeout must not overwrite a completed transaction")

	stored, err := uow.GetTransactionRepository(ctx).GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, stored.Status)
}

func TestApplierTimeoutThenComplete(t *testing.T) {
	ctx := context.Background()
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.Zero)
	applier := newTestApplier(uow)

	txn := createStkSentTransaction(t, uow, 1, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_004")

	won, err := applier.Timeout(ctx, txn.ID)
	require.NoError(t, err)
	require.True(t, won)

	won, err = applier.Complete(ctx, txn.ID, "NLJ7RT61SV")
	require.NoError(t, err)
	assert.False(t, won, "late completion must lose to the timeout claim")

	stored, err := uow.GetTransactionRepository(ctx).GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusTimeout, stored.Status)

	// Loser left the ledger untouched
	_, err = uow.GetHoldingRepository(ctx).Get(ctx, 1, coinID)
	assert.ErrorIs(t, err, errs.ErrHoldingNotFound)
	coin := getCoin(t, db, coinID)
	assert.True(t, coin.CirculatingSupply.IsZero())
	assert.Equal(t, int64(0), countCommissions(t, db, txn.ID))
}

func TestApplierFail(t *testing.T) {
	ctx := context.Background()
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.Zero)
	applier := newTestApplier(uow)

	txn := createStkSentTransaction(t, uow, 1, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_005")

	won, err := applier.Fail(ctx, txn.ID, "Request cancelled by user")
	require.NoError(t, err)
	assert.True(t, won)

	stored, err := uow.GetTransactionRepository(ctx).GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFailed, stored.Status)
	assert.Equal(t, "Request cancelled by user", stored.FailureReason)

	_, err = uow.GetHoldingRepository(ctx).Get(ctx, 1, coinID)
	assert.ErrorIs(t, err, errs.ErrHoldingNotFound)
	coin := getCoin(t, db, coinID)
	assert.True(t, coin.CirculatingSupply.IsZero())
	assert.Equal(t, int64(0), countCommissions(t, db, txn.ID))
}

func TestApplierCompleteMergesIntoExistingHolding(t *testing.T) {
	ctx := context.Background()
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.NewFromInt(100))
	seedHolding(t, db, 1, coinID, decimal.NewFromInt(100), decimal.NewFromInt(2))
	applier := newTestApplier(uow)

	// Price at 100 circulating is 3; buying 100 more at 3 moves the
	// weighted average from 2 to 2.5.
	txn := createStkSentTransaction(t, uow, 1, coinID,
		decimal.NewFromInt(100), decimal.NewFromInt(3), "ws_CO_006")

	won, err := applier.Complete(ctx, txn.ID, "NLJ7RT61SV")
	require.NoError(t, err)
	require.True(t, won)

	holding, err := uow.GetHoldingRepository(ctx).Get(ctx, 1, coinID)
	require.NoError(t, err)
	assert.True(t, holding.Amount.Equal(decimal.NewFromInt(200)))
	assert.True(t, holding.AvgBuyPrice.Equal(decimal.RequireFromString("2.5")))

	// Existing holder, so the holder count must not grow
	coin := getCoin(t, db, coinID)
	assert.Equal(t, uint64(1), coin.HolderCount)
	assert.True(t, coin.CirculatingSupply.Equal(decimal.NewFromInt(200)))
}

func TestApplierCompleteSupplyCeiling(t *testing.T) {
	ctx := context.Background()
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.NewFromInt(980))
	applier := newTestApplier(uow)

	// Total supply is 1000; settling a 50-unit buy would breach it. The
	// whole settlement rolls back and the transaction stays claimable.
	txn := createStkSentTransaction(t, uow, 1, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_007")

	won, err := applier.Complete(ctx, txn.ID, "NLJ7RT61SV")
	assert.False(t, won)
	require.Error(t, err)
	var integrityErr *errs.LedgerIntegrityError
	assert.ErrorAs(t, err, &integrityErr)
	assert.ErrorIs(t, err, errs.ErrSupplyExhausted)

	stored, err := uow.GetTransactionRepository(ctx).GetByID(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusStkSent, stored.Status)

	coin := getCoin(t, db, coinID)
	assert.True(t, coin.CirculatingSupply.Equal(decimal.NewFromInt(980)))
	var holdings int64
	require.NoError(t, db.Model(&model.Holding{}).Count(&holdings).Error)
	assert.Equal(t, int64(0), holdings)
}

package trade_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	"github.com/coinpesa/coinpesa/internal/domain/port/persistence"
	"github.com/coinpesa/coinpesa/internal/domain/usecase/trade"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/logger"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/model"
	timeProvider "github.com/coinpesa/coinpesa/internal/infrastructure/adapter/time"
)

func newTestReconciler(t *testing.T, uow persistence.UnitOfWork, cfg trade.ReconcileConfig) (*trade.Reconciler, *trade.Applier) {
	t.Helper()

	applier := newTestApplier(uow)
	reconciler := trade.NewReconciler(applier, uow, cfg,
		timeProvider.NewRealTimeProvider(), logger.NewNoopLogger())
	t.Cleanup(reconciler.Shutdown)
	return reconciler, applier
}

func transactionStatus(t *testing.T, uow persistence.UnitOfWork, id string) entity.TransactionStatus {
	t.Helper()

	txn, err := uow.GetTransactionRepository(context.Background()).GetByID(context.Background(), id)
	require.NoError(t, err)
	return txn.Status
}

func TestWatcherTimesOutUnpaidTransaction(t *testing.T) {
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.Zero)
	reconciler, _ := newTestReconciler(t, uow, trade.ReconcileConfig{
		InitialDelay: 15 * time.Millisecond,
		Interval:     15 * time.Millisecond,
		MaxAttempts:  3,
		StaleAfter:   time.Minute,
	})

	txn := createStkSentTransaction(t, uow, 1, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_200")
	reconciler.Watch(txn.ID)

	require.Eventually(t, func() bool {
		stored, err := uow.GetTransactionRepository(context.Background()).
			GetByID(context.Background(), txn.ID)
		return err == nil && stored.Status == entity.StatusTimeout
	}, 2*time.Second, 10*time.Millisecond)

	// Timeout never touches the ledger
	coin := getCoin(t, db, coinID)
	assert.True(t, coin.CirculatingSupply.IsZero())
}

func TestWatcherStandsDownAfterCompletion(t *testing.T) {
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.Zero)
	reconciler, applier := newTestReconciler(t, uow, trade.ReconcileConfig{
		InitialDelay: 15 * time.Millisecond,
		Interval:     15 * time.Millisecond,
		MaxAttempts:  3,
		StaleAfter:   time.Minute,
	})

	txn := createStkSentTransaction(t, uow, 1, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_201")
	reconciler.Watch(txn.ID)

	won, err := applier.Complete(context.Background(), txn.ID, "NLJ7RT61SV")
	require.NoError(t, err)
	require.True(t, won)

	// Give the watcher its full attempt window; the completed status
	// must survive it.
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, entity.StatusCompleted, transactionStatus(t, uow, txn.ID))
}

func TestWatcherCancel(t *testing.T) {
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.Zero)
	reconciler, _ := newTestReconciler(t, uow, trade.ReconcileConfig{
		InitialDelay: 15 * time.Millisecond,
		Interval:     15 * time.Millisecond,
		MaxAttempts:  3,
		StaleAfter:   time.Minute,
	})

	txn := createStkSentTransaction(t, uow, 1, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_202")
	reconciler.Watch(txn.ID)
	reconciler.Cancel(txn.ID)

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, entity.StatusStkSent, transactionStatus(t, uow, txn.ID))
}

func TestExpireStale(t *testing.T) {
	ctx := context.Background()
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.Zero)
	reconciler, _ := newTestReconciler(t, uow, trade.ReconcileConfig{
		InitialDelay: time.Second,
		Interval:     time.Second,
		MaxAttempts:  120,
		StaleAfter:   100 * time.Millisecond,
	})

	backdate := func(id string) {
		require.NoError(t, db.Model(&model.Transaction{}).Where("id = ?", id).
			Update("updated_at", time.Now().Add(-time.Hour)).Error)
	}

	abandoned := createStkSentTransaction(t, uow, 1, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_203")
	backdate(abandoned.ID)

	watched := createStkSentTransaction(t, uow, 2, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_204")
	backdate(watched.ID)
	reconciler.Watch(watched.ID)

	fresh := createStkSentTransaction(t, uow, 3, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_205")

	require.NoError(t, reconciler.ExpireStale(ctx))

	assert.Equal(t, entity.StatusTimeout, transactionStatus(t, uow, abandoned.ID))
	assert.Equal(t, entity.StatusStkSent, transactionStatus(t, uow, watched.ID),
		"a transaction with a live watcher belongs to the watcher")
	assert.Equal(t, entity.StatusStkSent, transactionStatus(t, uow, fresh.ID))
}

func TestShutdownStopsWatchers(t *testing.T) {
	uow, db := newTestStore(t)
	coinID := seedCoin(t, db, decimal.Zero)

	applier := newTestApplier(uow)
	reconciler := trade.NewReconciler(applier, uow, trade.ReconcileConfig{
		InitialDelay: time.Minute,
		Interval:     time.Minute,
		MaxAttempts:  10,
		StaleAfter:   time.Minute,
	}, timeProvider.NewRealTimeProvider(), logger.NewNoopLogger())

	txn := createStkSentTransaction(t, uow, 1, coinID,
		decimal.NewFromInt(50), decimal.NewFromInt(2), "ws_CO_206")
	reconciler.Watch(txn.ID)

	done := make(chan struct{})
	go func() {
		reconciler.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not cancel the pending watcher")
	}

	// A post-shutdown watch must not start anything
	reconciler.Watch(txn.ID)
	assert.Equal(t, entity.StatusStkSent, transactionStatus(t, uow, txn.ID))
}

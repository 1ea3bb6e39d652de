package trade

import (
	"context"
	"sync"
	"time"

	"github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/domain/port/persistence"
)

// ReconcileConfig bounds the polling fallback for gateway-funded trades
type ReconcileConfig struct {
	InitialDelay time.Duration // First check waits for the payer to act on the prompt
	Interval     time.Duration // Delay between subsequent checks
	MaxAttempts  int           // Attempts before declaring timeout
	StaleAfter   time.Duration // Sweep cutoff for transactions whose watcher died
}

// Reconciler is the polling fallback for transactions awaiting a gateway
// callback. Each watched transaction gets its own bounded watcher
// goroutine; watchers only read status and never mutate the ledger. When
// attempts are exhausted the watcher declares timeout through the same
// guarded transition the callback path uses, so a completion that already
// won is never overwritten.
type Reconciler struct {
	applier      *Applier
	uow          persistence.UnitOfWork
	cfg          ReconcileConfig
	timeProvider core.TimeProvider
	logger       core.Logger

	// Per-transaction watcher cancel functions
	watchers      sync.Map // map[string]context.CancelFunc
	watcherGroup  sync.WaitGroup
	shutdownOnce  sync.Once
	shuttingDown  chan struct{}
}

// NewReconciler creates a new reconciliation poller
func NewReconciler(
	applier *Applier,
	uow persistence.UnitOfWork,
	cfg ReconcileConfig,
	timeProvider core.TimeProvider,
	logger core.Logger,
) *Reconciler {
	return &Reconciler{
		applier:      applier,
		uow:          uow,
		cfg:          cfg,
		timeProvider: timeProvider,
		logger:       logger,
		shuttingDown: make(chan struct{}),
	}
}

// Watch starts a bounded watcher for a transaction in stk_sent.
// Watching the same transaction twice is a no-op.
func (r *Reconciler) Watch(transactionID string) {
	select {
	case <-r.shuttingDown:
		return
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	if _, loaded := r.watchers.LoadOrStore(transactionID, cancel); loaded {
		cancel()
		return
	}

	r.logger.Debug("Starting reconciliation watcher", map[string]any{
		"transaction_id": transactionID,
		"max_attempts":   r.cfg.MaxAttempts,
	})

	r.watcherGroup.Add(1)
	go r.watch(ctx, transactionID)
}

// Cancel stops future poll attempts for a transaction. It does not cancel
// the in-flight external payment: a later callback may still arrive and
// complete the transaction after the watcher is gone.
func (r *Reconciler) Cancel(transactionID string) {
	if cancel, ok := r.watchers.LoadAndDelete(transactionID); ok {
		cancel.(context.CancelFunc)()
	}
}

// watch polls transaction status until a terminal state is observed or
// attempts are exhausted
func (r *Reconciler) watch(ctx context.Context, transactionID string) {
	defer r.watcherGroup.Done()
	defer r.watchers.Delete(transactionID)

	delay := r.cfg.InitialDelay
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			r.logger.Debug("Reconciliation watcher cancelled", map[string]any{
				"transaction_id": transactionID,
				"attempt":        attempt,
			})
			return
		case <-r.timeProvider.After(delay):
		}
		delay = r.cfg.Interval

		txn, err := r.uow.GetTransactionRepository(ctx).GetByID(ctx, transactionID)
		if err != nil {
			r.logger.Warn("Reconciliation poll failed", map[string]any{
				"transaction_id": transactionID,
				"attempt":        attempt,
				"error":          err.Error(),
			})
			continue
		}

		if txn.IsTerminal() {
			r.logger.Info("Reconciliation observed terminal state", map[string]any{
				"transaction_id": transactionID,
				"status":         txn.Status,
				"attempt":        attempt,
			})
			return
		}
	}

	// Exhausted without a terminal signal: declare timeout through the
	// guard. A callback that completes the transaction first wins; this
	// claim then loses and nothing is overwritten.
	won, err := r.applier.Timeout(context.Background(), transactionID)
	if err != nil {
		r.logger.Error("Failed to time out transaction", map[string]any{
			"transaction_id": transactionID,
			"error":          err.Error(),
		})
		return
	}
	r.logger.Info("Reconciliation exhausted", map[string]any{
		"transaction_id": transactionID,
		"timed_out_here": won,
	})
}

// ExpireStale times out non-terminal gateway transactions whose watcher is
// gone (process restart, client disconnect). Run periodically by the
// scheduler; uses the same guarded transition as everything else.
func (r *Reconciler) ExpireStale(ctx context.Context) error {
	cutoff := r.timeProvider.Now().Add(-r.cfg.StaleAfter)
	stale, err := r.uow.GetTransactionRepository(ctx).ListStaleAwaitingPayment(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, txn := range stale {
		if _, watched := r.watchers.Load(txn.ID); watched {
			continue
		}
		won, err := r.applier.Timeout(ctx, txn.ID)
		if err != nil {
			r.logger.Error("Failed to expire stale transaction", map[string]any{
				"transaction_id": txn.ID,
				"error":          err.Error(),
			})
			continue
		}
		if won {
			r.logger.Info("Expired stale transaction", map[string]any{
				"transaction_id": txn.ID,
				"updated_at":     txn.UpdatedAt,
			})
		}
	}
	return nil
}

// Shutdown cancels all watchers and waits for them to stop
func (r *Reconciler) Shutdown() {
	r.shutdownOnce.Do(func() {
		close(r.shuttingDown)
	})

	r.watchers.Range(func(id, cancel any) bool {
		cancel.(context.CancelFunc)()
		return true
	})
	r.watcherGroup.Wait()

	r.logger.Info("Reconciler shut down", nil)
}

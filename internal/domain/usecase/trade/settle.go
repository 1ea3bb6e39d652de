package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	"github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/domain/port/persistence"
	"github.com/coinpesa/coinpesa/internal/domain/pricing"
)

// Applier performs the settlement of a resolved transaction: the guarded
// terminal transition plus the ledger mutation (holding, coin aggregates,
// commission, wallet) as one unit of work. The guarded transition makes it
// safe to invoke concurrently from the callback receiver and the
// reconciliation poller: only the winner of the claim mutates the ledger,
// the loser observes the already-terminal status and does nothing.
type Applier struct {
	uow          persistence.UnitOfWork
	curve        pricing.CurveParams
	feeRate      decimal.Decimal
	timeProvider core.TimeProvider
	logger       core.Logger
}

// NewApplier creates a new settlement applier
func NewApplier(
	uow persistence.UnitOfWork,
	curve pricing.CurveParams,
	feeRate decimal.Decimal,
	timeProvider core.TimeProvider,
	logger core.Logger,
) *Applier {
	return &Applier{
		uow:          uow,
		curve:        curve,
		feeRate:      feeRate,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Complete moves a transaction to completed and credits the ledger, exactly
// once. Returns true only when this caller won the guarded transition and
// the ledger mutation committed; false with a nil error means another path
// already settled the transaction (or it had already failed or timed out).
func (a *Applier) Complete(ctx context.Context, transactionID, receiptNumber string) (bool, error) {
	txCtx, err := a.uow.Begin(ctx)
	if err != nil {
		return false, err
	}

	repo := a.uow.GetTransactionRepository(txCtx)
	txn, err := repo.GetByID(txCtx, transactionID)
	if err != nil {
		_ = a.uow.Rollback(txCtx)
		return false, err
	}
	if txn.IsTerminal() {
		_ = a.uow.Rollback(txCtx)
		a.logger.Debug("Completion skipped, transaction already terminal", map[string]any{
			"transaction_id": transactionID,
			"status":         txn.Status,
		})
		return false, nil
	}

	if err := txn.MarkCompleted(receiptNumber, a.timeProvider); err != nil {
		_ = a.uow.Rollback(txCtx)
		return false, err
	}

	won, err := repo.ClaimTransition(txCtx, txn, entity.NonTerminalStatuses())
	if err != nil {
		_ = a.uow.Rollback(txCtx)
		return false, err
	}
	if !won {
		_ = a.uow.Rollback(txCtx)
		a.logger.Info("Lost completion claim to concurrent path", map[string]any{
			"transaction_id": transactionID,
		})
		return false, nil
	}

	if err := a.applyLedger(txCtx, txn); err != nil {
		_ = a.uow.Rollback(txCtx)
		integrityErr := errs.NewLedgerIntegrityError(transactionID, stageOf(err), err)
		a.logger.Error("Settlement rolled back, manual reconciliation required", map[string]any{
			"transaction_id": transactionID,
			"external_ref":   txn.ExternalRef,
			"error":          err.Error(),
		})
		return false, integrityErr
	}

	if err := a.uow.Commit(txCtx); err != nil {
		_ = a.uow.Rollback(txCtx)
		return false, err
	}

	a.logger.Info("Transaction settled", map[string]any{
		"transaction_id": transactionID,
		"kind":           txn.Kind,
		"amount":         txn.Amount.String(),
		"total_value":    txn.TotalValue.String(),
		"receipt":        receiptNumber,
	})
	return true, nil
}

// Fail moves a transaction to failed through the same guard. No ledger
// mutation occurs on failure.
func (a *Applier) Fail(ctx context.Context, transactionID, reason string) (bool, error) {
	return a.terminate(ctx, transactionID, func(txn *entity.Transaction) error {
		return txn.MarkFailed(reason, a.timeProvider)
	})
}

// Timeout moves a transaction to timeout after reconciliation exhaustion.
// Guarded like every terminal transition, so a completion that already won
// (or wins a moment later on another machine) is never overwritten.
func (a *Applier) Timeout(ctx context.Context, transactionID string) (bool, error) {
	return a.terminate(ctx, transactionID, func(txn *entity.Transaction) error {
		return txn.MarkTimedOut(a.timeProvider)
	})
}

// terminate performs a guarded transition into a non-crediting terminal state
func (a *Applier) terminate(ctx context.Context, transactionID string, mark func(*entity.Transaction) error) (bool, error) {
	txCtx, err := a.uow.Begin(ctx)
	if err != nil {
		return false, err
	}

	repo := a.uow.GetTransactionRepository(txCtx)
	txn, err := repo.GetByID(txCtx, transactionID)
	if err != nil {
		_ = a.uow.Rollback(txCtx)
		return false, err
	}
	if txn.IsTerminal() {
		_ = a.uow.Rollback(txCtx)
		return false, nil
	}

	if err := mark(txn); err != nil {
		_ = a.uow.Rollback(txCtx)
		return false, err
	}

	won, err := repo.ClaimTransition(txCtx, txn, entity.NonTerminalStatuses())
	if err != nil {
		_ = a.uow.Rollback(txCtx)
		return false, err
	}
	if !won {
		_ = a.uow.Rollback(txCtx)
		return false, nil
	}

	if err := a.uow.Commit(txCtx); err != nil {
		_ = a.uow.Rollback(txCtx)
		return false, err
	}

	a.logger.Info("Transaction terminated without settlement", map[string]any{
		"transaction_id": transactionID,
		"status":         txn.Status,
		"reason":         txn.FailureReason,
	})
	return true, nil
}

// SettleInUnit claims and settles a transaction inside an already-open unit
// of work. Used by the synchronous wallet-funded path, which creates,
// claims and settles the trade in a single commit.
func (a *Applier) SettleInUnit(txCtx context.Context, txn *entity.Transaction) error {
	if err := txn.MarkCompleted("", a.timeProvider); err != nil {
		return err
	}

	repo := a.uow.GetTransactionRepository(txCtx)
	won, err := repo.ClaimTransition(txCtx, txn, entity.NonTerminalStatuses())
	if err != nil {
		return err
	}
	if !won {
		return errs.ErrTransactionTerminal
	}

	return a.applyLedger(txCtx, txn)
}

// applyLedger performs the ledger mutation for a claimed transaction:
// holding upsert or decrement, coin supply and holder-count adjustment with
// price recomputation, commission record, and wallet movement. Runs inside
// the caller's unit of work; any failure aborts the whole settlement.
func (a *Applier) applyLedger(txCtx context.Context, txn *entity.Transaction) error {
	holdings := a.uow.GetHoldingRepository(txCtx)
	coins := a.uow.GetCoinRepository(txCtx)
	commissions := a.uow.GetCommissionRepository(txCtx)
	wallets := a.uow.GetWalletRepository(txCtx)

	priceFn := func(circulating decimal.Decimal) decimal.Decimal {
		return pricing.Price(circulating, a.curve)
	}
	fee := txn.TotalValue.Mul(a.feeRate)

	switch txn.Kind {
	case entity.KindBuy:
		if txn.Funding == entity.FundingWallet {
			if err := wallets.AdjustBalance(txCtx, txn.UserID, txn.TotalValue.Neg()); err != nil {
				return fmt.Errorf("wallet debit: %w", err)
			}
		}

		holding, err := holdings.Get(txCtx, txn.UserID, txn.CoinID)
		holderDelta := 0
		switch {
		case errors.Is(err, errs.ErrHoldingNotFound):
			holding = entity.NewHolding(txn.UserID, txn.CoinID, txn.Amount, txn.PricePerUnit, a.timeProvider)
			holderDelta = 1
		case err != nil:
			return fmt.Errorf("holding lookup: %w", err)
		default:
			if err := holding.ApplyBuy(txn.Amount, txn.PricePerUnit, a.timeProvider); err != nil {
				return fmt.Errorf("holding merge: %w", err)
			}
		}
		if err := holdings.Save(txCtx, holding); err != nil {
			return fmt.Errorf("holding save: %w", err)
		}

		if err := coins.AdjustSupply(txCtx, txn.CoinID, txn.Amount, holderDelta, priceFn); err != nil {
			return fmt.Errorf("coin supply: %w", err)
		}

	case entity.KindSell:
		holding, err := holdings.Get(txCtx, txn.UserID, txn.CoinID)
		if err != nil {
			if errors.Is(err, errs.ErrHoldingNotFound) {
				return errs.NewInsufficientHoldingError(txn.UserID, txn.CoinID, txn.Amount.String(), "0")
			}
			return fmt.Errorf("holding lookup: %w", err)
		}
		if err := holding.ApplySell(txn.Amount, a.timeProvider); err != nil {
			return err
		}

		holderDelta := 0
		if holding.IsEmpty() {
			holderDelta = -1
			if err := holdings.Delete(txCtx, txn.UserID, txn.CoinID); err != nil {
				return fmt.Errorf("holding delete: %w", err)
			}
		} else {
			if err := holdings.Save(txCtx, holding); err != nil {
				return fmt.Errorf("holding save: %w", err)
			}
		}

		if err := coins.AdjustSupply(txCtx, txn.CoinID, txn.Amount.Neg(), holderDelta, priceFn); err != nil {
			return fmt.Errorf("coin supply: %w", err)
		}

		// Proceeds net of commission go to the internal wallet; an mpesa
		// payout destination is recorded on the transaction and disbursed
		// out of band.
		if txn.Payout == entity.FundingWallet {
			proceeds := txn.TotalValue.Sub(fee)
			err := wallets.AdjustBalance(txCtx, txn.UserID, proceeds)
			if errors.Is(err, errs.ErrWalletNotFound) {
				// First credit for this user creates the wallet
				if err := wallets.Create(txCtx, entity.NewWallet(txn.UserID, a.timeProvider)); err != nil {
					return fmt.Errorf("wallet create: %w", err)
				}
				err = wallets.AdjustBalance(txCtx, txn.UserID, proceeds)
			}
			if err != nil {
				return fmt.Errorf("wallet credit: %w", err)
			}
		}
	}

	commission := entity.NewCommission(txn.ID, txn.TotalValue, a.feeRate, a.timeProvider)
	if err := commissions.Create(txCtx, commission); err != nil {
		return fmt.Errorf("commission record: %w", err)
	}

	return nil
}

// stageOf extracts the sub-mutation stage from a wrapped applyLedger error
func stageOf(err error) string {
	msg := err.Error()
	for i := 0; i < len(msg); i++ {
		if msg[i] == ':' {
			return msg[:i]
		}
	}
	return "settlement"
}

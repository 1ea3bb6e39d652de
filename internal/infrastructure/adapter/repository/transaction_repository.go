package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	coreport "github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/model"
)

// TransactionRepository implements TransactionRepository interface using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// entityToModel converts a transaction entity to a database model
func (r *TransactionRepository) entityToModel(txn *entity.Transaction) model.Transaction {
	return model.Transaction{
		ID:            txn.ID,
		UserID:        txn.UserID,
		CoinID:        txn.CoinID,
		Kind:          string(txn.Kind),
		Amount:        txn.Amount,
		PricePerUnit:  txn.PricePerUnit,
		TotalValue:    txn.TotalValue,
		Funding:       string(txn.Funding),
		Payout:        string(txn.Payout),
		PayerPhone:    txn.PayerPhone,
		ExternalRef:   txn.ExternalRef,
		ReceiptNumber: txn.ReceiptNumber,
		Status:        string(txn.Status),
		FailureReason: txn.FailureReason,
		CreatedAt:     txn.CreatedAt,
		UpdatedAt:     txn.UpdatedAt,
	}
}

// modelToEntity converts a transaction model to an entity
func (r *TransactionRepository) modelToEntity(m *model.Transaction) *entity.Transaction {
	return &entity.Transaction{
		ID:            m.ID,
		UserID:        m.UserID,
		CoinID:        m.CoinID,
		Kind:          entity.TradeKind(m.Kind),
		Amount:        m.Amount,
		PricePerUnit:  m.PricePerUnit,
		TotalValue:    m.TotalValue,
		Funding:       entity.FundingSource(m.Funding),
		Payout:        entity.FundingSource(m.Payout),
		PayerPhone:    m.PayerPhone,
		ExternalRef:   m.ExternalRef,
		ReceiptNumber: m.ReceiptNumber,
		Status:        entity.TransactionStatus(m.Status),
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// Create saves a new transaction
func (r *TransactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	transactionModel := r.entityToModel(txn)

	result := r.db.WithContext(ctx).Create(&transactionModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Warn("Duplicate transaction detected", map[string]any{
				"transaction_id": txn.ID,
			})
			return errs.ErrDuplicateTransaction
		}
		r.logger.Error("Failed to create transaction", map[string]any{
			"transaction_id": txn.ID,
			"error":          result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	r.logger.Debug("Transaction created", map[string]any{
		"transaction_id": txn.ID,
		"user_id":        txn.UserID,
		"kind":           txn.Kind,
	})
	return nil
}

// Update persists mutable fields of a non-terminal transaction
func (r *TransactionRepository) Update(ctx context.Context, txn *entity.Transaction) error {
	m := r.entityToModel(txn)

	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", txn.ID).
		Updates(map[string]interface{}{
			"external_ref":   m.ExternalRef,
			"receipt_number": m.ReceiptNumber,
			"status":         m.Status,
			"failure_reason": m.FailureReason,
			"updated_at":     m.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Error("Failed to update transaction", map[string]any{
			"transaction_id": txn.ID,
			"error":          result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return errs.ErrTransactionNotFound
	}
	return nil
}

// GetByID retrieves a transaction by its opaque id
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	var m model.Transaction
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&m)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		r.logger.Error("Failed to get transaction", map[string]any{
			"transaction_id": id,
			"error":          result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(&m), nil
}

// GetByExternalRef retrieves a transaction by the gateway's correlation id
func (r *TransactionRepository) GetByExternalRef(ctx context.Context, externalRef string) (*entity.Transaction, error) {
	if externalRef == "" {
		return nil, errs.ErrTransactionNotFound
	}

	var m model.Transaction
	result := r.db.WithContext(ctx).Where("external_ref = ?", externalRef).First(&m)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTransactionNotFound
		}
		r.logger.Error("Failed to get transaction by external ref", map[string]any{
			"external_ref": externalRef,
			"error":        result.Error.Error(),
		})
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return r.modelToEntity(&m), nil
}

// ClaimTransition performs the guarded conditional status update: the
// entity's already-mutated state is written only if the stored status is
// still one of fromStatuses. A zero-row update against an existing record
// means another completion path already claimed the transition.
func (r *TransactionRepository) ClaimTransition(
	ctx context.Context,
	txn *entity.Transaction,
	fromStatuses []entity.TransactionStatus,
) (bool, error) {
	m := r.entityToModel(txn)

	statuses := make([]string, 0, len(fromStatuses))
	for _, s := range fromStatuses {
		statuses = append(statuses, string(s))
	}

	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND status IN ?", txn.ID, statuses).
		Updates(map[string]interface{}{
			"external_ref":   m.ExternalRef,
			"receipt_number": m.ReceiptNumber,
			"status":         m.Status,
			"failure_reason": m.FailureReason,
			"updated_at":     m.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Error("Failed to claim status transition", map[string]any{
			"transaction_id": txn.ID,
			"target_status":  txn.Status,
			"error":          result.Error.Error(),
		})
		return false, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Transaction{}).
			Where("id = ?", txn.ID).Count(&count).Error; err != nil {
			return false, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
		}
		if count == 0 {
			return false, errs.ErrTransactionNotFound
		}
		r.logger.Debug("Transition claim lost", map[string]any{
			"transaction_id": txn.ID,
			"target_status":  txn.Status,
		})
		return false, nil
	}

	r.logger.Debug("Transition claim won", map[string]any{
		"transaction_id": txn.ID,
		"target_status":  txn.Status,
	})
	return true, nil
}

// ListStaleAwaitingPayment returns non-terminal gateway-funded transactions
// last updated before the cutoff
func (r *TransactionRepository) ListStaleAwaitingPayment(ctx context.Context, cutoff time.Time) ([]*entity.Transaction, error) {
	var models []model.Transaction
	result := r.db.WithContext(ctx).
		Where("funding = ? AND status IN ? AND updated_at < ?",
			string(entity.FundingMpesa),
			[]string{string(entity.StatusPending), string(entity.StatusStkSent)},
			cutoff).
		Find(&models)

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	transactions := make([]*entity.Transaction, 0, len(models))
	for i := range models {
		transactions = append(transactions, r.modelToEntity(&models[i]))
	}
	return transactions, nil
}

package trade

import (
	"context"

	errs "github.com/coinpesa/coinpesa/internal/domain/error"
	"github.com/coinpesa/coinpesa/internal/domain/port/gateway"
)

// ProcessGatewayResult settles a transaction from an asynchronous provider
// notification. It is safe to invoke any number of times with the same
// payload: the guarded transition makes re-delivery a no-op. The returned
// error is for internal visibility only; the HTTP receiver acknowledges
// the provider regardless.
func (s *Service) ProcessGatewayResult(ctx context.Context, result *gateway.CallbackResult) error {
	txn, err := s.uow.GetTransactionRepository(ctx).GetByExternalRef(ctx, result.ExternalRef)
	if err != nil {
		if errs.IsNotFoundError(err) {
			// Foreign or racing payload: ack and move on, never an error
			// back to the provider.
			s.logger.Warn("Callback for unknown external reference", map[string]any{
				"external_ref": result.ExternalRef,
				"result_code":  result.ResultCode,
			})
			return nil
		}
		return err
	}

	if result.Succeeded() {
		won, err := s.applier.Complete(ctx, txn.ID, result.ReceiptNumber)
		if err != nil {
			return err
		}
		s.logger.Info("Callback processed", map[string]any{
			"transaction_id": txn.ID,
			"external_ref":   result.ExternalRef,
			"settled_here":   won,
		})
		return nil
	}

	won, err := s.applier.Fail(ctx, txn.ID, result.ResultDesc)
	if err != nil {
		return err
	}
	s.logger.Info("Callback reported payment failure", map[string]any{
		"transaction_id": txn.ID,
		"external_ref":   result.ExternalRef,
		"result_code":    result.ResultCode,
		"result_desc":    result.ResultDesc,
		"failed_here":    won,
	})
	return nil
}

package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// InitiateRequest asks the provider to push a payment prompt to the
// payer's phone
type InitiateRequest struct {
	Phone          string          // Any recognisable form; the client normalizes it
	Amount         decimal.Decimal // Fiat value; rounded to whole currency units on the wire
	TransactionRef string          // Internal transaction id, echoed back for correlation
	Description    string          // Bounded to provider length limits by the client
}

// InitiateResult is the provider's synchronous acceptance of a push-payment
// request. Acceptance only means the prompt was queued; the final outcome
// arrives later via callback or polling.
type InitiateResult struct {
	ExternalRef       string // Provider correlation id (CheckoutRequestID)
	MerchantRequestID string
	Description       string
}

// CallbackResult is the parsed, provider-neutral form of an asynchronous
// payment result notification
type CallbackResult struct {
	ExternalRef   string
	ResultCode    int
	ResultDesc    string
	ReceiptNumber string
	Phone         string
	Amount        decimal.Decimal
	PaidAt        time.Time
}

// Succeeded reports whether the provider confirmed the payment
func (r *CallbackResult) Succeeded() bool {
	return r.ResultCode == 0
}

// PaymentGateway initiates push payments with the external provider.
// Exactly one outbound call per Initiate invocation; retry policy belongs
// to the caller, which issues a fresh transaction rather than mutating a
// failed one.
type PaymentGateway interface {
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
}

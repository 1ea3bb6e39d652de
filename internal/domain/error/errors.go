package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInvalidAmount        = 4001
	CodeAmountOutOfRange     = 4002
	CodeInvalidPhone         = 4003
	CodeInsufficientBalance  = 4004
	CodeInsufficientHolding  = 4005
	CodeTradingPaused        = 4006
	CodeDuplicateTransaction = 4007
	CodeSupplyExhausted      = 4008
	CodeTransactionNotFound  = 4040
	CodeCoinNotFound         = 4041
	CodeWalletNotFound       = 4042
	CodeTransactionTerminal  = 4090

	// 5xxx - Server errors
	CodeInternalServer     = 5000
	CodeGatewayConfig      = 5001
	CodeGatewayUnavailable = 5002
	CodeGatewayRejected    = 5003
	CodeLedgerIntegrity    = 5100
)

// Base error types
var (
	// ErrInvalidAmount is returned when a trade amount is zero, negative or malformed
	ErrInvalidAmount = errors.New("trade amount must be a positive decimal")

	// ErrAmountOutOfRange is returned when a trade amount is outside the configured limits
	ErrAmountOutOfRange = errors.New("trade amount is outside allowed limits")

	// ErrInvalidPhone is returned when a payer phone number cannot be normalized
	ErrInvalidPhone = errors.New("invalid phone number")

	// ErrInvalidTradeKind is returned when the trade kind is not buy or sell
	ErrInvalidTradeKind = errors.New("invalid trade kind")

	// ErrInvalidFunding is returned when the funding source is not recognised
	ErrInvalidFunding = errors.New("invalid funding source")

	// ErrInsufficientBalance is returned when a wallet cannot cover a debit
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrInsufficientHolding is returned when a sell exceeds the held amount
	ErrInsufficientHolding = errors.New("insufficient holding")

	// ErrTradingPaused is returned when the coin's trading-paused flag is set
	ErrTradingPaused = errors.New("trading is paused for this coin")

	// ErrSupplyExhausted is returned when a buy would exceed the mintable supply
	ErrSupplyExhausted = errors.New("circulating supply limit reached")

	// ErrTransactionNotFound is returned when the requested transaction doesn't exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTransactionTerminal is returned when a terminal transaction is mutated
	ErrTransactionTerminal = errors.New("transaction is already in a terminal state")

	// ErrDuplicateTransaction is returned when a transaction with the same ID already exists
	ErrDuplicateTransaction = errors.New("transaction with this ID already exists")

	// ErrCoinNotFound is returned when the requested coin doesn't exist
	ErrCoinNotFound = errors.New("coin not found")

	// ErrHoldingNotFound is returned when a user holds none of the requested coin
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrWalletNotFound is returned when the requested wallet doesn't exist
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrGatewayConfig is returned when payment gateway credentials are missing or incomplete
	ErrGatewayConfig = errors.New("payment gateway configuration is incomplete")

	// ErrGatewayUnavailable is returned when the payment gateway cannot be reached
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrGatewayRejected is returned when the payment gateway declines an initiation
	ErrGatewayRejected = errors.New("payment gateway rejected the request")

	// ErrLedgerIntegrity is returned when a settlement left the ledger partially mutated.
	// Never retried: re-application risks double-crediting.
	ErrLedgerIntegrity = errors.New("ledger integrity failure")

	// ErrDatabaseConnection is returned when there's a problem connecting to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrAmountOutOfRange):
		return CodeAmountOutOfRange
	case errors.Is(err, ErrInvalidPhone):
		return CodeInvalidPhone
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, ErrInsufficientHolding):
		return CodeInsufficientHolding
	case errors.Is(err, ErrTradingPaused):
		return CodeTradingPaused
	case errors.Is(err, ErrSupplyExhausted):
		return CodeSupplyExhausted
	case errors.Is(err, ErrDuplicateTransaction):
		return CodeDuplicateTransaction
	case errors.Is(err, ErrTransactionNotFound):
		return CodeTransactionNotFound
	case errors.Is(err, ErrCoinNotFound):
		return CodeCoinNotFound
	case errors.Is(err, ErrWalletNotFound):
		return CodeWalletNotFound
	case errors.Is(err, ErrTransactionTerminal):
		return CodeTransactionTerminal
	case errors.Is(err, ErrGatewayConfig):
		return CodeGatewayConfig
	case errors.Is(err, ErrGatewayUnavailable):
		return CodeGatewayUnavailable
	case errors.Is(err, ErrGatewayRejected):
		return CodeGatewayRejected
	case errors.Is(err, ErrLedgerIntegrity):
		return CodeLedgerIntegrity
	default:
		return CodeInternalServer
	}
}

// GatewayError carries the provider's response code and description for a
// declined or failed push-payment initiation
type GatewayError struct {
	ResponseCode string
	Description  string
	Err          error
}

// Error implements the error interface for GatewayError
func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error (code %s): %s: %v", e.ResponseCode, e.Description, e.Err)
}

// Unwrap returns the underlying error
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *GatewayError) LogFields() map[string]any {
	return map[string]any{
		"error_type":    "gateway_error",
		"response_code": e.ResponseCode,
		"description":   e.Description,
		"error_code":    ErrorCode(e.Err),
	}
}

// NewGatewayError creates a detailed gateway error wrapping ErrGatewayRejected
func NewGatewayError(responseCode, description string) error {
	return &GatewayError{
		ResponseCode: responseCode,
		Description:  description,
		Err:          ErrGatewayRejected,
	}
}

// LedgerIntegrityError reports a settlement that could not complete all of its
// sub-mutations. It identifies the transaction and the mutation stage that
// failed so an operator can reconcile manually.
type LedgerIntegrityError struct {
	TransactionID string
	Stage         string
	Err           error
}

// Error implements the error interface
func (e *LedgerIntegrityError) Error() string {
	return fmt.Sprintf("ledger integrity failure for transaction %s at stage %q: %v",
		e.TransactionID, e.Stage, e.Err)
}

// Unwrap returns the underlying error
func (e *LedgerIntegrityError) Unwrap() error {
	return e.Err
}

// Is checks if the target error is an ErrLedgerIntegrity
func (e *LedgerIntegrityError) Is(target error) bool {
	return target == ErrLedgerIntegrity
}

// LogFields returns a map of fields for structured logging
func (e *LedgerIntegrityError) LogFields() map[string]any {
	return map[string]any{
		"error_type":     "ledger_integrity",
		"transaction_id": e.TransactionID,
		"stage":          e.Stage,
		"error":          e.Err.Error(),
		"error_code":     CodeLedgerIntegrity,
	}
}

// NewLedgerIntegrityError creates a new ledger integrity error
func NewLedgerIntegrityError(transactionID, stage string, err error) error {
	return &LedgerIntegrityError{
		TransactionID: transactionID,
		Stage:         stage,
		Err:           err,
	}
}

// InsufficientHoldingError provides detail for a sell that exceeds the holding
type InsufficientHoldingError struct {
	UserID    uint64
	CoinID    uint64
	Requested string
	Held      string
}

// Error implements the error interface
func (e *InsufficientHoldingError) Error() string {
	return fmt.Sprintf("insufficient holding for user %d coin %d: requested %s, held %s",
		e.UserID, e.CoinID, e.Requested, e.Held)
}

// Is checks if the target error is an ErrInsufficientHolding
func (e *InsufficientHoldingError) Is(target error) bool {
	return target == ErrInsufficientHolding
}

// NewInsufficientHoldingError creates a new detailed insufficient holding error
func NewInsufficientHoldingError(userID, coinID uint64, requested, held string) error {
	return &InsufficientHoldingError{
		UserID:    userID,
		CoinID:    coinID,
		Requested: requested,
		Held:      held,
	}
}

// IsGatewayError checks if the error came from the payment gateway
func IsGatewayError(err error) bool {
	return errors.Is(err, ErrGatewayRejected) ||
		errors.Is(err, ErrGatewayUnavailable) ||
		errors.Is(err, ErrGatewayConfig)
}

// IsLedgerIntegrityError checks if the error is a fatal ledger integrity failure
func IsLedgerIntegrityError(err error) bool {
	return errors.Is(err, ErrLedgerIntegrity)
}

// IsInsufficientBalanceError checks if the error is related to insufficient wallet balance
func IsInsufficientBalanceError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsInsufficientHoldingError checks if the error is related to an undersized holding
func IsInsufficientHoldingError(err error) bool {
	return errors.Is(err, ErrInsufficientHolding)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrCoinNotFound) ||
		errors.Is(err, ErrHoldingNotFound) ||
		errors.Is(err, ErrWalletNotFound)
}

// IsTerminalError checks if the error reports mutation of a terminal transaction
func IsTerminalError(err error) bool {
	return errors.Is(err, ErrTransactionTerminal)
}

// IsValidationError checks if the error is a client-side validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAmountOutOfRange) ||
		errors.Is(err, ErrInvalidPhone) ||
		errors.Is(err, ErrInvalidTradeKind) ||
		errors.Is(err, ErrInvalidFunding)
}

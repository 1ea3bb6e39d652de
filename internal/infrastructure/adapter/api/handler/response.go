package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/coinpesa/coinpesa/internal/domain/error"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/api/dto"
)

// httpStatusFor maps domain errors to HTTP status codes
func httpStatusFor(err error) int {
	switch {
	case domainerr.IsValidationError(err):
		return http.StatusBadRequest
	case domainerr.IsNotFoundError(err):
		return http.StatusNotFound
	case domainerr.IsInsufficientBalanceError(err), domainerr.IsInsufficientHoldingError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainerr.ErrTradingPaused),
		errors.Is(err, domainerr.ErrSupplyExhausted),
		errors.Is(err, domainerr.ErrDuplicateTransaction),
		domainerr.IsTerminalError(err):
		return http.StatusConflict
	case domainerr.IsGatewayError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the standardized error body for a domain error
func respondError(c *gin.Context, err error) {
	status := httpStatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		// Internal detail stays in the logs
		message = "Internal server error"
	}
	c.JSON(status, dto.ErrorResponse{
		Code:    domainerr.ErrorCode(err),
		Message: message,
	})
}

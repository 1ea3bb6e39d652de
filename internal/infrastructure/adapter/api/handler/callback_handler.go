package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/domain/usecase/trade"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/mpesa"
)

// CallbackHandler receives asynchronous payment confirmations from the
// gateway. It always acknowledges: the gateway retries on non-200, and a
// retry of something we could not parse will not parse any better.
type CallbackHandler struct {
	tradeService *trade.Service
	logger       coreport.Logger
}

// NewCallbackHandler creates a new callback handler instance
func NewCallbackHandler(tradeService *trade.Service, logger coreport.Logger) *CallbackHandler {
	return &CallbackHandler{
		tradeService: tradeService,
		logger:       logger,
	}
}

// ack is the body the gateway expects regardless of our internal outcome
func (h *CallbackHandler) ack(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
	})
}

// HandleStkCallback handles the POST /payments/mpesa/callback endpoint
func (h *CallbackHandler) HandleStkCallback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.logger.Warn("Failed to read callback body", map[string]any{
			"error": err.Error(),
		})
		h.ack(c)
		return
	}

	result, err := mpesa.ParseCallback(body)
	if err != nil {
		h.logger.Warn("Malformed gateway callback", map[string]any{
			"error": err.Error(),
		})
		h.ack(c)
		return
	}

	if err := h.tradeService.ProcessGatewayResult(c.Request.Context(), result); err != nil {
		h.logger.Error("Failed to process gateway callback", map[string]any{
			"external_ref": result.ExternalRef,
			"result_code":  result.ResultCode,
			"error":        err.Error(),
		})
	}

	h.ack(c)
}

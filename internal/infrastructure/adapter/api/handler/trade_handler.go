package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/coinpesa/coinpesa/internal/domain/entity"
	domainerr "github.com/coinpesa/coinpesa/internal/domain/error"
	coreport "github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/domain/usecase/trade"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/api/dto"
)

// TradeHandler handles trade-related HTTP requests
type TradeHandler struct {
	tradeService *trade.Service
	logger       coreport.Logger
}

// NewTradeHandler creates a new trade handler instance
func NewTradeHandler(tradeService *trade.Service, logger coreport.Logger) *TradeHandler {
	return &TradeHandler{
		tradeService: tradeService,
		logger:       logger,
	}
}

// CreateTrade handles the POST /trades endpoint
func (h *TradeHandler) CreateTrade(c *gin.Context) {
	var req dto.CreateTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid trade request format", map[string]any{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidAmount),
			Message: "Invalid request format: " + err.Error(),
		})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrInvalidAmount),
			Message: "Invalid amount format",
		})
		return
	}

	// Buys default to wallet funding, sells to wallet payout
	funding := entity.FundingSource(req.Funding)
	if req.Funding == "" {
		funding = entity.FundingWallet
	}
	payout := entity.FundingSource(req.Payout)
	if req.Payout == "" {
		payout = entity.FundingWallet
	}

	txn, err := h.tradeService.CreateTrade(c.Request.Context(), trade.CreateTradeRequest{
		UserID:  req.UserID,
		CoinID:  req.CoinID,
		Kind:    entity.TradeKind(req.Kind),
		Amount:  amount,
		Funding: funding,
		Payout:  payout,
		Phone:   req.Phone,
	})
	if err != nil {
		h.logger.Warn("Trade creation failed", map[string]any{
			"user_id": req.UserID,
			"coin_id": req.CoinID,
			"kind":    req.Kind,
			"error":   err.Error(),
		})
		respondError(c, err)
		return
	}

	// stk_sent means acceptance, not settlement; clients poll GetTrade
	status := http.StatusOK
	if !txn.IsTerminal() {
		status = http.StatusAccepted
	}
	c.JSON(status, dto.NewTradeResponse(txn))
}

// GetTrade handles the GET /trades/:tradeId endpoint
func (h *TradeHandler) GetTrade(c *gin.Context) {
	id := c.Param("tradeId")
	if id == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrTransactionNotFound),
			Message: "Missing trade ID",
		})
		return
	}

	txn, err := h.tradeService.GetTrade(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTradeResponse(txn))
}

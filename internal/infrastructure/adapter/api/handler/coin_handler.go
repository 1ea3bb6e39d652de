package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domainerr "github.com/coinpesa/coinpesa/internal/domain/error"
	coreport "github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/domain/usecase/trade"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/api/dto"
)

// CoinHandler handles coin-related HTTP requests
type CoinHandler struct {
	tradeService *trade.Service
	logger       coreport.Logger
}

// NewCoinHandler creates a new coin handler instance
func NewCoinHandler(tradeService *trade.Service, logger coreport.Logger) *CoinHandler {
	return &CoinHandler{
		tradeService: tradeService,
		logger:       logger,
	}
}

func parseCoinID(c *gin.Context) (uint64, bool) {
	coinID, err := strconv.ParseUint(c.Param("coinId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrCoinNotFound),
			Message: "Invalid coin ID format",
		})
		return 0, false
	}
	return coinID, true
}

// ListCoins handles the GET /coins endpoint
func (h *CoinHandler) ListCoins(c *gin.Context) {
	coins, err := h.tradeService.ListCoins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]dto.CoinResponse, 0, len(coins))
	for _, coin := range coins {
		responses = append(responses, dto.NewCoinResponse(coin))
	}
	c.JSON(http.StatusOK, responses)
}

// GetCoin handles the GET /coins/:coinId endpoint
func (h *CoinHandler) GetCoin(c *gin.Context) {
	coinID, ok := parseCoinID(c)
	if !ok {
		return
	}

	coin, err := h.tradeService.GetCoin(c.Request.Context(), coinID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCoinResponse(coin))
}

// GetQuote handles the GET /coins/:coinId/quote endpoint
func (h *CoinHandler) GetQuote(c *gin.Context) {
	coinID, ok := parseCoinID(c)
	if !ok {
		return
	}

	price, err := h.tradeService.Quote(c.Request.Context(), coinID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.QuoteResponse{
		CoinID:       coinID,
		PricePerUnit: price.String(),
	})
}

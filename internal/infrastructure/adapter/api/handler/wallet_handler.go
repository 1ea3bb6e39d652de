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

// WalletHandler handles wallet and holding HTTP requests
type WalletHandler struct {
	tradeService *trade.Service
	logger       coreport.Logger
}

// NewWalletHandler creates a new wallet handler instance
func NewWalletHandler(tradeService *trade.Service, logger coreport.Logger) *WalletHandler {
	return &WalletHandler{
		tradeService: tradeService,
		logger:       logger,
	}
}

func parseUserID(c *gin.Context) (uint64, bool) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.ErrorCode(domainerr.ErrWalletNotFound),
			Message: "Invalid user ID format",
		})
		return 0, false
	}
	return userID, true
}

// GetWallet handles the GET /users/:userId/wallet endpoint
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	wallet, err := h.tradeService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewWalletResponse(wallet))
}

// GetHoldings handles the GET /users/:userId/holdings endpoint
func (h *WalletHandler) GetHoldings(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	holdings, err := h.tradeService.GetHoldings(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]dto.HoldingResponse, 0, len(holdings))
	for _, holding := range holdings {
		responses = append(responses, dto.NewHoldingResponse(holding))
	}
	c.JSON(http.StatusOK, responses)
}

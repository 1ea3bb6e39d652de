package routes

import (
	"github.com/gin-gonic/gin"

	coreport "github.com/coinpesa/coinpesa/internal/domain/port/core"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/api/handler"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/api/middleware"
)

// SetupRoutes configures all the routes for the API
func SetupRoutes(
	router *gin.Engine,
	tradeHandler *handler.TradeHandler,
	coinHandler *handler.CoinHandler,
	walletHandler *handler.WalletHandler,
	callbackHandler *handler.CallbackHandler,
) {
	// Trade routes
	tradeRoutes := router.Group("/trades")
	{
		// POST /trades
		tradeRoutes.POST("", tradeHandler.CreateTrade)

		// GET /trades/:tradeId
		tradeRoutes.GET("/:tradeId", tradeHandler.GetTrade)
	}

	// Coin routes
	coinRoutes := router.Group("/coins")
	{
		// GET /coins
		coinRoutes.GET("", coinHandler.ListCoins)

		// GET /coins/:coinId
		coinRoutes.GET("/:coinId", coinHandler.GetCoin)

		// GET /coins/:coinId/quote
		coinRoutes.GET("/:coinId/quote", coinHandler.GetQuote)
	}

	// User routes
	userRoutes := router.Group("/users")
	{
		// GET /users/:userId/wallet
		userRoutes.GET("/:userId/wallet", walletHandler.GetWallet)

		// GET /users/:userId/holdings
		userRoutes.GET("/:userId/holdings", walletHandler.GetHoldings)
	}

	// Gateway callback route, no auth: validity is decided by whether the
	// external ref matches a transaction we issued
	router.POST("/payments/mpesa/callback", callbackHandler.HandleStkCallback)
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger) {
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/shopspring/decimal"

	"github.com/coinpesa/coinpesa/internal/domain/pricing"
	"github.com/coinpesa/coinpesa/internal/domain/usecase/trade"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/api/handler"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/api/routes"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/database"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/database/migration"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/logger"
	"github.com/coinpesa/coinpesa/internal/infrastructure/adapter/mpesa"
	timeProvider "github.com/coinpesa/coinpesa/internal/infrastructure/adapter/time"
	"github.com/coinpesa/coinpesa/internal/infrastructure/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.Environment == config.Production)
	tp := timeProvider.NewRealTimeProvider()

	// Database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		RetryAttempts:   cfg.Database.RetryAttempts,
		RetryDelay:      cfg.Database.RetryDelay,
		LogLevel:        cfg.Database.LogLevel,
	}

	dbManager := database.NewManager(dbConfig, appLogger, tp)
	if _, err := dbManager.Connect(); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer dbManager.Close()

	// Migrations and seeding
	migrationMgr := migration.NewMigrationManager(dbManager.DB(), appLogger, tp)
	if err := migrationMgr.MigrateAll(); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	if err := migrationMgr.SeedDefaultCoin(context.Background(), migration.SeedCoin{
		Symbol:       cfg.Coin.Symbol,
		Name:         cfg.Coin.Name,
		TotalSupply:  mustDecimal(cfg.Coin.TotalSupply),
		InitialPrice: mustDecimal(cfg.Coin.InitialPrice),
		Liquidity:    mustDecimal(cfg.Coin.Liquidity),
	}); err != nil {
		appLogger.Error("Failed to seed default coin", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	uow := database.NewUnitOfWork(dbManager.DB(), appLogger)

	// Payment gateway
	gatewayClient, err := mpesa.NewClient(mpesa.Config{
		BaseURL:        cfg.Mpesa.BaseURL,
		ConsumerKey:    cfg.Mpesa.ConsumerKey,
		ConsumerSecret: cfg.Mpesa.ConsumerSecret,
		ShortCode:      cfg.Mpesa.ShortCode,
		PassKey:        cfg.Mpesa.PassKey,
		CallbackURL:    cfg.Mpesa.CallbackURL,
		Timeout:        cfg.Mpesa.Timeout,
	}, tp, appLogger)
	if err != nil {
		appLogger.Error("Failed to configure payment gateway", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	// Settlement and reconciliation
	curve := pricing.CurveParams{
		BasePrice: mustDecimal(cfg.Trade.BasePrice),
		Slope:     mustDecimal(cfg.Trade.Slope),
	}
	if err := curve.Validate(); err != nil {
		appLogger.Error("Invalid pricing curve", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	applier := trade.NewApplier(uow, curve, mustDecimal(cfg.Trade.FeeRate), tp, appLogger)
	reconciler := trade.NewReconciler(applier, uow, trade.ReconcileConfig{
		InitialDelay: cfg.Trade.ReconcileDelay,
		Interval:     cfg.Trade.ReconcileInterval,
		MaxAttempts:  cfg.Trade.ReconcileMaxAttempts,
		StaleAfter:   cfg.Trade.StaleAfter,
	}, tp, appLogger)

	tradeService := trade.NewService(uow, gatewayClient, applier, reconciler, tp, appLogger, trade.Config{
		Curve:         curve,
		FeeRate:       mustDecimal(cfg.Trade.FeeRate),
		MinTradeValue: mustDecimal(cfg.Trade.MinTradeValue),
		MaxTradeValue: mustDecimal(cfg.Trade.MaxTradeValue),
	})

	// Periodic sweep for transactions whose watcher died with the process
	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(cfg.Trade.SweepInterval).Do(func() {
		if err := reconciler.ExpireStale(context.Background()); err != nil {
			appLogger.Error("Stale transaction sweep failed", map[string]any{
				"error": err.Error(),
			})
		}
	}); err != nil {
		appLogger.Error("Failed to schedule stale transaction sweep", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	scheduler.StartAsync()

	// HTTP surface
	tradeHandler := handler.NewTradeHandler(tradeService, appLogger)
	coinHandler := handler.NewCoinHandler(tradeService, appLogger)
	walletHandler := handler.NewWalletHandler(tradeService, appLogger)
	callbackHandler := handler.NewCallbackHandler(tradeService, appLogger)

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger)
	routes.SetupRoutes(router, tradeHandler, coinHandler, walletHandler, callbackHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"port": cfg.Server.Port,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	scheduler.Stop()
	reconciler.Shutdown()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// mustDecimal parses a config decimal or dies; configuration money values
// are not recoverable at runtime
func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		log.Fatalf("Invalid decimal in configuration: %q: %v", s, err)
	}
	return d
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missing []string

	if cfg.Server.Port == 0 {
		missing = append(missing, "server.port")
	}
	if cfg.Database.Host == "" {
		missing = append(missing, "database.host")
	}
	if cfg.Database.Username == "" {
		missing = append(missing, "database.username")
	}
	if cfg.Database.Database == "" {
		missing = append(missing, "database.database")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

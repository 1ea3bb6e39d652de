package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment constants
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// ConfigPaths defines the paths to look for config files
var ConfigPaths = []string{
	"./configs",
	"../configs",
	"../../configs",
}

// DotEnvPaths defines the paths to look for .env files
var DotEnvPaths = []string{
	".env",
	"./configs/.env",
	"../configs/.env",
}

// LoadConfig loads configuration from file based on the environment
func LoadConfig() (*Config, error) {
	if err := loadDotEnvFile(); err != nil {
		fmt.Println("Warning: Could not load .env file:", err)
	}

	env := getEnvironment()

	v := viper.New()
	v.SetConfigName(env)
	v.SetConfigType("yaml")

	for _, path := range ConfigPaths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	v.SetEnvPrefix("CP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	processEnvOverrides(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.Environment = env

	processDurations(&config)

	return &config, nil
}

// loadDotEnvFile attempts to load environment variables from .env files
func loadDotEnvFile() error {
	var lastError error

	for _, path := range DotEnvPaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return nil
			} else {
				lastError = err
			}
		}
	}

	if lastError != nil {
		return fmt.Errorf("could not load any .env file: %w", lastError)
	}
	return fmt.Errorf("no .env file found in search paths")
}

// setDefaults sets default values for non-critical configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15)       // seconds
	v.SetDefault("server.writeTimeout", 15)      // seconds
	v.SetDefault("server.idleTimeout", 60)       // seconds
	v.SetDefault("server.readHeaderTimeout", 10) // seconds
	v.SetDefault("server.shutdownTimeout", 10)   // seconds

	// Database defaults for non-sensitive settings
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 30) // minutes
	v.SetDefault("database.connMaxIdleTime", 10) // minutes
	v.SetDefault("database.queryTimeout", 10)    // seconds
	v.SetDefault("database.retryAttempts", 3)
	v.SetDefault("database.retryDelay", 2) // seconds
	v.SetDefault("database.logLevel", "warn")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")

	// Gateway defaults: sandbox URL, 30s HTTP timeout
	v.SetDefault("mpesa.baseUrl", "https://sandbox.safaricom.co.ke")
	v.SetDefault("mpesa.timeout", 30) // seconds

	// Trade defaults
	v.SetDefault("trade.basePrice", "1")
	v.SetDefault("trade.slope", "0.0001")
	v.SetDefault("trade.feeRate", "0.01")
	v.SetDefault("trade.minTradeValue", "1")
	v.SetDefault("trade.maxTradeValue", "150000")
	v.SetDefault("trade.reconcileDelay", 15)    // seconds
	v.SetDefault("trade.reconcileInterval", 10) // seconds
	v.SetDefault("trade.reconcileMaxAttempts", 8)
	v.SetDefault("trade.staleAfter", 300)   // seconds
	v.SetDefault("trade.sweepInterval", 60) // seconds

	// Coin seed defaults
	v.SetDefault("coin.symbol", "CPX")
	v.SetDefault("coin.name", "CoinPesa Token")
	v.SetDefault("coin.totalSupply", "1000000")
	v.SetDefault("coin.initialPrice", "1")
	v.SetDefault("coin.liquidity", "0")
}

// getEnvironment determines the environment to use based on CP_ENV
func getEnvironment() string {
	env := os.Getenv("CP_ENV")
	if env == "" {
		env = Development
	}
	return strings.ToLower(env)
}

// processEnvOverrides ensures environment variables override config values
// for sensitive settings
func processEnvOverrides(v *viper.Viper) {
	// Database credentials
	if dbHost := os.Getenv("CP_DB_HOST"); dbHost != "" {
		v.Set("database.host", dbHost)
	}
	if dbPort := os.Getenv("CP_DB_PORT"); dbPort != "" {
		v.Set("database.port", dbPort)
	}
	if dbUser := os.Getenv("CP_DB_USERNAME"); dbUser != "" {
		v.Set("database.username", dbUser)
	}
	if dbPass := os.Getenv("CP_DB_PASSWORD"); dbPass != "" {
		v.Set("database.password", dbPass)
	}
	if dbName := os.Getenv("CP_DB_NAME"); dbName != "" {
		v.Set("database.database", dbName)
	}
	if sslMode := os.Getenv("CP_DB_SSL_MODE"); sslMode != "" {
		v.Set("database.sslMode", sslMode)
	}

	// Gateway credentials
	if key := os.Getenv("CP_MPESA_CONSUMER_KEY"); key != "" {
		v.Set("mpesa.consumerKey", key)
	}
	if secret := os.Getenv("CP_MPESA_CONSUMER_SECRET"); secret != "" {
		v.Set("mpesa.consumerSecret", secret)
	}
	if shortCode := os.Getenv("CP_MPESA_SHORT_CODE"); shortCode != "" {
		v.Set("mpesa.shortCode", shortCode)
	}
	if passKey := os.Getenv("CP_MPESA_PASS_KEY"); passKey != "" {
		v.Set("mpesa.passKey", passKey)
	}
	if callbackURL := os.Getenv("CP_MPESA_CALLBACK_URL"); callbackURL != "" {
		v.Set("mpesa.callbackUrl", callbackURL)
	}
	if baseURL := os.Getenv("CP_MPESA_BASE_URL"); baseURL != "" {
		v.Set("mpesa.baseUrl", baseURL)
	}

	// Server settings
	if serverHost := os.Getenv("CP_SERVER_HOST"); serverHost != "" {
		v.Set("server.host", serverHost)
	}
	if serverPort := os.Getenv("CP_SERVER_PORT"); serverPort != "" {
		v.Set("server.port", serverPort)
	}

	// Logger settings
	if logLevel := os.Getenv("CP_LOGGER_LEVEL"); logLevel != "" {
		v.Set("logger.level", logLevel)
	}
}

// processDurations converts duration fields from their raw config values
func processDurations(config *Config) {
	// Seconds
	config.Server.ReadTimeout = time.Duration(config.Server.ReadTimeout) * time.Second
	config.Server.WriteTimeout = time.Duration(config.Server.WriteTimeout) * time.Second
	config.Server.IdleTimeout = time.Duration(config.Server.IdleTimeout) * time.Second
	config.Server.ReadHeaderTimeout = time.Duration(config.Server.ReadHeaderTimeout) * time.Second
	config.Server.ShutdownTimeout = time.Duration(config.Server.ShutdownTimeout) * time.Second
	config.Database.QueryTimeout = time.Duration(config.Database.QueryTimeout) * time.Second
	config.Database.RetryDelay = time.Duration(config.Database.RetryDelay) * time.Second
	config.Mpesa.Timeout = time.Duration(config.Mpesa.Timeout) * time.Second
	config.Trade.ReconcileDelay = time.Duration(config.Trade.ReconcileDelay) * time.Second
	config.Trade.ReconcileInterval = time.Duration(config.Trade.ReconcileInterval) * time.Second
	config.Trade.StaleAfter = time.Duration(config.Trade.StaleAfter) * time.Second
	config.Trade.SweepInterval = time.Duration(config.Trade.SweepInterval) * time.Second

	// Minutes
	config.Database.ConnMaxLifetime = time.Duration(config.Database.ConnMaxLifetime) * time.Minute
	config.Database.ConnMaxIdleTime = time.Duration(config.Database.ConnMaxIdleTime) * time.Minute
}

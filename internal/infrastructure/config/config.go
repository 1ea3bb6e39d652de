package config

import "time"

// Config holds all configuration for the application
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Logger      LoggerConfig   `mapstructure:"logger"`
	Mpesa       MpesaConfig    `mapstructure:"mpesa"`
	Trade       TradeConfig    `mapstructure:"trade"`
	Coin        CoinConfig     `mapstructure:"coin"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"readTimeout"`       // seconds
	WriteTimeout      time.Duration `mapstructure:"writeTimeout"`      // seconds
	IdleTimeout       time.Duration `mapstructure:"idleTimeout"`       // seconds
	ReadHeaderTimeout time.Duration `mapstructure:"readHeaderTimeout"` // seconds
	ShutdownTimeout   time.Duration `mapstructure:"shutdownTimeout"`   // seconds
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslMode"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"` // minutes
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"` // minutes
	QueryTimeout    time.Duration `mapstructure:"queryTimeout"`    // seconds
	RetryAttempts   int           `mapstructure:"retryAttempts"`
	RetryDelay      time.Duration `mapstructure:"retryDelay"` // seconds
	LogLevel        string        `mapstructure:"logLevel"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MpesaConfig contains payment gateway settings. Credentials come from
// environment variables, never from config files.
type MpesaConfig struct {
	BaseURL        string        `mapstructure:"baseUrl"`
	ConsumerKey    string        `mapstructure:"consumerKey"`
	ConsumerSecret string        `mapstructure:"consumerSecret"`
	ShortCode      string        `mapstructure:"shortCode"`
	PassKey        string        `mapstructure:"passKey"`
	CallbackURL    string        `mapstructure:"callbackUrl"`
	Timeout        time.Duration `mapstructure:"timeout"` // seconds
}

// TradeConfig contains trade and settlement settings
type TradeConfig struct {
	BasePrice            string        `mapstructure:"basePrice"`
	Slope                string        `mapstructure:"slope"`
	FeeRate              string        `mapstructure:"feeRate"`
	MinTradeValue        string        `mapstructure:"minTradeValue"`
	MaxTradeValue        string        `mapstructure:"maxTradeValue"`
	ReconcileDelay       time.Duration `mapstructure:"reconcileDelay"`    // seconds
	ReconcileInterval    time.Duration `mapstructure:"reconcileInterval"` // seconds
	ReconcileMaxAttempts int           `mapstructure:"reconcileMaxAttempts"`
	StaleAfter           time.Duration `mapstructure:"staleAfter"`    // seconds
	SweepInterval        time.Duration `mapstructure:"sweepInterval"` // seconds
}

// CoinConfig describes the coin seeded on first boot
type CoinConfig struct {
	Symbol       string `mapstructure:"symbol"`
	Name         string `mapstructure:"name"`
	TotalSupply  string `mapstructure:"totalSupply"`
	InitialPrice string `mapstructure:"initialPrice"`
	Liquidity    string `mapstructure:"liquidity"`
}

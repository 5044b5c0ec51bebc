package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Trading   Trading   `mapstructure:"trading"`
	PriceFeed PriceFeed `mapstructure:"pricefeed"`
	Logger    Logger    `mapstructure:"logger"`
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
}

// Trading holds the parameters of the contract engine.
type Trading struct {
	// TickInterval is the clock cadence in seconds.
	TickInterval int `mapstructure:"tick_interval"`
	// PayoutMultiplier is applied to the stake on a winning settlement.
	PayoutMultiplier float64 `mapstructure:"payout_multiplier"`
	// TickVolatility scales interim price noise while a trade is live.
	TickVolatility float64 `mapstructure:"tick_volatility"`
	// SettlementVolatility scales the one-time settlement price draw.
	SettlementVolatility float64 `mapstructure:"settlement_volatility"`
}

// PriceFeed holds the configuration for the external quote source that
// seeds start prices.
type PriceFeed struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the ports for the engine API and the dashboard.
type Server struct {
	Port    int `mapstructure:"port"`
	ApiPort int `mapstructure:"api_port"`
}

// Database holds the configuration for the settlement history store.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("trading.tick_interval", 1)
	viper.SetDefault("trading.payout_multiplier", 1.85)
	viper.SetDefault("trading.tick_volatility", 0.001)
	viper.SetDefault("trading.settlement_volatility", 0.002)
	viper.SetDefault("pricefeed.rate_limit", 20)      // requests per second
	viper.SetDefault("pricefeed.rate_limit_burst", 5) // burst size

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

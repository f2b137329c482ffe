package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	IsProduction  bool
	EnableDBCheck bool

	// CardNumberMaxAttempts bounds how many times card number generation
	// retries after a uniqueness collision.
	CardNumberMaxAttempts int

	// TransferMaxRetries bounds how many times a transfer is retried after
	// losing an optimistic-concurrency race.
	TransferMaxRetries int

	// AccountCacheSize is the LRU capacity of the account read cache.
	AccountCacheSize int

	ShutdownTimeout time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("CARD_MAX_ATTEMPTS", 5)
	viper.SetDefault("TRANSFER_MAX_RETRIES", 3)
	viper.SetDefault("ACCOUNT_CACHE_SIZE", 1024)
	viper.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.CardNumberMaxAttempts = viper.GetInt("CARD_MAX_ATTEMPTS")
	if cfg.CardNumberMaxAttempts <= 0 {
		cfg.CardNumberMaxAttempts = 5
		log.Printf("Warning: invalid CARD_MAX_ATTEMPTS. Defaulting to %d.\n", cfg.CardNumberMaxAttempts)
	}

	cfg.TransferMaxRetries = viper.GetInt("TRANSFER_MAX_RETRIES")
	if cfg.TransferMaxRetries <= 0 {
		cfg.TransferMaxRetries = 3
		log.Printf("Warning: invalid TRANSFER_MAX_RETRIES. Defaulting to %d.\n", cfg.TransferMaxRetries)
	}

	cfg.AccountCacheSize = viper.GetInt("ACCOUNT_CACHE_SIZE")
	if cfg.AccountCacheSize <= 0 {
		cfg.AccountCacheSize = 1024
		log.Printf("Warning: invalid ACCOUNT_CACHE_SIZE. Defaulting to %d.\n", cfg.AccountCacheSize)
	}

	shutdownTimeoutStr := viper.GetString("SHUTDOWN_TIMEOUT")
	shutdownTimeout, err := time.ParseDuration(shutdownTimeoutStr)
	if err != nil {
		shutdownTimeout = 10 * time.Second
		log.Printf("Warning: invalid SHUTDOWN_TIMEOUT ('%s'). Defaulting to %s.\n", shutdownTimeoutStr, shutdownTimeout.String())
	}
	cfg.ShutdownTimeout = shutdownTimeout

	return cfg, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from the environment.
// Engine parameters live in the YAML policy table (see policy.go); this
// file covers deployment concerns.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Instrument
	Symbol             string
	ContractMultiplier float64 // account-currency value per pricing unit per 1.0 lot
	CommissionPerLot   float64

	// Decision cycle
	CycleInterval    time.Duration
	PullbackFraction float64 // peak retreat that escalates to urgent cleanup
	MaxClosuresPerDay int
	HistoryWindow    int

	// Policy table
	PolicyPath string

	// Database
	DBPath string

	// Logging
	LogLevel string

	// Connection settings
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	// Instrument
	cfg.Symbol = getEnv("SYMBOL", "PAXGUSDT")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}

	cfg.ContractMultiplier, err = getEnvAsFloatRequired("CONTRACT_MULTIPLIER", 100.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CONTRACT_MULTIPLIER: %v", err))
	} else if cfg.ContractMultiplier <= 0 {
		errs = append(errs, "CONTRACT_MULTIPLIER must be positive")
	}

	cfg.CommissionPerLot, err = getEnvAsFloatRequired("COMMISSION_PER_LOT", 0.07)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid COMMISSION_PER_LOT: %v", err))
	} else if cfg.CommissionPerLot < 0 {
		errs = append(errs, "COMMISSION_PER_LOT cannot be negative")
	}

	// Decision cycle
	cycleSeconds := getEnvAsInt("CYCLE_INTERVAL_SECONDS", 15)
	if cycleSeconds <= 0 {
		errs = append(errs, "CYCLE_INTERVAL_SECONDS must be positive")
	}
	cfg.CycleInterval = time.Duration(cycleSeconds) * time.Second

	cfg.PullbackFraction, err = getEnvAsFloatRequired("PULLBACK_FRACTION", 0.003)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PULLBACK_FRACTION: %v", err))
	} else if cfg.PullbackFraction <= 0 || cfg.PullbackFraction >= 1 {
		errs = append(errs, "PULLBACK_FRACTION must be between 0.0 and 1.0 (exclusive)")
	}

	cfg.MaxClosuresPerDay, err = getEnvAsIntRequired("MAX_CLOSURES_PER_DAY", 50)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_CLOSURES_PER_DAY: %v", err))
	} else if cfg.MaxClosuresPerDay <= 0 {
		errs = append(errs, "MAX_CLOSURES_PER_DAY must be positive")
	}

	cfg.HistoryWindow = getEnvAsInt("HISTORY_WINDOW", 100)
	if cfg.HistoryWindow <= 0 {
		errs = append(errs, "HISTORY_WINDOW must be positive")
	}

	// Policy table
	cfg.PolicyPath = getEnv("POLICY_PATH", "./config/policy.yaml")

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/closer_bot.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "INFO")

	// Connection settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

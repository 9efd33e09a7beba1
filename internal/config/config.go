package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	gethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/params"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/models"
)

// Config holds all application configuration
type Config struct {
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// External collaborators
	GasOracleURL string `env:"GAS_ORACLE_URL"`
	NodeRPCURL   string `env:"NODE_RPC_URL"`
	PriceAPIURL  string `env:"PRICE_API_URL"`
	PriceAPIKey  string `env:"PRICE_API_KEY"`
	Interval     string `env:"INTERVAL" envDefault:"1h"`
	HistoryDays  int    `env:"HISTORY_DAYS" envDefault:"3"`

	// Wallet
	Account   string `env:"WALLET_ACCOUNT" envDefault:"default"`
	SignerKey string `env:"SIGNER_KEY"`

	// Gas optimizer
	Personality models.Personality `env:"PERSONALITY" envDefault:"moderate"`

	// Risk engine
	DefaultTxLimitWei      *big.Int `env:"DEFAULT_TX_LIMIT_WEI" envDefault:"10 ether"`
	LargeTransferWei       *big.Int `env:"LARGE_TRANSFER_WEI" envDefault:"1 ether"`
	BehaviorDeviationRatio float64  `env:"BEHAVIOR_DEVIATION_RATIO" envDefault:"0.5"`
	ReputationPolicy       string   `env:"REPUTATION_POLICY" envDefault:"fail_closed"`

	// Indicators and strategies
	SMAShortPeriod     int           `env:"SMA_SHORT_PERIOD" envDefault:"7"`
	SMALongPeriod      int           `env:"SMA_LONG_PERIOD" envDefault:"25"`
	RSIPeriod          int           `env:"RSI_PERIOD" envDefault:"14"`
	BBPeriod           int           `env:"BB_PERIOD" envDefault:"20"`
	BBStdDev           float64       `env:"BB_STD_DEV" envDefault:"2"`
	StrategyInterval   time.Duration `env:"STRATEGY_INTERVAL" envDefault:"1m"`
	StrategyCooldown   time.Duration `env:"STRATEGY_COOLDOWN" envDefault:"5m"`
	StrategyAssets     []string      `env:"STRATEGY_ASSETS" envDefault:"ETH/USD"`
	MaxParallelRuns    int           `env:"MAX_PARALLEL_RUNS" envDefault:"4"`
	MinFeedbackSamples int           `env:"MIN_FEEDBACK_SAMPLES" envDefault:"10"`
	EnableBacktest     bool          `env:"ENABLE_BACKTEST" envDefault:"false"`
	BacktestWindow     int           `env:"BACKTEST_WINDOW" envDefault:"40"`

	// Persistence
	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Shared state
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	GasCacheTTL   time.Duration `env:"GAS_CACHE_TTL" envDefault:"12s"`

	// Notifications and metrics
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
	MetricsAddr      string `env:"METRICS_ADDR" envDefault:":9102"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second)

	cfg.GasOracleURL = os.Getenv("GAS_ORACLE_URL")
	cfg.NodeRPCURL = os.Getenv("NODE_RPC_URL")
	cfg.PriceAPIURL = os.Getenv("PRICE_API_URL")
	cfg.PriceAPIKey = os.Getenv("PRICE_API_KEY")
	cfg.Interval = getEnvWithDefault("INTERVAL", "1h")
	cfg.HistoryDays = getEnvIntWithDefault("HISTORY_DAYS", 3)

	cfg.Account = getEnvWithDefault("WALLET_ACCOUNT", "default")
	cfg.SignerKey = os.Getenv("SIGNER_KEY")

	cfg.Personality = models.Personality(getEnvWithDefault("PERSONALITY", string(models.PersonalityModerate)))

	cfg.DefaultTxLimitWei = getEnvWeiWithDefault("DEFAULT_TX_LIMIT_WEI", ether(10))
	cfg.LargeTransferWei = getEnvWeiWithDefault("LARGE_TRANSFER_WEI", ether(1))
	cfg.BehaviorDeviationRatio = getEnvFloatWithDefault("BEHAVIOR_DEVIATION_RATIO", 0.5)
	cfg.ReputationPolicy = getEnvWithDefault("REPUTATION_POLICY", "fail_closed")

	cfg.SMAShortPeriod = getEnvIntWithDefault("SMA_SHORT_PERIOD", 7)
	cfg.SMALongPeriod = getEnvIntWithDefault("SMA_LONG_PERIOD", 25)
	cfg.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", 14)
	cfg.BBPeriod = getEnvIntWithDefault("BB_PERIOD", 20)
	cfg.BBStdDev = getEnvFloatWithDefault("BB_STD_DEV", 2)
	cfg.StrategyInterval = getEnvDurationWithDefault("STRATEGY_INTERVAL", time.Minute)
	cfg.StrategyCooldown = getEnvDurationWithDefault("STRATEGY_COOLDOWN", 5*time.Minute)
	cfg.StrategyAssets = getEnvListWithDefault("STRATEGY_ASSETS", []string{"ETH/USD"})
	cfg.MaxParallelRuns = getEnvIntWithDefault("MAX_PARALLEL_RUNS", 4)
	cfg.MinFeedbackSamples = getEnvIntWithDefault("MIN_FEEDBACK_SAMPLES", 10)
	cfg.EnableBacktest = getEnvBoolWithDefault("ENABLE_BACKTEST", false)
	cfg.BacktestWindow = getEnvIntWithDefault("BACKTEST_WINDOW", 40)

	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvIntWithDefault("REDIS_DB", 0)
	cfg.GasCacheTTL = getEnvDurationWithDefault("GAS_CACHE_TTL", 12*time.Second)

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = int64(getEnvIntWithDefault("TELEGRAM_CHAT_ID", 0))
	cfg.MetricsAddr = getEnvWithDefault("METRICS_ADDR", ":9102")

	return &cfg, nil
}

// DatabaseEnabled reports whether PostgreSQL settings are present
func (c *Config) DatabaseEnabled() bool {
	return c.DBHost != "" && c.DBName != ""
}

// RedisEnabled reports whether a Redis address is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// SubmissionEnabled reports whether transfers can be signed and broadcast
func (c *Config) SubmissionEnabled() bool {
	return c.NodeRPCURL != "" && c.SignerKey != ""
}

// TelegramEnabled reports whether notifications can be delivered
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether))
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// plain numbers are seconds
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvListWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getEnvWeiWithDefault accepts decimal or 0x-prefixed hex wei amounts
func getEnvWeiWithDefault(key string, defaultValue *big.Int) *big.Int {
	if value := os.Getenv(key); value != "" {
		if wei, ok := gethmath.ParseBig256(value); ok && wei.Sign() >= 0 {
			return wei
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid wei amount, using default")
	}
	return new(big.Int).Set(defaultValue)
}

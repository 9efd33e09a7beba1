// Package app wires configuration into the running components shared by the
// command line and the analyzer daemon.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/internal/analyze"
	"github.com/Alias1177/WalletAdvisor/internal/api/gasoracle"
	"github.com/Alias1177/WalletAdvisor/internal/api/prices"
	"github.com/Alias1177/WalletAdvisor/internal/cache"
	"github.com/Alias1177/WalletAdvisor/internal/calculate"
	"github.com/Alias1177/WalletAdvisor/internal/chain"
	"github.com/Alias1177/WalletAdvisor/internal/config"
	"github.com/Alias1177/WalletAdvisor/internal/database"
	"github.com/Alias1177/WalletAdvisor/internal/gas"
	"github.com/Alias1177/WalletAdvisor/internal/learning"
	"github.com/Alias1177/WalletAdvisor/internal/notify"
	"github.com/Alias1177/WalletAdvisor/internal/risk"
	"github.com/Alias1177/WalletAdvisor/internal/transfer"
	"github.com/Alias1177/WalletAdvisor/models"
)

// ErrSubmissionDisabled is returned when a transfer is executed without a
// node and signer configured
var ErrSubmissionDisabled = errors.New("transfer submission is not configured")

// App holds the wired components
type App struct {
	Config   *config.Config
	DB       *database.DB  // nil without DB_HOST
	Redis    *redis.Client // nil without REDIS_ADDR
	Tracker  *learning.Tracker
	Notifier models.Notifier // nil without Telegram settings
	Prices   *prices.Client
	Decision *analyze.Engine
	Transfer *transfer.Service

	GasOracle models.GasOracle
	Mempool   models.MempoolSource
	Gas       *gas.Optimizer

	closers []func()
}

// SetupLogging configures the global logger
func SetupLogging(logLevel string) {
	SetupLoggingTo(os.Stderr, logLevel)
}

// SetupLoggingTo configures the global logger to write to w
func SetupLoggingTo(w io.Writer, logLevel string) {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// New connects the optional backends and builds the pipelines
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:  cfg,
		Tracker: learning.NewTracker(),
	}

	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Prices = prices.NewClient(prices.ClientOptions{
		APIKey:         cfg.PriceAPIKey,
		BaseURL:        cfg.PriceAPIURL,
		Interval:       cfg.Interval,
		HistoryDays:    cfg.HistoryDays,
		RequestTimeout: cfg.RequestTimeout,
	})

	a.Decision = analyze.NewEngine(analyze.Config{
		SMAShortPeriod:     cfg.SMAShortPeriod,
		SMALongPeriod:      cfg.SMALongPeriod,
		MinFeedbackSamples: cfg.MinFeedbackSamples,
	})

	deps, err := a.transferDeps(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Transfer = transfer.NewService(deps, transfer.Options{
		Personality:     cfg.Personality,
		DefaultLimitWei: cfg.DefaultTxLimitWei,
	})

	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config

	if cfg.DatabaseEnabled() {
		db, err := database.New(ctx, database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, func() { db.Close() })
		log.Info().Str("host", cfg.DBHost).Msg("Database connected")

		state, found, err := db.LoadLearningState(ctx)
		if err != nil {
			return fmt.Errorf("failed to load learning state: %w", err)
		}
		if found {
			a.Tracker.Restore(state)
			log.Info().Int("total", state.TotalTransactions).Msg("Learning state restored")
		}
	}

	if cfg.RedisEnabled() {
		client, err := cache.NewClient(ctx, cache.Options{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
		a.Redis = client
		a.closers = append(a.closers, func() { client.Close() })
		log.Info().Str("addr", cfg.RedisAddr).Msg("Redis connected")
	}

	if cfg.TelegramEnabled() {
		bot, err := notify.NewTelegramBot(cfg.TelegramBotToken)
		if err != nil {
			return err
		}
		a.Notifier = notify.NewTelegram(bot, cfg.TelegramChatID)
	}

	return nil
}

func (a *App) transferDeps(ctx context.Context) (transfer.Deps, error) {
	cfg := a.Config

	oracleClient := gasoracle.NewClient(gasoracle.ClientOptions{
		BaseURL:        cfg.GasOracleURL,
		RequestTimeout: cfg.RequestTimeout,
	})

	var oracle models.GasOracle = oracleClient
	if a.Redis != nil {
		oracle = cache.NewGasTierCache(a.Redis, oracleClient, cfg.GasCacheTTL)
	}

	var mempool models.MempoolSource = oracleClient
	if cfg.NodeRPCURL != "" {
		rpcMempool, err := gasoracle.DialMempool(ctx, cfg.NodeRPCURL)
		if err != nil {
			return transfer.Deps{}, err
		}
		a.closers = append(a.closers, rpcMempool.Close)
		mempool = rpcMempool
	}

	var submitter models.Submitter = disabledSubmitter{}
	if cfg.SubmissionEnabled() {
		client, err := chain.Dial(ctx, cfg.NodeRPCURL)
		if err != nil {
			return transfer.Deps{}, err
		}
		a.closers = append(a.closers, client.Close)

		s, err := chain.NewSubmitter(client, cfg.SignerKey)
		if err != nil {
			return transfer.Deps{}, err
		}
		log.Info().Str("from", s.From().Hex()).Msg("Transfer submission enabled")
		submitter = s
	}

	var reputation models.ReputationSource
	if a.Redis != nil {
		reputation = cache.NewDenylist(a.Redis)
	}

	a.GasOracle = oracle
	a.Mempool = mempool
	a.Gas = gas.NewOptimizer()

	deps := transfer.Deps{
		Locks:     a.walletLock(cfg.Account),
		Profiles:  defaultProfiles{},
		GasOracle: oracle,
		Mempool:   mempool,
		Risk: risk.NewEngine(risk.Config{
			LargeTransferWei:       cfg.LargeTransferWei,
			BehaviorDeviationRatio: cfg.BehaviorDeviationRatio,
			ReputationPolicy:       risk.ReputationPolicy(cfg.ReputationPolicy),
		}, reputation),
		Gas:       a.Gas,
		Submitter: submitter,
		Feedback:  a.Tracker,
	}
	if a.DB != nil {
		deps.Profiles = a.DB
		deps.Audit = a.DB
	}
	if a.Notifier != nil {
		deps.Notifier = a.Notifier
	}

	return deps, nil
}

// walletLock combines every configured lock source. Without one the wallet
// is never locked.
func (a *App) walletLock(account string) models.LockChecker {
	var locks anyLocked
	if a.Redis != nil {
		locks = append(locks, cache.NewWalletLock(a.Redis, account))
	}
	if a.DB != nil {
		locks = append(locks, a.DB.WalletLock(account))
	}
	return locks
}

// IndicatorConfig builds the indicator settings from configuration. The SMA
// periods always include the ones the decision engine compares.
func (a *App) IndicatorConfig() calculate.IndicatorConfig {
	ic := calculate.DefaultIndicatorConfig()
	ic.RSIPeriod = a.Config.RSIPeriod
	ic.BBPeriod = a.Config.BBPeriod
	ic.BBStdDev = a.Config.BBStdDev
	return ic.WithSMAPeriods(a.Config.SMAShortPeriod, a.Config.SMALongPeriod)
}

// SaveLearningState persists the tracker when a database is configured
func (a *App) SaveLearningState(ctx context.Context) {
	if a.DB == nil {
		return
	}
	if err := a.DB.SaveLearningState(ctx, a.Tracker.Snapshot()); err != nil {
		log.Error().Err(err).Msg("Failed to save learning state")
	}
}

// Close releases every connection in reverse order of opening
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// anyLocked reports locked when any source does. An error from any source
// is returned as is.
type anyLocked []models.LockChecker

func (l anyLocked) IsLocked(ctx context.Context) (bool, error) {
	for _, lock := range l {
		locked, err := lock.IsLocked(ctx)
		if err != nil {
			return false, err
		}
		if locked {
			return true, nil
		}
	}
	return false, nil
}

// defaultProfiles serves a medium-frequency profile with no stored limit
type defaultProfiles struct{}

func (defaultProfiles) GetAccountProfile(_ context.Context, account string) (models.AccountProfile, error) {
	return models.AccountProfile{
		Account:  account,
		Behavior: models.BehaviorProfile{TransactionFrequency: models.FrequencyMedium},
	}, nil
}

type disabledSubmitter struct{}

func (disabledSubmitter) Submit(context.Context, models.TransferRequest, *big.Int) (string, error) {
	return "", ErrSubmissionDisabled
}

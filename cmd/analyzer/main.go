package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/internal/app"
	"github.com/Alias1177/WalletAdvisor/internal/config"
	"github.com/Alias1177/WalletAdvisor/internal/learning"
	"github.com/Alias1177/WalletAdvisor/internal/strategy"
	"github.com/Alias1177/WalletAdvisor/internal/trading/backtest"
	"github.com/Alias1177/WalletAdvisor/models"
)

const learningSaveInterval = time.Minute

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	app.SetupLogging(cfg.LogLevel)
	log.Info().Msg("Starting strategy analyzer")
	printConfig(cfg)

	// 3. Connect backends
	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	// 4. Metrics endpoint
	srv := startMetricsServer(cfg.MetricsAddr)

	// 5. Strategies
	registry, err := loadStrategies(ctx, a)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load strategies")
	}

	// 6. Run backtesting if enabled
	if cfg.EnableBacktest {
		runBacktesting(ctx, a, registry.List())
	}

	runner := strategy.NewPipelineRunner(strategy.PipelineRunner{
		Prices:     a.Prices,
		Indicators: a.IndicatorConfig(),
		Engine:     a.Decision,
		Orders:     strategy.NewPaperBook(),
		Feedback:   a.Tracker,
		Notifier:   a.Notifier,
	})
	scheduler := strategy.NewScheduler(registry, runner, cfg.MaxParallelRuns)

	go persistLearning(ctx, a)

	// 7. Tick until shutdown
	scheduler.Run(ctx, cfg.StrategyInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.SaveLearningState(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Metrics server shutdown failed")
	}
	log.Info().Msg("Analyzer stopped")
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Str("Interval", cfg.Interval).
		Int("HistoryDays", cfg.HistoryDays).
		Int("SMAShortPeriod", cfg.SMAShortPeriod).
		Int("SMALongPeriod", cfg.SMALongPeriod).
		Int("RSIPeriod", cfg.RSIPeriod).
		Int("BBPeriod", cfg.BBPeriod).
		Float64("BBStdDev", cfg.BBStdDev).
		Dur("StrategyInterval", cfg.StrategyInterval).
		Dur("StrategyCooldown", cfg.StrategyCooldown).
		Strs("StrategyAssets", cfg.StrategyAssets).
		Int("MaxParallelRuns", cfg.MaxParallelRuns).
		Bool("EnableBacktest", cfg.EnableBacktest).
		Bool("Database", cfg.DatabaseEnabled()).
		Bool("Redis", cfg.RedisEnabled()).
		Bool("Telegram", cfg.TelegramEnabled()).
		Msg("Configuration loaded")
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}

// loadStrategies restores stored strategies, or creates one per configured
// asset when nothing is stored
func loadStrategies(ctx context.Context, a *app.App) (*strategy.Registry, error) {
	var store strategy.Store
	if a.DB != nil {
		store = a.DB
	}
	registry := strategy.NewRegistry(a.Config.StrategyCooldown, store)

	if a.DB != nil {
		stored, err := a.DB.LoadStrategies(ctx)
		if err != nil {
			return nil, err
		}
		registry.Load(stored)
	}

	if len(registry.List()) == 0 {
		for _, asset := range a.Config.StrategyAssets {
			s, err := registry.Create(ctx, "trend", asset, nil, models.RiskMedium, 10)
			if err != nil {
				return nil, fmt.Errorf("failed to create default strategy for %s: %w", asset, err)
			}
			log.Info().Str("strategy_id", s.ID).Str("asset", asset).Msg("Created default strategy")
		}
	}

	return registry, nil
}

// runBacktesting replays each enabled strategy's asset once at startup
func runBacktesting(ctx context.Context, a *app.App, strategies []models.Strategy) {
	log.Info().Msg("Running backtesting...")

	for _, s := range strategies {
		if !s.Enabled {
			continue
		}
		points, err := a.Prices.GetPriceHistory(ctx, s.Asset)
		if err != nil {
			log.Error().Err(err).Str("asset", s.Asset).Msg("Backtest data fetch failed")
			continue
		}

		engine := backtest.NewEngine(backtest.Config{
			Window:     a.Config.BacktestWindow,
			RiskLevel:  s.RiskLevel,
			Indicators: a.IndicatorConfig(),
		}, a.Decision, learning.NewTracker())

		results, err := engine.Run(s.Asset, points)
		if err != nil {
			log.Error().Err(err).Str("asset", s.Asset).Msg("Backtest failed")
			continue
		}
		fmt.Println(backtest.FormatResults(results))
	}
}

// persistLearning saves the learning state periodically
func persistLearning(ctx context.Context, a *app.App) {
	if a.DB == nil {
		return
	}

	ticker := time.NewTicker(learningSaveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.SaveLearningState(ctx)
		}
	}
}

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Alias1177/WalletAdvisor/internal/analyze"
	"github.com/Alias1177/WalletAdvisor/internal/calculate"
	"github.com/Alias1177/WalletAdvisor/internal/learning"
	"github.com/Alias1177/WalletAdvisor/internal/strategy"
	"github.com/Alias1177/WalletAdvisor/internal/trading/backtest"
	"github.com/Alias1177/WalletAdvisor/models"
)

var signalRiskLevel string

var signalCmd = &cobra.Command{
	Use:   "signal ASSET",
	Short: "Compute indicators for an asset and show the trading decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asset := args[0]
		level, err := parseRiskLevel(signalRiskLevel)
		if err != nil {
			return err
		}

		points, err := application.Prices.GetPriceHistory(cmd.Context(), asset)
		if err != nil {
			return err
		}
		ind, err := calculate.CalculateAllIndicators(points, application.IndicatorConfig())
		if err != nil {
			return err
		}

		state := application.Tracker.Snapshot()
		decision, err := application.Decision.Decide(analyze.Input{
			Indicators: ind,
			Sentiment:  strategy.TrendSentiment(ind),
			RiskScore:  analyze.RiskScoreFor(level, ind.Volatility),
			Asset:      asset,
			Feedback:   &state,
		})
		if err != nil {
			return err
		}

		return printJSON(map[string]interface{}{
			"indicators": ind,
			"decision":   decision,
		})
	},
}

var backtestFlags struct {
	window    int
	riskLevel string
}

var backtestCmd = &cobra.Command{
	Use:   "backtest ASSET",
	Short: "Replay the decision engine over the asset's price history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := parseRiskLevel(backtestFlags.riskLevel)
		if err != nil {
			return err
		}
		window := backtestFlags.window
		if window <= 0 {
			window = application.Config.BacktestWindow
		}

		points, err := application.Prices.GetPriceHistory(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		// a scratch tracker keeps replayed outcomes out of the live state
		engine := backtest.NewEngine(backtest.Config{
			Window:     window,
			RiskLevel:  level,
			Indicators: application.IndicatorConfig(),
		}, application.Decision, learning.NewTracker())

		results, err := engine.Run(args[0], points)
		if err != nil {
			return err
		}
		fmt.Println(backtest.FormatResults(results))
		return nil
	},
}

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Manage automated strategies",
}

var createFlags struct {
	kind      string
	riskLevel string
	maxAlloc  float64
	params    []string
}

var strategyCreateCmd = &cobra.Command{
	Use:   "create ASSET",
	Short: "Create an enabled strategy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		level, err := parseRiskLevel(createFlags.riskLevel)
		if err != nil {
			return err
		}
		params, err := parseParams(createFlags.params)
		if err != nil {
			return err
		}

		s, err := registry.Create(cmd.Context(), createFlags.kind, args[0], params, level, createFlags.maxAlloc)
		if err != nil {
			return err
		}
		return printJSON(s)
	},
}

var strategyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List strategies",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		return printJSON(registry.List())
	},
}

var strategyEnableCmd = &cobra.Command{
	Use:   "enable ID",
	Short: "Enable a strategy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		return registry.Enable(cmd.Context(), args[0])
	},
}

var strategyDisableCmd = &cobra.Command{
	Use:   "disable ID",
	Short: "Disable a strategy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := loadRegistry(cmd)
		if err != nil {
			return err
		}
		return registry.Disable(cmd.Context(), args[0])
	},
}

func loadRegistry(cmd *cobra.Command) (*strategy.Registry, error) {
	if application.DB == nil {
		return nil, errors.New("strategies are stored in the database, set DB_HOST")
	}
	stored, err := application.DB.LoadStrategies(cmd.Context())
	if err != nil {
		return nil, err
	}
	registry := strategy.NewRegistry(application.Config.StrategyCooldown, application.DB)
	registry.Load(stored)
	return registry, nil
}

var learningCmd = &cobra.Command{
	Use:   "learning",
	Short: "Show the learning state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(application.Tracker.Snapshot())
	},
}

var learningResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all recorded outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		application.Tracker.Reset()
		if application.DB != nil {
			if err := application.DB.ResetLearningState(cmd.Context()); err != nil {
				return err
			}
		}
		return printJSON(application.Tracker.Snapshot())
	},
}

func parseRiskLevel(s string) (models.RiskLevel, error) {
	switch l := models.RiskLevel(s); l {
	case models.RiskLow, models.RiskMedium, models.RiskHigh:
		return l, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// parseParams reads key=value pairs into strategy parameters
func parseParams(pairs []string) (map[string]float64, error) {
	params := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", pair)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", k, err)
		}
		params[k] = f
	}
	return params, nil
}

func init() {
	signalCmd.Flags().StringVar(&signalRiskLevel, "risk", string(models.RiskMedium), "low|medium|high")

	backtestCmd.Flags().IntVar(&backtestFlags.window, "window", 0, "indicator window (default BACKTEST_WINDOW)")
	backtestCmd.Flags().StringVar(&backtestFlags.riskLevel, "risk", string(models.RiskMedium), "low|medium|high")

	strategyCreateCmd.Flags().StringVar(&createFlags.kind, "type", "trend", "strategy type")
	strategyCreateCmd.Flags().StringVar(&createFlags.riskLevel, "risk", string(models.RiskMedium), "low|medium|high")
	strategyCreateCmd.Flags().Float64Var(&createFlags.maxAlloc, "max-allocation", 10, "max share of capital in percent")
	strategyCreateCmd.Flags().StringSliceVar(&createFlags.params, "param", nil, "strategy parameter as key=value")

	strategyCmd.AddCommand(strategyCreateCmd, strategyListCmd, strategyEnableCmd, strategyDisableCmd)
	learningCmd.AddCommand(learningResetCmd)
	rootCmd.AddCommand(signalCmd, backtestCmd, strategyCmd, learningCmd)
}

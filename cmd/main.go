package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	gethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Alias1177/WalletAdvisor/internal/app"
	"github.com/Alias1177/WalletAdvisor/internal/config"
)

// GlobalFlags are shared by every command
type GlobalFlags struct {
	LogLevel string
	Account  string
}

var (
	globalFlags GlobalFlags
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Wallet transfer and trading advisor",
	Long: `advisor evaluates outgoing wallet transfers and trading signals.

Transfers pass the wallet lock, the per-transaction hard limit, the risk
heuristics and the gas optimizer before anything is broadcast. Trading
commands compute indicators over the configured price history and report
the decision engine's verdict.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if globalFlags.LogLevel != "" {
			cfg.LogLevel = globalFlags.LogLevel
		}
		if globalFlags.Account != "" {
			cfg.Account = globalFlags.Account
		}
		app.SetupLogging(cfg.LogLevel)

		application, err = app.New(cmd.Context(), cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if application != nil {
			application.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "", "log level (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.Account, "account", "", "wallet account (default from WALLET_ACCOUNT)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// printJSON writes v to stdout, indented
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseWei reads an amount given either in wei (decimal or 0x hex) or in a
// decimal unit shifted by exp, e.g. 18 for ether or 9 for gwei
func parseWei(wei, unit string, exp int32) (*big.Int, error) {
	switch {
	case wei != "" && unit != "":
		return nil, fmt.Errorf("give the amount in one unit only")
	case wei != "":
		v, ok := gethmath.ParseBig256(wei)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("invalid wei amount %q", wei)
		}
		return v, nil
	case unit != "":
		d, err := decimal.NewFromString(unit)
		if err != nil || d.IsNegative() {
			return nil, fmt.Errorf("invalid amount %q", unit)
		}
		return d.Shift(exp).BigInt(), nil
	default:
		return nil, nil
	}
}

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/WalletAdvisor/internal/cache"
	"github.com/Alias1177/WalletAdvisor/internal/gas"
	"github.com/Alias1177/WalletAdvisor/internal/network"
	"github.com/Alias1177/WalletAdvisor/internal/transfer"
	"github.com/Alias1177/WalletAdvisor/models"
)

type transferFlags struct {
	to         string
	amountWei  string
	amountEth  string
	urgency    string
	targetGwei string
}

func (f *transferFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.to, "to", "", "recipient address")
	cmd.Flags().StringVar(&f.amountWei, "amount", "", "amount in wei, decimal or 0x hex")
	cmd.Flags().StringVar(&f.amountEth, "amount-eth", "", "amount in ether")
	cmd.Flags().StringVar(&f.urgency, "urgency", string(models.UrgencyMedium), "low|medium|high")
	cmd.Flags().StringVar(&f.targetGwei, "target-gwei", "", "target gas price in gwei (default derived from the base fee)")
}

func (f *transferFlags) input() (transfer.Input, error) {
	amount, err := parseWei(f.amountWei, f.amountEth, 18)
	if err != nil {
		return transfer.Input{}, err
	}
	if amount == nil {
		return transfer.Input{}, errors.New("an amount is required")
	}

	target, err := parseWei("", f.targetGwei, 9)
	if err != nil {
		return transfer.Input{}, err
	}

	urgency, err := parseUrgency(f.urgency)
	if err != nil {
		return transfer.Input{}, err
	}

	return transfer.Input{
		Account:   application.Config.Account,
		Transfer:  models.TransferRequest{Recipient: f.to, AmountWei: amount},
		Urgency:   urgency,
		TargetWei: target,
	}, nil
}

func parseUrgency(s string) (models.Urgency, error) {
	switch u := models.Urgency(s); u {
	case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
		return u, nil
	}
	return "", fmt.Errorf("unknown urgency %q", s)
}

var assessFlags transferFlags

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Evaluate a transfer without submitting it",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := assessFlags.input()
		if err != nil {
			return err
		}
		res, err := application.Transfer.Evaluate(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var sendFlags transferFlags

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Evaluate a transfer and broadcast it if it passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := sendFlags.input()
		if err != nil {
			return err
		}
		res, err := application.Transfer.Execute(cmd.Context(), in)
		application.SaveLearningState(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

var gasFlags transferFlags

var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Show network conditions and the gas recommendation",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := parseWei("", gasFlags.targetGwei, 9)
		if err != nil {
			return err
		}
		urgency, err := parseUrgency(gasFlags.urgency)
		if err != nil {
			return err
		}

		var (
			tier    models.GasTier
			mempool models.MempoolStats
		)
		g, gctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			var err error
			tier, err = application.GasOracle.GetGasTier(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			mempool, err = application.Mempool.GetMempoolStats(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return models.Unavailable("gas snapshot", err)
		}

		conditions := network.FromSnapshot(tier, mempool)
		state := application.Tracker.Snapshot()
		rec, err := application.Gas.Recommend(gas.Request{
			Tier:        tier,
			Conditions:  conditions,
			Personality: application.Config.Personality,
			TargetWei:   target,
			Urgency:     urgency,
			Feedback:    &state,
		})
		if err != nil {
			return err
		}

		return printJSON(map[string]interface{}{
			"conditions":     conditions,
			"recommendation": rec,
		})
	},
}

var lockTTL time.Duration

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Lock the wallet so no transfer is submitted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLocked(cmd, true)
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Unlock the wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLocked(cmd, false)
	},
}

func setLocked(cmd *cobra.Command, locked bool) error {
	ctx := cmd.Context()
	account := application.Config.Account

	if application.Redis == nil && application.DB == nil {
		return errors.New("wallet locks need REDIS_ADDR or a database")
	}

	if application.Redis != nil {
		lock := cache.NewWalletLock(application.Redis, account)
		var err error
		if locked {
			err = lock.Lock(ctx, lockTTL)
		} else {
			err = lock.Unlock(ctx)
		}
		if err != nil {
			return fmt.Errorf("failed to update redis lock: %w", err)
		}
	}
	if application.DB != nil {
		if err := application.DB.SetLocked(ctx, account, locked); err != nil {
			return fmt.Errorf("failed to update database lock: %w", err)
		}
	}

	return printJSON(map[string]interface{}{"account": account, "locked": locked})
}

var flagReason string

var flagCmd = &cobra.Command{
	Use:   "flag ADDRESS",
	Short: "Add a recipient to the reputation denylist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if application.Redis == nil {
			return errors.New("the denylist lives in redis, set REDIS_ADDR")
		}
		if err := cache.NewDenylist(application.Redis).Flag(cmd.Context(), args[0], flagReason); err != nil {
			return err
		}
		return printJSON(map[string]interface{}{"address": args[0], "flagged": true})
	},
}

var unflagCmd = &cobra.Command{
	Use:   "unflag ADDRESS",
	Short: "Remove a recipient from the reputation denylist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if application.Redis == nil {
			return errors.New("the denylist lives in redis, set REDIS_ADDR")
		}
		if err := cache.NewDenylist(application.Redis).Unflag(cmd.Context(), args[0]); err != nil {
			return err
		}
		return printJSON(map[string]interface{}{"address": args[0], "flagged": false})
	},
}

var limitFlags struct {
	amountWei string
	amountEth string
}

var limitCmd = &cobra.Command{
	Use:   "limit",
	Short: "Set the per-transaction hard limit of the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if application.DB == nil {
			return errors.New("limits are stored in the database, set DB_HOST")
		}
		limit, err := parseWei(limitFlags.amountWei, limitFlags.amountEth, 18)
		if err != nil {
			return err
		}
		if limit == nil {
			return errors.New("a limit is required")
		}

		account := application.Config.Account
		if err := application.DB.SetTransactionLimit(cmd.Context(), account, limit); err != nil {
			return err
		}
		return printJSON(map[string]interface{}{"account": account, "limit_wei": limit.String()})
	},
}

func init() {
	assessFlags.register(assessCmd)
	sendFlags.register(sendCmd)
	gasCmd.Flags().StringVar(&gasFlags.urgency, "urgency", string(models.UrgencyMedium), "low|medium|high")
	gasCmd.Flags().StringVar(&gasFlags.targetGwei, "target-gwei", "", "target gas price in gwei")

	lockCmd.Flags().DurationVar(&lockTTL, "ttl", 0, "expire the redis lock after this long (0 keeps it)")
	limitCmd.Flags().StringVar(&limitFlags.amountWei, "amount", "", "limit in wei")
	limitCmd.Flags().StringVar(&limitFlags.amountEth, "amount-eth", "", "limit in ether")

	flagCmd.Flags().StringVar(&flagReason, "reason", "", "why the address is flagged")

	rootCmd.AddCommand(assessCmd, sendCmd, gasCmd, lockCmd, unlockCmd, limitCmd, flagCmd, unflagCmd)
}

// Package transfer runs an outgoing transfer through the lock, risk and gas
// checks before handing it to the submitter.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Alias1177/WalletAdvisor/internal/gas"
	"github.com/Alias1177/WalletAdvisor/internal/metrics"
	"github.com/Alias1177/WalletAdvisor/internal/network"
	"github.com/Alias1177/WalletAdvisor/internal/risk"
	"github.com/Alias1177/WalletAdvisor/models"
)

// Transfer statuses reported in metrics and the audit log
const (
	StatusSubmitted   = "submitted"
	StatusEvaluated   = "evaluated"
	StatusDelayed     = "delayed"
	StatusRejected    = "rejected"
	StatusHardLimit   = "hard_limit"
	StatusLocked      = "locked"
	StatusUnavailable = "unavailable"
	StatusFailed      = "failed"
)

// Feedback is the learning state the pipeline reads and feeds
type Feedback interface {
	models.OutcomeRecorder
	Snapshot() models.LearningState
}

// Deps are the collaborators of the pipeline. Notifier and Audit are optional.
type Deps struct {
	Locks     models.LockChecker
	Profiles  models.ProfileStore
	GasOracle models.GasOracle
	Mempool   models.MempoolSource
	Risk      *risk.Engine
	Gas       *gas.Optimizer
	Submitter models.Submitter
	Feedback  Feedback
	Notifier  models.Notifier
	Audit     models.AuditLog
}

// Options tune the pipeline
type Options struct {
	Personality models.Personality
	// DefaultLimitWei applies when an account has no stored limit
	DefaultLimitWei *big.Int
}

// Input is a transfer request from an account
type Input struct {
	Account   string
	Transfer  models.TransferRequest
	Urgency   models.Urgency
	TargetWei *big.Int // nil derives the target from the base fee
}

// Result is what the pipeline decided and did
type Result struct {
	ID             string                   `json:"id"`
	Conditions     models.NetworkConditions `json:"conditions"`
	Assessment     models.RiskAssessment    `json:"assessment"`
	Recommendation models.GasRecommendation `json:"recommendation"`
	Submitted      bool                     `json:"submitted"`
	TxHash         string                   `json:"tx_hash,omitempty"`
}

// Service runs transfers through the pipeline
type Service struct {
	deps   Deps
	opts   Options
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates the transfer pipeline
func NewService(deps Deps, opts Options) *Service {
	if opts.Personality == "" {
		opts.Personality = models.PersonalityModerate
	}
	return &Service{
		deps:   deps,
		opts:   opts,
		now:    time.Now,
		logger: log.With().Str("component", "transfer_service").Logger(),
	}
}

// Evaluate runs every check short of submission
func (s *Service) Evaluate(ctx context.Context, in Input) (Result, error) {
	res, status, err := s.evaluate(ctx, in)
	if err == nil {
		status = StatusEvaluated
		if res.Recommendation.Action == models.ActionDelay {
			status = StatusDelayed
		}
	}
	s.finish(ctx, in, res, status)
	return res, err
}

// Execute evaluates a transfer and submits it unless it is rejected, delayed
// or the wallet got locked in the meantime
func (s *Service) Execute(ctx context.Context, in Input) (Result, error) {
	started := s.now()

	res, status, err := s.evaluate(ctx, in)
	if err != nil {
		s.finish(ctx, in, res, status)
		return res, err
	}

	if res.Recommendation.Action == models.ActionDelay {
		s.logger.Info().Str("transfer_id", res.ID).Msg("Transfer delayed until congestion eases")
		s.finish(ctx, in, res, StatusDelayed)
		return res, nil
	}

	// The transfer is irreversible once submitted, so the lock is checked again
	if err := s.checkLock(ctx, models.ErrWalletLockedAtSubmission); err != nil {
		s.logger.Warn().Err(err).Str("transfer_id", res.ID).Msg("Aborting before submission")
		s.finish(ctx, in, res, lockStatus(err))
		return res, err
	}

	txHash, err := s.deps.Submitter.Submit(ctx, in.Transfer, res.Recommendation.RecommendedGasPriceWei)
	if s.deps.Feedback != nil {
		s.deps.Feedback.RecordOutcome(res.Recommendation.Confidence, err == nil)
	}
	metrics.TransferLatency.Observe(s.now().Sub(started).Seconds())

	if err != nil {
		s.finish(ctx, in, res, StatusFailed)
		return res, fmt.Errorf("failed to submit transfer: %w", err)
	}

	res.Submitted = true
	res.TxHash = txHash
	s.finish(ctx, in, res, StatusSubmitted)

	s.logger.Info().
		Str("transfer_id", res.ID).
		Str("tx_hash", txHash).
		Str("gas_price_wei", res.Recommendation.RecommendedGasPriceWei.String()).
		Msg("Transfer submitted")

	return res, nil
}

func (s *Service) evaluate(ctx context.Context, in Input) (Result, string, error) {
	res := Result{ID: uuid.NewString()}

	if err := s.checkLock(ctx, models.ErrWalletLocked); err != nil {
		return res, lockStatus(err), err
	}

	profile, err := s.deps.Profiles.GetAccountProfile(ctx, in.Account)
	if err != nil {
		return res, StatusUnavailable, models.Unavailable("account profile", err)
	}

	limit := profile.PerTransactionLimitWei
	if limit == nil {
		limit = s.opts.DefaultLimitWei
	}

	// the hard limit never depends on external data
	if err := risk.CheckHardLimit(in.Transfer.AmountWei, limit); err != nil {
		metrics.HardLimitRejections.Inc()
		return res, StatusHardLimit, err
	}

	tier, mempool, err := s.snapshot(ctx)
	if err != nil {
		return res, StatusUnavailable, err
	}
	res.Conditions = network.FromSnapshot(tier, mempool)

	assessment, err := s.deps.Risk.Assess(ctx, risk.Request{
		Transfer:               in.Transfer,
		NetworkRisk:            network.RiskContribution(res.Conditions),
		Profile:                profile.Behavior,
		PerTransactionLimitWei: limit,
		AccountBalanceWei:      profile.BalanceWei,
	})
	if err != nil {
		if errors.Is(err, models.ErrHardLimitExceeded) {
			metrics.HardLimitRejections.Inc()
			return res, StatusHardLimit, err
		}
		return res, StatusRejected, err
	}
	res.Assessment = assessment
	metrics.RiskAssessmentsTotal.WithLabelValues(string(assessment.Level)).Inc()
	s.notify(ctx, in.Account, assessment)

	if assessment.Level == models.RiskRunAway {
		return res, StatusRejected, &models.RejectionError{Assessment: assessment}
	}

	var feedback *models.LearningState
	if s.deps.Feedback != nil {
		snap := s.deps.Feedback.Snapshot()
		feedback = &snap
	}

	rec, err := s.deps.Gas.Recommend(gas.Request{
		Tier:        tier,
		Conditions:  res.Conditions,
		Personality: s.opts.Personality,
		TargetWei:   in.TargetWei,
		Urgency:     in.Urgency,
		Feedback:    feedback,
	})
	if err != nil {
		return res, StatusUnavailable, err
	}
	res.Recommendation = rec

	metrics.GasRecommendationsTotal.WithLabelValues(string(rec.Action), string(res.Conditions.Congestion)).Inc()
	metrics.GasSavingsGwei.Observe(network.WeiToGwei(rec.GasSavingsWei))

	s.logger.Info().
		Str("transfer_id", res.ID).
		Str("account", in.Account).
		Str("risk_level", string(assessment.Level)).
		Str("congestion", string(res.Conditions.Congestion)).
		Str("action", string(rec.Action)).
		Msg("Transfer evaluated")

	return res, "", nil
}

// snapshot fetches the gas tier and mempool stats concurrently
func (s *Service) snapshot(ctx context.Context) (models.GasTier, models.MempoolStats, error) {
	var (
		tier    models.GasTier
		mempool models.MempoolStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tier, err = s.deps.GasOracle.GetGasTier(gctx)
		if err != nil {
			return models.Unavailable("gas tier", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		mempool, err = s.deps.Mempool.GetMempoolStats(gctx)
		if err != nil {
			return models.Unavailable("mempool stats", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.GasTier{}, models.MempoolStats{}, err
	}
	return tier, mempool, nil
}

func (s *Service) checkLock(ctx context.Context, lockedErr error) error {
	locked, err := s.deps.Locks.IsLocked(ctx)
	if err != nil {
		return models.Unavailable("wallet lock state", err)
	}
	if locked {
		return lockedErr
	}
	return nil
}

func lockStatus(err error) string {
	if errors.Is(err, models.ErrExternalDataUnavailable) {
		return StatusUnavailable
	}
	return StatusLocked
}

func (s *Service) notify(ctx context.Context, account string, a models.RiskAssessment) {
	if s.deps.Notifier == nil || a.Level == models.RiskLow {
		return
	}
	if err := s.deps.Notifier.NotifyAssessment(ctx, account, a); err != nil {
		s.logger.Warn().Err(err).Str("account", account).Msg("Failed to send risk notification")
	}
}

func (s *Service) finish(ctx context.Context, in Input, res Result, status string) {
	metrics.TransfersTotal.WithLabelValues(status).Inc()

	if s.deps.Audit == nil {
		return
	}

	err := s.deps.Audit.RecordAssessment(ctx, models.AssessmentRecord{
		ID:         res.ID,
		Account:    in.Account,
		Recipient:  in.Transfer.Recipient,
		AmountWei:  in.Transfer.AmountWei,
		Assessment: res.Assessment,
		Status:     status,
		TxHash:     res.TxHash,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("transfer_id", res.ID).Msg("Failed to write audit record")
	}
}

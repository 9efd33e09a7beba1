// Package risk evaluates outgoing transfers and returns a risk verdict.
//
// The per-transaction limit is a hard rule checked before any scoring. A
// transfer above it is rejected with a HardLimitError and never scored.
package risk

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/internal/format"
	"github.com/Alias1177/WalletAdvisor/models"
)

// Factor names reported in assessments
const (
	FactorSuspiciousRecipient = "suspicious recipient address"
	FactorFlaggedRecipient    = "recipient flagged by reputation source"
	FactorReputationMissing   = "recipient reputation unavailable"
	FactorLargeAmount         = "large transaction amount"
	FactorUnusualPattern      = "unusual transaction pattern"
	FactorCompulsiveFrequency = "compulsive transaction frequency"
	FactorNetworkRisk         = "elevated network risk"
)

const (
	baseConfidence       = 0.8
	confidencePerFactor  = 0.1
	networkRiskThreshold = 0.7
)

// ReputationPolicy decides what a failed reputation lookup means
type ReputationPolicy string

const (
	// FailClosed treats a failed lookup as a high-risk recipient
	FailClosed ReputationPolicy = "fail_closed"
	// FailOpen ignores failed lookups
	FailOpen ReputationPolicy = "fail_open"
)

// Config holds risk engine thresholds
type Config struct {
	// LargeTransferWei escalates transfers above it. Distinct from the hard limit.
	LargeTransferWei *big.Int
	// BehaviorDeviationRatio is the share of the balance considered unusual
	BehaviorDeviationRatio float64
	ReputationPolicy       ReputationPolicy
}

// Request is a single transfer to evaluate
type Request struct {
	Transfer               models.TransferRequest
	NetworkRisk            float64
	Profile                models.BehaviorProfile
	PerTransactionLimitWei *big.Int
	AccountBalanceWei      *big.Int // nil skips the deviation check
}

// Engine scores transfers. It holds no mutable state.
type Engine struct {
	cfg        Config
	reputation models.ReputationSource
	logger     zerolog.Logger
}

// NewEngine creates a risk engine. reputation may be nil.
func NewEngine(cfg Config, reputation models.ReputationSource) *Engine {
	if cfg.ReputationPolicy == "" {
		cfg.ReputationPolicy = FailClosed
	}
	if cfg.BehaviorDeviationRatio <= 0 {
		cfg.BehaviorDeviationRatio = 0.5
	}

	return &Engine{
		cfg:        cfg,
		reputation: reputation,
		logger:     log.With().Str("component", "risk_engine").Logger(),
	}
}

// assessment accumulates escalations across checks
type assessment struct {
	level   models.RiskLevel
	factors []string
}

func (a *assessment) escalate(level models.RiskLevel, factor string) {
	a.level = a.level.Max(level)
	a.factors = append(a.factors, factor)
}

// Assess evaluates a transfer
func (e *Engine) Assess(ctx context.Context, req Request) (models.RiskAssessment, error) {
	amount := req.Transfer.AmountWei
	if amount == nil {
		amount = new(big.Int)
	}

	// Hard rule, checked before anything else
	if err := CheckHardLimit(amount, req.PerTransactionLimitWei); err != nil {
		e.logger.Warn().Err(err).Str("recipient", req.Transfer.Recipient).Msg("Transfer over hard limit")
		return models.RiskAssessment{}, err
	}

	if !common.IsHexAddress(req.Transfer.Recipient) {
		return models.RiskAssessment{}, models.ErrInvalidRecipient
	}

	a := &assessment{level: models.RiskLow}

	if SuspiciousRecipient(req.Transfer.Recipient) {
		a.escalate(models.RiskHigh, FactorSuspiciousRecipient)
	}

	e.checkReputation(ctx, req.Transfer.Recipient, a)

	if e.cfg.LargeTransferWei != nil && amount.Cmp(e.cfg.LargeTransferWei) > 0 {
		if a.level == models.RiskHigh {
			a.escalate(models.RiskRunAway, FactorLargeAmount)
		} else {
			a.escalate(models.RiskMedium, FactorLargeAmount)
		}
	}

	if req.Profile.TransactionFrequency == models.FrequencyLow && e.largeRelativeToBalance(amount, req.AccountBalanceWei) {
		a.escalate(models.RiskMedium, FactorUnusualPattern)
	}

	if req.Profile.TransactionFrequency == models.FrequencyAddicted {
		a.escalate(models.RiskMedium, FactorCompulsiveFrequency)
	}

	if req.NetworkRisk >= networkRiskThreshold {
		a.escalate(models.RiskMedium, FactorNetworkRisk)
	}

	confidence := models.Clamp01(baseConfidence - confidencePerFactor*float64(len(a.factors)))

	factors := a.factors
	if factors == nil {
		factors = []string{}
	}

	return models.RiskAssessment{
		Level:              a.level,
		Factors:            factors,
		Confidence:         confidence,
		RecommendationText: format.RiskRecommendation(a.level),
	}, nil
}

func (e *Engine) checkReputation(ctx context.Context, recipient string, a *assessment) {
	if e.reputation == nil {
		return
	}

	rep, err := e.reputation.Lookup(ctx, recipient)
	if err != nil {
		if e.cfg.ReputationPolicy == FailOpen {
			e.logger.Warn().Err(err).Str("recipient", recipient).Msg("Reputation lookup failed, ignoring")
			return
		}
		e.logger.Warn().Err(err).Str("recipient", recipient).Msg("Reputation lookup failed, failing closed")
		a.escalate(models.RiskHigh, FactorReputationMissing)
		return
	}

	if rep.Flagged {
		e.logger.Info().Str("recipient", recipient).Str("reason", rep.Reason).Msg("Recipient flagged")
		a.escalate(models.RiskHigh, FactorFlaggedRecipient)
	}
}

func (e *Engine) largeRelativeToBalance(amount, balance *big.Int) bool {
	if balance == nil || amount.Sign() == 0 {
		return false
	}
	if balance.Sign() <= 0 {
		return true
	}

	// amount >= ratio * balance, in scaled integer form
	ratio := big.NewInt(int64(e.cfg.BehaviorDeviationRatio * 10_000))
	lhs := new(big.Int).Mul(amount, big.NewInt(10_000))
	rhs := new(big.Int).Mul(balance, ratio)
	return lhs.Cmp(rhs) >= 0
}

// CheckHardLimit rejects amounts above the cap. The cap itself is allowed.
// A nil limit is a zero cap and a nil amount is zero.
func CheckHardLimit(amount, limit *big.Int) error {
	if amount == nil {
		amount = new(big.Int)
	}
	if limit == nil {
		limit = new(big.Int)
	}
	if amount.Cmp(limit) > 0 {
		return &models.HardLimitError{
			AmountWei: new(big.Int).Set(amount),
			LimitWei:  new(big.Int).Set(limit),
		}
	}
	return nil
}

// SuspiciousRecipient matches all-zero, burn and repeated-digit addresses
func SuspiciousRecipient(address string) bool {
	hex := strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X"))
	if hex == "" {
		return false
	}

	// all leading zeros
	if strings.Trim(hex, "0") == "" {
		return true
	}

	// zero-padded burn address, e.g. 0x000...dEaD
	if strings.HasSuffix(hex, "dead") && strings.Trim(strings.TrimSuffix(hex, "dead"), "0") == "" {
		return true
	}

	// the same non-zero digit repeated
	first := hex[0]
	if first != '0' && strings.Count(hex, string(first)) == len(hex) {
		return true
	}

	return false
}

package transfer

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/WalletAdvisor/internal/gas"
	"github.com/Alias1177/WalletAdvisor/internal/learning"
	"github.com/Alias1177/WalletAdvisor/internal/risk"
	"github.com/Alias1177/WalletAdvisor/models"
)

const recipient = "0x52908400098527886E0F7030069857D2E4169EE7"

type sequenceLock struct {
	mu     sync.Mutex
	states []bool
	calls  int
	err    error
}

func (l *sequenceLock) IsLocked(context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	i := l.calls
	l.calls++
	if i >= len(l.states) {
		return false, nil
	}
	return l.states[i], nil
}

type staticProfiles struct {
	profile models.AccountProfile
	err     error
}

func (p staticProfiles) GetAccountProfile(context.Context, string) (models.AccountProfile, error) {
	return p.profile, p.err
}

type staticOracle struct {
	tier models.GasTier
	err  error
}

func (o staticOracle) GetGasTier(context.Context) (models.GasTier, error) {
	return o.tier, o.err
}

type staticMempool struct {
	stats models.MempoolStats
}

func (m staticMempool) GetMempoolStats(context.Context) (models.MempoolStats, error) {
	return m.stats, nil
}

type recordingSubmitter struct {
	mu     sync.Mutex
	prices []*big.Int
	err    error
}

func (s *recordingSubmitter) Submit(_ context.Context, _ models.TransferRequest, gasPriceWei *big.Int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = append(s.prices, gasPriceWei)
	if s.err != nil {
		return "", s.err
	}
	return "0xfeed", nil
}

type memoryAudit struct {
	records []models.AssessmentRecord
}

func (a *memoryAudit) RecordAssessment(_ context.Context, r models.AssessmentRecord) error {
	a.records = append(a.records, r)
	return nil
}

type fixture struct {
	lock      *sequenceLock
	oracle    staticOracle
	submitter *recordingSubmitter
	tracker   *learning.Tracker
	audit     *memoryAudit
	profile   models.AccountProfile
}

func newFixture() *fixture {
	return &fixture{
		lock: &sequenceLock{},
		oracle: staticOracle{tier: models.GasTier{
			Slow: big.NewInt(10e9), Standard: big.NewInt(25e9), Fast: big.NewInt(60e9), Instant: big.NewInt(90e9), Confidence: 0.9,
		}},
		submitter: &recordingSubmitter{},
		tracker:   learning.NewTracker(),
		audit:     &memoryAudit{},
		profile: models.AccountProfile{
			Account:                "alice",
			Behavior:               models.BehaviorProfile{TransactionFrequency: models.FrequencyMedium},
			PerTransactionLimitWei: new(big.Int).Mul(big.NewInt(10), big.NewInt(params.Ether)),
		},
	}
}

func (f *fixture) service() *Service {
	svc := NewService(Deps{
		Locks:     f.lock,
		Profiles:  staticProfiles{profile: f.profile},
		GasOracle: f.oracle,
		Mempool:   staticMempool{stats: models.MempoolStats{PendingCount: 10_000}},
		Risk: risk.NewEngine(risk.Config{
			LargeTransferWei: big.NewInt(params.Ether),
		}, nil),
		Gas:       gas.NewOptimizer(gas.WithClock(func() time.Time { return time.Date(2025, 1, 15, 20, 0, 0, 0, time.UTC) })),
		Submitter: f.submitter,
		Feedback:  f.tracker,
		Audit:     f.audit,
	}, Options{})
	return svc
}

func input(amount int64, target *big.Int, urgency models.Urgency) Input {
	return Input{
		Account:   "alice",
		Transfer:  models.TransferRequest{Recipient: recipient, AmountWei: big.NewInt(amount)},
		Urgency:   urgency,
		TargetWei: target,
	}
}

func TestExecuteSubmits(t *testing.T) {
	f := newFixture()

	res, err := f.service().Execute(context.Background(), input(1e15, big.NewInt(30e9), models.UrgencyMedium))
	require.NoError(t, err)

	assert.True(t, res.Submitted)
	assert.Equal(t, "0xfeed", res.TxHash)
	assert.Equal(t, models.CongestionMedium, res.Conditions.Congestion)
	assert.Equal(t, models.RiskLow, res.Assessment.Level)
	assert.Equal(t, models.ActionOptimize, res.Recommendation.Action)

	require.Len(t, f.submitter.prices, 1)
	assert.Zero(t, big.NewInt(25e9).Cmp(f.submitter.prices[0]))
	assert.Equal(t, 2, f.lock.calls, "lock checked at start and before submission")
	assert.Equal(t, 1, f.tracker.Snapshot().TotalTransactions)

	require.Len(t, f.audit.records, 1)
	assert.Equal(t, StatusSubmitted, f.audit.records[0].Status)
	assert.Equal(t, res.ID, f.audit.records[0].ID)
}

func TestLockedAtStart(t *testing.T) {
	f := newFixture()
	f.lock.states = []bool{true}

	_, err := f.service().Execute(context.Background(), input(1e15, nil, models.UrgencyMedium))
	assert.ErrorIs(t, err, models.ErrWalletLocked)
	assert.Empty(t, f.submitter.prices)
}

func TestLockedAtSubmission(t *testing.T) {
	f := newFixture()
	f.lock.states = []bool{false, true}

	res, err := f.service().Execute(context.Background(), input(1e15, big.NewInt(30e9), models.UrgencyMedium))
	assert.ErrorIs(t, err, models.ErrWalletLockedAtSubmission)
	assert.NotErrorIs(t, err, models.ErrWalletLocked)
	assert.False(t, res.Submitted)
	assert.NotNil(t, res.Recommendation.RecommendedGasPriceWei, "pipeline had completed")
	assert.Empty(t, f.submitter.prices)
	assert.Zero(t, f.tracker.Snapshot().TotalTransactions)
	assert.Equal(t, StatusLocked, f.audit.records[0].Status)
}

func TestLockCheckFailureAborts(t *testing.T) {
	f := newFixture()
	f.lock.err = errors.New("keystore unreachable")

	_, err := f.service().Execute(context.Background(), input(1e15, nil, models.UrgencyMedium))
	assert.ErrorIs(t, err, models.ErrExternalDataUnavailable)
	assert.Empty(t, f.submitter.prices)
}

func TestHardLimitStopsPipeline(t *testing.T) {
	f := newFixture()
	f.profile.PerTransactionLimitWei = big.NewInt(1_000)

	_, err := f.service().Execute(context.Background(), input(1_001, nil, models.UrgencyHigh))
	require.ErrorIs(t, err, models.ErrHardLimitExceeded)

	var hle *models.HardLimitError
	require.True(t, errors.As(err, &hle))
	assert.Zero(t, big.NewInt(1_000).Cmp(hle.LimitWei))
	assert.Empty(t, f.submitter.prices)
	assert.Equal(t, StatusHardLimit, f.audit.records[0].Status)
}

func TestRunAwayIsRejected(t *testing.T) {
	f := newFixture()

	in := input(0, nil, models.UrgencyHigh)
	in.Transfer = models.TransferRequest{
		Recipient: "0x000000000000000000000000000000000000dEaD",
		AmountWei: new(big.Int).Mul(big.NewInt(2), big.NewInt(params.Ether)),
	}

	res, err := f.service().Execute(context.Background(), in)
	require.ErrorIs(t, err, models.ErrTransferRejected)

	var rej *models.RejectionError
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, models.RiskRunAway, rej.Assessment.Level)
	assert.Equal(t, models.RiskRunAway, res.Assessment.Level)
	assert.Empty(t, f.submitter.prices)
}

func TestDelayIsNotSubmitted(t *testing.T) {
	f := newFixture()
	f.oracle.tier = models.GasTier{
		Slow: big.NewInt(40e9), Standard: big.NewInt(60e9), Fast: big.NewInt(90e9), Instant: big.NewInt(120e9), Confidence: 0.9,
	}

	res, err := f.service().Execute(context.Background(), input(1e15, big.NewInt(30e9), models.UrgencyLow))
	require.NoError(t, err)

	assert.Equal(t, models.CongestionHigh, res.Conditions.Congestion)
	assert.Equal(t, models.ActionDelay, res.Recommendation.Action)
	assert.False(t, res.Submitted)
	assert.Empty(t, f.submitter.prices)
	assert.Equal(t, StatusDelayed, f.audit.records[0].Status)
}

func TestOracleFailure(t *testing.T) {
	f := newFixture()
	f.oracle.err = errors.New("timeout")

	_, err := f.service().Execute(context.Background(), input(1e15, nil, models.UrgencyMedium))
	assert.ErrorIs(t, err, models.ErrExternalDataUnavailable)
	assert.Empty(t, f.submitter.prices)
}

func TestHardLimitWinsOverOracleFailure(t *testing.T) {
	f := newFixture()
	f.oracle.err = errors.New("timeout")

	in := input(0, nil, models.UrgencyMedium)
	in.Transfer.AmountWei = new(big.Int).Add(f.profile.PerTransactionLimitWei, big.NewInt(1))

	_, err := f.service().Evaluate(context.Background(), in)
	require.ErrorIs(t, err, models.ErrHardLimitExceeded)
	assert.NotErrorIs(t, err, models.ErrExternalDataUnavailable)
	assert.Empty(t, f.submitter.prices)
}

func TestSubmitFailureRecordsOutcome(t *testing.T) {
	f := newFixture()
	f.submitter.err = errors.New("nonce too low")

	_, err := f.service().Execute(context.Background(), input(1e15, big.NewInt(30e9), models.UrgencyMedium))
	require.Error(t, err)

	s := f.tracker.Snapshot()
	assert.Equal(t, 1, s.TotalTransactions)
	assert.Zero(t, s.SuccessRate)
	assert.Equal(t, StatusFailed, f.audit.records[0].Status)
}

func TestEvaluateNeverSubmits(t *testing.T) {
	f := newFixture()

	res, err := f.service().Evaluate(context.Background(), input(1e15, big.NewInt(70e9), models.UrgencyMedium))
	require.NoError(t, err)

	assert.Equal(t, models.ActionExecuteNow, res.Recommendation.Action)
	assert.False(t, res.Submitted)
	assert.Empty(t, f.submitter.prices)
	assert.Equal(t, 1, f.lock.calls)
	assert.Equal(t, StatusEvaluated, f.audit.records[0].Status)
}

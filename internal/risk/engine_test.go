package risk

import (
	"context"
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/WalletAdvisor/models"
)

const cleanAddress = "0x52908400098527886E0F7030069857D2E4169EE7"

type stubReputation struct {
	rep models.Reputation
	err error
}

func (s stubReputation) Lookup(context.Context, string) (models.Reputation, error) {
	return s.rep, s.err
}

func newTestEngine(rep models.ReputationSource, policy ReputationPolicy) *Engine {
	return NewEngine(Config{
		LargeTransferWei:       big.NewInt(1_000),
		BehaviorDeviationRatio: 0.5,
		ReputationPolicy:       policy,
	}, rep)
}

func transfer(recipient string, amount int64) models.TransferRequest {
	return models.TransferRequest{Recipient: recipient, AmountWei: big.NewInt(amount)}
}

func TestHardLimitAlwaysWins(t *testing.T) {
	engine := newTestEngine(stubReputation{err: errors.New("down")}, FailClosed)
	recipients := []string{cleanAddress, "0x0000000000000000000000000000000000000000", "not-an-address", ""}
	frequencies := []models.Frequency{models.FrequencyLow, models.FrequencyMedium, models.FrequencyHigh, models.FrequencyAddicted}
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 200; i++ {
		limit := big.NewInt(rng.Int63n(1_000_000))
		amount := new(big.Int).Add(limit, big.NewInt(1))

		_, err := engine.Assess(context.Background(), Request{
			Transfer:               models.TransferRequest{Recipient: recipients[rng.Intn(len(recipients))], AmountWei: amount},
			NetworkRisk:            rng.Float64(),
			Profile:                models.BehaviorProfile{TransactionFrequency: frequencies[rng.Intn(len(frequencies))]},
			PerTransactionLimitWei: limit,
			AccountBalanceWei:      big.NewInt(rng.Int63n(10)),
		})

		require.ErrorIs(t, err, models.ErrHardLimitExceeded)

		var hle *models.HardLimitError
		require.True(t, errors.As(err, &hle))
		assert.Zero(t, hle.LimitWei.Cmp(limit))
	}
}

func TestAmountAtLimitIsAccepted(t *testing.T) {
	engine := newTestEngine(nil, FailClosed)

	got, err := engine.Assess(context.Background(), Request{
		Transfer:               transfer(cleanAddress, 500),
		Profile:                models.BehaviorProfile{TransactionFrequency: models.FrequencyMedium},
		PerTransactionLimitWei: big.NewInt(500),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, got.Level)
	assert.Empty(t, got.Factors)
	assert.Equal(t, 0.8, got.Confidence)
	assert.NotEmpty(t, got.RecommendationText)
}

func TestNilLimitIsZeroCap(t *testing.T) {
	engine := newTestEngine(nil, FailClosed)

	_, err := engine.Assess(context.Background(), Request{Transfer: transfer(cleanAddress, 1)})
	assert.ErrorIs(t, err, models.ErrHardLimitExceeded)
}

func TestAssessHeuristics(t *testing.T) {
	tests := []struct {
		name      string
		recipient string
		amount    int64
		frequency models.Frequency
		balance   *big.Int
		network   float64
		level     models.RiskLevel
		factors   []string
	}{
		{
			name:      "clean transfer",
			recipient: cleanAddress, amount: 10, frequency: models.FrequencyMedium,
			level: models.RiskLow, factors: []string{},
		},
		{
			name:      "burn address",
			recipient: "0x000000000000000000000000000000000000dEaD", amount: 10, frequency: models.FrequencyMedium,
			level: models.RiskHigh, factors: []string{FactorSuspiciousRecipient},
		},
		{
			name:      "large amount alone",
			recipient: cleanAddress, amount: 5_000, frequency: models.FrequencyMedium,
			level: models.RiskMedium, factors: []string{FactorLargeAmount},
		},
		{
			name:      "large amount to suspicious recipient",
			recipient: "0x1111111111111111111111111111111111111111", amount: 5_000, frequency: models.FrequencyMedium,
			level: models.RiskRunAway, factors: []string{FactorSuspiciousRecipient, FactorLargeAmount},
		},
		{
			name:      "unusual for a quiet account",
			recipient: cleanAddress, amount: 600, frequency: models.FrequencyLow, balance: big.NewInt(1_000),
			level: models.RiskMedium, factors: []string{FactorUnusualPattern},
		},
		{
			name:      "small share of balance for a quiet account",
			recipient: cleanAddress, amount: 100, frequency: models.FrequencyLow, balance: big.NewInt(1_000),
			level: models.RiskLow, factors: []string{},
		},
		{
			name:      "compulsive sender",
			recipient: cleanAddress, amount: 10, frequency: models.FrequencyAddicted,
			level: models.RiskMedium, factors: []string{FactorCompulsiveFrequency},
		},
		{
			name:      "congested network",
			recipient: cleanAddress, amount: 10, frequency: models.FrequencyMedium, network: 0.9,
			level: models.RiskMedium, factors: []string{FactorNetworkRisk},
		},
	}

	engine := newTestEngine(nil, FailClosed)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Assess(context.Background(), Request{
				Transfer:               transfer(tt.recipient, tt.amount),
				NetworkRisk:            tt.network,
				Profile:                models.BehaviorProfile{TransactionFrequency: tt.frequency},
				PerTransactionLimitWei: big.NewInt(1_000_000),
				AccountBalanceWei:      tt.balance,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.level, got.Level)
			assert.Equal(t, tt.factors, got.Factors)
			assert.InDelta(t, 0.8-0.1*float64(len(tt.factors)), got.Confidence, 1e-9)
		})
	}
}

func TestReputationPolicy(t *testing.T) {
	req := Request{
		Transfer:               transfer(cleanAddress, 10),
		PerTransactionLimitWei: big.NewInt(100),
	}

	flagged, err := newTestEngine(stubReputation{rep: models.Reputation{Flagged: true, Reason: "phishing"}}, FailClosed).
		Assess(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, flagged.Level)
	assert.Equal(t, []string{FactorFlaggedRecipient}, flagged.Factors)

	closed, err := newTestEngine(stubReputation{err: errors.New("timeout")}, FailClosed).
		Assess(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, closed.Level)
	assert.Equal(t, []string{FactorReputationMissing}, closed.Factors)

	open, err := newTestEngine(stubReputation{err: errors.New("timeout")}, FailOpen).
		Assess(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RiskLow, open.Level)

	defaulted, err := NewEngine(Config{}, stubReputation{err: errors.New("timeout")}).Assess(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, defaulted.Level, "default policy fails closed")
}

func TestInvalidRecipient(t *testing.T) {
	_, err := newTestEngine(nil, FailClosed).Assess(context.Background(), Request{
		Transfer:               transfer("0x1234", 1),
		PerTransactionLimitWei: big.NewInt(10),
	})
	assert.ErrorIs(t, err, models.ErrInvalidRecipient)
}

func TestSuspiciousRecipient(t *testing.T) {
	tests := []struct {
		address  string
		expected bool
	}{
		{"0x0000000000000000000000000000000000000000", true},
		{"0x000000000000000000000000000000000000dEaD", true},
		{"0xdead000000000000000000000000000000000000", false},
		{"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
		{"0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", true},
		{"0x7777777777777777777777777777777777777777", true},
		{cleanAddress, false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SuspiciousRecipient(tt.address), tt.address)
	}
}

func TestCheckHardLimitNilAmount(t *testing.T) {
	assert.NoError(t, CheckHardLimit(nil, big.NewInt(1)))
	assert.NoError(t, CheckHardLimit(nil, nil))
	assert.ErrorIs(t, CheckHardLimit(big.NewInt(2), big.NewInt(1)), models.ErrHardLimitExceeded)
}

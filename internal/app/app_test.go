package app

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/WalletAdvisor/internal/analyze"
	"github.com/Alias1177/WalletAdvisor/internal/calculate"
	"github.com/Alias1177/WalletAdvisor/internal/config"
	"github.com/Alias1177/WalletAdvisor/models"
)

type fixedLock struct {
	locked bool
	err    error
}

func (f fixedLock) IsLocked(context.Context) (bool, error) {
	return f.locked, f.err
}

func TestAnyLocked(t *testing.T) {
	ctx := context.Background()

	locked, err := anyLocked(nil).IsLocked(ctx)
	require.NoError(t, err)
	assert.False(t, locked)

	locked, err = anyLocked{fixedLock{}, fixedLock{locked: true}}.IsLocked(ctx)
	require.NoError(t, err)
	assert.True(t, locked)

	_, err = anyLocked{fixedLock{}, fixedLock{err: errors.New("down")}}.IsLocked(ctx)
	assert.Error(t, err)
}

func TestDefaultProfiles(t *testing.T) {
	p, err := defaultProfiles{}.GetAccountProfile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Account)
	assert.Equal(t, models.FrequencyMedium, p.Behavior.TransactionFrequency)
	assert.Nil(t, p.PerTransactionLimitWei)
}

func TestDisabledSubmitter(t *testing.T) {
	_, err := disabledSubmitter{}.Submit(context.Background(), models.TransferRequest{}, big.NewInt(1))
	assert.ErrorIs(t, err, ErrSubmissionDisabled)
}

func TestNewWithoutBackends(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.DBHost = ""
	cfg.RedisAddr = ""
	cfg.TelegramBotToken = ""
	cfg.NodeRPCURL = ""

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Redis)
	assert.Nil(t, a.Notifier)
	assert.NotNil(t, a.Transfer)
	assert.NotNil(t, a.Decision)
	assert.Equal(t, cfg.RSIPeriod, a.IndicatorConfig().RSIPeriod)

	// no database configured, nothing to persist
	a.SaveLearningState(context.Background())
}

func TestNewWithRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.DBHost = ""
	cfg.TelegramBotToken = ""
	cfg.NodeRPCURL = ""
	cfg.RedisAddr = mr.Addr()
	cfg.Account = "alice"

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Redis)

	lock := a.walletLock("alice")
	locked, err := lock.IsLocked(context.Background())
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, mr.Set("wallet:alice:locked", "1"))
	locked, err = lock.IsLocked(context.Background())
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestConfiguredSMAPeriodsReachTheDecision(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.DBHost = ""
	cfg.RedisAddr = ""
	cfg.TelegramBotToken = ""
	cfg.NodeRPCURL = ""
	cfg.SMAShortPeriod = 10
	cfg.SMALongPeriod = 30

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	points := make([]models.PricePoint, 60)
	for i := range points {
		points[i] = models.PricePoint{Timestamp: int64(1_700_000_000 + i*3600), Price: 100 + float64(i)}
	}
	ind, err := calculate.CalculateAllIndicators(points, a.IndicatorConfig())
	require.NoError(t, err)
	require.Contains(t, ind.SMA, 10)
	require.Contains(t, ind.SMA, 30)

	decision, err := a.Decision.Decide(analyze.Input{Indicators: ind, Asset: "ETH/USD"})
	require.NoError(t, err)
	assert.Contains(t, decision.Factors, analyze.FactorTrendUp)
	assert.NotContains(t, decision.Factors, analyze.FactorTrendDown)
}

package cache

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/WalletAdvisor/models"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), Options{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return mr, client
}

type countingOracle struct {
	calls int
	err   error
}

func (o *countingOracle) GetGasTier(context.Context) (models.GasTier, error) {
	o.calls++
	if o.err != nil {
		return models.GasTier{}, o.err
	}
	return models.GasTier{
		Slow: big.NewInt(10e9), Standard: big.NewInt(25e9), Fast: big.NewInt(60e9), Instant: big.NewInt(90e9), Confidence: 0.9,
	}, nil
}

func TestWalletLock(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	lock := NewWalletLock(client, "alice")

	locked, err := lock.IsLocked(ctx)
	require.NoError(t, err)
	assert.False(t, locked)

	require.NoError(t, lock.Lock(ctx, time.Minute))
	locked, err = lock.IsLocked(ctx)
	require.NoError(t, err)
	assert.True(t, locked)

	other, err := NewWalletLock(client, "bob").IsLocked(ctx)
	require.NoError(t, err)
	assert.False(t, other)

	mr.FastForward(2 * time.Minute)
	locked, err = lock.IsLocked(ctx)
	require.NoError(t, err)
	assert.False(t, locked, "expired")

	require.NoError(t, lock.Lock(ctx, 0))
	require.NoError(t, lock.Unlock(ctx))
	locked, _ = lock.IsLocked(ctx)
	assert.False(t, locked)
}

func TestWalletLockRedisDown(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()

	_, err := NewWalletLock(client, "alice").IsLocked(context.Background())
	assert.Error(t, err)
}

func TestGasTierCache(t *testing.T) {
	mr, client := newRedis(t)
	oracle := &countingOracle{}
	cache := NewGasTierCache(client, oracle, 10*time.Second)
	ctx := context.Background()

	first, err := cache.GetGasTier(ctx)
	require.NoError(t, err)
	second, err := cache.GetGasTier(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, oracle.calls)
	assert.Zero(t, first.Standard.Cmp(second.Standard))
	assert.Equal(t, 0.9, second.Confidence)

	mr.FastForward(11 * time.Second)
	_, err = cache.GetGasTier(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, oracle.calls)
}

func TestGasTierCacheDiscardsGarbage(t *testing.T) {
	mr, client := newRedis(t)
	oracle := &countingOracle{}
	require.NoError(t, mr.Set(KeyGasTier, "{not json"))

	_, err := NewGasTierCache(client, oracle, time.Second).GetGasTier(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, oracle.calls)
}

func TestGasTierCacheOracleFailure(t *testing.T) {
	_, client := newRedis(t)
	oracle := &countingOracle{err: errors.New("oracle down")}

	_, err := NewGasTierCache(client, oracle, time.Second).GetGasTier(context.Background())
	assert.EqualError(t, err, "oracle down")
}

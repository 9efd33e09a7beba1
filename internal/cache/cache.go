// Package cache keeps state shared between processes in Redis: wallet lock
// flags, recent gas tier quotes and the recipient denylist.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/WalletAdvisor/models"
)

// Key prefixes
const (
	PrefixWalletLock = "wallet:%s:locked"
	KeyGasTier       = "gas:tier"
)

// Options holds Redis connection settings
type Options struct {
	Address  string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies connectivity
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// WalletLock is a lock flag shared by every process serving the account
type WalletLock struct {
	client *redis.Client
	key    string
}

// NewWalletLock returns the lock of an account
func NewWalletLock(client *redis.Client, account string) *WalletLock {
	return &WalletLock{client: client, key: fmt.Sprintf(PrefixWalletLock, account)}
}

// IsLocked reports whether the lock key is set
func (l *WalletLock) IsLocked(ctx context.Context) (bool, error) {
	n, err := l.client.Exists(ctx, l.key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Lock sets the flag. A zero ttl keeps it until Unlock.
func (l *WalletLock) Lock(ctx context.Context, ttl time.Duration) error {
	return l.client.Set(ctx, l.key, "1", ttl).Err()
}

// Unlock clears the flag
func (l *WalletLock) Unlock(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}

type cachedTier struct {
	Slow       string  `json:"slow"`
	Standard   string  `json:"standard"`
	Fast       string  `json:"fast"`
	Instant    string  `json:"instant"`
	Confidence float64 `json:"confidence"`
}

// GasTierCache serves gas tiers from Redis for ttl before asking the oracle
type GasTierCache struct {
	client *redis.Client
	oracle models.GasOracle
	ttl    time.Duration
	logger zerolog.Logger
}

// NewGasTierCache wraps an oracle
func NewGasTierCache(client *redis.Client, oracle models.GasOracle, ttl time.Duration) *GasTierCache {
	return &GasTierCache{
		client: client,
		oracle: oracle,
		ttl:    ttl,
		logger: log.With().Str("component", "gas_tier_cache").Logger(),
	}
}

// GetGasTier returns a cached quote when fresh. Redis failures fall through
// to the oracle.
func (c *GasTierCache) GetGasTier(ctx context.Context) (models.GasTier, error) {
	raw, err := c.client.Get(ctx, KeyGasTier).Bytes()
	switch {
	case err == nil:
		if tier, ok := decodeTier(raw); ok {
			return tier, nil
		}
		c.logger.Warn().Msg("Discarding unreadable cached gas tier")
	case !errors.Is(err, redis.Nil):
		c.logger.Warn().Err(err).Msg("Gas tier cache read failed")
	}

	tier, err := c.oracle.GetGasTier(ctx)
	if err != nil {
		return models.GasTier{}, err
	}

	if encoded, err := json.Marshal(encodeTier(tier)); err == nil {
		if err := c.client.Set(ctx, KeyGasTier, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn().Err(err).Msg("Gas tier cache write failed")
		}
	}
	return tier, nil
}

func encodeTier(t models.GasTier) cachedTier {
	str := func(v *big.Int) string {
		if v == nil {
			return ""
		}
		return v.String()
	}
	return cachedTier{
		Slow:       str(t.Slow),
		Standard:   str(t.Standard),
		Fast:       str(t.Fast),
		Instant:    str(t.Instant),
		Confidence: t.Confidence,
	}
}

func decodeTier(raw []byte) (models.GasTier, bool) {
	var c cachedTier
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.GasTier{}, false
	}

	tier := models.GasTier{Confidence: c.Confidence}
	for _, f := range []struct {
		raw string
		dst **big.Int
	}{{c.Slow, &tier.Slow}, {c.Standard, &tier.Standard}, {c.Fast, &tier.Fast}, {c.Instant, &tier.Instant}} {
		v, ok := new(big.Int).SetString(f.raw, 10)
		if !ok {
			return models.GasTier{}, false
		}
		*f.dst = v
	}
	return tier, true
}

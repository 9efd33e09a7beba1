package cache

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Alias1177/WalletAdvisor/models"
)

// KeyFlaggedAddresses maps lowercase addresses to the reason they were flagged
const KeyFlaggedAddresses = "reputation:flagged"

// Denylist is a reputation source backed by a Redis hash of flagged
// addresses. An address missing from the hash is not flagged.
type Denylist struct {
	client *redis.Client
}

// NewDenylist creates a denylist on client
func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client}
}

// Lookup reports whether address is flagged
func (d *Denylist) Lookup(ctx context.Context, address string) (models.Reputation, error) {
	reason, err := d.client.HGet(ctx, KeyFlaggedAddresses, strings.ToLower(address)).Result()
	if errors.Is(err, redis.Nil) {
		return models.Reputation{}, nil
	}
	if err != nil {
		return models.Reputation{}, err
	}
	return models.Reputation{Flagged: true, Reason: reason}, nil
}

// Flag adds address to the denylist
func (d *Denylist) Flag(ctx context.Context, address, reason string) error {
	if reason == "" {
		reason = "flagged"
	}
	return d.client.HSet(ctx, KeyFlaggedAddresses, strings.ToLower(address), reason).Err()
}

// Unflag removes address from the denylist
func (d *Denylist) Unflag(ctx context.Context, address string) error {
	return d.client.HDel(ctx, KeyFlaggedAddresses, strings.ToLower(address)).Err()
}

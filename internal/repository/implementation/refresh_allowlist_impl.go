package implementation

import (
	"context"
	"time"

	"giga-banana-web/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "refresh_allowlist:"

type redisRefreshAllowlist struct {
	client *redis.Client
}

// NewRedisRefreshAllowlist stores active refresh token ids in redis so a
// logout on one instance revokes the token everywhere.
func NewRedisRefreshAllowlist(client *redis.Client) contract.IRefreshAllowlist {
	return &redisRefreshAllowlist{client: client}
}

func (a *redisRefreshAllowlist) Add(ctx context.Context, tokenId string, ttl time.Duration) error {
	return a.client.Set(ctx, refreshKeyPrefix+tokenId, "1", ttl).Err()
}

func (a *redisRefreshAllowlist) Contains(ctx context.Context, tokenId string) (bool, error) {
	n, err := a.client.Exists(ctx, refreshKeyPrefix+tokenId).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (a *redisRefreshAllowlist) Remove(ctx context.Context, tokenId string) error {
	return a.client.Del(ctx, refreshKeyPrefix+tokenId).Err()
}

package memory

import (
	"context"
	"time"

	"giga-banana-web/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

type refreshAllowlist struct {
	cache *cache.Cache
}

// NewRefreshAllowlist is the single-instance fallback used when no redis
// address is configured. Tokens expire with their own TTL.
func NewRefreshAllowlist() contract.IRefreshAllowlist {
	return &refreshAllowlist{
		cache: cache.New(3*time.Hour, 10*time.Minute),
	}
}

func (a *refreshAllowlist) Add(_ context.Context, tokenId string, ttl time.Duration) error {
	a.cache.Set(tokenId, struct{}{}, ttl)
	return nil
}

func (a *refreshAllowlist) Contains(_ context.Context, tokenId string) (bool, error) {
	_, found := a.cache.Get(tokenId)
	return found, nil
}

func (a *refreshAllowlist) Remove(_ context.Context, tokenId string) error {
	a.cache.Delete(tokenId)
	return nil
}

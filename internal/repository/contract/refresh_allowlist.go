package contract

import (
	"context"
	"time"
)

// IRefreshAllowlist tracks refresh tokens that are still honored. A token
// missing from the allowlist is treated as revoked even when its signature
// verifies.
type IRefreshAllowlist interface {
	Add(ctx context.Context, tokenId string, ttl time.Duration) error
	Contains(ctx context.Context, tokenId string) (bool, error)
	Remove(ctx context.Context, tokenId string) error
}

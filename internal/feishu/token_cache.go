package feishu

import (
	"context"
	"sync"
	"time"
)

// TokenCache holds one time-boxed access token shared by all concurrent
// requests. The mutex covers the whole read-refresh-write cycle, so a
// caller never observes a half-written token; at worst two callers racing
// an expiry both refresh, which is idempotent upstream.
type TokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

// NewTokenCache creates an empty token cache
func NewTokenCache() *TokenCache {
	return &TokenCache{now: time.Now}
}

// Get returns the cached token, invoking refresh when the cache is empty
// or expired. refresh returns the new token and its time-to-live.
func (c *TokenCache) Get(ctx context.Context, refresh func(context.Context) (string, time.Duration, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	token, ttl, err := refresh(ctx)
	if err != nil {
		return "", err
	}

	c.token = token
	c.expiresAt = c.now().Add(ttl)
	return token, nil
}

// Invalidate drops the cached token so the next Get refreshes.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

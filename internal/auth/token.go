package auth

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/internal/logging"
	"github.com/fivetwenty-io/billing-client/internal/store"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// Token is a bearer token and its expiry, kept at millisecond precision.
type Token struct {
	Value     string    `json:"token"      yaml:"token"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// ValidAt reports whether the token is usable at now.
func (t *Token) ValidAt(now time.Time) bool {
	if t == nil || t.Value == "" {
		return false
	}

	return now.UnixMilli() < t.ExpiresAt.UnixMilli()
}

// Valid reports whether the token is usable now.
func (t *Token) Valid() bool {
	return t.ValidAt(time.Now())
}

// CacheOption configures a TokenCache.
type CacheOption func(*TokenCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *TokenCache) {
		c.now = now
	}
}

// WithCacheLogger sets the logger used for persistence failures.
func WithCacheLogger(logger billing.Logger) CacheOption {
	return func(c *TokenCache) {
		c.logger = logging.OrNop(logger)
	}
}

// TokenCache holds at most one bearer token in memory and mirrors it to a
// key-value store so it survives restarts. None of its methods fail: store
// errors are logged and the cache degrades to "no token".
type TokenCache struct {
	mu     sync.Mutex
	store  billing.KeyValueStore
	logger billing.Logger
	now    func() time.Time
	token  *Token
}

// NewTokenCache creates a cache persisting to kv.
func NewTokenCache(kv billing.KeyValueStore, opts ...CacheOption) *TokenCache {
	cache := &TokenCache{
		store:  kv,
		logger: logging.NopLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Store caches value until now+expiresIn.
func (c *TokenCache) Store(ctx context.Context, value string, expiresIn time.Duration) {
	c.Put(ctx, Token{Value: value, ExpiresAt: c.now().Add(expiresIn)})
}

// Put caches token as given.
func (c *TokenCache) Put(ctx context.Context, token Token) {
	token.ExpiresAt = time.UnixMilli(token.ExpiresAt.UnixMilli())

	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = &token

	err := c.persist(ctx, token)
	if err != nil {
		c.logger.Warn("Failed to persist bearer token", map[string]interface{}{"error": err})
	}
}

func (c *TokenCache) persist(ctx context.Context, token Token) error {
	err := c.store.Set(ctx, constants.StorageKeyToken, token.Value)
	if err != nil {
		return err
	}

	err = c.store.Set(ctx, constants.StorageKeyTokenExpiration, strconv.FormatInt(token.ExpiresAt.UnixMilli(), 10))
	if err != nil {
		// A token must never be persisted next to another token's expiry.
		_ = c.store.Remove(ctx, constants.StorageKeyToken)

		return err
	}

	return nil
}

// Get returns the cached token if it is still usable. A token found only
// in the store is promoted to memory; an expired stored token is removed.
func (c *TokenCache) Get(ctx context.Context) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token.ValidAt(now) {
		return c.token.Value, true
	}

	c.token = nil

	stored, ok := c.hydrate(ctx)
	if !ok {
		return "", false
	}

	if !stored.ValidAt(now) {
		c.clear(ctx)

		return "", false
	}

	c.token = stored

	return stored.Value, true
}

// hydrate reads the persisted token. An unparsable expiration is cleared.
func (c *TokenCache) hydrate(ctx context.Context) (*Token, bool) {
	value, err := c.store.Get(ctx, constants.StorageKeyToken)
	if err != nil {
		if !store.IsNotFound(err) {
			c.logger.Warn("Failed to read bearer token", map[string]interface{}{"error": err})
		}

		return nil, false
	}

	rawExpiration, err := c.store.Get(ctx, constants.StorageKeyTokenExpiration)
	if err != nil {
		if !store.IsNotFound(err) {
			c.logger.Warn("Failed to read token expiration", map[string]interface{}{"error": err})
		}

		return nil, false
	}

	millis, err := strconv.ParseInt(rawExpiration, 10, 64)
	if err != nil {
		c.logger.Warn("Discarding token with unparsable expiration", map[string]interface{}{
			"expiration": rawExpiration,
		})
		c.clear(ctx)

		return nil, false
	}

	return &Token{Value: value, ExpiresAt: time.UnixMilli(millis)}, true
}

// Clear removes the token from memory and from the store.
func (c *TokenCache) Clear(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clear(ctx)
}

func (c *TokenCache) clear(ctx context.Context) {
	c.token = nil

	for _, key := range []string{constants.StorageKeyToken, constants.StorageKeyTokenExpiration} {
		err := c.store.Remove(ctx, key)
		if err != nil {
			c.logger.Warn("Failed to remove persisted token", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
	}
}

// Peek returns a copy of the in-memory token, or nil.
func (c *TokenCache) Peek() *Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return nil
	}

	token := *c.token

	return &token
}

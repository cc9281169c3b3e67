package config

import (
	"context"
	"sync"
	"time"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// Runtime is the in-memory copy of the active environment's settings, read
// synchronously by the authorizer and the request dispatcher.
type Runtime struct {
	mu    sync.RWMutex
	env   billing.Environment
	cfg   billing.APIEnvironmentConfig
	store *Store
}

// NewRuntime creates a mirror of env seeded with its defaults.
func NewRuntime(env billing.Environment, store *Store) *Runtime {
	return &Runtime{
		env:   env,
		cfg:   DefaultAppConfig().API[env],
		store: store,
	}
}

// Initialize loads the persisted settings of the active environment.
func (r *Runtime) Initialize(ctx context.Context) {
	cfg := r.store.GetAPIConfig(ctx, r.env)
	r.Apply(cfg)
}

// Apply replaces the mirrored settings.
func (r *Runtime) Apply(cfg billing.APIEnvironmentConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg = cfg
}

// Update persists update for the active environment and mirrors the result.
func (r *Runtime) Update(ctx context.Context, update billing.APIConfigUpdate) billing.APIEnvironmentConfig {
	cfg := r.store.UpdateAPIConfig(ctx, r.env, update)
	r.Apply(cfg)

	return cfg
}

// Snapshot returns a copy of the mirrored settings.
func (r *Runtime) Snapshot() billing.APIEnvironmentConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cfg
}

// Environment returns the active environment.
func (r *Runtime) Environment() billing.Environment {
	return r.env
}

// BaseURL returns the API base URL.
func (r *Runtime) BaseURL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cfg.BaseURL
}

// Timeout returns the request timeout, falling back to the default when
// none is configured.
func (r *Runtime) Timeout() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.cfg.TimeoutMs <= 0 {
		return constants.DefaultHTTPTimeout
	}

	return r.cfg.Timeout()
}

// Credentials returns the client id and secret.
func (r *Runtime) Credentials() (string, string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.cfg.ClientID, r.cfg.ClientSecret
}

// URL joins the base URL and path.
func (r *Runtime) URL(path string) string {
	return r.BaseURL() + path
}

// Package config loads, merges and persists the per-environment API
// settings, and mirrors the active environment in memory.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sync"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/internal/logging"
	"github.com/fivetwenty-io/billing-client/internal/store"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

var (
	currentEnvOnce sync.Once
	currentEnv     billing.Environment
)

// CurrentEnvironment returns the environment named by BILLING_ENVIRONMENT,
// read once per process. Empty or unknown values mean development.
func CurrentEnvironment() billing.Environment {
	currentEnvOnce.Do(func() {
		env, err := billing.ResolveEnvironment(os.Getenv(constants.EnvironmentVariable))
		if err != nil {
			env = billing.EnvironmentDevelopment
		}

		currentEnv = env
	})

	return currentEnv
}

// DefaultAppConfig returns the built-in settings of every environment.
func DefaultAppConfig() billing.AppConfig {
	return billing.AppConfig{
		API: map[billing.Environment]billing.APIEnvironmentConfig{
			billing.EnvironmentDevelopment: {
				BaseURL:   constants.DevelopmentBaseURL,
				TimeoutMs: constants.DevelopmentTimeoutMs,
			},
			billing.EnvironmentStaging: {
				BaseURL:   constants.StagingBaseURL,
				TimeoutMs: constants.StagingTimeoutMs,
			},
			billing.EnvironmentProduction: {
				BaseURL:   constants.ProductionBaseURL,
				TimeoutMs: constants.ProductionTimeoutMs,
			},
		},
	}
}

// ValidateBaseURL checks that raw is an absolute http(s) URL.
func ValidateBaseURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", billing.ErrInvalidBaseURL, err)
	}

	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %q", billing.ErrInvalidBaseURL, raw)
	}

	return nil
}

// persistedAPIConfig is the stored form of one environment. Pointer fields
// let a stored blob override only the fields it carries.
type persistedAPIConfig struct {
	BaseURL      *string `json:"baseUrl,omitempty"`
	TimeoutMs    *int    `json:"timeout,omitempty"`
	ClientID     *string `json:"clientId,omitempty"`
	ClientSecret *string `json:"clientSecret,omitempty"`
}

type persistedAppConfig struct {
	API map[billing.Environment]persistedAPIConfig `json:"api"`
}

// Store reads and writes the app_config blob.
type Store struct {
	mu     sync.Mutex
	kv     billing.KeyValueStore
	logger billing.Logger
}

// NewStore creates a config store over kv.
func NewStore(kv billing.KeyValueStore, logger billing.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logging.OrNop(logger),
	}
}

// Load returns the defaults overlaid with whatever was persisted. A missing,
// unreadable or corrupt blob yields the defaults.
func (s *Store) Load(ctx context.Context) billing.AppConfig {
	cfg := DefaultAppConfig()

	raw, err := s.kv.Get(ctx, constants.StorageKeyAppConfig)
	if err != nil {
		if !store.IsNotFound(err) {
			s.logger.Error("Failed to load configuration", map[string]interface{}{"error": err})
		}

		return cfg
	}

	var persisted persistedAppConfig

	err = json.Unmarshal([]byte(raw), &persisted)
	if err != nil {
		s.logger.Error("Failed to parse configuration, using defaults", map[string]interface{}{"error": err})

		return cfg
	}

	for _, env := range billing.Environments() {
		override, ok := persisted.API[env]
		if !ok {
			continue
		}

		cfg.API[env] = merge(cfg.API[env], billing.APIConfigUpdate(override))
	}

	return cfg
}

// Save persists cfg. Failures are logged; callers keep their in-memory copy.
func (s *Store) Save(ctx context.Context, cfg billing.AppConfig) {
	err := s.persist(ctx, cfg)
	if err != nil {
		s.logger.Error("Failed to save configuration", map[string]interface{}{"error": err})
	}
}

func (s *Store) persist(ctx context.Context, cfg billing.AppConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	err = s.kv.Set(ctx, constants.StorageKeyAppConfig, string(data))
	if err != nil {
		return fmt.Errorf("failed to store configuration: %w", err)
	}

	return nil
}

// GetAPIConfig returns the merged settings of env.
func (s *Store) GetAPIConfig(ctx context.Context, env billing.Environment) billing.APIEnvironmentConfig {
	return s.Load(ctx).API[env]
}

// UpdateAPIConfig applies update to env and persists the whole map. Updates
// within one process are serialized; writers in other processes sharing
// the same backend can still overwrite each other.
func (s *Store) UpdateAPIConfig(ctx context.Context, env billing.Environment, update billing.APIConfigUpdate) billing.APIEnvironmentConfig {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.Load(ctx)
	cfg.API[env] = merge(cfg.API[env], update)

	s.Save(ctx, cfg)

	return cfg.API[env]
}

func merge(base billing.APIEnvironmentConfig, update billing.APIConfigUpdate) billing.APIEnvironmentConfig {
	if update.BaseURL != nil {
		base.BaseURL = *update.BaseURL
	}

	if update.TimeoutMs != nil {
		base.TimeoutMs = *update.TimeoutMs
	}

	if update.ClientID != nil {
		base.ClientID = *update.ClientID
	}

	if update.ClientSecret != nil {
		base.ClientSecret = *update.ClientSecret
	}

	return base
}

package billingclient

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/billing-client/internal/client"
	"github.com/fivetwenty-io/billing-client/internal/logging"
	"github.com/fivetwenty-io/billing-client/internal/store"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// StoreConfig selects and configures a key-value backend.
type StoreConfig = store.StoreConfig

// Backend configurations accepted by OpenStore.
type (
	FileConfig   = store.FileConfig
	RedisConfig  = store.RedisConfig
	NATSConfig   = store.NATSConfig
	SQLiteConfig = store.SQLiteConfig
)

// LoggerConfig configures the logger returned by NewLogger.
type LoggerConfig = logging.Config

// StoreType names a key-value backend.
type StoreType = store.StoreType

// Key-value backend types.
const (
	StoreTypeMemory = store.StoreTypeMemory
	StoreTypeFile   = store.StoreTypeFile
	StoreTypeRedis  = store.StoreTypeRedis
	StoreTypeNATS   = store.StoreTypeNATS
	StoreTypeSQLite = store.StoreTypeSQLite
)

// New creates a billing API client. The client loads the persisted settings
// of the configured environment before returning.
func New(ctx context.Context, config *billing.Config) (billing.Client, error) {
	if config == nil {
		return nil, billing.ErrConfigRequired
	}

	c, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithCredentials creates a client for env and stores baseURL and the
// client credentials as that environment's settings.
func NewWithCredentials(ctx context.Context, env billing.Environment, baseURL, clientID, clientSecret string) (billing.Client, error) {
	c, err := New(ctx, &billing.Config{Environment: env})
	if err != nil {
		return nil, err
	}

	if baseURL != "" {
		err = c.UpdateAPIHost(ctx, baseURL)
		if err != nil {
			return nil, err
		}
	}

	err = c.UpdateClientCredentials(ctx, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// NewWithStore opens the backend described by storeConfig and creates a
// client persisting through it. The client closes the backend on Close.
func NewWithStore(ctx context.Context, config *billing.Config, storeConfig *StoreConfig) (billing.Client, error) {
	if config == nil {
		return nil, billing.ErrConfigRequired
	}

	kv, err := OpenStore(ctx, storeConfig)
	if err != nil {
		return nil, err
	}

	withStore := *config
	withStore.Store = kv

	c, err := New(ctx, &withStore)
	if err != nil {
		_ = kv.Close()

		return nil, err
	}

	return c, nil
}

// OpenStore creates the key-value backend described by config. A nil config
// yields an in-memory store.
func OpenStore(ctx context.Context, config *StoreConfig) (billing.KeyValueStore, error) {
	kv, err := store.NewStoreFromConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	return kv, nil
}

// NewLogger creates a zap-backed billing.Logger.
func NewLogger(config LoggerConfig) billing.Logger {
	return logging.NewZapLogger(config)
}

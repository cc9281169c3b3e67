package store

import (
	"context"
	"fmt"
	"strings"
)

// StoreType represents the type of key-value backend.
type StoreType string

const (
	// StoreTypeMemory keeps values in process memory.
	StoreTypeMemory StoreType = "memory"

	// StoreTypeFile keeps values in a YAML file.
	StoreTypeFile StoreType = "file"

	// StoreTypeRedis keeps values in Redis.
	StoreTypeRedis StoreType = "redis"

	// StoreTypeNATS keeps values in a NATS JetStream key-value bucket.
	StoreTypeNATS StoreType = "nats"

	// StoreTypeSQLite keeps values in a SQLite table.
	StoreTypeSQLite StoreType = "sqlite"
)

// ParseStoreType validates a backend name.
func ParseStoreType(name string) (StoreType, error) {
	storeType := StoreType(strings.ToLower(strings.TrimSpace(name)))
	switch storeType {
	case StoreTypeMemory, StoreTypeFile, StoreTypeRedis, StoreTypeNATS, StoreTypeSQLite:
		return storeType, nil
	case "":
		return StoreTypeMemory, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedStoreType, name)
	}
}

// StoreConfig configures the key-value backend.
type StoreConfig struct {
	// Type is the backend type
	Type StoreType `mapstructure:"type" yaml:"type"`

	File   *FileConfig   `mapstructure:"file"   yaml:"file,omitempty"`
	Redis  *RedisConfig  `mapstructure:"redis"  yaml:"redis,omitempty"`
	NATS   *NATSConfig   `mapstructure:"nats"   yaml:"nats,omitempty"`
	SQLite *SQLiteConfig `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
}

// DefaultStoreConfig returns the in-memory configuration.
func DefaultStoreConfig() *StoreConfig {
	return &StoreConfig{Type: StoreTypeMemory}
}

// NewStoreFromConfig creates a backend from configuration.
func NewStoreFromConfig(ctx context.Context, config *StoreConfig) (Store, error) {
	if config == nil {
		config = DefaultStoreConfig()
	}

	switch config.Type {
	case StoreTypeMemory, "":
		return NewMemoryStore(), nil

	case StoreTypeFile:
		if config.File == nil {
			return nil, ErrFileConfigRequired
		}

		return NewFileStore(config.File)

	case StoreTypeRedis:
		if config.Redis == nil {
			return nil, ErrRedisConfigRequired
		}

		return NewRedisStore(ctx, config.Redis)

	case StoreTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSStore(ctx, config.NATS)

	case StoreTypeSQLite:
		if config.SQLite == nil {
			return nil, ErrSQLiteConfigRequired
		}

		return NewSQLiteStore(ctx, config.SQLite)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStoreType, config.Type)
	}
}

// StoreBuilder helps build store configurations.
type StoreBuilder struct {
	config *StoreConfig
}

// NewStoreBuilder creates a new store builder.
func NewStoreBuilder() *StoreBuilder {
	return &StoreBuilder{config: DefaultStoreConfig()}
}

// WithType sets the backend type.
func (b *StoreBuilder) WithType(storeType StoreType) *StoreBuilder {
	b.config.Type = storeType

	return b
}

// WithFile configures the file backend.
func (b *StoreBuilder) WithFile(path string) *StoreBuilder {
	b.config.File = &FileConfig{Path: path}

	return b
}

// WithRedis configures the Redis backend.
func (b *StoreBuilder) WithRedis(config *RedisConfig) *StoreBuilder {
	b.config.Redis = config

	return b
}

// WithNATS configures the NATS backend.
func (b *StoreBuilder) WithNATS(config *NATSConfig) *StoreBuilder {
	b.config.NATS = config

	return b
}

// WithSQLite configures the SQLite backend.
func (b *StoreBuilder) WithSQLite(path string) *StoreBuilder {
	b.config.SQLite = &SQLiteConfig{DatabasePath: path}

	return b
}

// Config returns the configuration built so far.
func (b *StoreBuilder) Config() *StoreConfig {
	return b.config
}

// Build creates the store from the configuration.
func (b *StoreBuilder) Build(ctx context.Context) (Store, error) {
	return NewStoreFromConfig(ctx, b.config)
}

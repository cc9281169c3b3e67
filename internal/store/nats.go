package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/billing-client/internal/constants"
)

// NATSConfig configures the NATS JetStream key-value store.
type NATSConfig struct {
	// URL of the NATS server. Empty uses nats.DefaultURL.
	URL string `mapstructure:"url" yaml:"url"`

	// Bucket is the key-value bucket, created when missing.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// Name identifies the connection on the server.
	Name string `mapstructure:"name" yaml:"name"`
}

// NATSStore keeps values in a JetStream key-value bucket.
type NATSStore struct {
	conn *nats.Conn
	kv   nats.KeyValue
}

// NewNATSStore connects to NATS and binds or creates the bucket.
func NewNATSStore(_ context.Context, config *NATSConfig) (*NATSStore, error) {
	if config == nil {
		return nil, ErrNATSConfigRequired
	}

	url := config.URL
	if url == "" {
		url = nats.DefaultURL
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	opts := []nats.Option{nats.Timeout(constants.StoreConnectTimeout)}
	if config.Name != "" {
		opts = append(opts, nats.Name(config.Name))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to open JetStream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: "billing client tokens and settings",
			History:     1,
		})
	}

	if err != nil {
		conn.Close()

		return nil, fmt.Errorf("failed to bind key-value bucket %s: %w", bucket, err)
	}

	return &NATSStore{conn: conn, kv: kv}, nil
}

// Get returns the value stored under key.
func (s *NATSStore) Get(_ context.Context, key string) (string, error) {
	entry, err := s.kv.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}

		return "", fmt.Errorf("failed to get %s from NATS: %w", key, err)
	}

	return string(entry.Value()), nil
}

// Set stores value under key.
func (s *NATSStore) Set(_ context.Context, key, value string) error {
	_, err := s.kv.PutString(key, value)
	if err != nil {
		return fmt.Errorf("failed to put %s into NATS: %w", key, err)
	}

	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *NATSStore) Remove(_ context.Context, key string) error {
	err := s.kv.Delete(key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete %s from NATS: %w", key, err)
	}

	return nil
}

// Close drains and closes the NATS connection.
func (s *NATSStore) Close() error {
	err := s.conn.Drain()
	if err != nil {
		s.conn.Close()

		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}

	return nil
}

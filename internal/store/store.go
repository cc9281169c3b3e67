// Package store provides the key-value backends that persist bearer tokens
// and per-environment settings.
package store

import (
	"errors"

	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// Static errors for err113 compliance.
var (
	ErrKeyNotFound          = billing.ErrKeyNotFound
	ErrStoreClosed          = errors.New("store is closed")
	ErrUnsupportedStoreType = errors.New("unsupported store type")
	ErrFileConfigRequired   = errors.New("file configuration required for file store")
	ErrRedisConfigRequired  = errors.New("redis configuration required for redis store")
	ErrNATSConfigRequired   = errors.New("NATS configuration required for NATS store")
	ErrSQLiteConfigRequired = errors.New("SQLite configuration required for SQLite store")
	ErrInvalidTableName     = errors.New("invalid table name")
)

// Store is the key-value contract every backend implements. Get on a
// missing key returns an error wrapping ErrKeyNotFound.
type Store = billing.KeyValueStore

// IsNotFound reports whether err means the key does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/fivetwenty-io/billing-client/internal/constants"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// DatabasePath is the database file, or ":memory:".
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// Table holds the key-value rows. Empty uses kv_store.
	Table string `mapstructure:"table" yaml:"table"`
}

// SQLiteStore keeps values in a SQLite table.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens the database and creates the table if needed.
func NewSQLiteStore(ctx context.Context, config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil || config.DatabasePath == "" {
		return nil, ErrSQLiteConfigRequired
	}

	table := config.Table
	if table == "" {
		table = constants.DefaultSQLiteTable
	}

	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	db, err := sql.Open("sqlite3", config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, table: table}

	err = s.migrate(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.ExecContext(ctx, query)

	return err
}

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value string

	err := s.db.QueryRowContext(ctx, `SELECT value FROM `+s.table+` WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}

		return "", fmt.Errorf("failed to get %s from SQLite: %w", key, err)
	}

	return value, nil
}

// Set stores value under key.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	query := `INSERT INTO ` + s.table + ` (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

	_, err := s.db.ExecContext(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s in SQLite: %w", key, err)
	}

	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to remove %s from SQLite: %w", key, err)
	}

	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

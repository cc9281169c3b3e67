package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the fallback timeout when an environment has none.
	DefaultHTTPTimeout = 30 * time.Second

	// StoreConnectTimeout bounds connecting to a remote key-value backend.
	StoreConnectTimeout = 5 * time.Second
)

// Per-environment defaults.
const (
	// DevelopmentBaseURL is the default API base URL for development.
	DevelopmentBaseURL = "http://localhost:3000/api/v1"

	// StagingBaseURL is the default API base URL for staging.
	StagingBaseURL = "https://staging-api.example.com"

	// ProductionBaseURL is the default API base URL for production.
	ProductionBaseURL = "https://api.example.com"

	// DevelopmentTimeoutMs is the default request timeout for development.
	DevelopmentTimeoutMs = 30000

	// StagingTimeoutMs is the default request timeout for staging.
	StagingTimeoutMs = 15000

	// ProductionTimeoutMs is the default request timeout for production.
	ProductionTimeoutMs = 10000
)

// Authorization.
const (
	// AuthorizePath is the token endpoint relative to the base URL.
	AuthorizePath = "/authorize"

	// GrantTypeClientCredentials is the only grant the API supports.
	GrantTypeClientCredentials = "client_credentials"

	// DefaultTokenLifetime is assumed when the server sends no expiry.
	DefaultTokenLifetime = time.Hour
)

// Persisted storage keys.
const (
	// StorageKeyToken holds the bearer token value.
	StorageKeyToken = "bearer_token"

	// StorageKeyTokenExpiration holds the token expiry as epoch milliseconds.
	StorageKeyTokenExpiration = "token_expiration"

	// StorageKeyAppConfig holds the JSON encoded per-environment settings.
	StorageKeyAppConfig = "app_config"
)

// Environment variables.
const (
	// EnvironmentVariable selects the active environment.
	EnvironmentVariable = "BILLING_ENVIRONMENT"

	// EnvPrefix is the prefix viper uses for CLI settings.
	EnvPrefix = "BILLING"
)

// Key-value backend defaults.
const (
	// DefaultRedisAddress is used when no Redis address is configured.
	DefaultRedisAddress = "localhost:6379"

	// DefaultRedisPrefix namespaces keys in a shared Redis.
	DefaultRedisPrefix = "billing:"

	// DefaultNATSBucket is the JetStream key-value bucket name.
	DefaultNATSBucket = "billing"

	// DefaultSQLiteTable holds the key-value rows.
	DefaultSQLiteTable = "kv_store"
)

// Display constants.
const (
	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// None is used when no value is present.
	None = "none"

	// TokenPreviewLength is how much of a token is shown before masking.
	TokenPreviewLength = 8
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2
)

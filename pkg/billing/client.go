package billing

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ItemsClient manages catalog items.
type ItemsClient interface {
	List(ctx context.Context) ([]Item, error)
	Get(ctx context.Context, id string) (*Item, error)
	GetByAltID(ctx context.Context, altID string) (*Item, error)
	Create(ctx context.Context, request *ItemCreateRequest) (*Item, error)
	Update(ctx context.Context, id string, request *ItemUpdateRequest) (*Item, error)
	Delete(ctx context.Context, id string) error
}

// PersonsClient manages persons.
type PersonsClient interface {
	List(ctx context.Context) ([]Person, error)
	Get(ctx context.Context, id string) (*Person, error)
	GetByAltID(ctx context.Context, altID string) (*Person, error)
	GetByEmail(ctx context.Context, email string) (*Person, error)
	Create(ctx context.Context, request *PersonCreateRequest) (*Person, error)
	Update(ctx context.Context, id string, request *PersonUpdateRequest) (*Person, error)
	Delete(ctx context.Context, id string) error
}

// InvoicesClient manages invoices.
type InvoicesClient interface {
	List(ctx context.Context) ([]Invoice, error)
	Get(ctx context.Context, id string) (*Invoice, error)
	GetByAltID(ctx context.Context, altID string) (*Invoice, error)
	ListByUser(ctx context.Context, userID string) ([]Invoice, error)
	Create(ctx context.Context, request *InvoiceCreateRequest) (*Invoice, error)
	Update(ctx context.Context, id string, request *InvoiceUpdateRequest) (*Invoice, error)
	Delete(ctx context.Context, id string) error
}

// InvoiceItemsClient manages the links between invoices and items.
type InvoiceItemsClient interface {
	List(ctx context.Context) ([]InvoiceItem, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]InvoiceItem, error)
	ListByItem(ctx context.Context, itemID string) ([]InvoiceItem, error)
	Get(ctx context.Context, invoiceID, itemID string) (*InvoiceItem, error)
	Create(ctx context.Context, request *InvoiceItem) (*InvoiceItem, error)
	DeleteByInvoice(ctx context.Context, invoiceID string) error
	DeleteByItem(ctx context.Context, itemID string) error
	Delete(ctx context.Context, invoiceID, itemID string) error
}

// ResourceClients groups the per-resource clients.
type ResourceClients interface {
	Items() ItemsClient
	Persons() PersonsClient
	Invoices() InvoicesClient
	InvoiceItems() InvoiceItemsClient
}

// SettingsClient is the configuration surface: API host, credentials and
// the bearer token lifecycle of the active environment.
type SettingsClient interface {
	Environment() Environment
	APIHost() string
	UpdateAPIHost(ctx context.Context, baseURL string) error
	UpdateTimeout(ctx context.Context, timeout time.Duration) error
	ClientCredentials() (clientID, clientSecret string)
	UpdateClientCredentials(ctx context.Context, clientID, clientSecret string) error
	APIConfig(ctx context.Context, env Environment) APIEnvironmentConfig
	Token(ctx context.Context) (string, bool)
	TokenExpiry() time.Time
	ClearToken(ctx context.Context)
	RefreshToken(ctx context.Context) error
	URL(path string) string
}

// Client is the main interface for the billing API client.
type Client interface {
	ResourceClients
	SettingsClient
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// KeyValueStore is the persistence backend for tokens and configuration.
// Get reports a missing key with an error wrapping ErrKeyNotFound.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}

// Config holds configuration for the client.
type Config struct {
	// Environment selects the active settings. Empty resolves from the
	// BILLING_ENVIRONMENT variable, then development.
	Environment Environment

	// Store persists tokens and configuration. Nil uses an in-memory store.
	Store KeyValueStore

	// TokenLifetime is assumed for tokens the server returns without an
	// expiry. Zero uses one hour.
	TokenLifetime time.Duration

	// Optional settings
	Debug     bool
	Logger    Logger
	UserAgent string

	// Metrics registers request and authorization metrics when set.
	Metrics prometheus.Registerer
}

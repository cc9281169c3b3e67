// Package client implements billing.Client. A Client is constructed
// explicitly and owns every piece of state the API access layer needs: the
// configuration store and its runtime mirror, the token cache, the
// authorizer and the request dispatcher.
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fivetwenty-io/billing-client/internal/auth"
	"github.com/fivetwenty-io/billing-client/internal/config"
	"github.com/fivetwenty-io/billing-client/internal/http"
	"github.com/fivetwenty-io/billing-client/internal/logging"
	"github.com/fivetwenty-io/billing-client/internal/metrics"
	"github.com/fivetwenty-io/billing-client/internal/store"
	"github.com/fivetwenty-io/billing-client/internal/transport"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// Client implements the billing.Client interface.
type Client struct {
	kv          billing.KeyValueStore
	configStore *config.Store
	runtime     *config.Runtime
	tokens      *auth.TokenCache
	authorizer  *auth.Authorizer
	httpClient  *http.Client
	logger      billing.Logger

	// Resource clients
	items        *ItemsClient
	persons      *PersonsClient
	invoices     *InvoicesClient
	invoiceItems *InvoiceItemsClient
}

var _ billing.Client = (*Client)(nil)

// New creates a client for the configured environment and loads its
// persisted settings.
func New(ctx context.Context, cfg *billing.Config) (*Client, error) {
	if cfg == nil {
		return nil, billing.ErrConfigRequired
	}

	env, err := resolveEnvironment(cfg.Environment)
	if err != nil {
		return nil, err
	}

	logger := logging.OrNop(cfg.Logger)

	kv := cfg.Store
	if kv == nil {
		kv = store.NewMemoryStore()
	}

	var recorder *metrics.Recorder
	if cfg.Metrics != nil {
		recorder = metrics.NewRecorder(cfg.Metrics)
	}

	configStore := config.NewStore(kv, logger)
	runtime := config.NewRuntime(env, configStore)
	runtime.Initialize(ctx)

	transportClient := transport.New(transport.WithLogger(logger))
	tokens := auth.NewTokenCache(kv, auth.WithCacheLogger(logger))

	authorizer := auth.NewAuthorizer(runtime, tokens,
		auth.WithLogger(logger),
		auth.WithMetrics(recorder),
		auth.WithTokenLifetime(cfg.TokenLifetime),
		auth.WithHTTPClient(transportClient),
		auth.WithUserAgent(userAgent(cfg)),
	)

	httpClient := http.NewClient(runtime, authorizer,
		http.WithLogger(logger),
		http.WithDebug(cfg.Debug),
		http.WithUserAgent(cfg.UserAgent),
		http.WithMetrics(recorder),
		http.WithHTTPClient(transportClient),
	)

	client := &Client{
		kv:          kv,
		configStore: configStore,
		runtime:     runtime,
		tokens:      tokens,
		authorizer:  authorizer,
		httpClient:  httpClient,
		logger:      logger,
	}

	client.initializeResourceClients()

	logger.Debug("Billing client initialized", map[string]interface{}{
		"environment": env.String(),
		"base_url":    runtime.BaseURL(),
	})

	return client, nil
}

func resolveEnvironment(env billing.Environment) (billing.Environment, error) {
	if env == "" {
		return config.CurrentEnvironment(), nil
	}

	parsed, err := billing.ParseEnvironment(env.String())
	if err != nil {
		return "", fmt.Errorf("resolving environment: %w", err)
	}

	return parsed, nil
}

func userAgent(cfg *billing.Config) string {
	if cfg.UserAgent != "" {
		return cfg.UserAgent
	}

	return http.DefaultUserAgent
}

// initializeResourceClients creates all resource clients.
func (c *Client) initializeResourceClients() {
	c.items = NewItemsClient(c.httpClient)
	c.persons = NewPersonsClient(c.httpClient)
	c.invoices = NewInvoicesClient(c.httpClient)
	c.invoiceItems = NewInvoiceItemsClient(c.httpClient)
}

// Items implements billing.Client.Items.
func (c *Client) Items() billing.ItemsClient {
	return c.items
}

// Persons implements billing.Client.Persons.
func (c *Client) Persons() billing.PersonsClient {
	return c.persons
}

// Invoices implements billing.Client.Invoices.
func (c *Client) Invoices() billing.InvoicesClient {
	return c.invoices
}

// InvoiceItems implements billing.Client.InvoiceItems.
func (c *Client) InvoiceItems() billing.InvoiceItemsClient {
	return c.invoiceItems
}

// Environment implements billing.Client.Environment.
func (c *Client) Environment() billing.Environment {
	return c.runtime.Environment()
}

// APIHost implements billing.Client.APIHost.
func (c *Client) APIHost() string {
	return c.runtime.BaseURL()
}

// UpdateAPIHost implements billing.Client.UpdateAPIHost. A trailing slash is
// dropped so paths can be appended directly.
func (c *Client) UpdateAPIHost(ctx context.Context, baseURL string) error {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	err := config.ValidateBaseURL(baseURL)
	if err != nil {
		return fmt.Errorf("updating API host: %w", err)
	}

	c.runtime.Update(ctx, billing.APIConfigUpdate{BaseURL: &baseURL})

	c.logger.Info("API host updated", map[string]interface{}{
		"environment": c.runtime.Environment().String(),
		"base_url":    baseURL,
	})

	return nil
}

// UpdateTimeout implements billing.Client.UpdateTimeout.
func (c *Client) UpdateTimeout(ctx context.Context, timeout time.Duration) error {
	timeoutMs := int(timeout.Milliseconds())
	if timeoutMs <= 0 {
		return fmt.Errorf("updating timeout: %w: %s", billing.ErrInvalidTimeout, timeout)
	}

	c.runtime.Update(ctx, billing.APIConfigUpdate{TimeoutMs: &timeoutMs})

	return nil
}

// ClientCredentials implements billing.Client.ClientCredentials.
func (c *Client) ClientCredentials() (string, string) {
	return c.runtime.Credentials()
}

// UpdateClientCredentials implements billing.Client.UpdateClientCredentials.
// The cached token is discarded in the same critical section that stores
// the new credentials.
func (c *Client) UpdateClientCredentials(ctx context.Context, clientID, clientSecret string) error {
	err := c.authorizer.RotateCredentials(ctx, func(ctx context.Context) error {
		c.runtime.Update(ctx, billing.APIConfigUpdate{
			ClientID:     &clientID,
			ClientSecret: &clientSecret,
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("updating client credentials: %w", err)
	}

	c.logger.Info("Client credentials updated", map[string]interface{}{
		"environment": c.runtime.Environment().String(),
		"client_id":   clientID,
	})

	return nil
}

// APIConfig implements billing.Client.APIConfig. The active environment is
// served from the runtime mirror, which stays authoritative when persisting
// fails.
func (c *Client) APIConfig(ctx context.Context, env billing.Environment) billing.APIEnvironmentConfig {
	if env == c.runtime.Environment() {
		return c.runtime.Snapshot()
	}

	return c.configStore.GetAPIConfig(ctx, env)
}

// Token implements billing.Client.Token.
func (c *Client) Token(ctx context.Context) (string, bool) {
	return c.authorizer.CachedToken(ctx)
}

// TokenExpiry implements billing.Client.TokenExpiry.
func (c *Client) TokenExpiry() time.Time {
	return c.authorizer.TokenExpiry()
}

// ClearToken implements billing.Client.ClearToken.
func (c *Client) ClearToken(ctx context.Context) {
	c.authorizer.ClearToken(ctx)
}

// RefreshToken implements billing.Client.RefreshToken.
func (c *Client) RefreshToken(ctx context.Context) error {
	err := c.authorizer.RefreshToken(ctx)
	if err != nil {
		return fmt.Errorf("refreshing token: %w", err)
	}

	return nil
}

// URL implements billing.Client.URL.
func (c *Client) URL(path string) string {
	return c.runtime.URL(path)
}

// HTTPClient returns the request dispatcher for calls outside the resource
// clients.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Close releases the key-value store.
func (c *Client) Close() error {
	err := c.kv.Close()
	if err != nil {
		return fmt.Errorf("closing store: %w", err)
	}

	return nil
}

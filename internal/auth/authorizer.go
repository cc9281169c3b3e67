// Package auth acquires bearer tokens with client credentials and caches
// them across restarts.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/internal/logging"
	"github.com/fivetwenty-io/billing-client/internal/metrics"
	"github.com/fivetwenty-io/billing-client/internal/transport"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// TokenManager manages bearer tokens for outgoing requests.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// Target is the active environment's settings as seen by the authorizer.
type Target interface {
	BaseURL() string
	Timeout() time.Duration
	Environment() billing.Environment
	Credentials() (clientID, clientSecret string)
}

// Credentials is a client id and secret pair.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// AuthorizeResponse is the body returned by the authorize endpoint.
type AuthorizeResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
}

// BearerToken returns the token, whichever field carried it.
func (r *AuthorizeResponse) BearerToken() string {
	if r == nil {
		return ""
	}

	if r.Token != "" {
		return r.Token
	}

	return r.AccessToken
}

// Option configures an Authorizer.
type Option func(*Authorizer)

// WithLogger sets the logger.
func WithLogger(logger billing.Logger) Option {
	return func(a *Authorizer) {
		a.logger = logging.OrNop(logger)
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(a *Authorizer) {
		a.metrics = recorder
	}
}

// WithTokenLifetime sets the lifetime assumed for tokens without expires_in.
func WithTokenLifetime(lifetime time.Duration) Option {
	return func(a *Authorizer) {
		if lifetime > 0 {
			a.lifetime = lifetime
		}
	}
}

// WithHTTPClient sets the transport used for the authorize call.
func WithHTTPClient(client *retryablehttp.Client) Option {
	return func(a *Authorizer) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(a *Authorizer) {
		a.userAgent = userAgent
	}
}

// Authorizer exchanges client credentials for bearer tokens and keeps the
// result in a TokenCache. Acquisition, refresh and credential rotation are
// serialized so concurrent cache misses trigger a single authorize call.
type Authorizer struct {
	mu         sync.Mutex
	target     Target
	cache      *TokenCache
	httpClient *retryablehttp.Client
	logger     billing.Logger
	metrics    *metrics.Recorder
	lifetime   time.Duration
	userAgent  string
}

// NewAuthorizer creates an Authorizer for target.
func NewAuthorizer(target Target, cache *TokenCache, opts ...Option) *Authorizer {
	authorizer := &Authorizer{
		target:   target,
		cache:    cache,
		logger:   logging.NopLogger{},
		lifetime: constants.DefaultTokenLifetime,
	}

	for _, opt := range opts {
		opt(authorizer)
	}

	if authorizer.httpClient == nil {
		authorizer.httpClient = transport.New(transport.WithLogger(authorizer.logger))
	}

	return authorizer
}

// Authorize requests a new token. Nil creds use the target's credentials.
// An empty client id fails with a 401 APIError wrapping
// billing.ErrMissingCredentials without contacting the server.
func (a *Authorizer) Authorize(ctx context.Context, creds *Credentials) (*AuthorizeResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.authorize(ctx, creds)
}

// GetToken returns the cached token or authorizes with the target's
// credentials.
func (a *Authorizer) GetToken(ctx context.Context) (string, error) {
	return a.GetTokenWithCredentials(ctx, nil)
}

// GetTokenWithCredentials returns the cached token or authorizes with creds.
func (a *Authorizer) GetTokenWithCredentials(ctx context.Context, creds *Credentials) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	token, ok := a.cache.Get(ctx)
	a.metrics.TokenLookup(ok)

	if ok {
		return token, nil
	}

	resp, err := a.authorize(ctx, creds)
	if err != nil {
		return "", err
	}

	return resp.BearerToken(), nil
}

// RefreshToken discards the cached token and authorizes again.
func (a *Authorizer) RefreshToken(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cache.Clear(ctx)

	_, err := a.authorize(ctx, nil)

	return err
}

// SetToken stores a token obtained elsewhere.
func (a *Authorizer) SetToken(token string, expiresAt time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cache.Put(context.Background(), Token{Value: token, ExpiresAt: expiresAt})
}

// CachedToken returns the cached token without authorizing.
func (a *Authorizer) CachedToken(ctx context.Context) (string, bool) {
	return a.cache.Get(ctx)
}

// TokenExpiry returns the in-memory token's expiry, or the zero time.
func (a *Authorizer) TokenExpiry() time.Time {
	token := a.cache.Peek()
	if token == nil {
		return time.Time{}
	}

	return token.ExpiresAt
}

// ClearToken discards the cached token.
func (a *Authorizer) ClearToken(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cache.Clear(ctx)
}

// RotateCredentials runs update and, if it succeeds, discards the cached
// token. No token acquisition can interleave with the two steps.
func (a *Authorizer) RotateCredentials(ctx context.Context, update func(ctx context.Context) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := update(ctx)
	if err != nil {
		return err
	}

	a.cache.Clear(ctx)

	return nil
}

func (a *Authorizer) authorize(ctx context.Context, creds *Credentials) (*AuthorizeResponse, error) {
	resp, err := a.doAuthorize(ctx, creds)
	a.metrics.Authorized(err)

	if err != nil {
		a.logger.Warn("Authorization failed", map[string]interface{}{
			"environment": a.target.Environment().String(),
			"status":      billing.StatusCode(err),
			"error":       err.Error(),
		})

		return nil, err
	}

	return resp, nil
}

func (a *Authorizer) doAuthorize(ctx context.Context, creds *Credentials) (*AuthorizeResponse, error) {
	if creds == nil {
		clientID, clientSecret := a.target.Credentials()
		creds = &Credentials{ClientID: clientID, ClientSecret: clientSecret}
	}

	env := a.target.Environment().String()
	endpoint := a.target.BaseURL() + constants.AuthorizePath

	if creds.ClientID == "" {
		apiErr := billing.NewAPIError("authorization failed: "+billing.ErrMissingCredentials.Error(),
			http.StatusUnauthorized, endpoint, env)
		apiErr.Err = billing.ErrMissingCredentials

		return nil, apiErr
	}

	if timeout := a.target.Timeout(); timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	form := url.Values{"grant_type": {constants.GrantTypeClientCredentials}}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, transport.Classify(ctx, fmt.Errorf("creating authorize request: %w", err), endpoint, env)
	}

	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	a.logger.Debug("Authorizing", map[string]interface{}{
		"environment": env,
		"url":         endpoint,
	})

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, transport.Classify(ctx, err, endpoint, env)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transport.Classify(ctx, err, endpoint, env)
	}

	if !transport.IsSuccess(resp.StatusCode) {
		apiErr := billing.NewAPIError(
			fmt.Sprintf("authorization failed: %d %s", resp.StatusCode, transport.StatusText(resp)),
			resp.StatusCode, endpoint, env)
		apiErr.ResponseBody = string(body)

		return nil, apiErr
	}

	var result AuthorizeResponse

	err = json.Unmarshal(body, &result)
	if err != nil {
		apiErr := billing.NewAPIError("authorization failed: invalid response body",
			billing.StatusNetworkError, endpoint, env)
		apiErr.ResponseBody = string(body)
		apiErr.Err = err

		return nil, apiErr
	}

	token := result.BearerToken()
	if token == "" {
		apiErr := billing.NewAPIError("authorization failed: "+billing.ErrEmptyToken.Error(),
			billing.StatusNetworkError, endpoint, env)
		apiErr.ResponseBody = string(body)
		apiErr.Err = billing.ErrEmptyToken

		return nil, apiErr
	}

	lifetime := a.lifetime
	if result.ExpiresIn > 0 {
		lifetime = time.Duration(result.ExpiresIn) * time.Second
	}

	a.cache.Store(ctx, token, lifetime)

	a.logger.Info("Authorized", map[string]interface{}{
		"environment": env,
		"expires_in":  lifetime.String(),
	})

	return &result, nil
}

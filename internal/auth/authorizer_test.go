package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/billing-client/internal/auth"
	"github.com/fivetwenty-io/billing-client/internal/metrics"
	"github.com/fivetwenty-io/billing-client/internal/store"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// MockLogger for testing.
type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *MockLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

func (l *MockLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.messages...)
}

func (l *MockLogger) Debug(msg string, _ map[string]interface{}) { l.record(msg) }
func (l *MockLogger) Info(msg string, _ map[string]interface{})  { l.record(msg) }
func (l *MockLogger) Warn(msg string, _ map[string]interface{})  { l.record(msg) }
func (l *MockLogger) Error(msg string, _ map[string]interface{}) { l.record(msg) }

// staticTarget is a fixed environment configuration.
type staticTarget struct {
	mu           sync.Mutex
	baseURL      string
	timeout      time.Duration
	clientID     string
	clientSecret string
}

func (s *staticTarget) BaseURL() string                  { return s.baseURL }
func (s *staticTarget) Timeout() time.Duration           { return s.timeout }
func (s *staticTarget) Environment() billing.Environment { return billing.EnvironmentDevelopment }

func (s *staticTarget) Credentials() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clientID, s.clientSecret
}

func (s *staticTarget) setCredentials(id, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clientID, s.clientSecret = id, secret
}

func newTarget(baseURL string) *staticTarget {
	return &staticTarget{
		baseURL:      baseURL,
		timeout:      5 * time.Second,
		clientID:     "client-id",
		clientSecret: "client-secret",
	}
}

func tokenServer(t *testing.T, calls *atomic.Int32, body interface{}) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		assert.Equal(t, "/authorize", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.NotEmpty(t, username)
		assert.NotEmpty(t, password)

		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Equal(t, "grant_type=client_credentials", string(raw))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(server.Close)

	return server
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestAuthorizer_Authorize(t *testing.T) {
	t.Parallel()

	t.Run("uses client credentials with basic auth", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Basic Y2xpZW50LWlkOmNsaWVudC1zZWNyZXQ=", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))

			err := r.ParseForm()
			assert.NoError(t, err)
			assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))

			_ = json.NewEncoder(w).Encode(map[string]string{"token": "client-token"})
		}))
		defer server.Close()

		cache := auth.NewTokenCache(store.NewMemoryStore())
		authorizer := auth.NewAuthorizer(newTarget(server.URL), cache)

		resp, err := authorizer.Authorize(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "client-token", resp.BearerToken())

		token, ok := cache.Get(context.Background())
		require.True(t, ok)
		assert.Equal(t, "client-token", token)
	})

	t.Run("explicit credentials override the target", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, _ := r.BasicAuth()
			assert.Equal(t, "other-id", username)
			assert.Equal(t, "other-secret", password)

			_ = json.NewEncoder(w).Encode(map[string]string{"token": "other-token"})
		}))
		defer server.Close()

		authorizer := auth.NewAuthorizer(newTarget(server.URL), auth.NewTokenCache(store.NewMemoryStore()))

		token, err := authorizer.GetTokenWithCredentials(context.Background(), &auth.Credentials{
			ClientID:     "other-id",
			ClientSecret: "other-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "other-token", token)
	})

	t.Run("honors expires_in and access_token", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := tokenServer(t, &calls, map[string]interface{}{
			"access_token": "oauth-token",
			"expires_in":   120,
		})

		cache := auth.NewTokenCache(store.NewMemoryStore())
		authorizer := auth.NewAuthorizer(newTarget(server.URL), cache)

		before := time.Now()

		_, err := authorizer.Authorize(context.Background(), nil)
		require.NoError(t, err)

		token := cache.Peek()
		require.NotNil(t, token)
		assert.Equal(t, "oauth-token", token.Value)
		assert.WithinDuration(t, before.Add(2*time.Minute), token.ExpiresAt, 5*time.Second)
	})

	t.Run("default lifetime is configurable", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := tokenServer(t, &calls, map[string]string{"token": "abc"})
		cache := auth.NewTokenCache(store.NewMemoryStore())
		authorizer := auth.NewAuthorizer(newTarget(server.URL), cache, auth.WithTokenLifetime(10*time.Minute))

		before := time.Now()

		_, err := authorizer.Authorize(context.Background(), nil)
		require.NoError(t, err)
		assert.WithinDuration(t, before.Add(10*time.Minute), authorizer.TokenExpiry(), 5*time.Second)
	})

	t.Run("missing credentials fail without a request", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := tokenServer(t, &calls, map[string]string{"token": "abc"})
		target := newTarget(server.URL)
		target.setCredentials("", "")

		authorizer := auth.NewAuthorizer(target, auth.NewTokenCache(store.NewMemoryStore()))

		_, err := authorizer.Authorize(context.Background(), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, billing.ErrMissingCredentials)
		assert.True(t, billing.IsUnauthorized(err))
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("non-2xx response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
		}))
		defer server.Close()

		cache := auth.NewTokenCache(store.NewMemoryStore())
		authorizer := auth.NewAuthorizer(newTarget(server.URL), cache)

		_, err := authorizer.Authorize(context.Background(), nil)
		require.Error(t, err)

		apiErr, ok := billing.AsAPIError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "authorization failed: 401 Unauthorized", apiErr.Message)
		assert.Equal(t, server.URL+"/authorize", apiErr.URL)
		assert.Equal(t, "development", apiErr.Environment)
		assert.JSONEq(t, `{"error":"invalid_client"}`, apiErr.ResponseBody)
		assert.Nil(t, cache.Peek())
	})

	t.Run("success without a token", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := tokenServer(t, &calls, map[string]string{"status": "ok"})
		authorizer := auth.NewAuthorizer(newTarget(server.URL), auth.NewTokenCache(store.NewMemoryStore()))

		_, err := authorizer.Authorize(context.Background(), nil)
		require.ErrorIs(t, err, billing.ErrEmptyToken)
		assert.Equal(t, http.StatusInternalServerError, billing.StatusCode(err))
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		target := newTarget(server.URL)
		target.timeout = 50 * time.Millisecond

		authorizer := auth.NewAuthorizer(target, auth.NewTokenCache(store.NewMemoryStore()))

		_, err := authorizer.Authorize(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, billing.IsTimeout(err))
		assert.Equal(t, "Request timeout", err.Error())
	})

	t.Run("network failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		authorizer := auth.NewAuthorizer(newTarget(url), auth.NewTokenCache(store.NewMemoryStore()))

		_, err := authorizer.Authorize(context.Background(), nil)
		require.Error(t, err)
		assert.True(t, billing.IsNetworkError(err))
		assert.NotEmpty(t, err.Error())
	})
}

func TestAuthorizer_GetToken(t *testing.T) {
	t.Parallel()

	t.Run("returns cached token without a request", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := tokenServer(t, &calls, map[string]string{"token": "fresh"})
		cache := auth.NewTokenCache(store.NewMemoryStore())
		cache.Store(context.Background(), "cached", time.Hour)

		authorizer := auth.NewAuthorizer(newTarget(server.URL), cache)

		token, err := authorizer.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "cached", token)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("concurrent misses authorize once", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := tokenServer(t, &calls, map[string]string{"token": "shared"})
		recorder := metrics.NewRecorder(prometheus.NewRegistry())
		authorizer := auth.NewAuthorizer(newTarget(server.URL), auth.NewTokenCache(store.NewMemoryStore()),
			auth.WithMetrics(recorder))

		var wg sync.WaitGroup

		for i := 0; i < 10; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				token, err := authorizer.GetToken(context.Background())
				assert.NoError(t, err)
				assert.Equal(t, "shared", token)
			}()
		}

		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		assert.InDelta(t, 1, testutil.ToFloat64(recorder.AuthorizeCount().WithLabelValues(metrics.OutcomeSuccess)), 0)
		assert.InDelta(t, 9, testutil.ToFloat64(recorder.TokenLookups().WithLabelValues(metrics.LookupHit)), 0)
	})

	t.Run("refresh replaces the cached token", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := tokenServer(t, &calls, map[string]string{"token": "refreshed"})
		cache := auth.NewTokenCache(store.NewMemoryStore())
		cache.Store(context.Background(), "stale", time.Hour)

		authorizer := auth.NewAuthorizer(newTarget(server.URL), cache)

		require.NoError(t, authorizer.RefreshToken(context.Background()))

		token, ok := authorizer.CachedToken(context.Background())
		require.True(t, ok)
		assert.Equal(t, "refreshed", token)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("set and clear", func(t *testing.T) {
		t.Parallel()

		authorizer := auth.NewAuthorizer(newTarget("http://unused"), auth.NewTokenCache(store.NewMemoryStore()))
		expiresAt := time.Now().Add(time.Hour)

		authorizer.SetToken("manual", expiresAt)

		token, ok := authorizer.CachedToken(context.Background())
		require.True(t, ok)
		assert.Equal(t, "manual", token)
		assert.Equal(t, expiresAt.UnixMilli(), authorizer.TokenExpiry().UnixMilli())

		authorizer.ClearToken(context.Background())

		_, ok = authorizer.CachedToken(context.Background())
		assert.False(t, ok)
		assert.True(t, authorizer.TokenExpiry().IsZero())
	})
}

func TestAuthorizer_RotateCredentials(t *testing.T) {
	t.Parallel()

	t.Run("clears the token after a successful update", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := tokenServer(t, &calls, map[string]string{"token": "new"})
		target := newTarget(server.URL)
		cache := auth.NewTokenCache(store.NewMemoryStore())
		cache.Store(context.Background(), "old", time.Hour)

		authorizer := auth.NewAuthorizer(target, cache)

		err := authorizer.RotateCredentials(context.Background(), func(context.Context) error {
			target.setCredentials("rotated-id", "rotated-secret")

			return nil
		})
		require.NoError(t, err)
		assert.Nil(t, cache.Peek())

		token, err := authorizer.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "new", token)
	})

	t.Run("keeps the token when the update fails", func(t *testing.T) {
		t.Parallel()

		cache := auth.NewTokenCache(store.NewMemoryStore())
		cache.Store(context.Background(), "old", time.Hour)

		authorizer := auth.NewAuthorizer(newTarget("http://unused"), cache)
		updateErr := errors.New("update failed")

		err := authorizer.RotateCredentials(context.Background(), func(context.Context) error {
			return updateErr
		})
		require.ErrorIs(t, err, updateErr)

		token, ok := cache.Get(context.Background())
		require.True(t, ok)
		assert.Equal(t, "old", token)
	})
}

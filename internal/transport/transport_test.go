package transport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/billing-client/internal/transport"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

type recordingLogger struct {
	messages atomic.Int32
}

func (l *recordingLogger) Debug(string, map[string]interface{}) { l.messages.Add(1) }
func (l *recordingLogger) Info(string, map[string]interface{})  { l.messages.Add(1) }
func (l *recordingLogger) Warn(string, map[string]interface{})  { l.messages.Add(1) }
func (l *recordingLogger) Error(string, map[string]interface{}) { l.messages.Add(1) }

func TestNew_SingleAttempt(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		writer.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	logger := &recordingLogger{}
	client := transport.New(transport.WithLogger(logger))

	req, err := retryablehttp.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
	assert.Positive(t, logger.messages.Load())
}

func TestNew_NetworkErrorPassesThrough(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := transport.New()

	req, err := retryablehttp.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	if resp != nil {
		_ = resp.Body.Close()
	}

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "giving up")
}

func TestClassify(t *testing.T) {
	t.Parallel()

	t.Run("deadline", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()

		<-ctx.Done()

		apiErr := transport.Classify(ctx, ctx.Err(), "http://x/items", "development")
		assert.Equal(t, billing.StatusTimeout, apiErr.StatusCode)
		assert.Equal(t, billing.TimeoutMessage, apiErr.Message)
		assert.Equal(t, "http://x/items", apiErr.URL)
		assert.True(t, errors.Is(apiErr, context.DeadlineExceeded))
	})

	t.Run("network", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection refused")
		apiErr := transport.Classify(context.Background(), cause, "http://x/items", "staging")
		assert.Equal(t, billing.StatusNetworkError, apiErr.StatusCode)
		assert.Equal(t, "connection refused", apiErr.Message)
		assert.Equal(t, "staging", apiErr.Environment)
		assert.ErrorIs(t, apiErr, cause)
	})

	t.Run("no message", func(t *testing.T) {
		t.Parallel()

		apiErr := transport.Classify(context.Background(), nil, "", "")
		assert.Equal(t, transport.UnknownErrorMessage, apiErr.Message)
		assert.Equal(t, billing.StatusNetworkError, apiErr.StatusCode)
	})

	t.Run("canceled is not a timeout", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		apiErr := transport.Classify(ctx, ctx.Err(), "", "")
		assert.Equal(t, billing.StatusNetworkError, apiErr.StatusCode)
	})
}

func TestStatusText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Not Found", transport.StatusText(&http.Response{StatusCode: 404, Status: "404 Not Found"}))
	assert.Equal(t, "Gone Fishing", transport.StatusText(&http.Response{StatusCode: 410, Status: "410 Gone Fishing"}))
	assert.Equal(t, "Internal Server Error", transport.StatusText(&http.Response{StatusCode: 500}))
}

func TestIsSuccess(t *testing.T) {
	t.Parallel()

	assert.True(t, transport.IsSuccess(200))
	assert.True(t, transport.IsSuccess(204))
	assert.False(t, transport.IsSuccess(199))
	assert.False(t, transport.IsSuccess(301))
	assert.False(t, transport.IsSuccess(500))
}

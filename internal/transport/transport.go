// Package transport builds the single-attempt HTTP client shared by the
// authorizer and the request dispatcher, and maps transport failures onto
// billing.APIError.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// UnknownErrorMessage is used when a transport failure has no message.
const UnknownErrorMessage = "Unknown error"

// Option configures the transport client.
type Option func(*retryablehttp.Client)

// WithLogger routes the transport's own log lines to logger at debug level.
func WithLogger(logger billing.Logger) Option {
	return func(c *retryablehttp.Client) {
		if logger != nil {
			c.Logger = &leveledLogger{logger: logger}
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *retryablehttp.Client) {
		if httpClient != nil {
			c.HTTPClient = httpClient
		}
	}
}

// New creates a client that performs exactly one attempt per request.
// Timeouts are carried by the request context.
func New(opts ...Option) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = noRetry
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = nil

	for _, opt := range opts {
		opt(client)
	}

	return client
}

func noRetry(_ context.Context, _ *http.Response, _ error) (bool, error) {
	return false, nil
}

// IsTimeout reports whether err was caused by a deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// Classify converts a failed round trip into an APIError: deadlines become
// 408 "Request timeout", anything else becomes 500 carrying the cause.
func Classify(ctx context.Context, err error, url, environment string) *billing.APIError {
	if IsTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		apiErr := billing.NewAPIError(billing.TimeoutMessage, billing.StatusTimeout, url, environment)
		apiErr.Err = err

		return apiErr
	}

	message := UnknownErrorMessage
	if err != nil && err.Error() != "" {
		message = err.Error()
	}

	apiErr := billing.NewAPIError(message, billing.StatusNetworkError, url, environment)
	apiErr.Err = err

	return apiErr
}

// leveledLogger adapts billing.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger billing.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2+1)
	fields["component"] = "transport"

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}

// StatusText returns the reason phrase of resp, falling back to the
// standard text for its code.
func StatusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}

	return text
}

// IsSuccess reports whether code is a 2xx status.
func IsSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}

// Package http dispatches authenticated JSON requests to the billing API and
// normalizes every failure into a billing.APIError.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/billing-client/internal/auth"
	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/internal/logging"
	"github.com/fivetwenty-io/billing-client/internal/metrics"
	"github.com/fivetwenty-io/billing-client/internal/transport"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "billing-client-go/1.0"

// Target supplies the base URL, timeout and environment per request.
type Target interface {
	BaseURL() string
	Timeout() time.Duration
	Environment() billing.Environment
}

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string

	// SkipAuth sends the request without a bearer token.
	SkipAuth bool
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	URL        string
	RequestID  string
}

// Client is the request dispatcher.
type Client struct {
	target       Target
	httpClient   *retryablehttp.Client
	tokenManager auth.TokenManager
	logger       billing.Logger
	metrics      *metrics.Recorder
	userAgent    string
	debug        bool
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger billing.Logger) Option {
	return func(c *Client) {
		c.logger = logging.OrNop(logger)
	}
}

// WithDebug adds request headers to the request log, Authorization redacted.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = recorder
	}
}

// WithHTTPClient sets the transport client.
func WithHTTPClient(client *retryablehttp.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient creates a dispatcher for target. A nil tokenManager sends every
// request without a bearer token.
func NewClient(target Target, tokenManager auth.TokenManager, opts ...Option) *Client {
	client := &Client{
		target:       target,
		tokenManager: tokenManager,
		logger:       logging.NopLogger{},
		userAgent:    DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.httpClient == nil {
		client.httpClient = transport.New(transport.WithLogger(client.logger))
	}

	return client
}

// URL returns the full URL of path under the current base URL.
func (c *Client) URL(path string) string {
	return c.target.BaseURL() + path
}

// Do executes an HTTP request. On a non-2xx status the response is returned
// together with the APIError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	env := c.target.Environment().String()
	fullURL := c.buildURL(req)

	body, err := encodeBody(req.Body)
	if err != nil {
		apiErr := billing.NewAPIError(err.Error(), billing.StatusNetworkError, fullURL, env)
		apiErr.Err = err

		return nil, apiErr
	}

	requestID := uuid.NewString()
	headers := c.buildHeaders(ctx, req, requestID)

	timeout := c.target.Timeout()
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody interface{}
	if body != nil {
		reqBody = body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(timeoutCtx, req.Method, fullURL, reqBody)
	if err != nil {
		return nil, transport.Classify(timeoutCtx, fmt.Errorf("creating request: %w", err), fullURL, env)
	}

	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	c.logRequest(req.Method, fullURL, requestID, headers)

	done := c.metrics.RequestStarted(req.Method)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		done(0)

		apiErr := transport.Classify(timeoutCtx, err, fullURL, env)
		c.logFailure(req.Method, fullURL, requestID, start, apiErr)

		return nil, apiErr
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		done(0)

		apiErr := transport.Classify(timeoutCtx, err, fullURL, env)
		c.logFailure(req.Method, fullURL, requestID, start, apiErr)

		return nil, apiErr
	}

	done(resp.StatusCode)

	c.logger.Debug("HTTP Response", map[string]interface{}{
		"method":      req.Method,
		"url":         fullURL,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
		"request_id":  requestID,
	})

	response := &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Headers:    resp.Header,
		URL:        fullURL,
		RequestID:  requestID,
	}

	if !transport.IsSuccess(resp.StatusCode) {
		apiErr := billing.NewAPIError(
			fmt.Sprintf("API error: %d %s", resp.StatusCode, transport.StatusText(resp)),
			resp.StatusCode, fullURL, env)
		apiErr.ResponseBody = string(respBody)

		c.logFailure(req.Method, fullURL, requestID, start, apiErr)

		return response, apiErr
	}

	return response, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPut,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

// Fetch executes req and decodes the JSON response into T. DELETE responses,
// empty bodies and bodies declared as something other than JSON yield the zero
// value.
func Fetch[T any](ctx context.Context, c *Client, req *Request) (T, error) {
	var result T

	resp, err := c.Do(ctx, req)
	if err != nil {
		return result, err
	}

	if req.Method == http.MethodDelete || len(bytes.TrimSpace(resp.Body)) == 0 {
		return result, nil
	}

	if !isJSONContent(resp.Headers.Get("Content-Type")) {
		return result, nil
	}

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		apiErr := billing.NewAPIError("failed to decode response: "+err.Error(),
			billing.StatusNetworkError, resp.URL, c.target.Environment().String())
		apiErr.ResponseBody = string(resp.Body)
		apiErr.Err = err

		return result, apiErr
	}

	return result, nil
}

// isJSONContent reports whether a Content-Type names a JSON body. A missing
// header is treated as JSON.
func isJSONContent(contentType string) bool {
	if contentType == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func (c *Client) buildURL(req *Request) string {
	fullURL := c.URL(req.Path)
	if len(req.Query) == 0 {
		return fullURL
	}

	separator := "?"
	if strings.Contains(fullURL, "?") {
		separator = "&"
	}

	return fullURL + separator + req.Query.Encode()
}

func (c *Client) buildHeaders(ctx context.Context, req *Request, requestID string) map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   c.userAgent,
		"X-Request-ID": requestID,
	}

	for key, value := range req.Headers {
		headers[http.CanonicalHeaderKey(key)] = value
	}

	if req.SkipAuth || req.Path == constants.AuthorizePath || c.tokenManager == nil {
		return headers
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		c.logger.Warn("Failed to obtain bearer token, sending request without it", map[string]interface{}{
			"path":  req.Path,
			"error": err.Error(),
		})

		return headers
	}

	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	return headers
}

func encodeBody(body interface{}) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		return data, nil
	}
}

func (c *Client) logRequest(method, fullURL, requestID string, headers map[string]string) {
	fields := map[string]interface{}{
		"method":     method,
		"url":        fullURL,
		"request_id": requestID,
	}

	if c.debug {
		redacted := make(map[string]string, len(headers))
		for key, value := range headers {
			if key == "Authorization" {
				value = "Bearer " + constants.MaskedSecret
			}

			redacted[key] = value
		}

		fields["headers"] = redacted
	}

	c.logger.Debug("HTTP Request", fields)
}

func (c *Client) logFailure(method, fullURL, requestID string, start time.Time, apiErr *billing.APIError) {
	c.logger.Error("HTTP Request Failed", map[string]interface{}{
		"method":      method,
		"url":         fullURL,
		"status":      apiErr.StatusCode,
		"error":       apiErr.Message,
		"duration_ms": time.Since(start).Milliseconds(),
		"request_id":  requestID,
	})
}

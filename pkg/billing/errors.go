package billing

import (
	"errors"
	"fmt"
	"net/http"
)

// Synthetic status codes for failures that never produced an HTTP response.
const (
	StatusTimeout      = http.StatusRequestTimeout
	StatusNetworkError = http.StatusInternalServerError
)

// TimeoutMessage is the message carried by every timeout APIError.
const TimeoutMessage = "Request timeout"

// APIError is the single error shape produced by the dispatcher and the
// authorizer. Callers can branch on StatusCode alone.
type APIError struct {
	Message      string `json:"message"                 yaml:"message"`
	StatusCode   int    `json:"status"                  yaml:"status"`
	URL          string `json:"url,omitempty"           yaml:"url,omitempty"`
	Environment  string `json:"environment,omitempty"   yaml:"environment,omitempty"`
	ResponseBody string `json:"response_body,omitempty" yaml:"response_body,omitempty"`

	// Err is the underlying cause, if any.
	Err error `json:"-" yaml:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Debug renders the error with its request context.
func (e *APIError) Debug() string {
	msg := fmt.Sprintf("%s (status: %d)", e.Message, e.StatusCode)
	if e.URL != "" {
		msg += " url=" + e.URL
	}

	if e.Environment != "" {
		msg += " environment=" + e.Environment
	}

	return msg
}

// NewAPIError creates an APIError without an underlying cause.
func NewAPIError(message string, status int, url, environment string) *APIError {
	return &APIError{
		Message:     message,
		StatusCode:  status,
		URL:         url,
		Environment: environment,
	}
}

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrUnknownEnvironment = errors.New("unknown environment")
	ErrInvalidBaseURL     = errors.New("base URL must be an absolute http(s) URL")
	ErrInvalidTimeout     = errors.New("timeout must be positive")
	ErrMissingCredentials = errors.New("client credentials are not configured")
	ErrEmptyToken         = errors.New("authorization response did not include a token")
	ErrIDRequired         = errors.New("id is required")
	ErrInvalidID          = errors.New("invalid id")
	ErrKeyNotFound        = errors.New("key not found")
)

// AsAPIError extracts an APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	return nil, false
}

// StatusCode returns the status carried by an APIError in the chain, or 0.
func StatusCode(err error) int {
	apiErr, ok := AsAPIError(err)
	if !ok {
		return 0
	}

	return apiErr.StatusCode
}

// IsTimeout checks if the error is a request timeout.
func IsTimeout(err error) bool {
	return StatusCode(err) == StatusTimeout
}

// IsNetworkError checks if the error is a transport failure or a server error.
func IsNetworkError(err error) bool {
	return StatusCode(err) == StatusNetworkError
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

package explorer

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Static errors that can be wrapped with context.
var (
	ErrConfigRequired       = errors.New("config is required")
	ErrOrganizationRequired = errors.New("organization name is required")
	ErrTokenRequired        = errors.New("API token is required")
	ErrInvalidAddress       = errors.New("invalid API address")
	ErrForeignPageLink      = errors.New("pagination link points to a different host")
	ErrUnknownOperator      = errors.New("unknown filter operator")
	ErrUnknownField         = errors.New("unknown filter field")
	ErrInvalidFilterSpec    = errors.New("invalid filter")
)

// TransportError reports a request that never produced an HTTP response:
// a malformed URL, a DNS or connection failure, or a timeout.
type TransportError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// RateLimitError is returned for HTTP 429 responses.
type RateLimitError struct {
	// Limit is the parsed x-ratelimit-limit header, 0 when absent or not an integer.
	Limit int
	// RawLimit is the header value as received.
	RawLimit string
}

// NewRateLimitError builds a RateLimitError from the raw header value.
func NewRateLimitError(rawLimit string) *RateLimitError {
	rawLimit = strings.TrimSpace(rawLimit)
	limit, _ := strconv.Atoi(rawLimit)

	return &RateLimitError{Limit: limit, RawLimit: rawLimit}
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded. Limit: %s", e.RawLimit)
}

// RequestError is returned for any other response outside [200, 300).
type RequestError struct {
	StatusCode int
	Status     string
	URL        string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}

// IsRateLimited checks if the error is a rate limit rejection.
func IsRateLimited(err error) bool {
	rlErr := &RateLimitError{}

	return errors.As(err, &rlErr)
}

// IsTransportError checks if the error happened before any response was received.
func IsTransportError(err error) bool {
	tErr := &TransportError{}

	return errors.As(err, &tErr)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	reqErr := &RequestError{}
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}

	if IsRateLimited(err) {
		return http.StatusTooManyRequests
	}

	return 0
}

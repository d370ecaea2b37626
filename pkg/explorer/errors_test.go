package explorer

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errDial = errors.New("dial tcp: connection refused")

func TestRateLimitError(t *testing.T) {
	tests := []struct {
		raw      string
		limit    int
		expected string
	}{
		{"50", 50, "rate limit exceeded. Limit: 50"},
		{" 30 ", 30, "rate limit exceeded. Limit: 30"},
		{"", 0, "rate limit exceeded. Limit: "},
		{"lots", 0, "rate limit exceeded. Limit: lots"},
	}

	for _, tt := range tests {
		err := NewRateLimitError(tt.raw)
		assert.Equal(t, tt.limit, err.Limit)
		assert.Equal(t, tt.expected, err.Error())
	}
}

func TestRequestError_Error(t *testing.T) {
	err := &RequestError{StatusCode: http.StatusNotFound, Status: "404 Not Found", URL: "https://app.terraform.io/x"}
	assert.Equal(t, "unexpected status code: 404", err.Error())
}

func TestTransportError(t *testing.T) {
	err := &TransportError{URL: "https://tfe.example.com", Err: errDial}

	assert.Equal(t, "request to https://tfe.example.com failed: dial tcp: connection refused", err.Error())
	assert.ErrorIs(t, err, errDial)
}

func TestErrorHelpers(t *testing.T) {
	rateLimited := fmt.Errorf("fetching workspaces: %w", NewRateLimitError("30"))
	notFound := fmt.Errorf("fetching modules: %w", &RequestError{StatusCode: http.StatusNotFound})
	transport := fmt.Errorf("fetching providers: %w", &TransportError{Err: errDial})

	assert.True(t, IsRateLimited(rateLimited))
	assert.False(t, IsRateLimited(notFound))
	assert.True(t, IsTransportError(transport))
	assert.False(t, IsTransportError(rateLimited))

	assert.Equal(t, http.StatusTooManyRequests, StatusCode(rateLimited))
	assert.Equal(t, http.StatusNotFound, StatusCode(notFound))
	assert.Zero(t, StatusCode(transport))
	assert.Zero(t, StatusCode(nil))
}

package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/terrascout/terrascout/internal/constants"
	"github.com/terrascout/terrascout/pkg/explorer"
)

// Logger interface for the HTTP layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client issues authenticated GET requests. It never retries: go-retryablehttp
// is used with RetryMax 0 and a policy that refuses every retry.
type Client struct {
	retry     *retryablehttp.Client
	token     string
	userAgent string
	logger    Logger
	debug     bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.retry.HTTPClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.retry.HTTPClient = httpClient
		}
	}
}

// NewClient creates a new HTTP client that sends token as a Bearer token.
func NewClient(token string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.CheckRetry = neverRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{
		Timeout: constants.DefaultHTTPTimeout,
	}

	c := &Client{
		retry:     retryClient,
		token:     token,
		userAgent: constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.debug && c.logger != nil {
		retryClient.Logger = &leveledLogger{logger: c.logger}
	}

	return c
}

// Get fetches rawURL. Transport failures are returned as *explorer.TransportError,
// HTTP 429 as *explorer.RateLimitError and other non-2xx statuses as
// *explorer.RequestError. The response is returned alongside status errors.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &explorer.TransportError{URL: rawURL, Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", constants.MediaTypeJSONAPI)
	req.Header.Set("User-Agent", c.userAgent)

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": http.MethodGet,
			"url":    rawURL,
		})
	}

	start := time.Now()

	httpResp, err := c.retry.Do(req)
	if err != nil {
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}

		return nil, &explorer.TransportError{URL: rawURL, Err: err}
	}

	defer func() {
		_ = httpResp.Body.Close()
	}()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &explorer.TransportError{URL: rawURL, Err: fmt.Errorf("reading response body: %w", err)}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   httpResp.StatusCode,
			"url":      rawURL,
			"duration": time.Since(start).String(),
			"bytes":    len(body),
		})
	}

	return resp, checkStatus(rawURL, httpResp)
}

func checkStatus(rawURL string, resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return explorer.NewRateLimitError(resp.Header.Get(constants.RateLimitHeader))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &explorer.RequestError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        rawURL,
		}
	}

	return nil
}

// neverRetry stops after the first attempt, surfacing context errors.
func neverRetry(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return false, nil
}

// leveledLogger adapts Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, toFields(keysAndValues))
}

func toFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		fields[key] = keysAndValues[i+1]
	}

	return fields
}

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terrascout/terrascout/internal/constants"
	"github.com/terrascout/terrascout/internal/http"
	"github.com/terrascout/terrascout/pkg/explorer"
)

// Client implements the explorer.Client interface.
type Client struct {
	httpClient   *http.Client
	address      *url.URL
	organization string
	logger       explorer.Logger
	metrics      *explorer.MetricsCollector
	pacer        explorer.Pacer
}

var _ explorer.Client = (*Client)(nil)

// New creates a new query client. The config must already be normalized: an
// absolute Address, a non-empty Organization and Token.
func New(config *explorer.Config) (*Client, error) {
	if config == nil {
		return nil, explorer.ErrConfigRequired
	}

	if config.Organization == "" {
		return nil, explorer.ErrOrganizationRequired
	}

	if config.Token == "" {
		return nil, explorer.ErrTokenRequired
	}

	address, err := url.Parse(config.Address)
	if err != nil || address.Scheme == "" || address.Host == "" {
		return nil, fmt.Errorf("%w: %q", explorer.ErrInvalidAddress, config.Address)
	}

	pacer := config.Pacer
	if pacer == nil {
		pacer = explorer.DefaultPacer()
	}

	return &Client{
		httpClient:   http.NewClient(config.Token, createHTTPClientOptions(config)...),
		address:      address,
		organization: config.Organization,
		logger:       config.Logger,
		metrics:      config.Metrics,
		pacer:        pacer,
	}, nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *explorer.Config) []http.Option {
	var httpOpts []http.Option

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(config.HTTPClient))
	} else if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	return httpOpts
}

// Modules implements explorer.Client.Modules.
func (c *Client) Modules(ctx context.Context, filters ...explorer.ModuleFilter) ([]explorer.Record, error) {
	return c.fetchAll(ctx, explorer.KindModules, c.explorerURL(explorer.ExplorerQuery(explorer.KindModules, filters)))
}

// Workspaces implements explorer.Client.Workspaces.
func (c *Client) Workspaces(ctx context.Context, filters ...explorer.WorkspaceFilter) ([]explorer.Record, error) {
	return c.fetchAll(ctx, explorer.KindWorkspaces, c.explorerURL(explorer.ExplorerQuery(explorer.KindWorkspaces, filters)))
}

// Providers implements explorer.Client.Providers.
func (c *Client) Providers(ctx context.Context, filters ...explorer.ProviderFilter) ([]explorer.Record, error) {
	return c.fetchAll(ctx, explorer.KindProviders, c.explorerURL(explorer.ExplorerQuery(explorer.KindProviders, filters)))
}

// TFVersions implements explorer.Client.TFVersions.
func (c *Client) TFVersions(ctx context.Context, filters ...explorer.TFVersionFilter) ([]explorer.Record, error) {
	return c.fetchAll(ctx, explorer.KindTFVersions, c.explorerURL(explorer.ExplorerQuery(explorer.KindTFVersions, filters)))
}

// RegistryModules implements explorer.Client.RegistryModules.
func (c *Client) RegistryModules(ctx context.Context) ([]explorer.Record, error) {
	query := explorer.NewQueryParams().WithPageSize(constants.PageSize)

	return c.fetchAll(ctx, explorer.KindRegistryModules, c.endpointURL(constants.RegistryModulesPathFormat, query))
}

func (c *Client) explorerURL(query *explorer.QueryParams) string {
	return c.endpointURL(constants.ExplorerPathFormat, query)
}

// endpointURL joins the address, the organization-scoped path and the
// already encoded query.
func (c *Client) endpointURL(pathFormat string, query *explorer.QueryParams) string {
	path := strings.TrimSuffix(c.address.Path, "/") + constants.APIBasePath +
		fmt.Sprintf(pathFormat, url.PathEscape(c.organization))

	u := url.URL{
		Scheme:   c.address.Scheme,
		Host:     c.address.Host,
		Path:     path,
		RawQuery: query.Encode(),
	}

	return u.String()
}

// fetchAll follows pagination links from firstURL and returns every record in
// fetch order. Any error aborts the query and discards collected records.
func (c *Client) fetchAll(ctx context.Context, kind explorer.ResourceKind, firstURL string) ([]explorer.Record, error) {
	queryID := uuid.NewString()
	results := make([]explorer.Record, 0)
	pages := 0

	c.logDebug("Starting query", map[string]interface{}{
		"query_id": queryID,
		"kind":     kind.String(),
		"org":      c.organization,
	})

	for next := firstURL; next != ""; {
		page, err := c.fetchPage(ctx, kind, next)
		if err != nil {
			c.logError("Query aborted", map[string]interface{}{
				"query_id": queryID,
				"kind":     kind.String(),
				"page":     pages + 1,
				"error":    err.Error(),
			})

			return nil, err
		}

		pages++
		results = append(results, page.Data...)
		c.metrics.ObservePage(kind, len(page.Data))

		next, err = c.resolveNext(page.NextURL())
		if err != nil {
			return nil, err
		}

		if next == "" {
			break
		}

		total := page.Meta.Pagination.TotalPages
		if delay := pauseDelay(c.pacer, total); delay > 0 {
			c.metrics.ObservePause(kind)
			c.logDebug("Pacing page requests", map[string]interface{}{
				"query_id":    queryID,
				"total_pages": total,
				"delay":       delay.String(),
			})
		}

		err = c.pacer.Pause(ctx, total)
		if err != nil {
			return nil, fmt.Errorf("pausing between pages: %w", err)
		}
	}

	c.logDebug("Query complete", map[string]interface{}{
		"query_id": queryID,
		"kind":     kind.String(),
		"pages":    pages,
		"records":  len(results),
	})

	return results, nil
}

// fetchPage requests and decodes a single page.
func (c *Client) fetchPage(ctx context.Context, kind explorer.ResourceKind, pageURL string) (*explorer.Page, error) {
	start := time.Now()

	resp, err := c.httpClient.Get(ctx, pageURL)

	code := 0
	if resp != nil {
		code = resp.StatusCode
	}

	c.metrics.ObserveRequest(kind, code, time.Since(start))

	if err != nil {
		if explorer.IsRateLimited(err) {
			c.metrics.ObserveRateLimited(kind)
		}

		return nil, fmt.Errorf("fetching %s: %w", kind, err)
	}

	var page explorer.Page

	err = json.Unmarshal(resp.Body, &page)
	if err != nil {
		return nil, fmt.Errorf("parsing %s page: %w", kind, err)
	}

	return &page, nil
}

// resolveNext turns a links.next value into an absolute URL on the configured
// host. Relative links are resolved against the address.
func (c *Client) resolveNext(link string) (string, error) {
	if link == "" {
		return "", nil
	}

	ref, err := url.Parse(link)
	if err != nil {
		return "", &explorer.TransportError{URL: link, Err: err}
	}

	next := c.address.ResolveReference(ref)
	if !strings.EqualFold(next.Host, c.address.Host) {
		return "", fmt.Errorf("%w: %s", explorer.ErrForeignPageLink, next.Host)
	}

	return next.String(), nil
}

// delayer is implemented by pacers that can report their delay up front.
type delayer interface {
	Delay(totalPages int) time.Duration
}

// pauseDelay reports the delay the pacer will apply, for logging and metrics.
func pauseDelay(pacer explorer.Pacer, totalPages int) time.Duration {
	if d, ok := pacer.(delayer); ok {
		return d.Delay(totalPages)
	}

	return 0
}

func (c *Client) logDebug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

func (c *Client) logError(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Error(msg, fields)
	}
}

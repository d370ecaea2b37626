package explorer

import (
	"context"
	"net/http"
	"time"
)

// Client runs fully paginated queries against one organization. Every method
// returns the records of all pages in fetch order, or an error and no records.
type Client interface {
	// Modules lists modules in use across the organization's workspaces.
	Modules(ctx context.Context, filters ...ModuleFilter) ([]Record, error)
	// Workspaces lists workspaces.
	Workspaces(ctx context.Context, filters ...WorkspaceFilter) ([]Record, error)
	// Providers lists providers in use across the organization's workspaces.
	Providers(ctx context.Context, filters ...ProviderFilter) ([]Record, error)
	// TFVersions lists Terraform versions in use across the organization's workspaces.
	TFVersions(ctx context.Context, filters ...TFVersionFilter) ([]Record, error)
	// RegistryModules lists the organization's private registry modules as
	// reported by the API. No version comparison is performed, so "current"
	// means whatever the server returns for each module.
	RegistryModules(ctx context.Context) ([]Record, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building an explorer Client.
//
// Only Organization and Token are required. The client never retries failed
// requests; large result sets are slowed down by Pacer instead.
type Config struct {
	// Address is the HCP Terraform or Terraform Enterprise base URL. Defaults
	// to https://app.terraform.io. A missing scheme is treated as https.
	Address string
	// Organization is the organization every query is scoped to.
	Organization string
	// Token is sent as a Bearer token on every request.
	Token string

	// HTTPTimeout bounds a single page request. Defaults to 30s.
	HTTPTimeout time.Duration
	// HTTPClient overrides the underlying HTTP client. Its Timeout wins over HTTPTimeout.
	HTTPClient *http.Client
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// Debug enables per-request logging when a Logger is provided.
	Debug bool
	// Logger is an optional structured logger. Nil disables logging.
	Logger Logger
	// Metrics optionally records query activity.
	Metrics *MetricsCollector
	// Pacer paces page requests. Defaults to DefaultPacer().
	Pacer Pacer
}

package constants

import "time"

// API endpoints.
const (
	// DefaultAddress is the HCP Terraform address used when none is configured.
	DefaultAddress = "https://app.terraform.io"

	// APIBasePath is the path prefix for every v2 API call.
	APIBasePath = "/api/v2"

	// ExplorerPathFormat is the explorer endpoint relative to APIBasePath.
	ExplorerPathFormat = "/organizations/%s/explorer"

	// RegistryModulesPathFormat is the private registry modules endpoint relative to APIBasePath.
	RegistryModulesPathFormat = "/organizations/%s/registry-modules"
)

// Query parameters.
const (
	// PageSize is the page size requested from every paginated endpoint.
	PageSize = 100

	// QueryParamType selects the explorer resource kind.
	QueryParamType = "type"

	// QueryParamPageSize is the page size parameter name.
	QueryParamPageSize = "page[size]"
)

// Rate limiting.
const (
	// RateLimit is the request ceiling per evaluation window.
	RateLimit = 30

	// RateBuffer is the safety margin, in milliseconds, added to every pause.
	RateBuffer = 7

	// RateLimitHeader carries the advertised ceiling on 429 responses.
	RateLimitHeader = "x-ratelimit-limit"
)

// HTTP defaults.
const (
	// DefaultHTTPTimeout is the default timeout for a single HTTP request.
	DefaultHTTPTimeout = 30 * time.Second

	// MediaTypeJSONAPI is the media type spoken by the v2 API.
	MediaTypeJSONAPI = "application/vnd.api+json"

	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "terrascout"
)

// Output formats.
const (
	// FormatTable renders results with tablewriter.
	FormatTable = "table"

	// FormatJSON renders results as indented JSON.
	FormatJSON = "json"

	// FormatYAML renders results as YAML.
	FormatYAML = "yaml"

	// JSONIndentSize is the number of spaces for JSON indentation.
	JSONIndentSize = 2

	// NotAvailable is printed for missing table cells.
	NotAvailable = "N/A"

	// CellTruncationLength caps table cell width.
	CellTruncationLength = 60
)

// Messaging.
const (
	// DefaultSubjectPrefix is the NATS subject prefix for published records.
	DefaultSubjectPrefix = "terrascout"

	// NATSConnectTimeout bounds the initial NATS connection.
	NATSConnectTimeout = 10 * time.Second
)

// Metrics.
const (
	// MetricsNamespace is the Prometheus namespace for client metrics.
	MetricsNamespace = "terrascout"

	// MetricsSubsystem is the Prometheus subsystem for client metrics.
	MetricsSubsystem = "explorer"

	// MetricsShutdownTimeout bounds the metrics server shutdown.
	MetricsShutdownTimeout = 5 * time.Second
)

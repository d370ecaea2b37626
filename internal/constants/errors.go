package constants

import "errors"

// Configuration errors.
var (
	ErrNoTokenConfigured        = errors.New("no API token configured, use --token or TFE_TOKEN")
	ErrNoOrganizationConfigured = errors.New("no organization configured, use --org or TFE_ORGANIZATION")
)

// Command errors.
var (
	ErrUnsupportedOutputFormat = errors.New("unsupported output format")
	ErrUnsupportedResourceKind = errors.New("unsupported resource kind")
	ErrScheduleRequired        = errors.New("--schedule is required")
	ErrStoreRequired           = errors.New("no history store configured, use --store or store.path")
)

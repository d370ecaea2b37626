package tfeclient

import (
	"fmt"
	"strings"

	"github.com/terrascout/terrascout/internal/client"
	"github.com/terrascout/terrascout/internal/constants"
	"github.com/terrascout/terrascout/pkg/explorer"
)

// New creates a new explorer client. The address defaults to HCP Terraform and
// is treated as https when it has no scheme. config is not modified.
func New(config *explorer.Config) (explorer.Client, error) {
	if config == nil {
		return nil, explorer.ErrConfigRequired
	}

	normalized := *config
	normalized.Address = NormalizeAddress(config.Address)
	normalized.Organization = strings.TrimSpace(config.Organization)

	if normalized.Organization == "" {
		return nil, explorer.ErrOrganizationRequired
	}

	if normalized.Token == "" {
		return nil, explorer.ErrTokenRequired
	}

	c, err := client.New(&normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithToken creates a client for organization on HCP Terraform.
func NewWithToken(organization, token string) (explorer.Client, error) {
	return New(&explorer.Config{
		Organization: organization,
		Token:        token,
	})
}

// NewWithAddress creates a client for organization on a Terraform Enterprise host.
func NewWithAddress(address, organization, token string) (explorer.Client, error) {
	return New(&explorer.Config{
		Address:      address,
		Organization: organization,
		Token:        token,
	})
}

// NormalizeAddress applies the default address, adds a missing https scheme
// and strips trailing slashes.
func NormalizeAddress(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return constants.DefaultAddress
	}

	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "https://" + address
	}

	return strings.TrimRight(address, "/")
}

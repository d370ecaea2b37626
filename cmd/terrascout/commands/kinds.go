package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/terrascout/terrascout/internal/constants"
	"github.com/terrascout/terrascout/pkg/explorer"
)

// queryFunc runs one fully paginated query. specs are field:operator:value
// filter flags.
type queryFunc func(ctx context.Context, client explorer.Client, specs []string) ([]explorer.Record, error)

// KindSpec describes how the CLI exposes one resource kind.
type KindSpec struct {
	Kind    explorer.ResourceKind
	Command string
	Aliases []string
	Short   string
	Long    string
	// Columns are the default table columns.
	Columns []string
	// Fields lists the filterable fields, empty when filters are unsupported.
	Fields []string
	Query  queryFunc

	validate func(specs []string) error
}

// Filterable reports whether the kind accepts --filter.
func (k KindSpec) Filterable() bool {
	return len(k.Fields) > 0
}

// ValidateFilters parses specs without running a query.
func (k KindSpec) ValidateFilters(specs []string) error {
	if len(specs) == 0 {
		return nil
	}

	if k.validate == nil {
		return fmt.Errorf("%w: %s does not accept filters", explorer.ErrInvalidFilterSpec, k.Command)
	}

	return k.validate(specs)
}

func filterValidator[F explorer.Field](parse func(string) (F, error)) func([]string) error {
	return func(specs []string) error {
		_, err := explorer.ParseClauses(specs, parse)

		return err
	}
}

// explorerQuery adapts a typed client method to queryFunc.
func explorerQuery[F explorer.Field](
	parse func(string) (F, error),
	method func(explorer.Client) func(context.Context, ...explorer.Clause[F]) ([]explorer.Record, error),
) queryFunc {
	return func(ctx context.Context, client explorer.Client, specs []string) ([]explorer.Record, error) {
		filters, err := explorer.ParseClauses(specs, parse)
		if err != nil {
			return nil, err
		}

		return method(client)(ctx, filters...)
	}
}

func fieldNames[F explorer.Field](fields []F) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.String())
	}

	return names
}

// KindSpecs returns every supported kind in CLI order.
func KindSpecs() []KindSpec {
	return []KindSpec{
		{
			Kind:    explorer.KindModules,
			Command: "modules",
			Aliases: []string{"module", "mod"},
			Short:   "List modules used across workspaces",
			Long:    "List every module version referenced by the organization's workspaces, as reported by the explorer",
			Columns: []string{"name", "source", "version", "workspace-count"},
			Fields:  fieldNames(explorer.AllModuleFields()),
			Query: explorerQuery(explorer.ParseModuleField,
				func(c explorer.Client) func(context.Context, ...explorer.ModuleFilter) ([]explorer.Record, error) {
					return c.Modules
				}),
			validate: filterValidator(explorer.ParseModuleField),
		},
		{
			Kind:    explorer.KindWorkspaces,
			Command: "workspaces",
			Aliases: []string{"workspace", "ws"},
			Short:   "List workspaces",
			Long:    "List the organization's workspaces with their run, drift and check status",
			Columns: []string{"workspace-name", "project-name", "current-run-status", "drifted", "workspace-terraform-version"},
			Fields:  fieldNames(explorer.AllWorkspaceFields()),
			Query: explorerQuery(explorer.ParseWorkspaceField,
				func(c explorer.Client) func(context.Context, ...explorer.WorkspaceFilter) ([]explorer.Record, error) {
					return c.Workspaces
				}),
			validate: filterValidator(explorer.ParseWorkspaceField),
		},
		{
			Kind:    explorer.KindProviders,
			Command: "providers",
			Aliases: []string{"provider"},
			Short:   "List providers used across workspaces",
			Long:    "List every provider version referenced by the organization's workspaces",
			Columns: []string{"name", "source", "version", "workspace-count"},
			Fields:  fieldNames(explorer.AllProviderFields()),
			Query: explorerQuery(explorer.ParseProviderField,
				func(c explorer.Client) func(context.Context, ...explorer.ProviderFilter) ([]explorer.Record, error) {
					return c.Providers
				}),
			validate: filterValidator(explorer.ParseProviderField),
		},
		{
			Kind:    explorer.KindTFVersions,
			Command: "tf-versions",
			Aliases: []string{"tf-version", "versions"},
			Short:   "List Terraform versions in use",
			Long:    "List the Terraform versions used by the organization's workspaces",
			Columns: []string{"version", "workspace-count"},
			Fields:  fieldNames(explorer.AllTFVersionFields()),
			Query: explorerQuery(explorer.ParseTFVersionField,
				func(c explorer.Client) func(context.Context, ...explorer.TFVersionFilter) ([]explorer.Record, error) {
					return c.TFVersions
				}),
			validate: filterValidator(explorer.ParseTFVersionField),
		},
		{
			Kind:    explorer.KindRegistryModules,
			Command: "registry-modules",
			Aliases: []string{"registry"},
			Short:   "List private registry modules",
			Long:    "List the modules published in the organization's private registry",
			Columns: []string{"name", "provider", "namespace", "status"},
			Query: func(ctx context.Context, client explorer.Client, _ []string) ([]explorer.Record, error) {
				return client.RegistryModules(ctx)
			},
		},
	}
}

// LookupKind finds a kind by command name, alias or kind identifier.
func LookupKind(name string) (KindSpec, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	for _, spec := range KindSpecs() {
		if name == spec.Command || name == spec.Kind.String() {
			return spec, nil
		}

		for _, alias := range spec.Aliases {
			if name == alias {
				return spec, nil
			}
		}
	}

	return KindSpec{}, fmt.Errorf("%w: %s", constants.ErrUnsupportedResourceKind, name)
}

// kindNames lists the command names for help text.
func kindNames() []string {
	specs := KindSpecs()

	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.Command)
	}

	return names
}

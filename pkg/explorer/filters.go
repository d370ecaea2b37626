package explorer

import (
	"fmt"
)

// Operator is a filter comparison operator. Its value is the wire string.
type Operator string

// Filter operators supported by every explorer resource kind.
const (
	OperatorIs             Operator = "is"
	OperatorIsNot          Operator = "is-not"
	OperatorContains       Operator = "contains"
	OperatorDoesNotContain Operator = "does-not-contain"
	OperatorIsEmpty        Operator = "is-empty"
	OperatorIsNotEmpty     Operator = "is-not-empty"
	OperatorGT             Operator = "gt"
	OperatorLT             Operator = "lt"
	OperatorGTEQ           Operator = "gteq"
	OperatorLTEQ           Operator = "lteq"
	OperatorIsBefore       Operator = "is-before"
	OperatorIsAfter        Operator = "is-after"
)

// String returns the wire representation.
func (o Operator) String() string {
	return string(o)
}

// AllOperators returns every operator in declaration order.
func AllOperators() []Operator {
	return []Operator{
		OperatorIs,
		OperatorIsNot,
		OperatorContains,
		OperatorDoesNotContain,
		OperatorIsEmpty,
		OperatorIsNotEmpty,
		OperatorGT,
		OperatorLT,
		OperatorGTEQ,
		OperatorLTEQ,
		OperatorIsBefore,
		OperatorIsAfter,
	}
}

// ParseOperator maps a wire string to its Operator.
func ParseOperator(s string) (Operator, error) {
	return parseWire(s, AllOperators(), ErrUnknownOperator)
}

// Unary reports whether the operator ignores the filter value.
func (o Operator) Unary() bool {
	return o == OperatorIsEmpty || o == OperatorIsNotEmpty
}

// ModuleField is a filterable field of the modules explorer view.
type ModuleField string

// Module fields.
const (
	ModuleFieldName           ModuleField = "name"
	ModuleFieldSource         ModuleField = "source"
	ModuleFieldVersion        ModuleField = "version"
	ModuleFieldWorkspaceCount ModuleField = "workspace-count"
	ModuleFieldWorkspaces     ModuleField = "workspaces"
)

func (f ModuleField) String() string { return string(f) }

// AllModuleFields returns every module field in declaration order.
func AllModuleFields() []ModuleField {
	return []ModuleField{
		ModuleFieldName,
		ModuleFieldSource,
		ModuleFieldVersion,
		ModuleFieldWorkspaceCount,
		ModuleFieldWorkspaces,
	}
}

// ParseModuleField maps a wire string to its ModuleField.
func ParseModuleField(s string) (ModuleField, error) {
	return parseWire(s, AllModuleFields(), ErrUnknownField)
}

// ProviderField is a filterable field of the providers explorer view.
type ProviderField string

// Provider fields.
const (
	ProviderFieldName           ProviderField = "name"
	ProviderFieldSource         ProviderField = "source"
	ProviderFieldVersion        ProviderField = "version"
	ProviderFieldRegistryType   ProviderField = "registry-type"
	ProviderFieldWorkspaceCount ProviderField = "workspace-count"
	ProviderFieldWorkspaces     ProviderField = "workspaces"
)

func (f ProviderField) String() string { return string(f) }

// AllProviderFields returns every provider field in declaration order.
func AllProviderFields() []ProviderField {
	return []ProviderField{
		ProviderFieldName,
		ProviderFieldSource,
		ProviderFieldVersion,
		ProviderFieldRegistryType,
		ProviderFieldWorkspaceCount,
		ProviderFieldWorkspaces,
	}
}

// ParseProviderField maps a wire string to its ProviderField.
func ParseProviderField(s string) (ProviderField, error) {
	return parseWire(s, AllProviderFields(), ErrUnknownField)
}

// TFVersionField is a filterable field of the Terraform versions explorer view.
type TFVersionField string

// Terraform version fields.
const (
	TFVersionFieldVersion        TFVersionField = "version"
	TFVersionFieldWorkspaceCount TFVersionField = "workspace-count"
	TFVersionFieldWorkspaces     TFVersionField = "workspaces"
)

func (f TFVersionField) String() string { return string(f) }

// AllTFVersionFields returns every Terraform version field in declaration order.
func AllTFVersionFields() []TFVersionField {
	return []TFVersionField{
		TFVersionFieldVersion,
		TFVersionFieldWorkspaceCount,
		TFVersionFieldWorkspaces,
	}
}

// ParseTFVersionField maps a wire string to its TFVersionField.
func ParseTFVersionField(s string) (TFVersionField, error) {
	return parseWire(s, AllTFVersionFields(), ErrUnknownField)
}

// WorkspaceField is a filterable field of the workspaces explorer view.
type WorkspaceField string

// Workspace fields.
const (
	WorkspaceFieldAllChecksSucceeded           WorkspaceField = "all-checks-succeeded"
	WorkspaceFieldChecksErrored                WorkspaceField = "checks-errored"
	WorkspaceFieldChecksFailed                 WorkspaceField = "checks-failed"
	WorkspaceFieldChecksPassed                 WorkspaceField = "checks-passed"
	WorkspaceFieldChecksUnknown                WorkspaceField = "checks-unknown"
	WorkspaceFieldCurrentRunAppliedAt          WorkspaceField = "current-run-applied-at"
	WorkspaceFieldCurrentRunExternalID         WorkspaceField = "current-run-external-id"
	WorkspaceFieldCurrentRunStatus             WorkspaceField = "current-run-status"
	WorkspaceFieldDrifted                      WorkspaceField = "drifted"
	WorkspaceFieldExternalID                   WorkspaceField = "external-id"
	WorkspaceFieldModuleCount                  WorkspaceField = "module-count"
	WorkspaceFieldModulesInWorkspace           WorkspaceField = "modules-in-workspace"
	WorkspaceFieldOrganizationName             WorkspaceField = "organization-name"
	WorkspaceFieldProjectExternalID            WorkspaceField = "project-external-id"
	WorkspaceFieldProjectName                  WorkspaceField = "project-name"
	WorkspaceFieldProviderCount                WorkspaceField = "provider-count"
	WorkspaceFieldProviders                    WorkspaceField = "providers"
	WorkspaceFieldResourcesDrifted             WorkspaceField = "resources-drifted"
	WorkspaceFieldResourcesUndrifted           WorkspaceField = "resources-undrifted"
	WorkspaceFieldStateVersionTerraformVersion WorkspaceField = "state-version-terraform-version"
	WorkspaceFieldVCSRepoIdentifier            WorkspaceField = "vcs-repo-identifier"
	WorkspaceFieldCreatedAt                    WorkspaceField = "created-at"
	WorkspaceFieldName                         WorkspaceField = "name"
	WorkspaceFieldTerraformVersion             WorkspaceField = "terraform-version"
	WorkspaceFieldUpdatedAt                    WorkspaceField = "updated-at"
)

func (f WorkspaceField) String() string { return string(f) }

// AllWorkspaceFields returns every workspace field in declaration order.
func AllWorkspaceFields() []WorkspaceField {
	return []WorkspaceField{
		WorkspaceFieldAllChecksSucceeded,
		WorkspaceFieldChecksErrored,
		WorkspaceFieldChecksFailed,
		WorkspaceFieldChecksPassed,
		WorkspaceFieldChecksUnknown,
		WorkspaceFieldCurrentRunAppliedAt,
		WorkspaceFieldCurrentRunExternalID,
		WorkspaceFieldCurrentRunStatus,
		WorkspaceFieldDrifted,
		WorkspaceFieldExternalID,
		WorkspaceFieldModuleCount,
		WorkspaceFieldModulesInWorkspace,
		WorkspaceFieldOrganizationName,
		WorkspaceFieldProjectExternalID,
		WorkspaceFieldProjectName,
		WorkspaceFieldProviderCount,
		WorkspaceFieldProviders,
		WorkspaceFieldResourcesDrifted,
		WorkspaceFieldResourcesUndrifted,
		WorkspaceFieldStateVersionTerraformVersion,
		WorkspaceFieldVCSRepoIdentifier,
		WorkspaceFieldCreatedAt,
		WorkspaceFieldName,
		WorkspaceFieldTerraformVersion,
		WorkspaceFieldUpdatedAt,
	}
}

// ParseWorkspaceField maps a wire string to its WorkspaceField.
func ParseWorkspaceField(s string) (WorkspaceField, error) {
	return parseWire(s, AllWorkspaceFields(), ErrUnknownField)
}

// Field is satisfied by every per-resource field enumeration.
type Field interface {
	~string
	String() string
}

// Clause is one (field, operator, value) predicate. The field type parameter
// ties a clause to exactly one resource kind.
type Clause[F Field] struct {
	Field    F
	Operator Operator
	Value    string
}

// Filter types, one per explorer resource kind.
type (
	ModuleFilter    = Clause[ModuleField]
	WorkspaceFilter = Clause[WorkspaceField]
	ProviderFilter  = Clause[ProviderField]
	TFVersionFilter = Clause[TFVersionField]
)

// NewModuleFilter creates a module filter clause.
func NewModuleFilter(field ModuleField, op Operator, value string) ModuleFilter {
	return ModuleFilter{Field: field, Operator: op, Value: value}
}

// NewWorkspaceFilter creates a workspace filter clause.
func NewWorkspaceFilter(field WorkspaceField, op Operator, value string) WorkspaceFilter {
	return WorkspaceFilter{Field: field, Operator: op, Value: value}
}

// NewProviderFilter creates a provider filter clause.
func NewProviderFilter(field ProviderField, op Operator, value string) ProviderFilter {
	return ProviderFilter{Field: field, Operator: op, Value: value}
}

// NewTFVersionFilter creates a Terraform version filter clause.
func NewTFVersionFilter(field TFVersionField, op Operator, value string) TFVersionFilter {
	return TFVersionFilter{Field: field, Operator: op, Value: value}
}

// String renders the clause in the field:operator:value form accepted by ParseClause.
func (c Clause[F]) String() string {
	return fmt.Sprintf("%s:%s:%s", c.Field.String(), c.Operator.String(), c.Value)
}

func parseWire[T ~string](s string, all []T, notFound error) (T, error) {
	for _, v := range all {
		if string(v) == s {
			return v, nil
		}
	}

	var zero T

	return zero, fmt.Errorf("%w: %q", notFound, s)
}

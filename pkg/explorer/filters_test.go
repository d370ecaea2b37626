package explorer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrascout/terrascout/pkg/explorer"
)

func TestOperator_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op   explorer.Operator
		wire string
	}{
		{explorer.OperatorIs, "is"},
		{explorer.OperatorIsNot, "is-not"},
		{explorer.OperatorContains, "contains"},
		{explorer.OperatorDoesNotContain, "does-not-contain"},
		{explorer.OperatorIsEmpty, "is-empty"},
		{explorer.OperatorIsNotEmpty, "is-not-empty"},
		{explorer.OperatorGT, "gt"},
		{explorer.OperatorLT, "lt"},
		{explorer.OperatorGTEQ, "gteq"},
		{explorer.OperatorLTEQ, "lteq"},
		{explorer.OperatorIsBefore, "is-before"},
		{explorer.OperatorIsAfter, "is-after"},
	}

	require.Len(t, explorer.AllOperators(), len(tests))

	for _, tt := range tests {
		tt := tt
		t.Run(tt.wire, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wire, tt.op.String())

			parsed, err := explorer.ParseOperator(tt.wire)
			require.NoError(t, err)
			assert.Equal(t, tt.op, parsed)
		})
	}
}

func TestParseOperator_Unknown(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "IS", "equals", "gte", "GTEQ"} {
		_, err := explorer.ParseOperator(s)
		require.ErrorIs(t, err, explorer.ErrUnknownOperator, s)
	}
}

func TestOperator_Unary(t *testing.T) {
	t.Parallel()

	for _, op := range explorer.AllOperators() {
		want := op == explorer.OperatorIsEmpty || op == explorer.OperatorIsNotEmpty
		assert.Equal(t, want, op.Unary(), op.String())
	}
}

func TestFieldWireStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "workspace-count", explorer.ModuleFieldWorkspaceCount.String())
	assert.Equal(t, "registry-type", explorer.ProviderFieldRegistryType.String())
	assert.Equal(t, "version", explorer.TFVersionFieldVersion.String())
	assert.Equal(t, "state-version-terraform-version", explorer.WorkspaceFieldStateVersionTerraformVersion.String())
	assert.Equal(t, "vcs-repo-identifier", explorer.WorkspaceFieldVCSRepoIdentifier.String())

	assert.Len(t, explorer.AllModuleFields(), 5)
	assert.Len(t, explorer.AllProviderFields(), 6)
	assert.Len(t, explorer.AllTFVersionFields(), 3)
	assert.Len(t, explorer.AllWorkspaceFields(), 25)
}

func TestParseFields(t *testing.T) {
	t.Parallel()

	for _, f := range explorer.AllWorkspaceFields() {
		parsed, err := explorer.ParseWorkspaceField(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	for _, f := range explorer.AllModuleFields() {
		parsed, err := explorer.ParseModuleField(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
	}

	_, err := explorer.ParseModuleField("registry-type")
	require.ErrorIs(t, err, explorer.ErrUnknownField)

	_, err = explorer.ParseTFVersionField("name")
	require.ErrorIs(t, err, explorer.ErrUnknownField)

	_, err = explorer.ParseProviderField("drifted")
	require.ErrorIs(t, err, explorer.ErrUnknownField)
}

func TestClause_String(t *testing.T) {
	t.Parallel()

	f := explorer.NewWorkspaceFilter(explorer.WorkspaceFieldVCSRepoIdentifier, explorer.OperatorIs, "https://github.com/acme/infra")
	assert.Equal(t, "vcs-repo-identifier:is:https://github.com/acme/infra", f.String())

	m := explorer.NewModuleFilter(explorer.ModuleFieldSource, explorer.OperatorIsEmpty, "")
	assert.Equal(t, "source:is-empty:", m.String())
}

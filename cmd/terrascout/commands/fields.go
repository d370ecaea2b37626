package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/terrascout/terrascout/internal/constants"
	"github.com/terrascout/terrascout/pkg/explorer"
)

// FieldsInfo lists what a kind can be filtered on.
type FieldsInfo struct {
	Kind      string   `json:"kind"      yaml:"kind"`
	Fields    []string `json:"fields"    yaml:"fields"`
	Operators []string `json:"operators" yaml:"operators"`
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "fields KIND",
		Short:     "List filter fields and operators",
		Long:      "List the fields a resource kind can be filtered on and the operators every field accepts",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := LookupKind(args[0])
			if err != nil {
				return err
			}

			return renderFields(cmd.OutOrStdout(), viper.GetString(KeyOutput), spec)
		},
	}
}

func renderFields(w io.Writer, format string, spec KindSpec) error {
	if !spec.Filterable() {
		_, _ = fmt.Fprintf(w, "%s cannot be filtered\n", spec.Command)

		return nil
	}

	operators := make([]string, 0, len(explorer.AllOperators()))
	for _, op := range explorer.AllOperators() {
		operators = append(operators, op.String())
	}

	info := FieldsInfo{Kind: spec.Kind.String(), Fields: spec.Fields, Operators: operators}

	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(info)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		return encoder.Encode(info)
	default:
		table := tablewriter.NewWriter(w)
		table.Header("Field", "Example")

		for _, field := range spec.Fields {
			_ = table.Append(field, "--filter "+field+":is:VALUE")
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		_, _ = fmt.Fprintf(w, "\nOperators: %s\n", strings.Join(operators, ", "))
		_, _ = fmt.Fprintf(w, "Unary operators (%s, %s) may omit the value.\n", explorer.OperatorIsEmpty, explorer.OperatorIsNotEmpty)
	}

	return nil
}

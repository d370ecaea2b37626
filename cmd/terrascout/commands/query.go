package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/terrascout/terrascout/internal/publish"
	"github.com/terrascout/terrascout/pkg/explorer"
)

// queryOptions are the flags shared by query commands.
type queryOptions struct {
	filters []string
	columns []string
	natsURL string
}

// NewQueryCommands creates one command per resource kind.
func NewQueryCommands() []*cobra.Command {
	specs := KindSpecs()

	cmds := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		cmds = append(cmds, newQueryCommand(spec))
	}

	return cmds
}

func newQueryCommand(spec KindSpec) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:     spec.Command,
		Aliases: spec.Aliases,
		Short:   spec.Short,
		Long:    spec.Long,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryCommand(cmd, spec, opts)
		},
	}

	if spec.Filterable() {
		cmd.Flags().StringArrayVarP(&opts.filters, "filter", "f", nil,
			"filter as field:operator:value, repeatable (see 'terrascout fields "+spec.Command+"')")
		cmd.Example = fmt.Sprintf("  terrascout %s --filter %s:is:example", spec.Command, spec.Fields[0])
	}

	cmd.Flags().StringSliceVar(&opts.columns, "columns", nil,
		"table columns (default "+strings.Join(spec.Columns, ",")+")")
	cmd.Flags().StringVar(&opts.natsURL, "publish-nats", "", "also publish each record to this NATS server")

	return cmd
}

func runQueryCommand(cmd *cobra.Command, spec KindSpec, opts *queryOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	settings := LoadSettings(viper.GetViper())
	logger := NewLogger(cmd.ErrOrStderr(), settings.Verbose, settings.NoColor)

	client, err := CreateClient(ctx, settings, ClientOptions{Logger: logger})
	if err != nil {
		return err
	}

	records, err := executeQuery(ctx, cmd.OutOrStdout(), client, spec, opts.filters, settings.Output, opts.columns)
	if err != nil {
		return err
	}

	if opts.natsURL == "" {
		return nil
	}

	conn, err := publish.Connect(opts.natsURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	sink := publish.NewSink(conn, publish.WithSubjectPrefix(settings.SubjectPrefix), publish.WithLogger(logger))

	_, err = sink.Publish(ctx, settings.Organization, spec.Kind, records)

	return err
}

func columnsFor(spec KindSpec, override []string) []string {
	if len(override) > 0 {
		return override
	}

	return spec.Columns
}

// executeQuery runs a query and renders it to w unless w is nil.
func executeQuery(ctx context.Context, w io.Writer, client explorer.Client, spec KindSpec, filters []string, format string, columns []string) ([]explorer.Record, error) {
	records, err := spec.Query(ctx, client, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", spec.Command, err)
	}

	if w != nil {
		err = RenderRecords(w, format, spec.Kind, records, columnsFor(spec, columns))
		if err != nil {
			return nil, err
		}
	}

	return records, nil
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/terrascout/terrascout/internal/constants"
	"github.com/terrascout/terrascout/internal/store"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var (
		storePath string
		limit     int
	)

	cmd := &cobra.Command{
		Use:       "history KIND",
		Short:     "Show recorded watch runs",
		Long:      "Show the runs recorded by 'terrascout watch --store', newest first",
		Example:   "  terrascout history workspaces --store ~/.terrascout/history.db --limit 5",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := LookupKind(args[0])
			if err != nil {
				return err
			}

			settings := LoadSettings(viper.GetViper())
			if storePath == "" {
				storePath = settings.StorePath
			}

			if storePath == "" {
				return constants.ErrStoreRequired
			}

			if settings.Organization == "" {
				return constants.ErrNoOrganizationConfigured
			}

			db, err := store.Open(storePath)
			if err != nil {
				return err
			}
			defer db.Close() //nolint:errcheck // read-only

			runs, err := db.ListRuns(contextOf(cmd), settings.Organization, spec.Kind.String(), limit)
			if err != nil {
				return err
			}

			return renderRuns(cmd.OutOrStdout(), settings.Output, spec.Command, runs)
		},
	}

	cmd.Flags().StringVar(&storePath, "store", "", "SQLite file written by watch --store")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")

	return cmd
}

func renderRuns(w io.Writer, format, command string, runs []store.Run) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(runs)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)

		return encoder.Encode(runs)
	case constants.FormatTable, "":
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutputFormat, format)
	}

	if len(runs) == 0 {
		_, _ = fmt.Fprintf(w, "No recorded runs for %s\n", command)

		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Run", "Started", "Duration", "Records", "Result")

	for _, run := range runs {
		result := "ok"
		if !run.Succeeded() {
			result = truncate(strings.ReplaceAll(run.Error, "\n", " "), constants.CellTruncationLength)
		}

		_ = table.Append(
			strconv.FormatInt(run.ID, 10),
			run.Started().Format(time.RFC3339),
			(time.Duration(run.DurationMS) * time.Millisecond).String(),
			strconv.Itoa(run.Records),
			result,
		)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

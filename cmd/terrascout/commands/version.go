package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/terrascout/terrascout/internal/constants"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"    yaml:"version"`
	Commit    string `json:"commit"     yaml:"commit"`
	Built     string `json:"built"      yaml:"built"`
	GoVersion string `json:"go_version" yaml:"go_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the terrascout CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				Version:   version,
				Commit:    commit,
				Built:     date,
				GoVersion: runtime.Version(),
			}

			return renderVersion(cmd.OutOrStdout(), viper.GetString(KeyOutput), info)
		},
	}
}

func renderVersion(w io.Writer, format string, info VersionInfo) error {
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
		table.Header("Property", "Value")
		_ = table.Append("Version", info.Version)
		_ = table.Append("Commit", info.Commit)
		_ = table.Append("Built", info.Built)
		_ = table.Append("Go", info.GoVersion)

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
	}

	return nil
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/terrascout/terrascout/internal/constants"
	"github.com/terrascout/terrascout/pkg/explorer"
)

// idColumn selects the record id instead of an attribute.
const idColumn = "id"

// RenderRecords writes records to w in the requested format. columns only
// applies to the table format.
func RenderRecords(w io.Writer, format string, kind explorer.ResourceKind, records []explorer.Record, columns []string) error {
	switch format {
	case constants.FormatJSON:
		return renderJSON(w, records)
	case constants.FormatYAML:
		return renderYAML(w, records)
	case constants.FormatTable, "":
		return renderTable(w, kind, records, columns)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutputFormat, format)
	}
}

func renderJSON(w io.Writer, records []explorer.Record) error {
	if records == nil {
		records = []explorer.Record{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

	err := encoder.Encode(records)
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}

	return nil
}

func renderYAML(w io.Writer, records []explorer.Record) error {
	values := make([]interface{}, 0, len(records))

	for i, r := range records {
		var v interface{}

		err := json.Unmarshal(r, &v)
		if err != nil {
			return fmt.Errorf("decoding record %d: %w", i, err)
		}

		values = append(values, v)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(constants.JSONIndentSize)

	err := encoder.Encode(values)
	if err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}

	return encoder.Close()
}

func renderTable(w io.Writer, kind explorer.ResourceKind, records []explorer.Record, columns []string) error {
	if len(records) == 0 {
		_, _ = fmt.Fprintf(w, "No %s found\n", strings.ReplaceAll(kind.String(), "_", " "))

		return nil
	}

	if len(columns) == 0 {
		columns = inferColumns(records[0])
	}

	header := make([]any, 0, len(columns))
	for _, c := range columns {
		header = append(header, c)
	}

	table := tablewriter.NewWriter(w)
	table.Header(header...)

	for i, r := range records {
		res, err := explorer.DecodeResource(r)
		if err != nil {
			return fmt.Errorf("decoding record %d: %w", i, err)
		}

		err = table.Append(tableRow(res, columns)...)
		if err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	_, _ = fmt.Fprintf(w, "\n%d %s\n", len(records), strings.ReplaceAll(kind.String(), "_", " "))

	return nil
}

func tableRow(res *explorer.Resource, columns []string) []any {
	row := make([]any, 0, len(columns))

	for _, c := range columns {
		if c == idColumn {
			row = append(row, cellValue(res.ID))

			continue
		}

		row = append(row, cellValue(res.Attributes[c]))
	}

	return row
}

// inferColumns lists a record's attributes, sorted, when a kind has no
// default columns.
func inferColumns(r explorer.Record) []string {
	res, err := explorer.DecodeResource(r)
	if err != nil || len(res.Attributes) == 0 {
		return []string{idColumn}
	}

	columns := make([]string, 0, len(res.Attributes))
	for k := range res.Attributes {
		columns = append(columns, k)
	}

	sort.Strings(columns)

	return columns
}

func cellValue(v interface{}) string {
	var s string

	switch val := v.(type) {
	case nil:
		return constants.NotAvailable
	case string:
		if val == "" {
			return constants.NotAvailable
		}

		s = val
	case bool:
		s = strconv.FormatBool(val)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}

		s = string(b)
	}

	return truncate(s, constants.CellTruncationLength)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n-3]) + "..."
}

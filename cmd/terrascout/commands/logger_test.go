package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debug("hidden", map[string]interface{}{"a": 1})
	logger.Info("Query complete", map[string]interface{}{"kind": "workspaces", "records": 3})
	logger.Error("Query aborted", map[string]interface{}{"error": "boom"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Query complete", entry["message"])
	assert.Equal(t, "workspaces", entry["kind"])
	assert.InDelta(t, 3, entry["records"], 0)

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "error", entry["level"])
}

func TestNewLogger_Verbose(t *testing.T) {
	t.Parallel()

	var quiet, verbose bytes.Buffer

	NewLogger(&quiet, false, true).Debug("HTTP Request", nil)
	NewLogger(&verbose, true, true).Debug("HTTP Request", nil)

	assert.Empty(t, quiet.String())
	assert.Contains(t, verbose.String(), "HTTP Request")
}

//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	Address      string
	Organization string
	Token        string
	BinaryPath   string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		Address:      os.Getenv("TFE_ADDRESS"),
		Organization: os.Getenv("TFE_ORGANIZATION"),
		Token:        os.Getenv("TFE_TOKEN"),
		BinaryPath:   getBinaryPath(),
		Verbose:      os.Getenv("TERRASCOUT_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the terrascout binary
func getBinaryPath() string {
	if path := os.Getenv("TERRASCOUT_BINARY_PATH"); path != "" {
		return path
	}

	for _, candidate := range []string{"../../terrascout", "./terrascout", "../terrascout"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "terrascout"
}

// SkipIfMissingConfig skips tests that need a live organization.
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.Token == "" || config.Organization == "" {
		t.Skip("TFE_TOKEN or TFE_ORGANIZATION not set, skipping integration test")
	}
}

// SkipIfMissingBinary skips tests that drive the CLI.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("terrascout binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs the terrascout binary against the configured organization.
type CommandRunner struct {
	config *TestConfig
	t      *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	return &CommandRunner{
		config: config,
		t:      t,
	}
}

// Run executes a terrascout command and returns its output. Credentials are
// passed through the environment so they never show up in logged arguments.
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(runner.config.BinaryPath, args...)
	cmd.Env = append(os.Environ(),
		"TERRASCOUT_ORGANIZATION="+runner.config.Organization,
		"TERRASCOUT_TOKEN="+runner.config.Token,
	)

	if runner.config.Address != "" {
		cmd.Env = append(cmd.Env, "TERRASCOUT_ADDRESS="+runner.config.Address)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// AssertJSONArray verifies output is a JSON array and returns its elements.
func AssertJSONArray(t *testing.T, output string) []map[string]interface{} {
	t.Helper()

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &records), "output is not a JSON array: %s", output)

	return records
}

// AssertYAMLOutput verifies output parses as YAML.
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	var doc interface{}
	require.NoError(t, yaml.Unmarshal([]byte(output), &doc), "output is not YAML: %s", output)
}

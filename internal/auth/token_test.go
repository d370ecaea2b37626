package auth_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrascout/terrascout/internal/auth"
)

var errTerminalClosed = errors.New("terminal closed")

func TestToken_Valid(t *testing.T) {
	t.Parallel()

	var nilToken *auth.Token

	assert.False(t, nilToken.Valid())
	assert.False(t, (&auth.Token{}).Valid())
	assert.True(t, (&auth.Token{Value: "abc"}).Valid())
}

func writeCredentials(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "credentials.tfrc.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestResolve(t *testing.T) {
	t.Parallel()

	emptyEnv := auth.EnvSource{Variable: "TFE_TOKEN", Getenv: func(string) string { return "" }}

	t.Run("first non-empty source wins", func(t *testing.T) {
		t.Parallel()

		env := auth.EnvSource{Variable: "TFE_TOKEN", Getenv: func(string) string { return "from-env" }}

		token, err := auth.Resolve(context.Background(), "app.terraform.io",
			auth.StaticSource{Label: "--token", Value: ""},
			env,
			auth.StaticSource{Label: "config", Value: "from-config"},
		)
		require.NoError(t, err)
		assert.Equal(t, "from-env", token.Value)
		assert.Equal(t, "$TFE_TOKEN", token.Source)
	})

	t.Run("whitespace is trimmed", func(t *testing.T) {
		t.Parallel()

		token, err := auth.Resolve(context.Background(), "app.terraform.io",
			auth.StaticSource{Label: "flag", Value: "  spaced\n"})
		require.NoError(t, err)
		assert.Equal(t, "spaced", token.Value)
	})

	t.Run("credentials file by host", func(t *testing.T) {
		t.Parallel()

		path := writeCredentials(t, `{"credentials": {
			"app.terraform.io": {"token": "saas-token"},
			"TFE.example.com": {"token": "tfe-token"}
		}}`)

		token, err := auth.Resolve(context.Background(), "tfe.example.com",
			emptyEnv, auth.CredentialsFileSource{Path: path})
		require.NoError(t, err)
		assert.Equal(t, "tfe-token", token.Value)
		assert.Equal(t, "credentials file", token.Source)
	})

	t.Run("missing credentials file is skipped", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), "absent.json")

		_, err := auth.Resolve(context.Background(), "app.terraform.io",
			auth.CredentialsFileSource{Path: missing})
		require.ErrorIs(t, err, auth.ErrNoToken)
	})

	t.Run("malformed credentials file fails", func(t *testing.T) {
		t.Parallel()

		path := writeCredentials(t, `{"credentials": [`)

		_, err := auth.Resolve(context.Background(), "app.terraform.io",
			auth.CredentialsFileSource{Path: path})
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("prompt only when interactive", func(t *testing.T) {
		t.Parallel()

		called := false
		prompt := auth.PromptSource{
			Interactive: func() bool { return false },
			Read: func(string) (string, error) {
				called = true

				return "typed", nil
			},
		}

		_, err := auth.Resolve(context.Background(), "app.terraform.io", prompt)
		require.ErrorIs(t, err, auth.ErrNoToken)
		assert.False(t, called)

		prompt.Interactive = func() bool { return true }

		token, err := auth.Resolve(context.Background(), "app.terraform.io", prompt)
		require.NoError(t, err)
		assert.Equal(t, "typed", token.Value)
		assert.True(t, called)
	})

	t.Run("prompt failure", func(t *testing.T) {
		t.Parallel()

		prompt := auth.PromptSource{
			Interactive: func() bool { return true },
			Read:        func(string) (string, error) { return "", errTerminalClosed },
		}

		_, err := auth.Resolve(context.Background(), "app.terraform.io", prompt)
		require.ErrorIs(t, err, auth.ErrPromptUnavailable)
		require.ErrorIs(t, err, errTerminalClosed)
	})

	t.Run("nil sources are ignored", func(t *testing.T) {
		t.Parallel()

		_, err := auth.Resolve(context.Background(), "app.terraform.io", nil, emptyEnv)
		require.ErrorIs(t, err, auth.ErrNoToken)
	})
}

func TestDefaultCredentialsPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TF_CLI_CONFIG_DIR", dir)

	assert.Equal(t, filepath.Join(dir, "credentials.tfrc.json"), auth.DefaultCredentialsPath())
}

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Static errors for err113 compliance.
var (
	ErrNoToken            = errors.New("no API token found")
	ErrInvalidCredentials = errors.New("invalid credentials file")
	ErrPromptUnavailable  = errors.New("token prompt unavailable")
)

const (
	credentialsFileName = "credentials.tfrc.json"
	cliConfigDirEnv     = "TF_CLI_CONFIG_DIR"
)

// Token is a resolved API token and where it came from.
type Token struct {
	Value  string
	Source string
}

// Valid checks if the token carries a value.
func (t *Token) Valid() bool {
	return t != nil && t.Value != ""
}

// Source looks up a token for host. It returns "" when it has none.
type Source interface {
	Name() string
	Lookup(ctx context.Context, host string) (string, error)
}

// Resolve asks each source in order and returns the first non-empty token.
func Resolve(ctx context.Context, host string, sources ...Source) (*Token, error) {
	for _, src := range sources {
		if src == nil {
			continue
		}

		value, err := src.Lookup(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name(), err)
		}

		value = strings.TrimSpace(value)
		if value != "" {
			return &Token{Value: value, Source: src.Name()}, nil
		}
	}

	return nil, ErrNoToken
}

// StaticSource returns a fixed value, typically from a flag or config file.
type StaticSource struct {
	Label string
	Value string
}

func (s StaticSource) Name() string { return s.Label }

func (s StaticSource) Lookup(context.Context, string) (string, error) {
	return s.Value, nil
}

// EnvSource reads an environment variable.
type EnvSource struct {
	Variable string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

func (s EnvSource) Name() string { return "$" + s.Variable }

func (s EnvSource) Lookup(context.Context, string) (string, error) {
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	return getenv(s.Variable), nil
}

// credentialsFile is the layout written by `terraform login`.
type credentialsFile struct {
	Credentials map[string]struct {
		Token string `json:"token"`
	} `json:"credentials"`
}

// CredentialsFileSource reads the Terraform CLI credentials file.
type CredentialsFileSource struct {
	// Path overrides DefaultCredentialsPath.
	Path string
}

func (s CredentialsFileSource) Name() string { return "credentials file" }

// Lookup returns the token stored for host. A missing file yields "".
func (s CredentialsFileSource) Lookup(_ context.Context, host string) (string, error) {
	path := s.Path
	if path == "" {
		path = DefaultCredentialsPath()
	}

	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's own environment
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	var creds credentialsFile

	err = json.Unmarshal(data, &creds)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrInvalidCredentials, path, err)
	}

	for name, entry := range creds.Credentials {
		if strings.EqualFold(name, host) {
			return entry.Token, nil
		}
	}

	return "", nil
}

// DefaultCredentialsPath returns the credentials file location used by the
// Terraform CLI, or "" when no home directory is known.
func DefaultCredentialsPath() string {
	if dir := os.Getenv(cliConfigDirEnv); dir != "" {
		return filepath.Join(dir, credentialsFileName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".terraform.d", credentialsFileName)
}

// PromptSource asks the user. Read is only called when Interactive reports true.
type PromptSource struct {
	Interactive func() bool
	Read        func(host string) (string, error)
}

func (s PromptSource) Name() string { return "prompt" }

func (s PromptSource) Lookup(_ context.Context, host string) (string, error) {
	if s.Read == nil || s.Interactive == nil || !s.Interactive() {
		return "", nil
	}

	value, err := s.Read(host)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPromptUnavailable, err)
	}

	return value, nil
}

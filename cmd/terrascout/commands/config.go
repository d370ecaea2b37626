package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/terrascout/terrascout/internal/auth"
	"github.com/terrascout/terrascout/internal/constants"
	"github.com/terrascout/terrascout/pkg/explorer"
	"github.com/terrascout/terrascout/pkg/tfeclient"
)

// Configuration keys shared by flags, environment and the config file.
const (
	KeyAddress       = "address"
	KeyOrganization  = "organization"
	KeyToken         = "token"
	KeyOutput        = "output"
	KeyVerbose       = "verbose"
	KeyNoColor       = "no-color"
	KeyTimeout       = "timeout"
	KeyNATSURL       = "nats.url"
	KeySubjectPrefix = "nats.subject-prefix"
	KeyStorePath     = "store.path"
)

// UserAgent is sent with every request. main sets it to include the version.
var UserAgent = "terrascout"

// Settings is the resolved CLI configuration.
type Settings struct {
	Address       string        `json:"address"        yaml:"address"`
	Organization  string        `json:"organization"   yaml:"organization"`
	Token         string        `json:"-"              yaml:"-"`
	Output        string        `json:"output"         yaml:"output"`
	Verbose       bool          `json:"verbose"        yaml:"verbose"`
	NoColor       bool          `json:"no_color"       yaml:"no_color"`
	Timeout       time.Duration `json:"timeout"        yaml:"timeout"`
	NATSURL       string        `json:"nats_url"       yaml:"nats_url"`
	SubjectPrefix string        `json:"subject_prefix" yaml:"subject_prefix"`
	StorePath     string        `json:"store_path"     yaml:"store_path"`
}

// BindEnvironment maps configuration keys to their environment variables.
// TFE_* names follow the go-tfe and Terraform provider conventions.
func BindEnvironment(v *viper.Viper) {
	v.SetEnvPrefix("TERRASCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv(KeyAddress, "TERRASCOUT_ADDRESS", "TFE_ADDRESS")
	_ = v.BindEnv(KeyOrganization, "TERRASCOUT_ORGANIZATION", "TFE_ORGANIZATION")
	_ = v.BindEnv(KeyToken, "TERRASCOUT_TOKEN", "TFE_TOKEN")

	v.SetDefault(KeyOutput, constants.FormatTable)
	v.SetDefault(KeyTimeout, constants.DefaultHTTPTimeout)
	v.SetDefault(KeySubjectPrefix, constants.DefaultSubjectPrefix)
}

// LoadSettings reads the current configuration from v.
func LoadSettings(v *viper.Viper) *Settings {
	return &Settings{
		Address:       tfeclient.NormalizeAddress(v.GetString(KeyAddress)),
		Organization:  strings.TrimSpace(v.GetString(KeyOrganization)),
		Token:         v.GetString(KeyToken),
		Output:        strings.ToLower(v.GetString(KeyOutput)),
		Verbose:       v.GetBool(KeyVerbose),
		NoColor:       v.GetBool(KeyNoColor),
		Timeout:       v.GetDuration(KeyTimeout),
		NATSURL:       v.GetString(KeyNATSURL),
		SubjectPrefix: v.GetString(KeySubjectPrefix),
		StorePath:     v.GetString(KeyStorePath),
	}
}

// Host returns the host part of the configured address.
func (s *Settings) Host() string {
	u, err := url.Parse(s.Address)
	if err != nil {
		return s.Address
	}

	return u.Host
}

// ClientOptions are the optional collaborators of a CLI client.
type ClientOptions struct {
	Logger  explorer.Logger
	Metrics *explorer.MetricsCollector
	// TokenSources replaces the default credentials file and prompt lookups
	// that run after the configured token.
	TokenSources []auth.Source
}

// CreateClient builds an explorer client from settings.
func CreateClient(ctx context.Context, settings *Settings, opts ClientOptions) (explorer.Client, error) {
	if settings.Organization == "" {
		return nil, constants.ErrNoOrganizationConfigured
	}

	sources := opts.TokenSources
	if sources == nil {
		sources = []auth.Source{
			auth.CredentialsFileSource{},
			auth.PromptSource{Interactive: stdinIsTerminal, Read: promptToken},
		}
	}

	sources = append([]auth.Source{auth.StaticSource{Label: "configuration", Value: settings.Token}}, sources...)

	token, err := auth.Resolve(ctx, settings.Host(), sources...)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			return nil, constants.ErrNoTokenConfigured
		}

		return nil, fmt.Errorf("resolving API token: %w", err)
	}

	if opts.Logger != nil {
		opts.Logger.Debug("Resolved API token", map[string]interface{}{
			"source": token.Source,
			"host":   settings.Host(),
		})
	}

	return tfeclient.New(&explorer.Config{
		Address:      settings.Address,
		Organization: settings.Organization,
		Token:        token.Value,
		HTTPTimeout:  settings.Timeout,
		UserAgent:    UserAgent,
		Debug:        settings.Verbose,
		Logger:       opts.Logger,
		Metrics:      opts.Metrics,
	})
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) //nolint:gosec // file descriptors fit in int
}

func promptToken(host string) (string, error) {
	_, _ = fmt.Fprintf(os.Stderr, "API token for %s: ", host)

	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd())) //nolint:gosec // file descriptors fit in int

	_, _ = fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	return string(tokenBytes), nil
}

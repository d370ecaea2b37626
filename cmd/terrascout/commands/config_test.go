package commands

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrascout/terrascout/internal/auth"
	"github.com/terrascout/terrascout/internal/constants"
)

func TestLoadSettings_Environment(t *testing.T) {
	t.Setenv("TFE_ADDRESS", "tfe.example.com/")
	t.Setenv("TFE_ORGANIZATION", " acme ")
	t.Setenv("TFE_TOKEN", "env-token")
	t.Setenv("TERRASCOUT_NATS_URL", "nats://localhost:4222")

	v := viper.New()
	BindEnvironment(v)

	settings := LoadSettings(v)
	assert.Equal(t, "https://tfe.example.com", settings.Address)
	assert.Equal(t, "tfe.example.com", settings.Host())
	assert.Equal(t, "acme", settings.Organization)
	assert.Equal(t, "env-token", settings.Token)
	assert.Equal(t, "nats://localhost:4222", settings.NATSURL)
	assert.Equal(t, constants.FormatTable, settings.Output)
	assert.Equal(t, constants.DefaultHTTPTimeout, settings.Timeout)
	assert.Equal(t, constants.DefaultSubjectPrefix, settings.SubjectPrefix)
}

func TestLoadSettings_PrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("TFE_TOKEN", "generic")
	t.Setenv("TERRASCOUT_TOKEN", "specific")
	t.Setenv("TERRASCOUT_TIMEOUT", "5s")
	t.Setenv("TFE_ADDRESS", "")

	v := viper.New()
	BindEnvironment(v)

	settings := LoadSettings(v)
	assert.Equal(t, "specific", settings.Token)
	assert.Equal(t, 5*time.Second, settings.Timeout)
	assert.Equal(t, "https://app.terraform.io", settings.Address)
}

func TestCreateClient(t *testing.T) {
	t.Parallel()

	noLookups := []auth.Source{}

	t.Run("requires organization", func(t *testing.T) {
		t.Parallel()

		_, err := CreateClient(context.Background(), &Settings{Token: "t"}, ClientOptions{TokenSources: noLookups})
		require.ErrorIs(t, err, constants.ErrNoOrganizationConfigured)
	})

	t.Run("requires token", func(t *testing.T) {
		t.Parallel()

		settings := &Settings{Address: "https://app.terraform.io", Organization: "acme"}

		_, err := CreateClient(context.Background(), settings, ClientOptions{TokenSources: noLookups})
		require.ErrorIs(t, err, constants.ErrNoTokenConfigured)
	})

	t.Run("falls back to later sources", func(t *testing.T) {
		t.Parallel()

		var authorization string

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authorization = request.Header.Get("Authorization")
			_, _ = writer.Write([]byte(`{"data":[],"meta":{"pagination":{"next-page":null}}}`))
		}))
		defer server.Close()

		settings := &Settings{Address: server.URL, Organization: "acme"}
		sources := []auth.Source{auth.StaticSource{Label: "test", Value: "fallback-token"}}

		client, err := CreateClient(context.Background(), settings, ClientOptions{TokenSources: sources})
		require.NoError(t, err)

		_, err = client.Providers(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer fallback-token", authorization)
	})
}

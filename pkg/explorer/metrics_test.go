package explorer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrascout/terrascout/pkg/explorer"
)

func TestMetricsCollector_NilSafe(t *testing.T) {
	t.Parallel()

	var m *explorer.MetricsCollector

	assert.NotPanics(t, func() {
		m.ObserveRequest(explorer.KindModules, 200, time.Millisecond)
		m.ObservePage(explorer.KindModules, 10)
		m.ObservePause(explorer.KindModules)
		m.ObserveRateLimited(explorer.KindModules)
	})
	assert.Nil(t, m.Registry())
}

func TestMetricsCollector_Counts(t *testing.T) {
	t.Parallel()

	m, err := explorer.NewMetricsCollector(nil)
	require.NoError(t, err)

	m.ObserveRequest(explorer.KindWorkspaces, 200, 10*time.Millisecond)
	m.ObserveRequest(explorer.KindWorkspaces, 200, 10*time.Millisecond)
	m.ObserveRequest(explorer.KindWorkspaces, 429, time.Millisecond)
	m.ObserveRateLimited(explorer.KindWorkspaces)

	expected := `
# HELP terrascout_explorer_rate_limited_total Requests rejected with HTTP 429.
# TYPE terrascout_explorer_rate_limited_total counter
terrascout_explorer_rate_limited_total{kind="workspaces"} 1
# HELP terrascout_explorer_requests_total Page requests issued, by resource kind and HTTP status code.
# TYPE terrascout_explorer_requests_total counter
terrascout_explorer_requests_total{code="200",kind="workspaces"} 2
terrascout_explorer_requests_total{code="429",kind="workspaces"} 1
`

	err = testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"terrascout_explorer_requests_total",
		"terrascout_explorer_rate_limited_total",
	)
	require.NoError(t, err)
}

func TestNewMetricsCollector_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()

	_, err := explorer.NewMetricsCollector(registry)
	require.NoError(t, err)

	_, err = explorer.NewMetricsCollector(registry)
	require.Error(t, err)
}

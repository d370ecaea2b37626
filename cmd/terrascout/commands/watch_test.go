package commands

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrascout/terrascout/internal/store"
	"github.com/terrascout/terrascout/pkg/explorer"
)

var errUpstream = errors.New("upstream unavailable")

// fakeClient returns canned records and remembers workspace filters.
type fakeClient struct {
	mu      sync.Mutex
	records []explorer.Record
	err     error
	calls   int
	filters []explorer.WorkspaceFilter
	started chan struct{}
	block   chan struct{}
}

func (f *fakeClient) result() ([]explorer.Record, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}

	if f.block != nil {
		<-f.block
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	return f.records, f.err
}

func (f *fakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func (f *fakeClient) Modules(context.Context, ...explorer.ModuleFilter) ([]explorer.Record, error) {
	return f.result()
}

func (f *fakeClient) Workspaces(_ context.Context, filters ...explorer.WorkspaceFilter) ([]explorer.Record, error) {
	f.mu.Lock()
	f.filters = filters
	f.mu.Unlock()

	return f.result()
}

func (f *fakeClient) Providers(context.Context, ...explorer.ProviderFilter) ([]explorer.Record, error) {
	return f.result()
}

func (f *fakeClient) TFVersions(context.Context, ...explorer.TFVersionFilter) ([]explorer.Record, error) {
	return f.result()
}

func (f *fakeClient) RegistryModules(context.Context) ([]explorer.Record, error) {
	return f.result()
}

type fakeSink struct {
	organization string
	kind         explorer.ResourceKind
	published    int
	err          error
}

func (s *fakeSink) Publish(_ context.Context, organization string, kind explorer.ResourceKind, records []explorer.Record) (int, error) {
	s.organization = organization
	s.kind = kind
	s.published += len(records)

	return len(records), s.err
}

func newTestWatcher(t *testing.T, kind string, client explorer.Client, filters []string) (*watcher, *prometheus.Registry) {
	t.Helper()

	spec, err := LookupKind(kind)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	settings := &Settings{Organization: "acme", Output: "json"}
	opts := &watchOptions{filters: filters}

	w, err := newWatcher(spec, client, settings, opts, NewZerologLogger(zerolog.Nop()), registry)
	require.NoError(t, err)

	return w, registry
}

func TestWatcher_RunOncePublishes(t *testing.T) {
	t.Parallel()

	client := &fakeClient{records: testRecords()}
	w, registry := newTestWatcher(t, "workspaces", client, []string{"drifted:is:true"})

	sink := &fakeSink{}
	w.sink = sink

	require.NoError(t, w.RunOnce(context.Background()))

	assert.Equal(t, "acme", sink.organization)
	assert.Equal(t, explorer.KindWorkspaces, sink.kind)
	assert.Equal(t, 2, sink.published)
	require.Len(t, client.filters, 1)
	assert.Equal(t, explorer.WorkspaceFieldDrifted, client.filters[0].Field)

	expected := `
# HELP terrascout_watch_runs_total Scheduled query runs, by resource kind and result.
# TYPE terrascout_watch_runs_total counter
terrascout_watch_runs_total{kind="workspaces",result="success"} 1
# HELP terrascout_watch_last_records Records returned by the last successful run.
# TYPE terrascout_watch_last_records gauge
terrascout_watch_last_records{kind="workspaces"} 2
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected),
		"terrascout_watch_runs_total", "terrascout_watch_last_records"))
}

func TestWatcher_RunOncePrints(t *testing.T) {
	t.Parallel()

	client := &fakeClient{records: testRecords()}
	w, _ := newTestWatcher(t, "modules", client, nil)

	var out strings.Builder
	w.out = &out

	require.NoError(t, w.RunOnce(context.Background()))
	assert.Contains(t, out.String(), `"ws-1"`)
}

func TestWatcher_RunOnceFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{err: errUpstream}
	w, registry := newTestWatcher(t, "providers", client, nil)

	sink := &fakeSink{}
	w.sink = sink

	err := w.RunOnce(context.Background())
	require.ErrorIs(t, err, errUpstream)
	assert.Zero(t, sink.published)

	expected := `
# HELP terrascout_watch_runs_total Scheduled query runs, by resource kind and result.
# TYPE terrascout_watch_runs_total counter
terrascout_watch_runs_total{kind="providers",result="error"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "terrascout_watch_runs_total"))
}

func TestWatcher_SkipsOverlappingRuns(t *testing.T) {
	t.Parallel()

	client := &fakeClient{started: make(chan struct{}, 1), block: make(chan struct{})}
	w, _ := newTestWatcher(t, "tf-versions", client, nil)

	done := make(chan error, 1)

	go func() {
		done <- w.RunOnce(context.Background())
	}()

	select {
	case <-client.started:
	case <-time.After(time.Second):
		t.Fatal("first run never reached the client")
	}

	require.NoError(t, w.RunOnce(context.Background()))

	close(client.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, client.Calls())
}

func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	t.Run("invalid schedule", func(t *testing.T) {
		t.Parallel()

		w, _ := newTestWatcher(t, "modules", &fakeClient{}, nil)

		err := w.Run(context.Background(), "every tuesday", false)
		require.ErrorContains(t, err, "invalid cron schedule")
	})

	t.Run("run now then stop", func(t *testing.T) {
		t.Parallel()

		client := &fakeClient{records: testRecords()}
		w, _ := newTestWatcher(t, "modules", client, nil)
		w.sink = &fakeSink{}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.NoError(t, w.Run(ctx, "@hourly", true))
		assert.Equal(t, 1, client.Calls())
	})
}

func TestNewWatcher_DuplicateRegistry(t *testing.T) {
	t.Parallel()

	spec, err := LookupKind("modules")
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	settings := &Settings{Organization: "acme"}
	logger := NewZerologLogger(zerolog.Nop())

	_, err = newWatcher(spec, &fakeClient{}, settings, &watchOptions{}, logger, registry)
	require.NoError(t, err)

	_, err = newWatcher(spec, &fakeClient{}, settings, &watchOptions{}, logger, registry)
	require.Error(t, err)
}

func TestMetricsRouter(t *testing.T) {
	t.Parallel()

	w, registry := newTestWatcher(t, "modules", &fakeClient{records: testRecords()}, nil)
	w.sink = &fakeSink{}
	require.NoError(t, w.RunOnce(context.Background()))

	server := httptest.NewServer(newMetricsRouter(registry))
	defer server.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(server.URL + path) //nolint:noctx // test helper
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		return resp.StatusCode, string(body)
	}

	code, body := get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `terrascout_watch_runs_total{kind="modules",result="success"} 1`)

	code, body = get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)

	code, _ = get("/nope")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWatcher_RecordsHistory(t *testing.T) {
	t.Parallel()

	db, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	defer db.Close()

	client := &fakeClient{records: testRecords()}
	w, registry := newTestWatcher(t, "workspaces", client, nil)
	w.sink = &fakeSink{}
	w.history = db
	w.keep = 2

	require.NoError(t, w.RunOnce(context.Background()))

	client.mu.Lock()
	client.records = []explorer.Record{
		testRecords()[1],
		explorer.Record(`{"id":"ws-3","type":"visibility-workspace","attributes":{}}`),
	}
	client.mu.Unlock()

	require.NoError(t, w.RunOnce(context.Background()))

	client.mu.Lock()
	client.err = errUpstream
	client.mu.Unlock()

	require.Error(t, w.RunOnce(context.Background()))

	runs, err := db.ListRuns(context.Background(), "acme", "workspaces", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.False(t, runs[0].Succeeded())
	assert.Equal(t, "failed to list workspaces: upstream unavailable", runs[0].Error)
	assert.Equal(t, 2, runs[1].Records)

	expected := `
# HELP terrascout_watch_record_changes_total Record ids added or removed since the previous successful run.
# TYPE terrascout_watch_record_changes_total counter
terrascout_watch_record_changes_total{change="added",kind="workspaces"} 1
terrascout_watch_record_changes_total{change="removed",kind="workspaces"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "terrascout_watch_record_changes_total"))
}

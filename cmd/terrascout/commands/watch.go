package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/terrascout/terrascout/internal/constants"
	"github.com/terrascout/terrascout/internal/publish"
	"github.com/terrascout/terrascout/internal/store"
	"github.com/terrascout/terrascout/pkg/explorer"
)

const defaultKeepRuns = 100

// sink receives the records of every successful watch run.
type sink interface {
	Publish(ctx context.Context, organization string, kind explorer.ResourceKind, records []explorer.Record) (int, error)
}

// history records watch runs and remembers the last successful result.
type history interface {
	RecordRun(ctx context.Context, run store.Run, records []explorer.Record) (int64, error)
	LastSuccessful(ctx context.Context, organization, kind string) (*store.Run, error)
	Snapshot(ctx context.Context, runID int64) ([]explorer.Record, error)
	Prune(ctx context.Context, organization, kind string, keep int) (int64, error)
}

type watchOptions struct {
	schedule    string
	filters     []string
	columns     []string
	natsURL     string
	metricsAddr string
	storePath   string
	keep        int
	runNow      bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch KIND",
		Short: "Re-run a query on a schedule",
		Long: `Re-run a query on a cron schedule until interrupted.

Each run's records are published to NATS when --publish-nats (or nats.url in
the config file) is set, and printed otherwise. --metrics-addr exposes
Prometheus metrics for the runs and their page requests.`,
		Example: `  terrascout watch workspaces --schedule "*/30 * * * *" --filter drifted:is:true
  terrascout watch modules --schedule @hourly --publish-nats nats://localhost:4222 --metrics-addr :9090`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: kindNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchCommand(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.schedule, "schedule", "", "cron expression or descriptor such as @hourly (required)")
	cmd.Flags().StringArrayVarP(&opts.filters, "filter", "f", nil, "filter as field:operator:value, repeatable")
	cmd.Flags().StringSliceVar(&opts.columns, "columns", nil, "table columns")
	cmd.Flags().StringVar(&opts.natsURL, "publish-nats", "", "NATS server to publish records to")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "address to serve /metrics on, e.g. :9090")
	cmd.Flags().StringVar(&opts.storePath, "store", "", "SQLite file recording each run, enables change detection and 'terrascout history'")
	cmd.Flags().IntVar(&opts.keep, "keep", defaultKeepRuns, "runs to keep per kind in --store")
	cmd.Flags().BoolVar(&opts.runNow, "run-now", false, "run once immediately before waiting for the schedule")

	return cmd
}

func runWatchCommand(cmd *cobra.Command, kind string, opts *watchOptions) error {
	if opts.schedule == "" {
		return constants.ErrScheduleRequired
	}

	spec, err := LookupKind(kind)
	if err != nil {
		return err
	}

	err = spec.ValidateFilters(opts.filters)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := LoadSettings(viper.GetViper())
	logger := NewLogger(cmd.ErrOrStderr(), settings.Verbose, settings.NoColor)

	metrics, err := explorer.NewMetricsCollector(nil)
	if err != nil {
		return err
	}

	client, err := CreateClient(ctx, settings, ClientOptions{Logger: logger, Metrics: metrics})
	if err != nil {
		return err
	}

	w, err := newWatcher(spec, client, settings, opts, logger, metrics.Registry())
	if err != nil {
		return err
	}

	natsURL := opts.natsURL
	if natsURL == "" {
		natsURL = settings.NATSURL
	}

	if natsURL != "" {
		conn, err := publish.Connect(natsURL)
		if err != nil {
			return err
		}
		defer conn.Drain() //nolint:errcheck // best effort on shutdown

		w.sink = publish.NewSink(conn, publish.WithSubjectPrefix(settings.SubjectPrefix), publish.WithLogger(logger))
	} else {
		w.out = cmd.OutOrStdout()
	}

	storePath := opts.storePath
	if storePath == "" {
		storePath = settings.StorePath
	}

	if storePath != "" {
		db, err := store.Open(storePath)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck // best effort on shutdown

		w.history = db
	}

	if opts.metricsAddr != "" {
		shutdown := serveMetrics(opts.metricsAddr, metrics.Registry(), logger)
		defer shutdown()
	}

	return w.Run(ctx, opts.schedule, opts.runNow)
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}

	return context.Background()
}

// watcher runs one query repeatedly. Overlapping runs are skipped.
type watcher struct {
	spec         KindSpec
	client       explorer.Client
	organization string
	filters      []string
	columns      []string
	format       string
	logger       explorer.Logger

	sink    sink
	out     io.Writer
	history history
	keep    int

	mu      sync.Mutex
	runs    *prometheus.CounterVec
	last    *prometheus.GaugeVec
	changes *prometheus.CounterVec
}

func newWatcher(spec KindSpec, client explorer.Client, settings *Settings, opts *watchOptions, logger explorer.Logger, registry *prometheus.Registry) (*watcher, error) {
	w := &watcher{
		spec:         spec,
		client:       client,
		organization: settings.Organization,
		filters:      opts.filters,
		columns:      opts.columns,
		format:       settings.Output,
		logger:       logger,
		keep:         opts.keep,
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "watch",
			Name:      "runs_total",
			Help:      "Scheduled query runs, by resource kind and result.",
		}, []string{"kind", "result"}),
		last: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "watch",
			Name:      "last_records",
			Help:      "Records returned by the last successful run.",
		}, []string{"kind"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "watch",
			Name:      "record_changes_total",
			Help:      "Record ids added or removed since the previous successful run.",
		}, []string{"kind", "change"}),
	}

	if registry != nil {
		for _, c := range []prometheus.Collector{w.runs, w.last, w.changes} {
			err := registry.Register(c)
			if err != nil {
				return nil, fmt.Errorf("registering watch metrics: %w", err)
			}
		}
	}

	return w, nil
}

// RunOnce executes a single query, then publishes or prints the result.
func (w *watcher) RunOnce(ctx context.Context) error {
	if !w.mu.TryLock() {
		w.logger.Warn("Previous run still in progress, skipping", map[string]interface{}{"kind": w.spec.Kind.String()})

		return nil
	}
	defer w.mu.Unlock()

	start := time.Now()

	records, err := executeQuery(ctx, w.out, w.client, w.spec, w.filters, w.format, w.columns)
	if err == nil && w.sink != nil {
		_, err = w.sink.Publish(ctx, w.organization, w.spec.Kind, records)
	}

	w.remember(ctx, start, records, err)

	if err != nil {
		w.runs.WithLabelValues(w.spec.Kind.String(), "error").Inc()
		w.logger.Error("Watch run failed", map[string]interface{}{
			"kind":  w.spec.Kind.String(),
			"error": err.Error(),
		})

		return err
	}

	w.runs.WithLabelValues(w.spec.Kind.String(), "success").Inc()
	w.last.WithLabelValues(w.spec.Kind.String()).Set(float64(len(records)))
	w.logger.Info("Watch run complete", map[string]interface{}{
		"kind":     w.spec.Kind.String(),
		"records":  len(records),
		"duration": time.Since(start).String(),
	})

	return nil
}

// remember compares a successful result with the previous one and records
// the run. History failures are logged, never returned.
func (w *watcher) remember(ctx context.Context, start time.Time, records []explorer.Record, runErr error) {
	if w.history == nil {
		return
	}

	kind := w.spec.Kind.String()
	run := store.Run{
		Organization: w.organization,
		Kind:         kind,
		StartedAt:    start.UnixNano(),
		DurationMS:   time.Since(start).Milliseconds(),
	}

	if runErr != nil {
		run.Error = runErr.Error()
	} else {
		w.logChanges(ctx, records)
	}

	_, err := w.history.RecordRun(ctx, run, records)
	if err != nil {
		w.logger.Warn("Failed to record run", map[string]interface{}{"kind": kind, "error": err.Error()})

		return
	}

	if w.keep > 0 {
		_, err = w.history.Prune(ctx, w.organization, kind, w.keep)
		if err != nil {
			w.logger.Warn("Failed to prune history", map[string]interface{}{"kind": kind, "error": err.Error()})
		}
	}
}

func (w *watcher) logChanges(ctx context.Context, records []explorer.Record) {
	kind := w.spec.Kind.String()

	previous, err := w.history.LastSuccessful(ctx, w.organization, kind)
	if err != nil {
		if !errors.Is(err, store.ErrRunNotFound) {
			w.logger.Warn("Failed to load previous run", map[string]interface{}{"kind": kind, "error": err.Error()})
		}

		return
	}

	snapshot, err := w.history.Snapshot(ctx, previous.ID)
	if err != nil {
		w.logger.Warn("Failed to load previous records", map[string]interface{}{"kind": kind, "error": err.Error()})

		return
	}

	change := store.Diff(snapshot, records)
	if change.Empty() {
		return
	}

	w.changes.WithLabelValues(kind, "added").Add(float64(len(change.Added)))
	w.changes.WithLabelValues(kind, "removed").Add(float64(len(change.Removed)))
	w.logger.Info("Records changed since last run", map[string]interface{}{
		"kind":     kind,
		"added":    change.Added,
		"removed":  change.Removed,
		"previous": previous.ID,
	})
}

// Run schedules RunOnce and blocks until ctx is done.
func (w *watcher) Run(ctx context.Context, schedule string, runNow bool) error {
	_, err := cron.ParseStandard(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	c := cron.New()

	_, err = c.AddFunc(schedule, func() {
		_ = w.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule query: %w", err)
	}

	if runNow {
		_ = w.RunOnce(ctx)
	}

	c.Start()
	w.logger.Info("Watching", map[string]interface{}{
		"kind":     w.spec.Kind.String(),
		"schedule": schedule,
	})

	<-ctx.Done()
	<-c.Stop().Done()

	return nil
}

// newMetricsRouter serves /metrics from registry and a /healthz probe.
func newMetricsRouter(registry *prometheus.Registry) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	return r
}

// serveMetrics starts the metrics endpoint and returns its shutdown func.
func serveMetrics(addr string, registry *prometheus.Registry, logger explorer.Logger) func() {
	server := &http.Server{
		Addr:              addr,
		Handler:           newMetricsRouter(registry),
		ReadHeaderTimeout: constants.MetricsShutdownTimeout,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", map[string]interface{}{"addr": addr, "error": err.Error()})
		}
	}()

	logger.Info("Serving metrics", map[string]interface{}{"addr": addr})

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.MetricsShutdownTimeout)
		defer cancel()

		_ = server.Shutdown(ctx)
	}
}

package perftrace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ghalamif/perftrace/internal/adapters/journal"
	"github.com/ghalamif/perftrace/internal/adapters/observability"
	"github.com/ghalamif/perftrace/internal/adapters/store"
	"github.com/ghalamif/perftrace/internal/app/recorder"
	"github.com/ghalamif/perftrace/internal/ports"
)

// ErrNoStore is returned when an operation needs an event store and none is configured.
var ErrNoStore = recorder.ErrNoStore

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	journal       Journal
	store         EventStore
	observability Observability
	registry      *prometheus.Registry
	logger        *zap.Logger
	builder       *Builder
}

// WithJournal lets callers bring their own journal implementation.
func WithJournal(j Journal) RuntimeOption {
	return func(o *runtimeOverrides) { o.journal = j }
}

// WithStore injects an event store instead of the SQL store from Config.
func WithStore(s EventStore) RuntimeOption {
	return func(o *runtimeOverrides) { o.store = s }
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) { o.observability = obs }
}

// WithRegistry registers the default metrics on reg and serves it on /metrics.
func WithRegistry(reg *prometheus.Registry) RuntimeOption {
	return func(o *runtimeOverrides) { o.registry = reg }
}

// WithLogger replaces the logger built from Config.Log.
func WithLogger(l *zap.Logger) RuntimeOption {
	return func(o *runtimeOverrides) { o.logger = l }
}

// WithEventBuilder overrides the builder used to stamp events.
func WithEventBuilder(b *Builder) RuntimeOption {
	return func(o *runtimeOverrides) { o.builder = b }
}

// Runtime wires the journal, optional event store and observability stack
// behind Record, and exposes simple lifecycle hooks for embedding.
type Runtime struct {
	cfg        *Config
	logger     *zap.Logger
	registry   *prometheus.Registry
	obs        ports.Observability
	journal    ports.Journal
	store      ports.EventStore
	recorder   *recorder.Recorder
	db         *sql.DB
	metricsSrv *http.Server
}

// NewRuntime opens the file journal and, when Config.Store names a driver,
// the SQL event store. Options override any dependency.
func NewRuntime(ctx context.Context, cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	rt := &Runtime{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = rt.closeResources()
		}
	}()

	rt.logger = o.logger
	if rt.logger == nil {
		l, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Development)
		if err != nil {
			return nil, err
		}
		rt.logger = l
	}

	rt.registry = o.registry
	if rt.registry == nil {
		rt.registry = prometheus.NewRegistry()
	}

	rt.obs = o.observability
	if rt.obs == nil {
		rt.obs = observability.NewPromObs(rt.registry, rt.logger)
	}

	rt.journal = o.journal
	if rt.journal == nil {
		j, err := journal.Open(cfg.Journal.Dir)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		rt.journal = j
	}

	rt.store = o.store
	if rt.store == nil && cfg.Store.Driver != "" {
		s, db, err := store.Open(ctx, store.Dialect(cfg.Store.Driver), cfg.Store.DSN, cfg.Store.Table)
		if err != nil {
			return nil, err
		}
		rt.store = s
		rt.db = db
	}

	recOpts := []recorder.Option{
		recorder.WithSyncEveryRecord(cfg.Journal.SyncEveryRecord),
		recorder.WithBuilder(o.builder),
	}
	if rt.store != nil {
		recOpts = append(recOpts, recorder.WithStore(rt.store))
	}
	rec, err := recorder.New(rt.journal, rt.obs, recOpts...)
	if err != nil {
		return nil, err
	}
	rt.recorder = rec

	ok = true
	return rt, nil
}

// Record constructs an event from bag, journals it and stores it when a store
// is configured.
func (r *Runtime) Record(ctx context.Context, sessionID string, bag PropertyBag) (PerformanceEvent, error) {
	e, _, err := r.recorder.Record(ctx, sessionID, bag)
	return e, err
}

// Replay saves journal entries a previous run could not store.
func (r *Runtime) Replay(ctx context.Context) (int, error) {
	return r.recorder.Replay(ctx)
}

// Compact drops committed entries from the journal.
func (r *Runtime) Compact() error {
	return r.recorder.Compact()
}

// Events lists the stored events of a session.
func (r *Runtime) Events(ctx context.Context, sessionID string) ([]PerformanceEvent, error) {
	if r.store == nil {
		return nil, ErrNoStore
	}
	return r.store.ListBySession(ctx, sessionID)
}

// JournalStats reports the journal cursor and size.
func (r *Runtime) JournalStats() ports.JournalStats {
	return r.journal.Stats()
}

// MetricsHandler serves the runtime registry in the Prometheus text format.
func (r *Runtime) MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run replays pending journal entries when a store is configured, serves
// metrics on Config.Metrics.Addr and blocks until ctx is cancelled.
func (r *Runtime) Run(ctx context.Context) error {
	if r.store != nil {
		if n, err := r.Replay(ctx); err != nil {
			r.obs.LogError("startup_replay_failed", err)
		} else if n > 0 {
			r.obs.LogInfo("startup_replay_complete", ports.Field{Key: "events", Value: n})
		}
	}

	r.metricsSrv = &http.Server{
		Addr:              r.cfg.Metrics.Addr,
		Handler:           r.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srvErr := make(chan error, 1)
	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return r.Shutdown(shutdownCtx)
		case err, open := <-srvErr:
			if open && err != nil {
				r.obs.LogError("metrics_server_exited", err)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return errors.Join(err, r.Shutdown(shutdownCtx))
			}
			srvErr = nil
		case <-ticker.C:
			r.obs.SetGauge(ports.MetricJournalSize, float64(r.journal.Stats().SizeBytes))
		}
	}
}

// Shutdown stops the metrics server, closes the journal and the DB connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}
	errs = append(errs, r.closeResources())
	_ = r.logger.Sync()
	return errors.Join(errs...)
}

func (r *Runtime) closeResources() error {
	var errs []error
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package halcheck is a black-box conformance harness for component-registry
// HAL services reached over IPC. It patches the host's discovery manifests,
// runs the service-under-test, drives the registry through its public
// operations, and restores all mutated host state afterward.
package halcheck

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"halcheck/internal/checks"
	cfg "halcheck/internal/config"
	"halcheck/internal/fixture"
	"halcheck/internal/harness"
	"halcheck/internal/history"
	"halcheck/internal/metrics"
	"halcheck/internal/registry"
	"halcheck/internal/service"
	"halcheck/internal/vintf"
)

// Re-export core types for external consumers. These are aliases so
// conversions are zero-cost.

type Config = cfg.Config

type ServiceSpec = service.Spec

type ManifestEntry = vintf.Entry

type ComponentDescriptor = fixture.Descriptor

type FixtureTable = fixture.Table

type Report = checks.Report

type Violation = checks.Violation

// NewReport returns an empty check report.
func NewReport() *Report { return checks.NewReport() }

type Status = registry.Status

const (
	StatusOK       = registry.StatusOK
	StatusNotFound = registry.StatusNotFound
)

type Sink = history.Sink

type RunRecord = history.RunRecord

// LoadConfig reads and validates a harness TOML config.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// Environment is a thin facade over the per-run harness environment.
type Environment struct{ inner *harness.Environment }

// NewEnvironment builds a run environment bound to the real host controllers.
func NewEnvironment(c *Config, log *slog.Logger) *Environment {
	return &Environment{inner: harness.New(c, log)}
}

// AddSink registers a history sink receiving one record per run.
func (e *Environment) AddSink(s Sink) { harness.WithSink(s)(e.inner) }

func (e *Environment) Setup(ctx context.Context) error { return e.inner.Setup(ctx) }

func (e *Environment) Teardown() error { return e.inner.Teardown() }

func (e *Environment) Run(ctx context.Context) (*Report, error) { return e.inner.Run(ctx) }

func (e *Environment) RunChecks(ctx context.Context, tbl FixtureTable) *Report {
	return e.inner.RunChecks(ctx, tbl)
}

// RegistryClient dials registry services; see internal/registry.Client.
type RegistryClient = registry.Client

// RegistrySession is a connected per-test-case registry handle.
type RegistrySession = registry.Session

// RegistryServer is the in-process reference registry.
type RegistryServer = registry.Server

// NewRegistryServer builds a reference registry supporting the given
// component names, for development and embedding.
func NewRegistryServer(components []string) *RegistryServer {
	return registry.NewServer(components)
}

// MountEcho mounts the reference registry on an echo instance under
// /registry, for embedding into an existing echo application.
func MountEcho(e *echo.Echo, srv *RegistryServer) {
	h := srv.Handler()
	e.Any("/registry", echo.WrapHandler(h))
	e.Any("/registry/*", echo.WrapHandler(h))
}

// History sink constructors.

func NewSQLSink(dsn string) (Sink, error) { return history.NewSQLSinkFromDSN(dsn) }

func NewClickHouseSink(baseURL, table string) Sink { return history.NewClickHouseSink(baseURL, table) }

func NewClickHouseNativeSink(addr, table string) (Sink, error) {
	return history.NewClickHouseNativeSink(addr, table)
}

func NewOpenSearchSink(baseURL, index string) Sink {
	return history.NewOpenSearchSink(baseURL, index)
}

// NewSinkFromConfig resolves the configured history destination; a "none" or
// empty type yields a nil sink.
func NewSinkFromConfig(hc cfg.HistoryConfig) (Sink, error) {
	switch hc.Type {
	case "sql":
		return history.NewSQLSinkFromDSN(hc.DSN)
	case "clickhouse":
		return history.NewClickHouseSinkFromURL(hc.URL, hc.Table)
	case "opensearch":
		return history.NewOpenSearchSink(hc.URL, hc.Table), nil
	default:
		return nil, nil
	}
}

// Metrics helpers (public facade).

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the
// default registry. It runs in the caller goroutine.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}

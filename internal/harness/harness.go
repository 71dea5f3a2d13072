// Package harness orchestrates one conformance run: host state capture,
// manifest patching, service lifecycle, checks, and unconditional restore.
// The environment is an explicit per-run object handed to the test driver;
// nothing here has process-wide lifetime.
package harness

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"halcheck/internal/backup"
	"halcheck/internal/checks"
	"halcheck/internal/config"
	"halcheck/internal/fixture"
	"halcheck/internal/history"
	"halcheck/internal/hostctl"
	"halcheck/internal/metrics"
	"halcheck/internal/registry"
	"halcheck/internal/service"
	"halcheck/internal/vintf"
)

// Environment wires the collaborators of a single setup/teardown cycle.
type Environment struct {
	cfg     *config.Config
	log     *slog.Logger
	backups *backup.Manager
	patcher *vintf.Patcher
	svc     *service.Controller
	procs   hostctl.ProcessController
	daemons hostctl.DaemonController
	client  *registry.Client
	sinks   []history.Sink

	// sleep is swapped out by tests to avoid real propagation delays
	sleep func(time.Duration)
}

// Option adjusts an Environment before first use.
type Option func(*Environment)

// WithDaemonController replaces the host service-manager control.
func WithDaemonController(d hostctl.DaemonController) Option {
	return func(e *Environment) { e.daemons = d }
}

// WithProcessController replaces the process-table control.
func WithProcessController(p hostctl.ProcessController) Option {
	return func(e *Environment) {
		e.procs = p
		e.svc = service.NewController(e.cfg.Service, p, e.log)
	}
}

// WithSink adds a history sink for run records.
func WithSink(s history.Sink) Option {
	return func(e *Environment) { e.sinks = append(e.sinks, s) }
}

// WithSleep replaces the propagation wait, for tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(e *Environment) { e.sleep = fn }
}

// New builds an Environment from config with the real host controllers.
func New(cfg *config.Config, log *slog.Logger, opts ...Option) *Environment {
	if log == nil {
		log = slog.Default()
	}
	procs := hostctl.ExecProcessController{}
	e := &Environment{
		cfg:     cfg,
		log:     log,
		backups: backup.NewManager(),
		patcher: vintf.NewPatcher(cfg.Entry),
		procs:   procs,
		daemons: hostctl.InitDaemonController{},
		client: &registry.Client{
			SocketDir: cfg.Registry.SocketDir,
			Addr:      cfg.Registry.Addr,
			Timeout:   cfg.Registry.Timeout,
		},
		sleep: time.Sleep,
	}
	e.svc = service.NewController(cfg.Service, procs, log)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Client exposes the registry client so test bodies can open sessions.
func (e *Environment) Client() *registry.Client { return e.client }

// Setup brings the service-under-test into a known running state. Any error
// is fatal to the run; the caller must still invoke Teardown to revert
// whatever part of the host state was already touched.
func (e *Environment) Setup(ctx context.Context) error {
	d := e.cfg.Discovery
	for _, p := range append([]string{d.ManifestPath, d.MatrixPath}, e.cfg.BackupFiles...) {
		if err := e.backups.Snapshot(p); err != nil {
			return fmt.Errorf("harness: %w", err)
		}
	}

	// quiesce the production variant so it does not compete for the same
	// registration slot; absence of either is the normal case
	if err := e.daemons.Stop(e.cfg.Service.Name); err != nil {
		e.log.Debug("production service stop", "service", e.cfg.Service.Name, "err", err)
	}
	if err := e.procs.Interrupt(filepath.Base(e.cfg.Service.Executable)); err != nil {
		e.log.Debug("stray process stop", "err", err)
	}

	changed, err := e.ensureDeclared()
	if err != nil {
		return err
	}
	if changed {
		e.reloadDiscovery()
	}

	if err := e.svc.Start(ctx, e.probe()); err != nil {
		return fmt.Errorf("harness: %w", err)
	}
	metrics.IncServiceStart(e.cfg.Service.Name)
	return nil
}

func (e *Environment) ensureDeclared() (bool, error) {
	d := e.cfg.Discovery
	targets := []struct {
		path    string
		variant vintf.Variant
	}{
		{d.ManifestPath, vintf.Manifest},
		{d.MatrixPath, vintf.CompatibilityMatrix},
	}
	changed := false
	for _, t := range targets {
		ins, err := e.patcher.EnsureDeclared(t.path, t.variant)
		if err != nil {
			return changed, fmt.Errorf("harness: %w", err)
		}
		if ins {
			changed = true
			metrics.IncPatchInsert(filepath.Base(t.path))
			e.log.Info("manifest entry inserted", "file", t.path, "interface", e.cfg.Entry.Name)
		}
	}
	return changed, nil
}

// reloadDiscovery bounces the discovery daemon so it re-reads the patched
// manifests, then the dependent services that hang on stale configuration.
// Best-effort: on hosts without the control commands the patched files simply
// take effect on next daemon start.
func (e *Environment) reloadDiscovery() {
	d := e.cfg.Discovery
	if err := hostctl.Restart(e.daemons, d.DaemonName); err != nil {
		e.log.Debug("discovery daemon restart", "daemon", d.DaemonName, "err", err)
	}
	e.sleep(d.PropagationDelay)
	for _, dep := range d.DependentServices {
		if err := hostctl.Restart(e.daemons, dep); err != nil {
			e.log.Debug("dependent service restart", "service", dep, "err", err)
		}
		e.sleep(d.PropagationDelay)
	}
}

// probe returns a readiness probe that attempts a registry connect, the only
// observable signal the service offers.
func (e *Environment) probe() service.Probe {
	name := e.cfg.Registry.ServiceName
	return func(ctx context.Context) bool {
		sess, err := e.client.Connect(ctx, name)
		return err == nil && sess != nil
	}
}

// Teardown restores every piece of host state the run touched: backed-up
// files, the spawned process, and the production service. It always runs to
// completion; only restore failures are reported, the rest is best-effort by
// contract.
func (e *Environment) Teardown() error {
	restoreErr := e.backups.RestoreAll()

	e.svc.Stop()
	metrics.IncServiceStop(e.cfg.Service.Name)

	if err := e.daemons.Start(e.cfg.Service.Name); err != nil {
		e.log.Debug("production service start", "service", e.cfg.Service.Name, "err", err)
	}
	if restoreErr != nil {
		return fmt.Errorf("harness: teardown: %w", restoreErr)
	}
	return nil
}

// Run executes a full conformance cycle: setup, all checks, teardown, run
// record export. Teardown runs regardless of how far setup got.
func (e *Environment) Run(ctx context.Context) (*checks.Report, error) {
	tbl, err := e.cfg.Fixture()
	if err != nil {
		return nil, fmt.Errorf("harness: %w", err)
	}
	started := time.Now()

	var rep *checks.Report
	setupErr := e.Setup(ctx)
	if setupErr == nil {
		rep = e.RunChecks(ctx, tbl)
	}
	teardownErr := e.Teardown()
	if teardownErr != nil {
		e.log.Warn("teardown incomplete", "err", teardownErr)
	}

	e.record(ctx, started, rep, setupErr)
	if setupErr != nil {
		return nil, setupErr
	}
	return rep, teardownErr
}

// RunChecks drives every conformance check against the live registry.
func (e *Environment) RunChecks(ctx context.Context, tbl fixture.Table) *checks.Report {
	return checks.All(ctx, e.client, e.cfg.Registry.ServiceName, tbl)
}

func (e *Environment) record(ctx context.Context, started time.Time, rep *checks.Report, setupErr error) {
	if len(e.sinks) == 0 {
		return
	}
	rec := history.RunRecord{
		Service:    e.cfg.Service.Name,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Passed:     setupErr == nil && rep != nil && rep.Passed(),
	}
	if setupErr != nil {
		rec.Detail = "setup: " + setupErr.Error()
	} else if rep != nil {
		rec.Checks = checks.NumChecks
		rec.Violations = len(rep.Violations())
		for i, v := range rep.Violations() {
			if i > 0 {
				rec.Detail += "; "
			}
			rec.Detail += v.String()
		}
	}
	for _, s := range e.sinks {
		if err := s.Send(ctx, rec); err != nil {
			e.log.Warn("history sink", "err", err)
		}
	}
}

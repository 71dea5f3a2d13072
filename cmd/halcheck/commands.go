package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"halcheck"
	"halcheck/internal/logger"
	"halcheck/internal/vintf"
)

type command struct{}

// reportView is the printable shape of a finished run.
type reportView struct {
	Service    string   `json:"service"`
	Passed     bool     `json:"passed"`
	Violations []string `json:"violations,omitempty"`
}

func viewOf(service string, rep *halcheck.Report) reportView {
	rv := reportView{Service: service, Passed: rep.Passed()}
	for _, v := range rep.Violations() {
		rv.Violations = append(rv.Violations, v.String())
	}
	return rv
}

func logFor(c *halcheck.Config) *slog.Logger {
	return logger.New(logger.ParseLevel(c.Log.Level), c.Log.Color)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Run executes the full cycle: snapshot, declare, restart, check, restore.
func (c *command) Run(f RunFlags) error {
	cfg, err := halcheck.LoadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	log := logFor(cfg)

	if f.MetricsAddr != "" {
		if err := halcheck.RegisterMetricsDefault(); err != nil {
			return err
		}
		go func() {
			if err := halcheck.ServeMetrics(f.MetricsAddr); err != nil {
				log.Error("metrics server stopped", "error", err)
			}
		}()
	}

	env := halcheck.NewEnvironment(cfg, log)
	sink, err := halcheck.NewSinkFromConfig(cfg.History)
	if err != nil {
		return err
	}
	if sink != nil {
		if closer, ok := sink.(io.Closer); ok {
			defer func() { _ = closer.Close() }()
		}
		env.AddSink(sink)
	}

	ctx, cancel := signalContext()
	defer cancel()

	rep, err := env.Run(ctx)
	return finishRun(cfg.Service.Name, rep, err, f.JSONOut)
}

// finishRun prints whatever report the cycle produced before surfacing the
// run error, so a passing run whose restore failed still reports its checks.
func finishRun(service string, rep *halcheck.Report, runErr error, asJSON bool) error {
	if rep != nil {
		printReport(viewOf(service, rep), asJSON)
	}
	if runErr != nil {
		return runErr
	}
	if !rep.Passed() {
		return fmt.Errorf("%d check violation(s)", len(rep.Violations()))
	}
	return nil
}

// Check runs the conformance checks against an already-running registry
// without touching manifests or service lifecycle.
func (c *command) Check(f CheckFlags) error {
	cfg, err := halcheck.LoadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	if f.Addr != "" {
		cfg.Registry.Addr = f.Addr
	}
	if f.SocketDir != "" {
		cfg.Registry.SocketDir = f.SocketDir
	}
	if f.Timeout > 0 {
		cfg.Registry.Timeout = f.Timeout
	}
	log := logFor(cfg)

	tbl, err := cfg.Fixture()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	env := halcheck.NewEnvironment(cfg, log)
	rep := env.RunChecks(ctx, tbl)
	printReport(viewOf(cfg.Service.Name, rep), f.JSONOut)
	if !rep.Passed() {
		return fmt.Errorf("%d check violation(s)", len(rep.Violations()))
	}
	return nil
}

// Patch declares the interface in both discovery documents without touching
// service lifecycle. With --backup-dir the pre-patch files are copied aside
// for a later restore.
func (c *command) Patch(f PatchFlags) error {
	cfg, err := halcheck.LoadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	d := cfg.Discovery
	targets := []struct {
		path    string
		variant vintf.Variant
	}{
		{d.ManifestPath, vintf.Manifest},
		{d.MatrixPath, vintf.CompatibilityMatrix},
	}
	if f.BackupDir != "" {
		if err := os.MkdirAll(f.BackupDir, 0o755); err != nil {
			return err
		}
		for _, t := range targets {
			if err := copyAside(t.path, f.BackupDir); err != nil {
				return err
			}
		}
	}
	p := vintf.NewPatcher(cfg.Entry)
	for _, t := range targets {
		changed, err := p.EnsureDeclared(t.path, t.variant)
		if err != nil {
			return err
		}
		if changed {
			fmt.Printf("%s: inserted %s\n", t.path, cfg.Entry.Name)
		} else {
			fmt.Printf("%s: already declared\n", t.path)
		}
	}
	return nil
}

// Restore copies files saved by `patch --backup-dir` back into place.
func (c *command) Restore(f RestoreFlags) error {
	cfg, err := halcheck.LoadConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	restored := 0
	for _, path := range []string{cfg.Discovery.ManifestPath, cfg.Discovery.MatrixPath} {
		saved := filepath.Join(f.BackupDir, filepath.Base(path))
		data, err := os.ReadFile(saved)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		st, err := os.Stat(saved)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, st.Mode().Perm()); err != nil {
			return err
		}
		fmt.Printf("%s: restored\n", path)
		restored++
	}
	if restored == 0 {
		return fmt.Errorf("no backups found under %s", f.BackupDir)
	}
	return nil
}

func copyAside(path, dir string) error {
	dst := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(dst); err == nil {
		return nil // keep the earliest copy so restore reverts to pre-patch state
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, st.Mode().Perm())
}

// Registry serves the reference registry until interrupted.
func (c *command) Registry(f RegistryFlags) error {
	if f.Socket == "" && f.Addr == "" {
		return fmt.Errorf("either --socket or --addr is required")
	}
	srv := halcheck.NewRegistryServer(f.Components)

	ctx, cancel := signalContext()
	defer cancel()

	if f.Socket != "" {
		closeFn, err := srv.ListenUnix(f.Socket)
		if err != nil {
			return err
		}
		defer closeFn()
		fmt.Printf("registry listening on %s\n", f.Socket)
		<-ctx.Done()
		return nil
	}

	hs, err := srv.ListenTCP(f.Addr)
	if err != nil {
		return err
	}
	fmt.Printf("registry listening on %s\n", f.Addr)
	<-ctx.Done()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 3*time.Second)
	defer stop()
	return hs.Shutdown(shutdownCtx)
}

func printReport(rv reportView, asJSON bool) {
	if asJSON {
		printJSON(rv)
		return
	}
	if rv.Passed {
		fmt.Printf("%s: PASS\n", rv.Service)
		return
	}
	fmt.Printf("%s: FAIL\n", rv.Service)
	for _, v := range rv.Violations {
		_, _ = fmt.Fprintf(os.Stderr, "  %s\n", v)
	}
}

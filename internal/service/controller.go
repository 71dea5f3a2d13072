package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"halcheck/internal/env"
	"halcheck/internal/hostctl"
)

// State of the spawned service handle.
type State int

const (
	Stopped State = iota
	Starting
	Running
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	default:
		return "stopped"
	}
}

// Probe reports whether the service has registered itself with the discovery
// layer, typically by attempting a registry connect.
type Probe func(ctx context.Context) bool

// Controller owns the single service-under-test process: it spawns the binary
// detached with an isolated library-search environment and terminates it (and
// any stray sibling) on Stop. At most one Running handle exists at a time.
type Controller struct {
	spec  Spec
	procs hostctl.ProcessController
	log   *slog.Logger

	mu      sync.Mutex
	state   State
	cmd     *exec.Cmd
	closers []io.Closer
}

func NewController(spec Spec, procs hostctl.ProcessController, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{spec: spec, procs: procs, log: log}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PID returns the spawned process id, or 0 when nothing is running.
func (c *Controller) PID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd == nil || c.cmd.Process == nil {
		return 0
	}
	return c.cmd.Process.Pid
}

// Start spawns the service as a detached background process. The child's
// environment is built from an empty base so nothing ambient leaks in; only
// LD_LIBRARY_PATH and the spec's extra entries are set. A launch failure is
// returned to the caller, which treats it as fatal to the run.
//
// After a successful launch, Start waits for readiness: when probe is non-nil
// it polls the probe up to the spec's ready timeout, otherwise it sleeps the
// settle delay once. Either way this is best-effort synchronization; callers
// must tolerate a later connect failing.
func (c *Controller) Start(ctx context.Context, probe Probe) error {
	c.mu.Lock()
	if c.state != Stopped {
		c.mu.Unlock()
		return fmt.Errorf("service %s already %s", c.spec.Name, c.state)
	}
	c.state = Starting
	c.mu.Unlock()

	e := env.New()
	e.Set("LD_LIBRARY_PATH", c.spec.LibraryPath)
	// #nosec G204 -- executable comes from harness config
	cmd := exec.Command(c.spec.Executable)
	cmd.Dir = c.spec.WorkDir
	cmd.Env = e.Merge(c.spec.Env)
	setDetached(cmd)

	outW, errW := c.spec.Log.Writers(filepath.Base(c.spec.Executable))
	var closers []io.Closer
	if outW != nil {
		cmd.Stdout = outW
		closers = append(closers, outW)
	} else {
		cmd.Stdout, _ = os.OpenFile(os.DevNull, os.O_RDWR, 0)
	}
	if errW != nil {
		cmd.Stderr = errW
		closers = append(closers, errW)
	} else {
		cmd.Stderr, _ = os.OpenFile(os.DevNull, os.O_RDWR, 0)
	}

	if err := cmd.Start(); err != nil {
		for _, cl := range closers {
			_ = cl.Close()
		}
		c.mu.Lock()
		c.state = Stopped
		c.mu.Unlock()
		return fmt.Errorf("launch %s: %w", c.spec.Executable, err)
	}
	c.mu.Lock()
	c.cmd = cmd
	c.closers = closers
	c.mu.Unlock()
	// reap on exit; the controller otherwise has no crash detection
	go func() { _ = cmd.Wait() }()

	c.log.Info("service launched", "executable", c.spec.Executable, "pid", cmd.Process.Pid)
	c.awaitReady(ctx, probe)

	c.mu.Lock()
	c.state = Running
	c.mu.Unlock()
	return nil
}

func (c *Controller) awaitReady(ctx context.Context, probe Probe) {
	if probe == nil {
		select {
		case <-time.After(c.spec.settleDelay()):
		case <-ctx.Done():
		}
		return
	}
	deadline := time.Now().Add(c.spec.readyTimeout())
	for time.Now().Before(deadline) {
		if probe(ctx) {
			return
		}
		select {
		case <-time.After(probeInterval):
		case <-ctx.Done():
			return
		}
	}
	c.log.Warn("service not ready within timeout, continuing",
		"executable", c.spec.Executable, "timeout", c.spec.readyTimeout())
}

// Stop terminates the spawned process and, by executable identity, any other
// instance of the same binary. Errors are swallowed: there being nothing to
// stop is the normal teardown case. Always invoked in teardown.
func (c *Controller) Stop() {
	c.mu.Lock()
	cmd := c.cmd
	closers := c.closers
	c.cmd = nil
	c.closers = nil
	c.state = Stopped
	c.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		terminate(cmd.Process.Pid)
	}
	if c.procs != nil {
		_ = c.procs.Interrupt(filepath.Base(c.spec.Executable))
	}
	for _, cl := range closers {
		_ = cl.Close()
	}
}

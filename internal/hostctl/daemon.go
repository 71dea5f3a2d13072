package hostctl

import (
	"fmt"
	"os/exec"
	"strings"
)

// InitDaemonController drives an Android-init style service manager where
// `stop <svc>` and `start <svc>` are standalone host commands. The command
// names are configurable for hosts with a different control binary.
type InitDaemonController struct {
	StartCmd string // defaults to "start"
	StopCmd  string // defaults to "stop"
}

func (c InitDaemonController) Start(name string) error { return c.run(c.cmd(c.StartCmd, "start"), name) }
func (c InitDaemonController) Stop(name string) error  { return c.run(c.cmd(c.StopCmd, "stop"), name) }

func (c InitDaemonController) cmd(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func (c InitDaemonController) run(cmdName, svc string) error {
	// #nosec G204 -- both arguments come from harness config, not request input
	out, err := exec.Command(cmdName, svc).CombinedOutput()
	if err != nil {
		return fmt.Errorf("hostctl: %s %s: %w (%s)", cmdName, svc, err, strings.TrimSpace(string(out)))
	}
	return nil
}

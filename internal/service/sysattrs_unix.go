//go:build !windows

package service

import (
	"os/exec"
	"syscall"
)

// setDetached puts the child in its own process group so it outlives test
// binary signal delivery and can be terminated as a group.
func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate signals the child's process group; escalation is not needed since
// teardown also interrupts by executable identity.
func terminate(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGTERM)
}

//go:build !windows

package hostctl

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ExecProcessController resolves processes through /proc and signals them
// directly, the moral equivalent of `kill -INT $(pidof name)`.
type ExecProcessController struct{}

func (ExecProcessController) Pids(name string) ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if pid == os.Getpid() {
			continue
		}
		if procExecutable(pid) == name {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

func (c ExecProcessController) Interrupt(name string) error {
	pids, err := c.Pids(name)
	if err != nil {
		return err
	}
	for _, pid := range pids {
		// stale /proc entries and already-exited processes are expected
		_ = syscall.Kill(pid, syscall.SIGINT)
	}
	return nil
}

// procExecutable returns the base name of pid's executable, preferring
// /proc/<pid>/cmdline over comm since comm truncates long names.
func procExecutable(pid int) string {
	data, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/cmdline")
	if err == nil {
		if i := strings.IndexByte(string(data), 0); i > 0 {
			return filepath.Base(string(data[:i]))
		}
	}
	comm, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/comm")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(comm))
}

// PidAlive reports whether a process with the given pid exists (EPERM counts
// as existing).
func PidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

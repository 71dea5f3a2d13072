//go:build !windows

package hostctl

import (
	"os"
	"os/exec"
	"slices"
	"testing"
	"time"
)

func TestPidsFindsSpawnedProcess(t *testing.T) {
	cmd := exec.Command("sleep", "5")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleep: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()

	c := ExecProcessController{}
	pids, err := c.Pids("sleep")
	if err != nil {
		t.Fatalf("pids: %v", err)
	}
	if !slices.Contains(pids, cmd.Process.Pid) {
		t.Fatalf("pid %d not found in %v", cmd.Process.Pid, pids)
	}
}

func TestPidsNoMatchIsEmptyNotError(t *testing.T) {
	c := ExecProcessController{}
	pids, err := c.Pids("halcheck-no-such-executable")
	if err != nil {
		t.Fatalf("pids: %v", err)
	}
	if len(pids) != 0 {
		t.Fatalf("unexpected pids %v", pids)
	}
}

func TestInterruptTerminatesProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	c := ExecProcessController{}
	if err := c.Interrupt("sleep"); err != nil {
		t.Fatalf("interrupt: %v", err)
	}
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("process survived interrupt")
	}
}

func TestInterruptMissingProcessIsNoop(t *testing.T) {
	c := ExecProcessController{}
	if err := c.Interrupt("halcheck-no-such-executable"); err != nil {
		t.Fatalf("interrupt: %v", err)
	}
}

func TestPidAlive(t *testing.T) {
	if !PidAlive(os.Getpid()) {
		t.Fatal("own pid must be alive")
	}
	if PidAlive(0) || PidAlive(-1) {
		t.Fatal("non-positive pids are never alive")
	}
}

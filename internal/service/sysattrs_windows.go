//go:build windows

package service

import "os/exec"

func setDetached(cmd *exec.Cmd) {}

func terminate(pid int) {}

//go:build !windows

package local

import (
	"os/exec"
	"syscall"
)

func setSysProcAttr(cmd *exec.Cmd, hideWindow bool) {}

// terminate sends SIGTERM for a graceful shutdown.
func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Signal(syscall.SIGTERM)
}

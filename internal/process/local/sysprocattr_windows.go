//go:build windows

package local

import (
	"os/exec"
	"syscall"
)

func setSysProcAttr(cmd *exec.Cmd, hideWindow bool) {
	if !hideWindow {
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
}

// terminate falls back to Kill, Windows has no SIGTERM equivalent.
func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

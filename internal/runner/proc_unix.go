//go:build !windows

package runner

import (
	"os/exec"
	"syscall"
)

// killProcessGroup starts c in a new process group and makes cancellation
// kill the whole group.
func killProcessGroup(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}
}

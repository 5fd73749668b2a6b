//go:build windows

package runner

import "os/exec"

// killProcessGroup leaves the default cancellation in place; WaitDelay still
// bounds the wait for orphaned children.
func killProcessGroup(c *exec.Cmd) {}

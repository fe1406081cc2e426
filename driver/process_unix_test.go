//go:build !windows

package driver

import "syscall"

// processExists checks the process table for pid.
func processExists(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}

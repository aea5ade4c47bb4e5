//go:build !windows

package runner

import (
	"os"
	"syscall"
)

// sendInterrupt re-raises SIGINT so signal.NotifyContext cancels the run.
func sendInterrupt() {
	_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
}

//go:build !windows

package process

import "syscall"

// KillTree kills a browser process and its children by signalling the
// process group. Non-positive PIDs are ignored: -0 would target our own group.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort, the launcher's own Kill is the fallback.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

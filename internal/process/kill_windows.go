//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillTree kills a browser process and its children with taskkill /T.
// Non-positive PIDs are ignored.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort, the launcher's own Kill is the fallback.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is an int
}

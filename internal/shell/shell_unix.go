//go:build !windows

package shell

import (
	"os"
	"syscall"
)

// terminate sends SIGTERM, giving the child a chance to exit cleanly before
// Kill escalates to SIGKILL.
func terminate(process *os.Process) {
	_ = process.Signal(syscall.SIGTERM)
}

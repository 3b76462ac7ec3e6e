//go:build windows

package shell

import "os"

// terminate requests graceful exit on Windows, where SIGTERM does not exist;
// Kill escalates to process.Kill() after the grace period if this has no effect.
func terminate(process *os.Process) {
	_ = process.Signal(os.Interrupt)
}

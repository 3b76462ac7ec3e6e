// Command fshctl is the remote administration client for fshd, talking to
// its admin HTTP API.
package main

import (
	"os"

	"github.com/NTD-LAB/FSH/cmd/fshctl/commands"
)

// version, commit, and date are set by the release build via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		commands.PrintErr("Error: %v", err)
		os.Exit(1)
	}
}

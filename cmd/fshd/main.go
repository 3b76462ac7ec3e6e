// Command fshd exposes a restricted filesystem subtree as an interactive
// sandboxed shell over TCP.
package main

import (
	"os"

	"github.com/NTD-LAB/FSH/cmd/fshd/commands"
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

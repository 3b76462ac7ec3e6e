// Package sessioncmd implements session management commands for fshctl.
package sessioncmd

import "github.com/spf13/cobra"

// Cmd is the parent command for session management.
var Cmd = &cobra.Command{
	Use:   "session",
	Short: "Session management",
	Long: `Inspect and manage active fshd sessions.

Examples:
  fshctl session list
  fshctl session get sess-42
  fshctl session evict sess-42`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(evictCmd)
}

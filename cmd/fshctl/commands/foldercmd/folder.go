// Package foldercmd implements folder inspection commands for fshctl.
package foldercmd

import "github.com/spf13/cobra"

// Cmd is the parent command for folder inspection.
var Cmd = &cobra.Command{
	Use:   "folder",
	Short: "Folder inspection",
	Long: `Inspect the folder roots fshd exposes over its sandboxed shell.

Examples:
  fshctl folder list
  fshctl folder get projects`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
}

// Package commands implements fshctl's CLI commands, grounded on the
// teacher's cmd/dfsctl/commands package.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/cmd/fshctl/cmdutil"
	"github.com/NTD-LAB/FSH/cmd/fshctl/commands/auditcmd"
	"github.com/NTD-LAB/FSH/cmd/fshctl/commands/foldercmd"
	"github.com/NTD-LAB/FSH/cmd/fshctl/commands/ratelimitcmd"
	"github.com/NTD-LAB/FSH/cmd/fshctl/commands/sessioncmd"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "fshctl",
	Short: "FSH Control - remote management client",
	Long: `fshctl is the command-line client for managing fshd servers remotely.

Use this tool to inspect sessions, folders, rate-limit state, and the audit
log through fshd's admin HTTP API.

Use "fshctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.Server, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command, for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "fshd admin API URL (overrides stored credential)")
	rootCmd.PersistentFlags().String("token", "", "bearer token (overrides stored credential)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sessioncmd.Cmd)
	rootCmd.AddCommand(foldercmd.Cmd)
	rootCmd.AddCommand(ratelimitcmd.Cmd)
	rootCmd.AddCommand(auditcmd.Cmd)
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}

// Package ratelimitcmd reports fshd's rate-limit and block-list state.
package ratelimitcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/cmd/fshctl/cmdutil"
	"github.com/NTD-LAB/FSH/internal/cli/output"
)

// Cmd is the parent command for rate-limit inspection.
var Cmd = &cobra.Command{
	Use:   "ratelimit",
	Short: "Rate limit inspection",
}

func init() {
	Cmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show rate limiter statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	stats, err := client.RateLimitStats()
	if err != nil {
		return fmt.Errorf("fetch rate limit stats: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, stats)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, stats)
	default:
		if !stats.Enabled {
			fmt.Println("Rate limiting is disabled.")
			return nil
		}
		return output.SimpleTable(os.Stdout, [][2]string{
			{"Suspicious clients", fmt.Sprintf("%d", stats.SuspiciousCount)},
			{"Blocked clients", fmt.Sprintf("%d", stats.BlockedCount)},
		})
	}
}

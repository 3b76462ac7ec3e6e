package sessioncmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/cmd/fshctl/cmdutil"
)

var evictCmd = &cobra.Command{
	Use:   "evict <session-id>",
	Short: "Forcibly close a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvict,
}

func runEvict(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if err := client.EvictSession(args[0]); err != nil {
		return fmt.Errorf("evict session %s: %w", args[0], err)
	}

	fmt.Printf("Session %s evicted.\n", args[0])
	return nil
}

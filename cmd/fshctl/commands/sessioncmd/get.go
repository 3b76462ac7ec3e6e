package sessioncmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/cmd/fshctl/cmdutil"
)

var getCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Show a single session",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	s, err := client.GetSession(args[0])
	if err != nil {
		return fmt.Errorf("get session %s: %w", args[0], err)
	}

	return cmdutil.PrintOutput(os.Stdout, s, false, "", SessionList{*s})
}

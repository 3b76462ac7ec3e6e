package foldercmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/cmd/fshctl/cmdutil"
)

var getCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Show a single folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	f, err := client.GetFolder(args[0])
	if err != nil {
		return fmt.Errorf("get folder %s: %w", args[0], err)
	}

	return cmdutil.PrintOutput(os.Stdout, f, false, "", FolderList{*f})
}

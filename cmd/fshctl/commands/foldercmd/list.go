package foldercmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/cmd/fshctl/cmdutil"
	"github.com/NTD-LAB/FSH/internal/fshclient/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured folders",
	RunE:  runList,
}

// FolderList is a list of folders for table rendering.
type FolderList []apiclient.Folder

func (l FolderList) Headers() []string {
	return []string{"NAME", "PATH", "PERMISSIONS"}
}

func (l FolderList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, f := range l {
		rows = append(rows, []string{f.Name, f.Path, strings.Join(f.Permissions, ",")})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	folders, err := client.ListFolders()
	if err != nil {
		return fmt.Errorf("list folders: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, folders, len(folders) == 0, "No folders configured.", FolderList(folders))
}

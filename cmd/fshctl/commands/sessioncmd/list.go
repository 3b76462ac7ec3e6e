package sessioncmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/cmd/fshctl/cmdutil"
	"github.com/NTD-LAB/FSH/internal/fshclient/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active sessions",
	RunE:  runList,
}

// SessionList is a list of sessions for table rendering.
type SessionList []apiclient.Session

// Headers implements output.TableRenderer.
func (l SessionList) Headers() []string {
	return []string{"ID", "STATE", "FOLDER", "REMOTE ADDR", "CREATED"}
}

// Rows implements output.TableRenderer.
func (l SessionList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, s := range l {
		rows = append(rows, []string{
			s.ID,
			s.State,
			cmdutil.EmptyOr(s.Folder, "-"),
			s.RemoteIP,
			s.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	sessions, err := client.ListSessions()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, sessions, len(sessions) == 0, "No active sessions.", SessionList(sessions))
}

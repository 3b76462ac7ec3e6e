// Package auditcmd reports fshd's audit log over the admin API.
package auditcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/cmd/fshctl/cmdutil"
	"github.com/NTD-LAB/FSH/internal/fshclient/apiclient"
)

// Cmd is the parent command for audit log inspection.
var Cmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log inspection",
}

var listLimit int

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 100, "maximum number of events to show")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent audit events",
	RunE:  runList,
}

// EventList is a list of audit events for table rendering.
type EventList []apiclient.AuditEvent

func (l EventList) Headers() []string {
	return []string{"TIME", "TYPE", "SESSION", "SOURCE IP", "RESOURCE", "DETAILS"}
}

func (l EventList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.EventType,
			e.SessionID,
			e.SourceIP,
			e.Resource,
			e.Details,
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	events, err := client.ListAuditEvents(listLimit)
	if err != nil {
		return fmt.Errorf("list audit events: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, events, len(events) == 0, "No audit events.", EventList(events))
}

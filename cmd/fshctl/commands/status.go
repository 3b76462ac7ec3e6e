package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/cmd/fshctl/cmdutil"
	"github.com/NTD-LAB/FSH/internal/cli/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show fshd server status",
	Long: `Display the status of the connected fshd server.

This command checks the server's liveness endpoint and displays uptime.

Examples:
  fshctl status
  fshctl status -o json`,
	RunE: runStatus,
}

// ServerStatus is fshd's status for display.
type ServerStatus struct {
	Server  string `json:"server" yaml:"server"`
	Status  string `json:"status" yaml:"status"`
	Healthy bool   `json:"healthy" yaml:"healthy"`
	Uptime  string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	status := ServerStatus{Server: cmdutil.Flags.Server, Status: "unreachable"}

	health, err := client.Liveness()
	if err != nil {
		status.Error = err.Error()
	} else {
		status.Status = health.Status
		status.Healthy = health.Status == "healthy"
		if uptime, ok := health.Data["uptime"].(string); ok {
			status.Uptime = uptime
		}
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}
	return nil
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	fmt.Println("fshd Server Status")
	fmt.Println("==================")
	fmt.Println()
	fmt.Printf("  Server:  %s\n", status.Server)

	switch {
	case status.Healthy:
		fmt.Printf("  Status:  \033[32m● %s\033[0m\n", status.Status)
	case status.Status == "unreachable":
		fmt.Printf("  Status:  \033[31m○ %s\033[0m\n", status.Status)
	default:
		fmt.Printf("  Status:  \033[33m● %s\033[0m\n", status.Status)
	}

	if status.Uptime != "" {
		fmt.Printf("  Uptime:  %s\n", status.Uptime)
	}
	if status.Error != "" {
		fmt.Printf("  Error:   %s\n", status.Error)
	}
	fmt.Println()
}

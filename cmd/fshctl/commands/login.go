package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/internal/cli/credentials"
	"github.com/NTD-LAB/FSH/internal/cli/prompt"
	"github.com/NTD-LAB/FSH/internal/fshclient/apiclient"
)

var (
	loginServerURL string
	loginToken     string
)

// loginCmd stores a server URL and bearer token. fshd's admin API
// authenticates with a single static token read from a file on the server
// (internal/adminapi's bearerTokenAuth), so there is no token-issuing
// endpoint to call here: login only verifies the pair reaches a live
// server and persists it.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store fshd admin API credentials",
	Long: `Store the server URL and bearer token fshctl uses for subsequent
commands.

Examples:
  # Interactive
  fshctl login

  # Non-interactive
  fshctl login --server http://fshd.internal:9090 --token $FSH_ADMIN_TOKEN`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServerURL, "server", "", "fshd admin API URL")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "bearer token")
}

func runLogin(cmd *cobra.Command, args []string) error {
	serverURL := loginServerURL
	if serverURL == "" {
		var err error
		serverURL, err = prompt.InputRequired("Server URL")
		if err != nil {
			return err
		}
	}

	token := loginToken
	if token == "" {
		var err error
		token, err = prompt.Password("Admin token")
		if err != nil {
			return err
		}
	}

	client := apiclient.New(serverURL).WithToken(token)
	if _, err := client.Readiness(); err != nil {
		return fmt.Errorf("could not reach %s: %w", serverURL, err)
	}

	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("load credential store: %w", err)
	}
	if err := store.SetContext("default", &credentials.Context{ServerURL: serverURL, Token: token}); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	fmt.Printf("Logged in to %s\n", serverURL)
	return nil
}

package cmdutil

import (
	"fmt"

	"github.com/NTD-LAB/FSH/internal/cli/credentials"
	"github.com/NTD-LAB/FSH/internal/cli/output"
	"github.com/NTD-LAB/FSH/internal/fshclient/apiclient"
)

// GetAuthenticatedClient builds an apiclient.Client from, in priority
// order, the --server/--token flags and then the stored context.
func GetAuthenticatedClient() (*apiclient.Client, error) {
	serverURL := Flags.Server
	token := Flags.Token

	if serverURL == "" || token == "" {
		store, err := credentials.NewStore()
		if err != nil {
			return nil, fmt.Errorf("load credential store: %w", err)
		}
		ctx, err := store.GetCurrentContext()
		if err != nil {
			return nil, fmt.Errorf("not logged in, run 'fshctl login' first")
		}
		if serverURL == "" {
			serverURL = ctx.ServerURL
		}
		if token == "" {
			token = ctx.Token
		}
	}

	if serverURL == "" {
		return nil, fmt.Errorf("no server configured, run 'fshctl login' or pass --server")
	}

	return apiclient.New(serverURL).WithToken(token), nil
}

// GetOutputFormatParsed resolves the --output flag into an output.Format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NTD-LAB/FSH/internal/cli/credentials"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored fshd admin API credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("load credential store: %w", err)
		}
		if err := store.ClearCurrentContext(); err != nil {
			if err == credentials.ErrNoCurrentContext {
				fmt.Println("Not logged in.")
				return nil
			}
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, sessions, err := openSessionStore()
			if err != nil {
				return err
			}
			defer db.Close()

			// Clearing an empty slot is fine, so logout is idempotent.
			if err := sessions.Clear(); err != nil {
				return err
			}

			fmt.Println("Logged out.")
			return nil
		},
	}
}

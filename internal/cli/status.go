package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buildmart/haggle/internal/config"
	"github.com/buildmart/haggle/internal/version"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show Haggle status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Haggle %s (commit %s)\n\n", version.Version, version.Commit)

			// Paths
			fmt.Printf("Config:  %s\n", paths.Config)
			fmt.Printf("Data:    %s\n", paths.Data)
			fmt.Printf("Logs:    %s\n", paths.Logs)
			fmt.Println()

			// Backend
			fmt.Printf("Backend: %s (timeout %ds)\n", cfg.Backend.BaseURL, cfg.Backend.TimeoutSeconds)
			if cfg.Logging.File != "" {
				fmt.Printf("LogFile: %s\n", cfg.Logging.File)
			}

			// Session presence; the token itself stays private.
			db, sessions, err := openSessionStore()
			if err != nil {
				return err
			}
			defer db.Close()

			sess, err := sessions.Load()
			if err != nil {
				return err
			}
			if sess != nil {
				fmt.Printf("Session: logged in as %s\n", sess.BuilderName)
			} else {
				fmt.Println("Session: not logged in")
			}

			// Validation
			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				fmt.Printf("\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
				}
			}

			return nil
		},
	}
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/buildmart/haggle/internal/api"
)

func newLoginCmd() *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the backend and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				email = os.Getenv("HAGGLE_EMAIL")
			}
			if password == "" {
				password = os.Getenv("HAGGLE_PASSWORD")
			}

			if email == "" {
				fmt.Print("Email: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return err
				}
				email = strings.TrimSpace(line)
			}
			if password == "" {
				fmt.Print("Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Println()
				if err != nil {
					return err
				}
				password = string(raw)
			}
			if email == "" || password == "" {
				return fmt.Errorf("email and password are required")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sess, err := newBackendClient(log).Login(ctx, email, password)
			if err != nil {
				// Backend rejections carry their message; transport failures
				// get the generic line, with the cause in the log.
				var apiErr *api.APIError
				if errors.As(err, &apiErr) {
					return err
				}
				log.Warn().Err(err).Msg("login transport failure")
				return fmt.Errorf("network error, please try again")
			}

			db, sessions, err := openSessionStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := sessions.Save(*sess); err != nil {
				return err
			}

			fmt.Printf("Logged in as %s\n", sess.BuilderName)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (or HAGGLE_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "account password (or HAGGLE_PASSWORD)")

	return cmd
}

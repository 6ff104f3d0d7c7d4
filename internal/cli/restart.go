package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/buildmart/haggle/internal/chat"
)

func newRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Discard the current negotiation and start a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, sessions, err := openSessionStore()
			if err != nil {
				return err
			}
			defer db.Close()

			sess, err := requireSession(sessions)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctrl := chat.New(newBackendClient(log), *sess, log)
			fn := ctrl.Restart()
			ctrl.ApplyInit(fn(ctx))
			if msg := ctrl.ErrMessage(); msg != "" {
				return fmt.Errorf("%s", msg)
			}

			fmt.Printf("Started a new negotiation (%d turns on record).\n", len(ctrl.Transcript()))
			return nil
		},
	}
}

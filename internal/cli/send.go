package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/buildmart/haggle/internal/chat"
	"github.com/buildmart/haggle/internal/domain"
)

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send [message]",
		Short: "Send one negotiation message and print the reply",
		Long:  "Send a single message without opening the chat UI and print the engine's reply. Useful for scripting.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("message is empty")
			}

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

			initFn := ctrl.Init()
			ctrl.ApplyInit(initFn(ctx))
			if msg := ctrl.ErrMessage(); msg != "" {
				return fmt.Errorf("%s", msg)
			}

			sendFn := ctrl.Send(message)
			if sendFn == nil {
				return fmt.Errorf("negotiation has ended (run `haggle restart` to begin a new one)")
			}
			ctrl.ApplySend(sendFn(ctx))
			if msg := ctrl.ErrMessage(); msg != "" {
				return fmt.Errorf("%s", msg)
			}

			turns := ctrl.Transcript()
			for i := len(turns) - 1; i >= 0; i-- {
				if turns[i].Role == domain.RoleAssistant {
					fmt.Println(turns[i].Content)
					break
				}
			}
			if ctrl.Ended() {
				fmt.Fprintln(cmd.ErrOrStderr(), "[negotiation closed]")
			}
			return nil
		},
	}
}

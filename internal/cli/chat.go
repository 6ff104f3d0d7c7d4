package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/buildmart/haggle/internal/chat"
	"github.com/buildmart/haggle/internal/logging"
	"github.com/buildmart/haggle/internal/tui"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the negotiation chat UI",
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

			// Without a file sink, log lines would land on the alternate
			// screen and corrupt it.
			uiLog := log
			if cfg.Logging.File == "" {
				uiLog = logging.New(nil, "silent")
			}

			ctrl := chat.New(newBackendClient(uiLog), *sess, uiLog)
			model := tui.New(ctrl, sessions, cfg.UI.Accent, uiLog)

			final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
			if err != nil {
				return err
			}

			if m, ok := final.(tui.Model); ok && m.LoggedOut() {
				fmt.Println("Logged out.")
			}
			return nil
		},
	}
}

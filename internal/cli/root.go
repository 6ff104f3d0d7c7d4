package cli

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/buildmart/haggle/internal/api"
	"github.com/buildmart/haggle/internal/config"
	"github.com/buildmart/haggle/internal/domain"
	"github.com/buildmart/haggle/internal/logging"
	"github.com/buildmart/haggle/internal/store"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "haggle",
		Short: "Haggle is a terminal client for negotiating construction material prices",
		Long:  "Haggle talks to the BuildMart negotiation backend: log in once, then haggle over material prices in a chat UI and close deals from your terminal.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load() // a missing .env is fine

			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}

			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			if level == "" {
				level = "info"
			}

			if cfg.Logging.File != "" {
				f, ferr := logging.OpenFile(cfg.Logging.File)
				if ferr != nil {
					return fmt.Errorf("opening log file: %w", ferr)
				}
				log = logging.New(f, level)
			} else {
				log = logging.New(nil, level)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.haggle/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newSendCmd())
	cmd.AddCommand(newRestartCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStubCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

// newBackendClient builds the HTTP client from the loaded config.
func newBackendClient(l *logging.Logger) *api.Client {
	timeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	return api.New(cfg.Backend.BaseURL, timeout, l)
}

// openSessionStore opens the SQLite session store under the data directory.
// The caller closes the returned DB.
func openSessionStore() (*store.DB, store.SessionStore, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	db, err := store.Open(paths.DB, log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening session store: %w", err)
	}
	return db, store.NewSQLiteSessionStore(db), nil
}

// requireSession loads the active session or fails with a login hint.
func requireSession(sessions store.SessionStore) (*domain.Session, error) {
	sess, err := sessions.Load()
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("not logged in (run `haggle login` first)")
	}
	return sess, nil
}

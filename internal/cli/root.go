package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/lborres/abaccess/client"
	"github.com/lborres/abaccess/config"
	"github.com/lborres/abaccess/core"
	"github.com/lborres/abaccess/guard"
)

type options struct {
	configPath string
	serverURL  string
	stateDir   string
	output     string
	verbose    bool
}

// env is shared by every subcommand once the root pre-run has loaded config.
type env struct {
	opts   options
	cfg    *config.Config
	logger *slog.Logger
	prompt *prompter
	clock  core.Clock
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(core.SystemClock{})
}

func newRootCmd(clock core.Clock) *cobra.Command {
	e := &env{clock: clock}

	rootCmd := &cobra.Command{
		Use:   "abaccess",
		Short: "Phone and PIN authentication for member apps",
		Long: `abaccess serves the phone and PIN auth API and drives it from the terminal.

Run "abaccess serve" to start the server, then "abaccess register" or
"abaccess signin" to authenticate. The session is kept in the state
directory until you sign out or it expires.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(e.opts.configPath)
			if err != nil {
				return err
			}
			e.cfg = cfg

			level := slog.LevelWarn
			if e.opts.verbose {
				level = slog.LevelDebug
			}
			e.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			e.prompt = newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&e.opts.configPath, "config", "", "Config file (default: ./abaccess.yaml)")
	rootCmd.PersistentFlags().StringVar(&e.opts.serverURL, "server", "", "Auth API base URL (env: ABACCESS_CLIENT_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&e.opts.stateDir, "state-dir", "", "Directory for the saved session (env: ABACCESS_CLIENT_STATE_DIR)")
	rootCmd.PersistentFlags().StringVarP(&e.opts.output, "output", "o", "text", "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&e.opts.verbose, "verbose", "v", false, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newServeCmd(e))
	rootCmd.AddCommand(newSignInCmd(e))
	rootCmd.AddCommand(newRegisterCmd(e))
	rootCmd.AddCommand(newSignOutCmd(e))
	rootCmd.AddCommand(newStatusCmd(e))
	rootCmd.AddCommand(newRouteCmd(e))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func (e *env) baseURL() string {
	if e.opts.serverURL != "" {
		return e.opts.serverURL
	}
	return e.cfg.Client.BaseURL
}

func (e *env) stateDir() string {
	if e.opts.stateDir != "" {
		return e.opts.stateDir
	}
	if e.cfg.Client.StateDir != "" {
		return e.cfg.Client.StateDir
	}
	return client.DefaultStateDir()
}

func (e *env) authenticator() *client.HTTPAuthenticator {
	return client.NewHTTPAuthenticator(e.baseURL(), &http.Client{Timeout: e.cfg.Client.Timeout})
}

// flow restores the saved session and returns a flow over the HTTP API.
func (e *env) flow() (*client.Flow, *client.HTTPAuthenticator) {
	store := client.NewStore(client.NewFileStorage(e.stateDir()), e.logger)
	if err := store.Hydrate(); err != nil {
		e.logger.Warn("could not restore saved session", slog.String("error", err.Error()))
	}
	auth := e.authenticator()
	return client.NewFlow(auth, store, e.logger), auth
}

// guard judges the saved session with the default route rules.
func (e *env) guard() *guard.Guard {
	return guard.New(guard.DefaultRules(), e.clock)
}

func (e *env) output(cmd *cobra.Command) *output {
	return newOutput(cmd.OutOrStdout(), e.opts.output)
}

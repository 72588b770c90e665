package cli

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newServeCmd(e *env) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the auth API and route guard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				e.cfg.Server.Port = port
			}

			logger := e.cfg.Logging.NewLogger(os.Stdout)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := newServer(ctx, e.cfg, logger)
			if err != nil {
				return err
			}
			defer srv.close()

			ln, err := net.Listen("tcp", srv.addr)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", srv.addr, err)
			}

			return srv.serve(ctx, ln, e.cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides server.port)")

	return cmd
}

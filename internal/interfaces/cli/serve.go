package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/russellmiller49/ip-assist-lite/internal/bootstrap"
	"github.com/russellmiller49/ip-assist-lite/internal/infrastructure/monitoring/logging"
	httpserver "github.com/russellmiller49/ip-assist-lite/internal/interfaces/http"
)

var serveHTTPPort int

const serveShutdownTimeout = 30 * time.Second

// NewServeCmd creates the serve command, which builds the full application
// dependency graph in-process and runs the HTTP server until interrupted.
func NewServeCmd(logger logging.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ip-assist-lite HTTP server",
		Long:  "Build the query/coding dependency graph from configuration and serve HTTP requests until interrupted.",
		RunE:  runServe,
	}

	cmd.Flags().IntVar(&serveHTTPPort, "http-port", 0, "HTTP server port (overrides config)")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	port := cliCtx.Config.Server.Port
	if serveHTTPPort > 0 {
		port = serveHTTPPort
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	deps, err := bootstrap.Build(ctx, cliCtx.Config, cliCtx.Logger)
	if err != nil {
		return err
	}

	router := httpserver.NewRouter(deps.Router)
	httpSrv := httpserver.NewServer(port, router)

	go func() {
		cliCtx.Logger.Info("HTTP server listening", logging.Int("port", port))
		if err := httpSrv.Start(); err != nil {
			cliCtx.Logger.Error("HTTP server stopped", logging.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cliCtx.Logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Stop(shutdownCtx); err != nil {
		cliCtx.Logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	return deps.Close(shutdownCtx)
}

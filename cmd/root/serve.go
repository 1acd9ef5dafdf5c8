package root

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/docker/agent-skills/internal/appctx"
	"github.com/docker/agent-skills/pkg/toolserver"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the skill index and serve it over MCP and HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}
	return cmd
}

func runServe(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	app, err := appctx.New(cfg)
	if err != nil {
		return fmt.Errorf("wiring service: %w", err)
	}

	ctx := cmd.Context()

	app.Start(ctx)
	defer app.Stop()

	server := toolserver.New(app.Index, app.State)
	httpServer := toolserver.NewHTTPServer(app.Coordinator, app.State, app.StagingRoot)

	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("binding %s: %w", cfg.ListenAddress, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.MCPHandler())
	mux.Handle("/skills/upload", httpServer.Handler())
	mux.Handle("/health", httpServer.Handler())

	srv := &http.Server{Handler: mux}

	errCh := make(chan error, 2)
	go func() {
		slog.Info("serving MCP and HTTP", "address", cfg.ListenAddress)
		errCh <- srv.Serve(ln)
	}()
	go func() {
		slog.Info("serving MCP on stdio")
		errCh <- server.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

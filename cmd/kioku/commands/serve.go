package commands

import (
	"context"
	"errors"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/mcp"
	"github.com/hyperjump/kioku/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on server.host:server.port. When watch.directories is
set, those directories are also watched and new files are imported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := opts.open(ctx, true)
			if err != nil {
				return err
			}
			defer c.Close()
			logger := c.Logger
			logger.Info("config loaded", zap.String("config_path", opts.resolvedPath), zap.Bool("debug", opts.cfg.Debug))

			if dirs := opts.cfg.Watch.Directories; len(dirs) > 0 && !noWatch {
				// Deferred after c.Close, so it runs first: imports finish before the store closes.
				defer startWatcher(ctx, c, dirs)()
			}

			srv := server.NewServer(c.Engine, opts.cfg, logger)
			serverErr := make(chan error, 1)
			go func() {
				serverErr <- srv.Start()
			}()

			select {
			case err := <-serverErr:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not watch watch.directories")
	return cmd
}

// startWatcher runs a watcher for dirs in the background. The returned stop cancels
// it and waits until in-flight imports have finished.
func startWatcher(ctx context.Context, c *Components, dirs []string) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w := newWatcher(c, dirs)
	go func() {
		defer close(done)
		if err := w.Run(ctx); err != nil {
			c.Logger.Error("watcher stopped", zap.Error(err))
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server on stdio",
		Long: `Run Kioku as a Model Context Protocol server over stdio so agents can add,
list, delete, search, and ask about notes.`,
		Example: `  # claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "kioku": {"command": "kioku", "args": ["mcp"]}
  #   }
  # }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Close()

			s := mcp.NewServer(c.Engine, c.Logger)
			serverErr := make(chan error, 1)
			go func() {
				serverErr <- mcpserver.ServeStdio(s)
			}()
			select {
			case err := <-serverErr:
				return err
			case <-cmd.Context().Done():
				c.Logger.Info("Shutdown signal received")
				return nil
			}
		},
	}
}

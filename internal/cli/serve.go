package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/dynfilter/internal/api"
	"github.com/roach88/dynfilter/internal/cache"
	"github.com/roach88/dynfilter/internal/config"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	ConfigPath string
	Addr       string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the product filter HTTP API",
		Long: `Start the HTTP API described by a YAML configuration file (logger,
server, storage and cache sections). Without --config the defaults are used: a
SQLite database at ./dynfilter.db served on localhost:8000.

The server stops gracefully on SIGINT or SIGTERM.

Example:
  dynfilter serve --config dynfilter.yaml
  dynfilter serve --addr :9000`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML configuration")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return formatter.commandError(ErrCodeConfig, "invalid configuration", err)
		}
		cfg = loaded
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	if opts.Verbose {
		cfg.Logger.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return formatter.commandError(ErrCodeConfig, "invalid configuration", err)
	}

	logger, err := cfg.Logger.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return formatter.commandError(ErrCodeConfig, "invalid logger configuration", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("opening products", "source", describeSource(cfg.Storage))
	open := openProducts
	if cfg.Storage.Watch {
		open = func(ctx context.Context, sc config.StorageConfig, clock Clock) (api.Products, func() error, error) {
			return openWatchedProducts(ctx, logger, sc, clock)
		}
	}
	products, closeFn, err := open(ctx, cfg.Storage, nil)
	if err != nil {
		return formatter.commandError(ErrCodeStorage, "failed to open products", err)
	}
	defer func() {
		if closeErr := closeFn(); closeErr != nil {
			logger.Error("error closing products", "error", closeErr)
		}
	}()

	server, err := api.NewServer(cfg.Server, logger, products)
	if err != nil {
		return formatter.commandError(ErrCodeConfig, "invalid server configuration", err)
	}

	if cfg.Cache.Enabled() {
		rc, err := cache.NewRedis(cfg.Cache)
		if err != nil {
			return formatter.commandError(ErrCodeConfig, "invalid cache configuration", err)
		}
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			// Lookups fall through to the product source while Redis is down.
			logger.Warn("result cache unreachable", "url", cfg.Cache.URL, "error", err)
		}
		server.UseCache(rc)
	}

	if err := server.Serve(ctx); err != nil {
		logger.Error("server error", "error", err)
		return WrapExitError(ExitCommandError, "server error", err)
	}

	logger.Info("server stopped")
	return nil
}

package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/storegate/internal/config"
	"github.com/meridian-labs/storegate/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway server",
		Long: `Start the storegate HTTP server: the access-policy middleware and the
preview, payment, orders, exchange-rate and auth API endpoints.`,
		Example: `  # Serve with config from env / storegate.yaml
  storegate serve

  # Serve on a custom port
  storegate serve --port 9000`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger := buildLogger(cfg)

			handler, err := server.Build(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg.Port, handler, logger).Serve(ctx)
		},
	}

	cmd.Flags().Int("port", 0, fmt.Sprintf("Port to serve on (default: %d)", config.DefaultPort))
	cmd.Flags().String("environment", "", "Environment (development|production)")
	cmd.Flags().String("log-level", "", "Log level (debug|info|warn|error)")
	cmd.Flags().String("log-format", "", "Log format (text|json)")

	return cmd
}

// buildLogger constructs the process logger from resolved config.
func buildLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

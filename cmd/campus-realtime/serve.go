package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/campus-realtime/internal/app"
	"github.com/vovakirdan/campus-realtime/internal/config"
	"github.com/vovakirdan/campus-realtime/internal/log"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		configPath string
		override   config.Config
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hub: WebSocket, REST API and optional NATS ingress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLog := log.New("info", root.logFormat)
			cfg, path, err := config.Load(bootLog, configPath)
			if err != nil {
				return err
			}
			override.LogLevel = root.logLevel
			override.LogFormat = root.logFormat
			cfg.UpdateFrom(override)

			logger := log.New(cfg.LogLevel, cfg.LogFormat)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting campus-realtime")

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, &cfg, logger)
			if err != nil {
				return err
			}
			if err := application.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("server exited with error")
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to config.yaml (written with defaults if missing)")
	cmd.Flags().StringVar(&override.Addr, "addr", "", "HTTP listen address")
	cmd.Flags().DurationVar(&override.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	cmd.Flags().DurationVar(&override.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	cmd.Flags().StringVar(&override.NATSURL, "nats-url", "", "NATS server URL; enables the NATS ingress")
	cmd.Flags().StringVar(&override.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint for traces and metrics")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/container"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
		if err != nil {
			return fmt.Errorf("failed to create container: %w", err)
		}
		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("failed to start container: %w", err)
		}

		logger.Info("Purchase report service starting",
			zap.String("address", c.Server().Address()),
			zap.String("cache", cfg.Cache.Driver),
			zap.Bool("lark", cfg.Lark.Enabled))

		serveErr := c.Server().Start(ctx)
		if serveErr != nil {
			logger.Error("Server stopped with error", zap.Error(serveErr))
		}

		if err := c.Close(); err != nil {
			logger.Error("Shutdown finished with errors", zap.Error(err))
		}
		logger.Info("Server exited")
		return serveErr
	},
}

// Command server runs the purchase report service and its admin tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zosarillana/prs-be/internal/config"
	"github.com/zosarillana/prs-be/pkg/utils"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "prs",
	Short: "Purchase report approval service",
	Long: `prs serves the purchase report REST and websocket API.
Reports move through item review, purchase order assignment and delivery,
with notifications fanned out to the affected roles and departments.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to the YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, userCmd, departmentCmd, tagCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the process logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

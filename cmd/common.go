package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lineasoftware/boredom/config"
	"github.com/lineasoftware/boredom/internal/logging"
)

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.DefaultConfigFile
	}
	return path
}

func loadProjectConfig(cmd *cobra.Command) (*config.ProjectConfig, error) {
	cm := config.NewConfigManager(config.ConfigLoadOptions{
		Path:              configPath(cmd),
		AllowMissing:      false,
		ValidateStructure: true,
		ApplyDefaults:     true,
		LoadEnv:           true,
		Quiet:             true,
	})

	cfg, err := cm.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logging.New(cmd.ErrOrStderr(), logging.Options{Debug: debug})
}

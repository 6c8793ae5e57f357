package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lineasoftware/boredom/internal/build"
	"github.com/lineasoftware/boredom/internal/dev"
)

func DevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start development mode",
		Long:  "Build, watch the scripts for changes, rebuild and serve the output for Tampermonkey",
		Args:  cobra.NoArgs,
		RunE:  runDev,
	}

	cmd.Flags().Int("port", 0, "Dev server port (default from dev.port)")
	cmd.Flags().String("adapter", build.DefaultAdapter, "Output adapter")
	cmd.Flags().Bool("debug", false, "Enable debug logging")

	return cmd
}

func runDev(cmd *cobra.Command, args []string) error {
	port, _ := cmd.Flags().GetInt("port")
	adapter, _ := cmd.Flags().GetString("adapter")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := dev.NewDevOrchestrator(cfg, newLogger(cmd), dev.Options{
		Adapter: adapter,
		Port:    port,
		Debug:   debug,
	})
	return orchestrator.Start(ctx)
}

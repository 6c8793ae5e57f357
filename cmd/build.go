package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lineasoftware/boredom/internal/build"
)

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the userscript",
		Long:  "Analyze every script under the scripts root and bundle them with the client runtime",
		Args:  cobra.NoArgs,
		RunE:  runBuild,
	}

	cmd.Flags().String("adapter", build.DefaultAdapter, "Output adapter ("+strings.Join(build.Adapters(), ", ")+")")
	cmd.Flags().Bool("debug", false, "Enable debug logging")
	cmd.Flags().Bool("clean", false, "Remove build artifacts before building")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	adapter, _ := cmd.Flags().GetString("adapter")
	clean, _ := cmd.Flags().GetBool("clean")

	cfg, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	orchestrator := build.NewOrchestrator(cfg, newLogger(cmd))
	result, err := orchestrator.Build(cmd.Context(), build.Options{Adapter: adapter, Clean: clean})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "🎉 Build successful!")
	for _, out := range result.Outputs {
		fmt.Fprintf(cmd.OutOrStdout(), "   📄 %s\n", out)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lineasoftware/boredom/cmd"
	"github.com/lineasoftware/boredom/config"
)

var version = "0.3.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "boredom",
		Short:         "Boredom Engine - userscript bundler",
		Long:          `Boredom Engine bundles per-site browser scripts into a single Tampermonkey userscript with an in-page settings menu.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("🧩 Boredom Engine v" + version)
			fmt.Println("Run 'boredom --help' for available commands")
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigFile, "Path to the project configuration")

	rootCmd.AddCommand(cmd.BuildCmd())
	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.ListCmd())
	rootCmd.AddCommand(cmd.NewCmd())
	rootCmd.AddCommand(cmd.ConfigCmd())
	rootCmd.AddCommand(cmd.SimulateCmd())
	rootCmd.AddCommand(cmd.OpenAPICmd(version))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

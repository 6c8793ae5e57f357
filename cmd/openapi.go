package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lineasoftware/boredom/internal/devserver"
	"github.com/lineasoftware/boredom/openapi"
)

func OpenAPICmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate OpenAPI specification",
		Long:  "Generate the OpenAPI description of the dev server API without starting it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputPath, _ := cmd.Flags().GetString("output")
			formatName, _ := cmd.Flags().GetString("format")

			format, err := openapi.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if outputPath != "" && !cmd.Flags().Changed("format") {
				format = openapi.FormatForPath(outputPath)
			}

			api := devserver.NewAPI("Boredom Engine", version)

			if outputPath != "" {
				if err := openapi.WriteFile(api, outputPath, format); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ OpenAPI spec saved to %s\n", outputPath)
				fmt.Fprintf(cmd.OutOrStdout(), "🛣️  Found %d API routes\n", len(openapi.Operations(api)))
				return nil
			}

			spec, err := openapi.Marshal(api, format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(spec)
			return err
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file path (prints to stdout if not specified)")
	cmd.Flags().StringP("format", "f", "json", "Output format (json or yaml)")

	return cmd
}

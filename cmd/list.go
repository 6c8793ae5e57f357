package cmd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lineasoftware/boredom/internal/build"
	"github.com/lineasoftware/boredom/internal/logging"
	"github.com/lineasoftware/boredom/internal/scripts/types"
)

func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered scripts",
		Long:  "Analyze the scripts root and print every script with its metadata and host",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	cmd.Flags().String("host", "", "Show which scripts run on this host")

	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")

	cfg, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	analysis, err := build.NewOrchestrator(cfg, logging.Discard()).Analyze()
	if err != nil {
		return err
	}

	return writeScriptTable(cmd.OutOrStdout(), analysis, host)
}

// writeScriptTable renders the analysis. With a host, a Runs column tells
// whether each script executes there by default.
func writeScriptTable(w io.Writer, analysis *types.Analysis, host string) error {
	header := []string{"ID", "Name", "Version", "Type", "Host"}
	align := []int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT}
	if host != "" {
		header = append(header, "Runs")
		align = append(align, tablewriter.ALIGN_CENTER)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment(align)

	for _, s := range analysis.Scripts {
		row := []string{s.ID, s.Metadata.Name, s.Metadata.Version, string(s.Type), s.Match.Host}
		if s.Type == types.ScriptTypeGeneric {
			row[4] = "*"
		}
		if host != "" {
			row = append(row, runs(s, host))
		}
		table.Append(row)
	}

	site, generic := analysis.Counts()
	footer := []string{fmt.Sprintf("%d scripts", len(analysis.Scripts)), "", "", fmt.Sprintf("%d site, %d generic", site, generic), ""}
	if host != "" {
		footer = append(footer, "")
	}
	table.SetFooter(footer)

	table.Render()
	_, err := fmt.Fprintf(w, "\n%s", buf.String())
	return err
}

func runs(s types.Script, host string) string {
	switch {
	case s.Type == types.ScriptTypeGeneric:
		return "opt-in"
	case s.Match.Matches(host):
		return "yes"
	default:
		return "no"
	}
}

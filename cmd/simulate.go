package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lineasoftware/boredom/internal/client"
	"github.com/lineasoftware/boredom/internal/sandbox"
)

func SimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the built userscript for a host",
		Long:  "Load the built userscript in an embedded browser environment and report which scripts ran",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}

	cmd.Flags().String("host", "", "Page host, e.g. www.reddit.com")
	cmd.Flags().StringSlice("enable", nil, "Script ids to switch on")
	cmd.Flags().StringSlice("disable", nil, "Script ids to switch off")
	cmd.Flags().String("bundle", "", "Userscript to run (default: the build output)")
	cmd.Flags().Duration("settle", 200*time.Millisecond, "How long to let timers run after load")
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	cmd.Flags().Bool("debug", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	enable, _ := cmd.Flags().GetStringSlice("enable")
	disable, _ := cmd.Flags().GetStringSlice("disable")
	bundlePath, _ := cmd.Flags().GetString("bundle")
	settle, _ := cmd.Flags().GetDuration("settle")
	asJSON, _ := cmd.Flags().GetBool("json")

	if bundlePath == "" {
		cfg, err := loadProjectConfig(cmd)
		if err != nil {
			return err
		}
		bundlePath = cfg.UserScriptPath()
	}

	bundle, err := os.ReadFile(bundlePath)
	if err != nil {
		return fmt.Errorf("failed to read userscript: %w (run 'boredom build' first)", err)
	}

	storage, err := enablementStorage(enable, disable)
	if err != nil {
		return err
	}

	report, err := sandbox.Simulate(cmd.Context(), string(bundle), sandbox.Options{
		Host:    host,
		Storage: storage,
		Logger:  newLogger(cmd),
	}, settle)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(cmd.OutOrStdout(), report)

	if len(report.Failed) > 0 {
		return fmt.Errorf("%d script(s) failed", len(report.Failed))
	}
	return nil
}

// enablementStorage seeds localStorage with explicit overrides
func enablementStorage(enable, disable []string) (map[string]string, error) {
	if len(enable) == 0 && len(disable) == 0 {
		return nil, nil
	}

	enabled := make(map[string]bool, len(enable)+len(disable))
	for _, id := range enable {
		enabled[id] = true
	}
	for _, id := range disable {
		if enabled[id] {
			return nil, fmt.Errorf("script %s is both enabled and disabled", id)
		}
		enabled[id] = false
	}

	data, err := json.Marshal(enabled)
	if err != nil {
		return nil, err
	}
	return map[string]string{client.StorageKey: string(data)}, nil
}

func printReport(w io.Writer, r *sandbox.Report) {
	fmt.Fprintf(w, "🌐 %s\n", r.Host)
	fmt.Fprintf(w, "   ✅ Executed: %s\n", listOrNone(r.Executed))
	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "   ❌ Failed: %s\n", strings.Join(r.Failed, ", "))
	}

	menu := r.MenuState
	if r.MenuTab != "" {
		menu += " (" + r.MenuTab + " tab)"
	}
	fmt.Fprintf(w, "   🎛️  Menu: %s\n", menu)

	for _, l := range r.Logs {
		fmt.Fprintf(w, "   [%s] %s\n", l.Level, l.Message)
	}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lineasoftware/boredom/config"
	"github.com/lineasoftware/boredom/internal/templates"
)

func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage project configuration",
		Long:  "Validate, view, and create the boredom.yaml project configuration",
	}

	cmd.AddCommand(configValidateCmd())
	cmd.AddCommand(configShowCmd())
	cmd.AddCommand(configInitCmd())

	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate configuration file",
		Long:  "Validate the syntax and structure of a boredom configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigValidate,
	}

	cmd.Flags().Bool("strict", false, "Fail on potential issues, not only errors")

	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [config-file]",
		Short: "Show configuration information",
		Long:  "Display a summary of the configuration with defaults and environment overrides applied",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigShow,
	}

	cmd.Flags().Bool("verbose", false, "Print the full resolved configuration")

	return cmd
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new project",
		Long:  "Create a boredom.yaml with default values and scaffold the project layout",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}

	cmd.Flags().Bool("force", false, "Overwrite existing files")
	cmd.Flags().String("name", "", "Project name (default: current directory name)")
	cmd.Flags().Bool("scaffold", true, "Create tsconfig.json, shared helpers and type declarations")

	return cmd
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := getConfigPath(cmd, args)
	strict, _ := cmd.Flags().GetBool("strict")
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "🔍 Validating configuration file: %s\n", path)

	cm := config.NewConfigManager(config.ConfigLoadOptions{
		Path:              path,
		AllowMissing:      false,
		ValidateStructure: true,
		ApplyDefaults:     true,
		LoadEnv:           true,
		Quiet:             true,
	})
	cfg, err := cm.LoadConfigFromPath(path)
	if err != nil {
		fmt.Fprintf(out, "❌ Configuration validation failed:\n%v\n", err)
		return err
	}

	fmt.Fprintf(out, "✅ Configuration is valid!\n")

	if info, err := config.GetConfigInfo(path); err == nil {
		fmt.Fprintf(out, "\n%s\n", info.String())
	}

	issues := checkConfigIssues(cfg)
	if len(issues) > 0 {
		fmt.Fprintf(out, "\n⚠️  Potential issues found:\n")
		for i, issue := range issues {
			fmt.Fprintf(out, "  %d. %s\n", i+1, issue)
		}
		if strict {
			return fmt.Errorf("strict validation failed due to %d issue(s)", len(issues))
		}
	}

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path := getConfigPath(cmd, args)
	verbose, _ := cmd.Flags().GetBool("verbose")
	out := cmd.OutOrStdout()

	info, err := config.GetConfigInfo(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	fmt.Fprintf(out, "%s\n", info.String())

	if verbose {
		fmt.Fprintf(out, "\n📝 Detailed Configuration:\n")

		cfg, err := config.NewConfigManager(config.DefaultLoadOptions()).LoadConfigFromPath(path)
		if err != nil {
			return fmt.Errorf("failed to load full configuration: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal configuration: %w", err)
		}
		fmt.Fprintf(out, "```yaml\n%s```\n", string(data))
	}

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	projectName, _ := cmd.Flags().GetString("name")
	scaffold, _ := cmd.Flags().GetBool("scaffold")
	out := cmd.OutOrStdout()

	path := configPath(cmd)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s\nUse --force to overwrite", path)
		}
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("failed to resolve project directory: %w", err)
	}
	if projectName == "" {
		projectName = filepath.Base(dir)
	}

	cfg := config.DefaultConfig(projectName)
	if err := config.WriteConfig(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Created configuration file: %s\n", path)
	fmt.Fprintf(out, "   Project: %s\n", cfg.Name)

	if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(cfg.Scripts.Root), "generic"), 0755); err != nil {
		return fmt.Errorf("failed to create scripts root: %w", err)
	}

	if scaffold {
		written, err := templates.GenerateProject(dir, templates.ProjectData{
			ProjectName: cfg.Name,
			CommonDir:   cfg.Scripts.Aliases["$common"],
			SitesDir:    cfg.Scripts.Aliases["$sites"],
			OutputDir:   cfg.Build.OutputDir,
			ScratchDir:  cfg.Build.ScratchDir,
		}, force)
		if err != nil {
			return err
		}
		for _, f := range written {
			fmt.Fprintf(out, "   📄 %s\n", f)
		}
	}

	fmt.Fprintf(out, "\nNext steps:\n")
	fmt.Fprintf(out, "  boredom new\n")
	fmt.Fprintf(out, "  boredom dev\n\n")
	return nil
}

func getConfigPath(cmd *cobra.Command, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return configPath(cmd)
}

func checkConfigIssues(cfg *config.ProjectConfig) []string {
	var issues []string

	if len(cfg.Tampermonkey.Match) == 1 && cfg.Tampermonkey.Match[0] == "*://*/*" {
		issues = append(issues, "The userscript matches every page; generic scripts need this, site-only projects can narrow tampermonkey.match")
	}

	if cfg.Tampermonkey.UpdateURL == "" {
		issues = append(issues, "tampermonkey.update_url is not set - installed copies will not auto-update")
	}

	if cfg.Author == "" {
		issues = append(issues, "author is not set - the @author header line is omitted")
	}

	if _, err := os.Stat(cfg.ScriptsRoot()); err != nil {
		issues = append(issues, fmt.Sprintf("Scripts root %s does not exist", cfg.ScriptsRoot()))
	}

	return issues
}

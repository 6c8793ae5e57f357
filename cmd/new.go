package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/lineasoftware/boredom/internal/scripts/analyzer"
	"github.com/lineasoftware/boredom/internal/scripts/types"
	"github.com/lineasoftware/boredom/internal/templates"
)

const (
	kindSite    = "Site script (runs on one domain)"
	kindGeneric = "Generic script (opt-in, any page)"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a new script",
		Long:  "Scaffold a new effect script in the directory its host maps to",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runNew,
	}

	cmd.Flags().String("host", "", "Host the script runs on, e.g. reddit.com")
	cmd.Flags().Bool("generic", false, "Create a generic script")
	cmd.Flags().String("description", "", "Script description")
	cmd.Flags().String("ext", "", "File extension (.ts or .js)")

	return cmd
}

func runNew(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	generic, _ := cmd.Flags().GetBool("generic")
	description, _ := cmd.Flags().GetString("description")
	ext, _ := cmd.Flags().GetString("ext")

	cfg, err := loadProjectConfig(cmd)
	if err != nil {
		return err
	}

	data := templates.ScriptData{Version: "1.0.0", Description: description}

	if len(args) > 0 {
		data.Name = args[0]
	} else {
		prompt := &survey.Input{Message: "Script name:"}
		if err := survey.AskOne(prompt, &data.Name, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	if data.Description == "" {
		prompt := &survey.Input{Message: "Description:"}
		if err := survey.AskOne(prompt, &data.Description, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	if host == "" && !generic {
		var kind string
		kindPrompt := &survey.Select{
			Message: "Script type:",
			Options: []string{kindSite, kindGeneric},
			Default: kindSite,
		}
		if err := survey.AskOne(kindPrompt, &kind); err != nil {
			return err
		}
		generic = kind == kindGeneric

		if !generic {
			hostPrompt := &survey.Input{Message: "Host (e.g. reddit.com):"}
			if err := survey.AskOne(hostPrompt, &host, survey.WithValidator(validateHost)); err != nil {
				return err
			}
		}
	}

	if ext == "" {
		ext = cfg.Scripts.Extensions[0]
		if len(cfg.Scripts.Extensions) > 1 {
			extPrompt := &survey.Select{
				Message: "Language:",
				Options: cfg.Scripts.Extensions,
				Default: ext,
			}
			if err := survey.AskOne(extPrompt, &ext); err != nil {
				return err
			}
		}
	}

	rel := types.GenericSegment
	if !generic {
		if rel, err = analyzer.PathForHost(host); err != nil {
			return err
		}
		data.Host = host
	}

	path, err := templates.WriteScript(filepath.Join(cfg.ScriptsRoot(), filepath.FromSlash(rel)), data, ext)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Created %s\n", path)
	if generic {
		fmt.Fprintln(cmd.OutOrStdout(), "   Switch it on from the Generic tab of the menu after the next build")
	}
	return nil
}

func validateHost(ans interface{}) error {
	s, _ := ans.(string)
	_, err := analyzer.PathForHost(s)
	return err
}

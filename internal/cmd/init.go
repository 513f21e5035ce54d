package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adamancini/appupdater/internal/config"
	"github.com/adamancini/appupdater/internal/fsutil"
	"github.com/adamancini/appupdater/internal/templates"
	"github.com/adamancini/appupdater/internal/update"
	"github.com/adamancini/appupdater/internal/workdir"
)

func newInitCmd() *cobra.Command {
	var templateName string
	var outputPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an appupdater config from a template",
		Long: `Create an appupdater config from a built-in template.

Available templates:
  minimal  - Fixed version and a feed URL
  macos    - App bundle in /Applications, version from Info.plist
  linux    - App under ~/.local/opt, version from --version

${VAR} and ${VAR:-default} references are kept in the file and expanded
each time it is loaded.

Examples:
  appupdater init                         # Choose a template
  appupdater init --template=macos
  appupdater init --path ~/app/appupdater.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(newPrompter(), cmd.OutOrStdout(), templateName, outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "", "Template name")
	cmd.Flags().StringVar(&outputPath, "path", "", "Output path for the config")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")

	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var completions []string
		for _, name := range templates.List() {
			completions = append(completions, fmt.Sprintf("%s\t%s", name, templates.GetDescription(name)))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runInit writes the chosen template to outputPath.
func runInit(dialog update.Dialog, stdout io.Writer, templateName, outputPath string, force bool) error {
	if outputPath == "" {
		outputPath = defaultConfigPath()
	}
	outputPath, err := workdir.ExpandHome(outputPath)
	if err != nil {
		return err
	}

	if fsutil.Exists(outputPath) && !force {
		choice, err := dialog.Present(update.Prompt{
			Title:       fmt.Sprintf("%s already exists.", outputPath),
			Description: "Replace it with a new config?",
			Actions:     []string{"Overwrite", "Cancel"},
		})
		if err != nil {
			return err
		}
		if choice != 0 {
			_, _ = fmt.Fprintln(stdout, "Aborted.")
			return nil
		}
	}

	if templateName == "" {
		names := templates.List()
		actions := make([]string, len(names))
		for i, name := range names {
			actions[i] = fmt.Sprintf("%s - %s", name, templates.GetDescription(name))
		}
		choice, err := dialog.Present(update.Prompt{
			Title:   "Select a config template",
			Actions: actions,
		})
		if err != nil {
			return err
		}
		if choice < 0 || choice >= len(names) {
			return fmt.Errorf("no template selected")
		}
		templateName = names[choice]
	}

	tmpl, err := templates.Get(templateName)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(outputPath), err)
	}
	if err := fsutil.AtomicWriteFile(outputPath, tmpl.Content, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if _, err := config.Load(outputPath); err != nil {
		return fmt.Errorf("written config does not load: %w", err)
	}

	_, _ = fmt.Fprintf(stdout, "Created %s from the %s template\n", outputPath, templateName)
	_, _ = fmt.Fprintln(stdout, "\nNext steps:")
	_, _ = fmt.Fprintln(stdout, "  1. Set app.name and feed.url")
	_, _ = fmt.Fprintln(stdout, "  2. Run 'appupdater check' to look for an update")
	return nil
}

// defaultConfigPath returns where init writes when no path is given.
func defaultConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "appupdater", "appupdater.yaml")
	}
	return filepath.Join("~", ".config", "appupdater", "appupdater.yaml")
}

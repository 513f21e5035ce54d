package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/adamancini/appupdater/internal/config"
	"github.com/adamancini/appupdater/internal/installed"
	"github.com/adamancini/appupdater/internal/process"
	"github.com/adamancini/appupdater/internal/update"
)

// checkEnv carries the collaborators of a check run
type checkEnv struct {
	dialog update.Dialog
	procs  update.ProcessController
	runner process.CommandRunner
	log    *log.Logger
}

func newCheckCmd() *cobra.Command {
	var prompt bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check for an update and offer to install it",
		Long: `Check fetches the package descriptor from feed.url and compares its version
with the installed one. When the descriptor is newer the user is asked whether
to update. Accepting writes a handoff manifest into the updater directory and
launches "appupdater install" from there.

Failures to reach the feed are only logged unless --prompt is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr())
			env := checkEnv{
				dialog: newPrompter(),
				procs:  process.NewController(logger),
				runner: &process.DefaultCommandRunner{},
				log:    logger,
			}
			res, checkErr := runCheck(cmd.Context(), cfg, cfgPath, prompt, env)
			if res != nil {
				w, err := newWriter(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if err := w.Write(res); err != nil {
					return err
				}
			}
			return checkErr
		},
	}

	cmd.Flags().BoolVar(&prompt, "prompt", false, "Also tell the user when no update is available or the check failed")
	cmd.Flags().String("feed-url", "", "Package descriptor URL (overrides feed.url)")
	cmd.Flags().String("app-name", "", "Application name (overrides app.name)")
	cmd.Flags().String("app-version", "", "Installed version (overrides app.version)")
	cmd.Flags().String("bundle-path", "", "Installed bundle to read the version from (overrides app.bundle_path)")
	cmd.Flags().String("updater", "", "Updater executable or bundle to hand off to (default this executable)")
	addDirFlag(cmd)

	return cmd
}

// runCheck performs one update check with the resolved configuration.
func runCheck(ctx context.Context, cfg *config.Config, cfgPath string, prompt bool, env checkEnv) (*update.CheckResult, error) {
	if err := config.ValidateCheck(cfg); err != nil {
		return nil, err
	}

	dir, err := openWorkdir(cfg)
	if err != nil {
		return nil, err
	}

	versions, err := installed.New(installed.Source{
		Version:    cfg.App.Version,
		Command:    cfg.App.VersionCommand,
		BundlePath: cfg.App.BundlePath,
	}, env.runner)
	if err != nil {
		return nil, err
	}

	checker := update.NewChecker(update.CheckerConfig{
		AppName:       cfg.App.Name,
		UpdaterDir:    dir,
		UpdaterSource: cfg.Updater.Executable,
		UpdaterArgs:   updaterArgs(cfg, cfgPath, dir.Root()),
		Versions:      versions,
		Dialog:        env.dialog,
		Procs:         env.procs,
		FeedTimeout:   cfg.FeedTimeout(),
	}, update.WithCheckerLogger(env.log))

	res, err := checker.Check(ctx, cfg.Feed.URL, prompt)
	if err != nil {
		return res, fmt.Errorf("update hand-off failed: %w", err)
	}
	return res, nil
}

// updaterArgs returns the arguments for the launched updater: the
// configured ones, or an install run against the same directory and
// config file.
func updaterArgs(cfg *config.Config, cfgPath, dir string) []string {
	if len(cfg.Updater.Args) > 0 {
		return cfg.Updater.Args
	}
	args := []string{"install", "--dir", dir, "--app-name", cfg.App.Name}
	if cfgPath != "" {
		args = append(args, "--config", cfgPath)
	}
	for _, id := range cfg.App.Identifiers {
		args = append(args, "--identifier", id)
	}
	if cfg.Install.Directory != "" {
		args = append(args, "--install-dir", cfg.Install.Directory)
	}
	if cfg.Install.BundleSuffix != "" && cfg.Install.BundleSuffix != config.DefaultBundleSuffix {
		args = append(args, "--bundle-suffix", cfg.Install.BundleSuffix)
	}
	return args
}

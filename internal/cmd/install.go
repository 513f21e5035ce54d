package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/adamancini/appupdater/internal/config"
	"github.com/adamancini/appupdater/internal/logging"
	"github.com/adamancini/appupdater/internal/process"
	"github.com/adamancini/appupdater/internal/update"
	"github.com/adamancini/appupdater/internal/workdir"
)

// installEnv carries the collaborators of an install run
type installEnv struct {
	dialog  update.Dialog
	procs   update.ProcessController
	log     *log.Logger
	options []update.InstallerOption
}

// installSummary is the rendered outcome of an install run
type installSummary struct {
	State         string `json:"state" yaml:"state"`
	Stage         string `json:"stage" yaml:"stage"`
	Installed     bool   `json:"installed" yaml:"installed"`
	InstalledPath string `json:"installed_path,omitempty" yaml:"installed_path,omitempty"`
	Kind          string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (s installSummary) String() string {
	if s.Error == "" {
		return fmt.Sprintf("Installed %s", s.InstalledPath)
	}
	return fmt.Sprintf("Update failed while %s: %s", s.Stage, s.Error)
}

func newInstallCmd() *cobra.Command {
	var skipRestart bool
	var dialogMode string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the update described by the handoff manifest",
		Long: `Install reads the handoff manifest left in the updater directory by
"appupdater check", downloads and verifies the archive, stops running
instances of the app, swaps the new bundle into the install directory and
restarts it.

Progress is logged to stderr and to updater.log in the updater directory.
Failures are shown to the user and exit with status 1. Without a terminal
they appear as desktop alerts (osascript on macOS, notify-send elsewhere).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir, err := openWorkdir(cfg)
			if err != nil {
				return err
			}
			dialog, err := newInstallDialog(dialogMode)
			if err != nil {
				return err
			}

			logger, closeLog := installLogger(cmd, dir)
			defer func() { _ = closeLog() }()

			env := installEnv{
				dialog: dialog,
				procs:  process.NewController(logger),
				log:    logger,
			}
			res, err := runInstall(cmd.Context(), cfg, dir, skipRestart, env)
			if err != nil {
				return err
			}

			w, err := newWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := w.Write(summarize(res)); err != nil {
				return err
			}
			if res.State == update.StateFailed {
				return res.Err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipRestart, "skip-restart", false, "Do not relaunch the app after installing")
	cmd.Flags().StringVar(&dialogMode, "dialog", "auto", "How failures are shown: auto, terminal, alert")
	cmd.Flags().String("app-name", "", "Application name (overrides app.name)")
	cmd.Flags().StringSlice("identifier", nil, "Process name or bundle identifier to stop before swapping (repeatable)")
	cmd.Flags().String("install-dir", "", "Directory holding the app bundle (overrides install.directory)")
	cmd.Flags().String("bundle-suffix", "", "Suffix of the bundle inside the archive (overrides install.bundle_suffix)")
	addDirFlag(cmd)

	return cmd
}

// installLogger logs to stderr and the updater log. The directory is
// created first so the log file can be opened.
func installLogger(cmd *cobra.Command, dir *workdir.Dir) (*log.Logger, func() error) {
	if err := dir.Ensure(); err != nil {
		logger := newLogger(cmd.ErrOrStderr())
		logger.Warn("Updater directory is not writable", "path", dir.Root(), "err", err)
		return logger, func() error { return nil }
	}
	return logging.Tee(cmd.ErrOrStderr(), dir.LogPath(), loggingOptions())
}

// runInstall runs the installer once with the resolved configuration.
func runInstall(ctx context.Context, cfg *config.Config, dir *workdir.Dir, skipRestart bool, env installEnv) (*update.Result, error) {
	if err := config.ValidateInstall(cfg); err != nil {
		return nil, err
	}

	env.log.Info("appupdater starting", "version", appVersion, "commit", appCommit)
	env.log.Info("Updating", "app", cfg.App.Name, "identifiers", cfg.App.Identifiers)

	opts := append([]update.InstallerOption{update.WithInstallerLogger(env.log)}, env.options...)
	installer := update.NewInstaller(dir, env.procs, env.dialog, update.InstallerOptions{
		AppName:          cfg.App.Name,
		Identifiers:      cfg.App.Identifiers,
		InstallDir:       cfg.Install.Directory,
		BundleSuffix:     cfg.Install.BundleSuffix,
		DownloadTimeout:  cfg.DownloadTimeout(),
		TerminateTimeout: cfg.TerminateTimeout(),
		SkipRestart:      skipRestart,
	}, opts...)

	res := installer.Run(ctx)
	if res.State == update.StateSucceeded {
		env.log.Info("Update installed", "path", res.InstalledPath)
	}
	return res, nil
}

func summarize(res *update.Result) installSummary {
	s := installSummary{
		State:         res.State.String(),
		Stage:         res.Stage.String(),
		Installed:     res.Installed,
		InstalledPath: res.InstalledPath,
	}
	if res.Err != nil {
		s.Kind = string(update.KindOf(res.Err))
		s.Error = res.Err.Error()
	}
	return s
}

package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/adamancini/appupdater/internal/config"
	"github.com/adamancini/appupdater/internal/interactive"
	"github.com/adamancini/appupdater/internal/logging"
	"github.com/adamancini/appupdater/internal/output"
	"github.com/adamancini/appupdater/internal/process"
	"github.com/adamancini/appupdater/internal/update"
	"github.com/adamancini/appupdater/internal/workdir"
)

// loadConfig finds and loads the config file, then applies environment
// and flag overrides. It also returns the path of the file, if any.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, "", err
	}
	cfg, err = config.Resolve(cfg, cmd.Flags())
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// openWorkdir returns the updater directory named by cfg.
func openWorkdir(cfg *config.Config) (*workdir.Dir, error) {
	return workdir.New(cfg.Updater.Directory)
}

// newLogger returns a logger honouring --verbose and --quiet.
func newLogger(w io.Writer) *log.Logger {
	return logging.New(w, loggingOptions())
}

func loggingOptions() logging.Options {
	return logging.Options{Verbose: verbose, Quiet: quiet}
}

// newPrompter returns the terminal prompter honouring --yes.
func newPrompter() *interactive.Prompter {
	p := interactive.NewPrompter()
	p.SetAssumeYes(assumeYes)
	return p
}

// newInstallDialog returns the dialog for install runs. mode "auto" picks
// the terminal when stdin is one or --yes is set, and desktop alerts
// otherwise, since a handed-off updater has no terminal.
func newInstallDialog(mode string) (update.Dialog, error) {
	switch mode {
	case "terminal":
		return newPrompter(), nil
	case "alert":
		return interactive.NewAlertDialog(&process.DefaultCommandRunner{}), nil
	case "", "auto":
		if assumeYes || interactive.IsTerminal() {
			return newPrompter(), nil
		}
		return interactive.NewAlertDialog(&process.DefaultCommandRunner{}), nil
	default:
		return nil, fmt.Errorf("invalid dialog %q (valid: auto, terminal, alert)", mode)
	}
}

// newWriter returns an output writer for --output.
func newWriter(w io.Writer) (*output.Writer, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewWriter(w, format), nil
}

// addDirFlag registers --dir, which overrides updater.directory.
func addDirFlag(cmd *cobra.Command) {
	cmd.Flags().String("dir", "", "Updater directory (default ~/.config/appupdater/updater)")
}

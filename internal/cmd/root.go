package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adamancini/appupdater/internal/update"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	verbose      bool
	quiet        bool
	assumeYes    bool

	// Set from main via Execute
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// Execute runs the root command. SIGINT and SIGTERM cancel the context of
// the running command.
func Execute(version, commit, date string) error {
	appVersion, appCommit, appDate = version, commit, date
	update.SetUserAgent("appupdater/" + version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "appupdater",
		Short: "Check for and install application updates",
		Long: `appupdater keeps a desktop application up to date.

"appupdater check" compares the installed version with a remote package
descriptor and, when the user accepts, hands the update off to a copy of
appupdater running "install" from the updater directory. "install"
downloads and verifies the archive, stops the running app, swaps the new
bundle in and restarts it.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", appVersion, appCommit, appDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to appupdater config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer prompts with their first action")

	// Add subcommands
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}

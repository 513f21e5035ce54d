package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/appupdater/internal/process"
)

func newVersionCmd() *cobra.Command {
	var checkNow bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information and check for updates",
		Long: `Display the appupdater version.

Examples:
  appupdater version              # Show current version
  appupdater version --check      # Check for an app update, reporting every outcome`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "appupdater version %s (commit %s, built %s)\n", appVersion, appCommit, appDate)
			if !checkNow {
				return nil
			}

			// Same as "check --prompt": the user asked, so they hear back
			cfg, cfgPath, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr())
			_, err = runCheck(cmd.Context(), cfg, cfgPath, true, checkEnv{
				dialog: newPrompter(),
				procs:  process.NewController(logger),
				runner: &process.DefaultCommandRunner{},
				log:    logger,
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&checkNow, "check", false, "Check for an app update")

	return cmd
}

package cmd

import (
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var prune int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the updater directory",
		Long: `Status shows whether an update is pending, when the last install finished,
and which downloaded archives are left in the updater directory.

Use --prune N to delete all but the N newest archives.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dir, err := openWorkdir(cfg)
			if err != nil {
				return err
			}

			if prune >= 0 {
				res, err := dir.PruneArchives(prune)
				if err != nil {
					return err
				}
				logger := newLogger(cmd.ErrOrStderr())
				for _, a := range res.Deleted {
					logger.Info("Deleted archive", "name", a.Name)
				}
			}

			st, err := dir.Status()
			if err != nil {
				return err
			}
			w, err := newWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return w.Write(st)
		},
	}

	cmd.Flags().IntVar(&prune, "prune", -1, "Keep only the N newest archives")
	addDirFlag(cmd)

	return cmd
}

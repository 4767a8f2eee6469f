package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			repos, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			repos.close()
			logger.Info().Str("driver", cfg.DatabaseDriver).Msg("schema up to date")
			return nil
		},
	}
}

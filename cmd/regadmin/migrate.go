package main

import (
	"github.com/spf13/cobra"

	"hogis-registration/pkg/database"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.close()
			return database.Migrate(e.db, e.cfg.Database.Driver, e.logger)
		},
	}
}

package main

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sentrycore/site/internal/config"
	"github.com/sentrycore/site/internal/infra/database"
)

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			conf, err := config.Load(path)
			if err != nil {
				return err
			}

			db, err := database.NewPostgres(conf.Server.PostgresDsn)
			if err != nil {
				return errors.Wrap(err, "failed to connect database")
			}

			err = database.MigratePostgres(db)
			if err != nil {
				return errors.Wrap(err, "failed to migrate database")
			}

			slog.Info("Migration finished", slog.String("module", "main"))
			return nil
		},
	}
}

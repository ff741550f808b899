package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"videohub/config"
	"videohub/migrations"
)

func migrateCmd(config *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply or roll back database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migrations.Up(config.DatabaseURL); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "roll back all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := migrations.Down(config.DatabaseURL); err != nil {
				return err
			}
			log.Info().Msg("migrations rolled back")
			return nil
		},
	})
	return cmd
}

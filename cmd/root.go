package cmd

import (
	"github.com/spf13/cobra"
	"videohub/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "videohub",
		Short:        "video publishing service",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(migrateCmd(config))
	return rootCmd
}

package cmd

import (
	"github.com/spf13/cobra"
	"videohub/config"
	server2 "videohub/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server and asset cleanup consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server2.RunHttp(config)
		},
	}
}

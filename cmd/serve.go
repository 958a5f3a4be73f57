package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP server",
		Long: `Serves the admin API: filter configuration, filter statistics, job
results, health, and Prometheus metrics. Shuts down gracefully on SIGINT or
SIGTERM.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			srv := appInstance.AdminServer()
			if err := srv.Serve(cmd.Context(), appInstance.Config.Server.Port); err != nil {
				return fmt.Errorf("serve admin api: %w", err)
			}
			return nil
		},
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newSyncCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-categories",
		Short: "Recompute the category of every catalog record",
		Long: `Walks the whole catalog once and re-derives each record's category from
its genres. Records whose update fails are reported individually; the sweep
itself keeps going.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			result, err := appInstance.Maintainer().SyncAllCategories(cmd.Context())
			if err != nil {
				return fmt.Errorf("sync categories: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("print result: %w", err)
			}
			return nil
		},
	}
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harwoodm/atheneum/internal/ingest"
	"github.com/harwoodm/atheneum/internal/pipeline"
)

func newIngestCmd() *cobra.Command {
	var (
		dryRun   bool
		pages    int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass against the source archive",
		Long: `Fetches record pages from the source archive and moves each book through
the pipeline: dedupe, classify, filter, download, store, catalog. With
--dry-run the pipeline stops after filtering and reports what would be
added, without touching storage, the catalog, or the job log.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			if pageSize <= 0 {
				pageSize = appInstance.Config.Source.PageSize
			}
			result, err := appInstance.Runner.Run(cmd.Context(), pipeline.RunOptions{
				DryRun:   dryRun,
				Pages:    pages,
				PageSize: pageSize,
				Filters:  appInstance.Filters.Snapshot(),
			})
			if err != nil {
				return fmt.Errorf("run ingestion: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("print result: %w", err)
			}
			if result.Status == ingest.JobStatusFailed {
				return fmt.Errorf("ingestion run %s failed", result.JobID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "evaluate fetch, classification and filters without persisting anything")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of search result pages to process")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "records per page (defaults to source.page_size)")

	return cmd
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ejiviz/internal/data"
)

var fetchYear string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download and ingest the EJI CSVs",
	Long: `Download any missing state and county CSVs into the data directory and
load them into the local DuckDB database. Files already present are reused.

Examples:
  ejiviz fetch
  ejiviz fetch --year 2024`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd)
		if err != nil {
			HandleError(err, "Failed to initialize")
		}
		defer a.Close()

		if a.cfg.Offline {
			HandleError(data.ErrOffline, "Cannot fetch in offline mode")
		}

		years := data.SupportedYears
		if fetchYear != "" {
			if err := data.ValidYear(fetchYear); err != nil {
				HandleError(err, "Invalid year")
			}
			years = []string{fetchYear}
		}

		ctx, cancel := a.context(cmd)
		defer cancel()

		a.downloader.Progress = os.Stderr
		var files []data.DataFile
		for _, y := range years {
			files = append(files, a.source.Files(y)...)
		}
		if missing := data.Missing(a.cfg.DataDir, files); len(missing) > 0 {
			fmt.Fprintf(os.Stderr, "📥 Downloading %d file(s)...\n\n", len(missing))
		}
		if err := a.downloader.Ensure(ctx, a.cfg.DataDir, files); err != nil {
			HandleError(err, "Failed to download data files")
		}

		for _, y := range years {
			yd, err := a.repo.Year(ctx, y)
			if err != nil {
				HandleError(err, "Failed to ingest year")
			}
			fmt.Fprintf(os.Stderr, "✓ %s: %d state row(s), %d county row(s)\n", y, yd.State.Len(), yd.County.Len())
		}

		records, err := a.store.Ingests(ctx)
		if err != nil {
			HandleError(err, "Failed to read ingest log")
		}
		printJSON(records)
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchYear, "year", "y", "", "Only this year (default: every supported year)")
	rootCmd.AddCommand(fetchCmd)
}

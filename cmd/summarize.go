package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	summarizeTable string
	summarizeQuery string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize the contents of a table or query",
	Long: `The SUMMARIZE command computes a number of aggregates over all columns
(min, max, approx_unique, avg, std, q25, q50, q75, count), and returns these
along with the column name, column type, and the percentage of NULL values.
Note that the quantiles and percentiles are approximate values.

Ingested columns are stored as text, so numeric aggregates need a cast in a query.

Examples:
  ejiviz summarize --table county_2024
  ejiviz summarize --query "SELECT CAST(RPL_EJI AS DOUBLE) AS eji FROM county_2024"`,
	Run: func(cmd *cobra.Command, args []string) {
		if summarizeTable == "" && summarizeQuery == "" {
			HandleError(fmt.Errorf("table or query is required"), "Missing parameter")
		}

		a, err := newApp(cmd)
		if err != nil {
			HandleError(err, "Failed to initialize")
		}
		defer a.Close()

		ctx := cmd.Context()
		var rows []map[string]any
		if summarizeTable != "" {
			rows, err = a.store.Summarize(ctx, summarizeTable)
		} else {
			rows, err = a.store.ExecuteQuery(ctx, "SUMMARIZE "+summarizeQuery)
		}
		if err != nil {
			HandleError(err, "Failed to execute summarize query")
		}
		printJSON(rows)
	},
}

func init() {
	summarizeCmd.Flags().StringVarP(&summarizeTable, "table", "t", "", "Table to summarize")
	summarizeCmd.Flags().StringVarP(&summarizeQuery, "query", "q", "", "Query to summarize instead of a table")
	summarizeCmd.MarkFlagsMutuallyExclusive("table", "query")
	rootCmd.AddCommand(summarizeCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queryString string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the database (DuckDB SQL)",
	Long: `Execute the requested QUERY against the local DuckDB database.
Ingested tables are named state_<year> and county_<year>; run fetch first.
The query can be any valid DuckDB SQL query, including SELECT, DESCRIBE, SHOW TABLES, etc.

Examples:
  ejiviz query --sql "SELECT County, RPL_EJI FROM county_2024 ORDER BY RPL_EJI DESC LIMIT 5"
  ejiviz query --sql "SELECT * FROM ingest_log"
  ejiviz query --sql "SHOW TABLES"`,
	Run: func(cmd *cobra.Command, args []string) {
		if queryString == "" {
			HandleError(fmt.Errorf("query is required"), "Missing query parameter")
		}

		a, err := newApp(cmd)
		if err != nil {
			HandleError(err, "Failed to initialize")
		}
		defer a.Close()

		rows, err := a.store.ExecuteQuery(cmd.Context(), queryString)
		if err != nil {
			HandleError(err, "Failed to execute query")
		}
		printJSON(rows)
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryString, "sql", "q", "", "SQL query to execute (required)")
	_ = queryCmd.MarkFlagRequired("sql")
	rootCmd.AddCommand(queryCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"ejiviz/internal/data"
)

// SchemaOutput represents the schema information for a table
type SchemaOutput struct {
	TableName   string            `json:"table_name"`
	ColumnCount int               `json:"column_count"`
	Columns     []data.ColumnInfo `json:"columns"`
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Retrieve a summary of the DuckDB database schema",
	Long: `Retrieve a summary of the local DuckDB database schema.
This command returns every table (ingested years, the ingest log and the
narration cache) and its columns.

Examples:
  ejiviz schema`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd)
		if err != nil {
			HandleError(err, "Failed to initialize")
		}
		defer a.Close()

		ctx := cmd.Context()
		tables, err := a.store.Tables(ctx)
		if err != nil {
			HandleError(err, "Failed to list tables")
		}

		schemas := make([]SchemaOutput, 0, len(tables))
		for _, name := range tables {
			cols, err := a.store.TableInfo(ctx, name)
			if err != nil {
				a.logger.Warn("Skipping table schema", "table", name, "error", err)
				continue
			}
			schemas = append(schemas, SchemaOutput{
				TableName:   name,
				ColumnCount: len(cols),
				Columns:     cols,
			})
		}
		printJSON(schemas)
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

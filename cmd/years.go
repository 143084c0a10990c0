package cmd

import (
	"github.com/spf13/cobra"

	"ejiviz/internal/data"
)

var countiesYear string

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "List the supported EJI release years",
	Run: func(cmd *cobra.Command, args []string) {
		printJSON(data.SupportedYears)
	},
}

var countiesCmd = &cobra.Command{
	Use:   "counties",
	Short: "List the New Mexico counties present in a year",
	Long: `List the counties in the county table for one EJI release, in file order.

Examples:
  ejiviz counties --year 2024`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd)
		if err != nil {
			HandleError(err, "Failed to initialize")
		}
		defer a.Close()

		ctx, cancel := a.context(cmd)
		defer cancel()

		yd, err := a.repo.Year(ctx, countiesYear)
		if err != nil {
			HandleError(err, "Failed to load year")
		}
		printJSON(yd.Counties())
	},
}

func init() {
	countiesCmd.Flags().StringVarP(&countiesYear, "year", "y", "", "EJI release year (required)")
	_ = countiesCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(yearsCmd)
	rootCmd.AddCommand(countiesCmd)
}

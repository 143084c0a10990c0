package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ejiviz/internal/eji"
	"ejiviz/internal/render"
)

var (
	showYear   string
	showCounty string
	showJSON   bool
	showPlain  bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one year of EJI data for New Mexico or a county",
	Long: `Show the EJI percentile ranks for one year, either statewide or for a
single New Mexico county, as a table and bar chart.

Examples:
  ejiviz show --year 2024
  ejiviz show --year 2022 --county Luna
  ejiviz show --year 2024 --county "Santa Fe" --json`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := newApp(cmd)
		if err != nil {
			HandleError(err, "Failed to initialize")
		}
		defer a.Close()

		ctx, cancel := a.context(cmd)
		defer cancel()

		yd, err := a.repo.Year(ctx, showYear)
		if err != nil {
			HandleError(err, "Failed to load year")
		}

		geo, county := geographyFor(showCounty)
		v := eji.BuildYearView(yd, geo, county, eji.WithThreshold(a.cfg.HighlightThreshold))
		recordCLIView("single", v.Notice)

		if showJSON {
			printJSON(v)
			return
		}

		if showPlain {
			if v.Found {
				fmt.Print(render.PlainTable(*v.Table))
			} else {
				fmt.Println(v.Notice)
			}
			return
		}

		fmt.Println(eji.SingleInfo)
		fmt.Println()
		if !v.Found {
			fmt.Println(v.Notice)
			return
		}
		fmt.Println(render.TerminalTable(*v.Table))
		fmt.Println()
		fmt.Println(render.TerminalChart(*v.Chart, 40))
		fmt.Println()
		fmt.Println(eji.Caption)
	},
}

func init() {
	showCmd.Flags().StringVarP(&showYear, "year", "y", "", "EJI release year (required)")
	showCmd.Flags().StringVarP(&showCounty, "county", "c", "", "County name (default: statewide)")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Print the view as JSON")
	showCmd.Flags().BoolVar(&showPlain, "plain", false, "Print a tab-separated table without colors")
	showCmd.MarkFlagsMutuallyExclusive("json", "plain")
	_ = showCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(showCmd)
}

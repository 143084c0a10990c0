package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ejiviz/internal/eji"
	"ejiviz/internal/guide"
	"ejiviz/internal/metrics"
	"ejiviz/internal/render"
)

var (
	compareBaseline string
	compareOther    string
	compareCounty   string
	compareJSON     bool
	compareExplain  bool
	comparePlain    bool
)

// comparisonOutput is the JSON shape of compare.
type comparisonOutput struct {
	eji.ComparisonView
	DroppedNote string `json:"dropped_note,omitempty"`
	Narration   string `json:"narration,omitempty"`
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare EJI data between two years",
	Long: `Compare the EJI percentile ranks of New Mexico or one county between a
baseline year and another year. Metrics missing from either year are left out.

With --explain, a short narration of the changes is generated with Claude
(requires ANTHROPIC_API_KEY).

Examples:
  ejiviz compare --baseline 2022 --other 2024
  ejiviz compare --baseline 2022 --other 2024 --county Luna --explain`,
	Run: func(cmd *cobra.Command, args []string) {
		if compareBaseline == compareOther {
			HandleError(fmt.Errorf("baseline and other year are both %s", compareBaseline), "Invalid years")
		}

		a, err := newApp(cmd)
		if err != nil {
			HandleError(err, "Failed to initialize")
		}
		defer a.Close()

		ctx, cancel := a.context(cmd)
		defer cancel()

		base, err := a.repo.Year(ctx, compareBaseline)
		if err != nil {
			HandleError(err, "Failed to load baseline year")
		}
		other, err := a.repo.Year(ctx, compareOther)
		if err != nil {
			HandleError(err, "Failed to load comparison year")
		}

		geo, county := geographyFor(compareCounty)
		v := eji.BuildComparisonView(base, other, geo, county, eji.WithThreshold(a.cfg.HighlightThreshold))
		recordCLIView("comparison", v.Notice)

		out := comparisonOutput{ComparisonView: v, DroppedNote: v.DroppedNote()}
		if compareExplain && v.Found {
			explainer := a.narrator()
			if explainer == nil {
				HandleError(fmt.Errorf("ANTHROPIC_API_KEY environment variable not set"), "Cannot explain")
			}
			out.Narration, err = explainer.Explain(ctx, v)
			if err != nil {
				HandleError(err, "Failed to generate narration")
			}
		}

		if compareJSON {
			printJSON(out)
			return
		}

		if comparePlain {
			if !v.Found {
				fmt.Println(v.Notice)
				return
			}
			fmt.Print(render.PlainTable(*v.Table))
			fmt.Println(render.PlainDiscrepancies(v.Discrepancies))
			if out.Narration != "" {
				fmt.Println()
				fmt.Println(out.Narration)
			}
			return
		}

		fmt.Println(eji.ComparisonInfo)
		fmt.Println()
		if !v.Found {
			fmt.Println(v.Notice)
			return
		}
		if out.DroppedNote != "" {
			fmt.Println(out.DroppedNote)
			fmt.Println()
		}
		fmt.Println(render.TerminalChart(*v.Chart, 40))
		fmt.Println()
		fmt.Println(render.TerminalTable(*v.Table))
		fmt.Println()
		fmt.Println(render.PlainDiscrepancies(v.Discrepancies))
		if out.Narration != "" {
			rendered, err := guide.RenderMarkdown(out.Narration, 80)
			if err != nil {
				rendered = out.Narration
			}
			fmt.Println(rendered)
		}
		fmt.Println()
		fmt.Println(eji.Caption)
	},
}

func init() {
	compareCmd.Flags().StringVarP(&compareBaseline, "baseline", "b", "", "Baseline year (required)")
	compareCmd.Flags().StringVarP(&compareOther, "other", "o", "", "Year to compare against the baseline (required)")
	compareCmd.Flags().StringVarP(&compareCounty, "county", "c", "", "County name (default: statewide)")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "Print the comparison as JSON")
	compareCmd.Flags().BoolVar(&comparePlain, "plain", false, "Print tab-separated text without colors")
	compareCmd.MarkFlagsMutuallyExclusive("json", "plain")
	compareCmd.Flags().BoolVar(&compareExplain, "explain", false, "Add a generated narration of the changes")
	_ = compareCmd.MarkFlagRequired("baseline")
	_ = compareCmd.MarkFlagRequired("other")
	rootCmd.AddCommand(compareCmd)
}

// geographyFor maps an empty --county to the statewide view.
func geographyFor(county string) (eji.Geography, string) {
	if county == "" {
		return eji.GeoState, ""
	}
	return eji.GeoCounty, county
}

func recordCLIView(kind, notice string) {
	metrics.RecordView(kind, "cli")
	if notice != "" {
		metrics.RecordNotice(kind)
	}
}

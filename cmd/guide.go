package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ejiviz/internal/guide"
)

var guideWidth int

var guideCmd = &cobra.Command{
	Use:   "guide [slug]",
	Short: "Read the EJI explainer pages",
	Long: `Print one of the explainer pages, or list them when no slug is given.

Examples:
  ejiviz guide
  ejiviz guide eji-scale`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			for _, p := range guide.Pages() {
				fmt.Printf("%-20s %s\n", p.Slug, p.Title)
			}
			return
		}
		p, err := guide.Get(args[0])
		if err != nil {
			HandleError(err, "Unknown guide page")
		}
		out, err := p.Terminal(guideWidth)
		if err != nil {
			HandleError(err, "Failed to render guide")
		}
		fmt.Println(out)
	},
}

func init() {
	guideCmd.Flags().IntVarP(&guideWidth, "width", "w", 80, "Wrap width")
	rootCmd.AddCommand(guideCmd)
}

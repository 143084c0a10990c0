package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ejiviz/internal/agent"
)

var askExclude []string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the EJI data using Claude",
	Long: `Ask a natural language question and get an answer from Claude, which can
look up years, counties, scores and year-over-year changes, and run read-only
SQL against the local database.

Requires ANTHROPIC_API_KEY environment variable to be set.

Example:
  ejiviz ask "Which county had the highest overall EJI in 2024?"
  ejiviz ask "How did Luna County change between 2022 and 2024?"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		question := args[0]

		a, err := newApp(cmd)
		if err != nil {
			HandleError(err, "Failed to initialize")
		}
		defer a.Close()

		ctx, cancel := a.context(cmd)
		defer cancel()

		answer, err := agent.GenerateResponse(ctx, question,
			agent.WithAPIKeyFromEnv(),
			agent.WithModel(a.cfg.AnthropicModel),
			agent.WithLoader(a.repo, a.repo.Years()),
			agent.WithSQL(a.store),
			agent.WithToolExclusions(askExclude),
		)
		if err != nil {
			HandleError(err, "Failed to generate response")
		}
		fmt.Println(answer)
	},
}

func init() {
	askCmd.Flags().StringSliceVar(&askExclude, "exclude-tools", nil, "Tool names (or prefixes) to hide from the model")
	rootCmd.AddCommand(askCmd)
}

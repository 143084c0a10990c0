package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"ejiviz/internal/tui"
)

var (
	dataDir    string
	configPath string
	logLevel   string
	offline    bool

	rootCmd = &cobra.Command{
		Use:   "ejiviz",
		Short: "EJI Dashboard - Explore the Environmental Justice Index for New Mexico",
		Long: `ejiviz presents the CDC Environmental Justice Index for New Mexico and
its counties, one year at a time or as a change between two years.

When run without commands, it launches an interactive TUI.
Use subcommands for CLI mode, the web dashboard, or JSON output.`,
		Run: func(cmd *cobra.Command, args []string) {
			a, err := newApp(cmd)
			if err != nil {
				HandleError(err, "Failed to initialize")
			}
			defer a.Close()

			err = tui.Run(cmd.Context(), tui.Options{
				Loader:    a.repo,
				Years:     a.repo.Years(),
				Explainer: a.narrator(),
				Threshold: a.cfg.HighlightThreshold,
				Logger:    a.logger,
			})
			if err != nil {
				HandleError(err, "Failed to run dashboard")
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "tmpdata/", "Directory for downloaded CSVs, the DuckDB file and the log")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $EJI_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Use only CSVs already in the data directory")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ejiviz/internal/web"
)

var (
	port     int
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the web dashboard",
		Long: `Start the HTTP web server with the HTMX dashboard.

The web server offers the same single-year and comparison views as the TUI,
interactive charts, the guide pages, JSON API endpoints and /metrics.`,
		Run: func(cmd *cobra.Command, args []string) {
			runServe(cmd)
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to run the server on")
}

func runServe(cmd *cobra.Command) {
	a, err := newApp(cmd)
	if err != nil {
		HandleError(err, "Failed to initialize")
	}
	defer a.Close()

	if cmd.Flags().Changed("port") {
		a.cfg.Addr = fmt.Sprintf(":%d", port)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	explainer := a.narrator()

	fmt.Printf("Starting EJI dashboard web server...\n")
	fmt.Printf("Data directory: %s\n", a.cfg.DataDir)
	fmt.Printf("Address: %s\n", a.cfg.Addr)
	if explainer != nil {
		fmt.Printf("Narration: ✓ %s\n\n", explainer.Model())
	} else {
		fmt.Printf("Narration: ✗ Not configured (set ANTHROPIC_API_KEY)\n\n")
	}

	err = web.ListenAndServe(ctx, web.ServerConfig{
		Addr:           a.cfg.Addr,
		Loader:         a.repo,
		Years:          a.repo.Years(),
		Explainer:      explainer,
		Threshold:      a.cfg.HighlightThreshold,
		RequestTimeout: time.Duration(a.cfg.RequestTimeoutSec) * time.Second,
		Logger:         a.logger,
	})
	if err != nil {
		HandleError(err, "Server failed")
	}
}

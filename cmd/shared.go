package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ejiviz/internal/agent"
	"ejiviz/internal/config"
	"ejiviz/internal/data"
	"ejiviz/internal/logging"
	"ejiviz/internal/web"
)

// NarrationTTL is how long generated comparison text is reused.
const NarrationTTL = 30 * 24 * time.Hour

// app is the process wiring shared by every command.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *data.Store
	source     data.Source
	downloader *data.Downloader
	repo       *data.Repository
	closeLog   func() error
}

// loadConfig layers persistent flags over the koanf config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("offline") {
		cfg.Offline = offline
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := logging.Setup(cfg.DataDir, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		logger, closeLog = logging.Discard(), func() error { return nil }
	}

	store, err := data.OpenStore(cfg.DataDir, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	timeout := time.Duration(cfg.RequestTimeoutSec) * time.Second
	a := &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		source:     data.Source{BaseURL: cfg.SourceBaseURL},
		downloader: data.NewDownloader(timeout, logger),
		closeLog:   closeLog,
	}
	a.repo = data.NewRepository(&data.Ingestor{
		Store:      store,
		Source:     a.source,
		Downloader: a.downloader,
		DataDir:    cfg.DataDir,
		Offline:    cfg.Offline,
		Logger:     logger,
	}, logger)
	return a, nil
}

// Close releases the database and the log file.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("Failed to close database", "error", err)
	}
	a.closeLog()
}

// narrator returns nil when ANTHROPIC_API_KEY is unset, which disables
// comparison narration everywhere.
func (a *app) narrator() web.Explainer {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil
	}
	n, err := agent.NewNarrator(apiKey, a.cfg.AnthropicModel,
		agent.WithNarrationCache(a.store, NarrationTTL),
		agent.WithNarratorLogger(a.logger),
	)
	if err != nil {
		a.logger.Warn("Narrator initialization failed", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: narration disabled: %v\n", err)
		return nil
	}
	return n
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 5*time.Duration(a.cfg.RequestTimeoutSec)*time.Second)
}

// HandleError prints error and exits
func HandleError(err error, message string) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, err)
	os.Exit(1)
}

func printJSON(v any) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		HandleError(err, "Failed to encode JSON")
	}
	fmt.Println(string(output))
}

package data

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"ejiviz/internal/logging"
	"ejiviz/internal/metrics"
)

// Downloader fetches source CSVs into the data directory.
type Downloader struct {
	Client   *http.Client
	Progress io.Writer // nil disables progress output
	Logger   *slog.Logger
}

// NewDownloader returns a Downloader with a bounded HTTP client.
func NewDownloader(timeout time.Duration, logger *slog.Logger) *Downloader {
	return &Downloader{
		Client: &http.Client{Timeout: timeout},
		Logger: logging.OrDiscard(logger),
	}
}

// Missing lists the files not yet present under dataDir.
func Missing(dataDir string, files []DataFile) []DataFile {
	var missing []DataFile
	for _, f := range files {
		if _, err := os.Stat(f.LocalPath(dataDir)); os.IsNotExist(err) {
			missing = append(missing, f)
		}
	}
	return missing
}

// Ensure downloads every file in files that is missing from dataDir.
func (d *Downloader) Ensure(ctx context.Context, dataDir string, files []DataFile) error {
	missing := Missing(dataDir, files)
	for i, f := range missing {
		if err := d.Fetch(ctx, dataDir, f, i+1, len(missing)); err != nil {
			return err
		}
	}
	return nil
}

// Fetch downloads one file. The body is written to a temporary file that is
// renamed into place only after a complete, successful transfer.
func (d *Downloader) Fetch(ctx context.Context, dataDir string, f DataFile, index, total int) error {
	logger := logging.OrDiscard(d.Logger)
	dest := f.LocalPath(dataDir)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", f.URL, err)
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		metrics.RecordDownload(f.Year, metrics.OutcomeFailure)
		logger.Error("Download failed", "error", err, "url", f.URL)
		return fmt.Errorf("failed to download %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordDownload(f.Year, metrics.OutcomeFailure)
		logger.Error("Download returned bad status", "status", resp.Status, "url", f.URL)
		return fmt.Errorf("failed to download %s: bad status: %s", f.URL, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var body io.Reader = resp.Body
	if d.Progress != nil {
		body = io.TeeReader(resp.Body, &ProgressCounter{
			Out:        d.Progress,
			Total:      resp.ContentLength,
			Name:       f.Name,
			FileIndex:  index,
			TotalFiles: total,
		})
	}
	n, err := io.Copy(tmp, body)
	if d.Progress != nil {
		fmt.Fprintln(d.Progress)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		metrics.RecordDownload(f.Year, metrics.OutcomeFailure)
		return fmt.Errorf("failed to write %s: %w", f.Name, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", f.Name, err)
	}

	metrics.RecordDownload(f.Year, metrics.OutcomeSuccess)
	logger.Info("Downloaded data file", "file", f.Name, "year", f.Year, "bytes", n)
	return nil
}

// ProgressCounter counts bytes as they're written and displays progress.
type ProgressCounter struct {
	Out        io.Writer
	Total      int64
	Current    int64
	Name       string
	FileIndex  int
	TotalFiles int
}

func (pc *ProgressCounter) Write(p []byte) (int, error) {
	n := len(p)
	pc.Current += int64(n)

	currentKB := pc.Current / 1024
	if pc.Total > 0 {
		percentage := float64(pc.Current) / float64(pc.Total) * 100
		fmt.Fprintf(pc.Out, "\r   Downloading %s... %.1f%% (%d/%d KB) [%d/%d]",
			pc.Name, percentage, currentKB, pc.Total/1024, pc.FileIndex, pc.TotalFiles)
	} else {
		fmt.Fprintf(pc.Out, "\r   Downloading %s... %d KB downloaded [%d/%d]",
			pc.Name, currentKB, pc.FileIndex, pc.TotalFiles)
	}
	return n, nil
}

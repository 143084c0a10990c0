package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ejiviz/internal/eji"
	"ejiviz/internal/logging"
	"ejiviz/internal/metrics"
)

// Loader yields one year's normalized tables. Errors are *DataLoadError, wrap
// ErrUnsupportedYear, or are the caller's context error.
type Loader interface {
	Year(ctx context.Context, year string) (eji.YearData, error)
}

// Fetcher performs an uncached load of one year.
type Fetcher interface {
	Fetch(ctx context.Context, year string) (eji.YearData, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, year string) (eji.YearData, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, year string) (eji.YearData, error) {
	return f(ctx, year)
}

// Ingestor downloads a year's CSVs when missing, loads them into DuckDB and
// reads them back as normalized tables.
type Ingestor struct {
	Store      *Store
	Source     Source
	Downloader *Downloader
	DataDir    string
	Offline    bool
	Logger     *slog.Logger
}

// Fetch implements Fetcher.
func (in *Ingestor) Fetch(ctx context.Context, year string) (eji.YearData, error) {
	logger := logging.OrDiscard(in.Logger)
	files := in.Source.Files(year)

	if in.Offline {
		if missing := Missing(in.DataDir, files); len(missing) > 0 {
			return eji.YearData{}, &DataLoadError{Year: year, Source: missing[0].LocalPath(in.DataDir), Err: ErrOffline}
		}
	} else if in.Downloader != nil {
		for _, f := range Missing(in.DataDir, files) {
			if err := in.Downloader.Fetch(ctx, in.DataDir, f, 1, 1); err != nil {
				return eji.YearData{}, &DataLoadError{Year: year, Source: f.URL, Err: err}
			}
		}
	}

	yd := eji.YearData{Year: year}
	for _, f := range files {
		path := f.LocalPath(in.DataDir)
		if _, err := os.Stat(path); err != nil {
			return eji.YearData{}, &DataLoadError{Year: year, Source: f.URL, Err: err}
		}
		if _, err := in.Store.LoadCSV(ctx, f.Table(), path, year, f.URL); err != nil {
			return eji.YearData{}, &DataLoadError{Year: year, Source: f.URL, Err: err}
		}
		t, err := in.Store.Table(ctx, f.Table())
		if err != nil {
			return eji.YearData{}, &DataLoadError{Year: year, Source: f.URL, Err: err}
		}
		t = eji.Normalize(t)
		if f.Kind == KindState {
			yd.State = t
		} else {
			yd.County = t
		}
	}

	for _, m := range eji.BaseMetrics {
		if !yd.State.HasColumn(m.Column()) && !yd.County.HasColumn(m.Column()) {
			logger.Warn("Base metric column missing", "year", year, "column", m.Column())
		}
	}
	return yd, nil
}

// FetchTimeout bounds a shared fetch once it is detached from its callers.
const FetchTimeout = 10 * time.Minute

// Repository memoizes years for the life of the process. Concurrent first
// requests for the same year share a single fetch. The fetch outlives any one
// caller's context so a cancelled request cannot fail the others waiting on
// it. Failures are not cached.
type Repository struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu    sync.RWMutex
	years map[string]eji.YearData
	group singleflight.Group
}

// NewRepository wraps fetcher with a per-year cache.
func NewRepository(fetcher Fetcher, logger *slog.Logger) *Repository {
	return &Repository{
		fetcher: fetcher,
		logger:  logging.OrDiscard(logger),
		years:   make(map[string]eji.YearData),
	}
}

// Years returns the supported years.
func (r *Repository) Years() []string {
	return append([]string(nil), SupportedYears...)
}

// Year implements Loader.
func (r *Repository) Year(ctx context.Context, year string) (eji.YearData, error) {
	if err := ValidYear(year); err != nil {
		return eji.YearData{}, err
	}

	r.mu.RLock()
	yd, ok := r.years[year]
	r.mu.RUnlock()
	if ok {
		metrics.RecordCacheHit()
		return yd, nil
	}
	metrics.RecordCacheMiss()

	ch := r.group.DoChan(year, func() (any, error) {
		r.mu.RLock()
		cached, ok := r.years[year]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FetchTimeout)
		defer cancel()

		start := time.Now()
		yd, err := r.fetcher.Fetch(fetchCtx, year)
		elapsed := float64(time.Since(start).Milliseconds())
		if err != nil {
			metrics.RecordDatasetLoad(year, metrics.OutcomeFailure, elapsed)
			var dle *DataLoadError
			if !errors.As(err, &dle) {
				err = &DataLoadError{Year: year, Err: err}
			}
			r.logger.Error("Dataset load failed", "year", year, "error", err)
			return nil, err
		}
		metrics.RecordDatasetLoad(year, metrics.OutcomeSuccess, elapsed)
		r.logger.Info("Dataset loaded", "year", year,
			"state_rows", yd.State.Len(), "county_rows", yd.County.Len(), "duration_ms", elapsed)

		r.mu.Lock()
		r.years[year] = yd
		r.mu.Unlock()
		return yd, nil
	})
	select {
	case <-ctx.Done():
		return eji.YearData{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return eji.YearData{}, res.Err
		}
		return res.Val.(eji.YearData), nil
	}
}

// Preload loads every supported year, stopping at the first failure.
func (r *Repository) Preload(ctx context.Context) error {
	for _, y := range SupportedYears {
		if _, err := r.Year(ctx, y); err != nil {
			return fmt.Errorf("failed to preload %s: %w", y, err)
		}
	}
	return nil
}

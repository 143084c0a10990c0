package data

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ejiviz/internal/eji"
)

func countingFetcher(calls *atomic.Int64, fail func(year string) error) Fetcher {
	return FetcherFunc(func(_ context.Context, year string) (eji.YearData, error) {
		calls.Add(1)
		if fail != nil {
			if err := fail(year); err != nil {
				return eji.YearData{}, err
			}
		}
		return eji.YearData{Year: year, County: eji.Table{Columns: []string{"County"}}}, nil
	})
}

func TestRepositoryMemoizesPerYear(t *testing.T) {
	var calls atomic.Int64
	repo := NewRepository(countingFetcher(&calls, nil), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		yd, err := repo.Year(ctx, "2022")
		if err != nil {
			t.Fatalf("Year failed: %v", err)
		}
		if yd.Year != "2022" {
			t.Errorf("Expected 2022, got %s", yd.Year)
		}
	}
	if _, err := repo.Year(ctx, "2024"); err != nil {
		t.Fatalf("Year failed: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("Expected one fetch per year, got %d", got)
	}
}

func TestRepositorySharesConcurrentLoads(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	fetcher := FetcherFunc(func(_ context.Context, year string) (eji.YearData, error) {
		calls.Add(1)
		<-release
		return eji.YearData{Year: year}, nil
	})
	repo := NewRepository(fetcher, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Year(context.Background(), "2024"); err != nil {
				t.Errorf("Year failed: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("Expected concurrent requests to share one fetch, got %d", got)
	}
}

func TestRepositoryCallerCancellation(t *testing.T) {
	tests := []struct {
		name    string
		waiters int
	}{
		{"lone caller gives up", 0},
		{"other waiters still succeed", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			started := make(chan struct{})
			release := make(chan struct{})
			var fetchErr atomic.Value
			fetcher := FetcherFunc(func(ctx context.Context, year string) (eji.YearData, error) {
				close(started)
				<-release
				if err := ctx.Err(); err != nil {
					fetchErr.Store(err)
					return eji.YearData{}, err
				}
				return eji.YearData{Year: year}, nil
			})
			repo := NewRepository(fetcher, nil)

			ctx, cancel := context.WithCancel(context.Background())
			first := make(chan error, 1)
			go func() {
				_, err := repo.Year(ctx, "2024")
				first <- err
			}()
			<-started

			var wg sync.WaitGroup
			errs := make(chan error, tt.waiters)
			for i := 0; i < tt.waiters; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := repo.Year(context.Background(), "2024")
					errs <- err
				}()
			}
			time.Sleep(20 * time.Millisecond)

			cancel()
			if err := <-first; !errors.Is(err, context.Canceled) {
				t.Fatalf("Expected cancelled caller to see context.Canceled, got %v", err)
			}
			close(release)
			wg.Wait()
			close(errs)

			for err := range errs {
				if err != nil {
					t.Errorf("Expected waiter to succeed, got %v", err)
				}
			}
			if err := fetchErr.Load(); err != nil {
				t.Errorf("Shared fetch saw cancellation: %v", err)
			}
			if _, err := repo.Year(context.Background(), "2024"); err != nil {
				t.Errorf("Expected the detached fetch to populate the cache: %v", err)
			}
		})
	}
}

func TestRepositoryDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int64
	boom := errors.New("connection reset")
	fail := true
	repo := NewRepository(countingFetcher(&calls, func(string) error {
		if fail {
			return boom
		}
		return nil
	}), nil)
	ctx := context.Background()

	_, err := repo.Year(ctx, "2022")
	var dle *DataLoadError
	if !errors.As(err, &dle) {
		t.Fatalf("Expected DataLoadError, got %v", err)
	}
	if dle.Year != "2022" || !errors.Is(err, boom) {
		t.Errorf("Unexpected error %v", err)
	}

	fail = false
	if _, err := repo.Year(ctx, "2022"); err != nil {
		t.Fatalf("Expected retry on the next request to succeed: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("Expected 2 fetches, got %d", got)
	}
}

func TestRepositoryRejectsUnsupportedYear(t *testing.T) {
	var calls atomic.Int64
	repo := NewRepository(countingFetcher(&calls, nil), nil)
	if _, err := repo.Year(context.Background(), "2019"); !errors.Is(err, ErrUnsupportedYear) {
		t.Errorf("Expected ErrUnsupportedYear, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("Expected no fetch for an unsupported year")
	}
}

func TestIngestorEndToEnd(t *testing.T) {
	srv, _ := setupSourceServer(t)
	store, cleanup := setupTestStore(t)
	defer cleanup()

	dataDir := t.TempDir()
	in := &Ingestor{
		Store:      store,
		Source:     Source{BaseURL: srv.URL},
		Downloader: NewDownloader(5*time.Second, nil),
		DataDir:    dataDir,
	}
	repo := NewRepository(in, nil)
	ctx := context.Background()

	y2022, err := repo.Year(ctx, "2022")
	if err != nil {
		t.Fatalf("Load 2022 failed: %v", err)
	}
	if !y2022.County.HasColumn("RPL_EJI") || y2022.County.HasColumn("Mean_EJI") {
		t.Errorf("Expected legacy columns to be normalized, got %v", y2022.County.Columns)
	}
	y2024, err := repo.Year(ctx, "2024")
	if err != nil {
		t.Fatalf("Load 2024 failed: %v", err)
	}

	if got := len(y2022.Metrics()); got != 4 {
		t.Errorf("Expected base metrics for 2022, got %d", got)
	}
	if got := len(y2024.Metrics()); got != 6 {
		t.Errorf("Expected optional metrics for 2024, got %d", got)
	}

	cmp := eji.BuildComparisonView(y2022, y2024, eji.GeoCounty, "Bernalillo")
	if cmp.Found || cmp.Notice != "No data for Bernalillo in one of the years" {
		t.Errorf("Expected Bernalillo to be missing from 2024, got %+v", cmp)
	}

	state := eji.BuildYearView(y2024, eji.GeoState, "")
	if !state.Found || state.Row.Value(eji.OverallEJI) != eji.Of(0.5905) {
		t.Errorf("Unexpected state view %+v", state)
	}
}

func TestIngestorOffline(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	dataDir := t.TempDir()
	in := &Ingestor{Store: store, Source: Source{BaseURL: "http://127.0.0.1:1"}, DataDir: dataDir, Offline: true}

	_, err := in.Fetch(context.Background(), "2022")
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("Expected ErrOffline, got %v", err)
	}

	copyTestdata(t, dataDir, "2022")
	yd, err := in.Fetch(context.Background(), "2022")
	if err != nil {
		t.Fatalf("Expected offline load from disk to work: %v", err)
	}
	if got := eji.Counties(yd.County); len(got) != 4 {
		t.Errorf("Expected 4 counties, got %v", got)
	}
}

func TestIngestorDownloadFailure(t *testing.T) {
	srv, _ := setupSourceServer(t)
	store, cleanup := setupTestStore(t)
	defer cleanup()
	in := &Ingestor{
		Store:      store,
		Source:     Source{BaseURL: srv.URL + "/missing"},
		Downloader: NewDownloader(5*time.Second, nil),
		DataDir:    t.TempDir(),
	}
	_, err := in.Fetch(context.Background(), "2024")
	var dle *DataLoadError
	if !errors.As(err, &dle) || dle.Source != in.Source.StateURL("2024") {
		t.Errorf("Expected DataLoadError naming the state URL, got %v", err)
	}
}

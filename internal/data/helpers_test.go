package data

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

// setupTestStore opens an in-memory DuckDB store.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	store, err := OpenMemoryStore(nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return store, func() { store.Close() }
}

// setupSourceServer serves testdata/ laid out like the published data
// directory and counts requests.
func setupSourceServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	hits := new(atomic.Int64)
	files := http.FileServer(http.Dir("testdata"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		files.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

// copyTestdata copies a year's fixture CSVs into dataDir.
func copyTestdata(t *testing.T, dataDir, year string) {
	t.Helper()
	for _, f := range (Source{}).Files(year) {
		src, err := os.ReadFile(filepath.Join("testdata", year, "clean", f.Name))
		if err != nil {
			t.Fatalf("Failed to read fixture: %v", err)
		}
		dest := f.LocalPath(dataDir)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(dest, src, 0o644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}
	}
}

package data

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ejiviz/internal/eji"
)

func TestStoreLoadAndReadTable(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	path := filepath.Join("testdata", "2024", "clean", CountyFileName("2024"))
	rows, err := store.LoadCSV(ctx, "county_2024", path, "2024", "fixture")
	if err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}
	if rows != 3 {
		t.Errorf("Expected 3 rows, got %d", rows)
	}

	tbl, err := store.Table(ctx, "county_2024")
	if err != nil {
		t.Fatalf("Table failed: %v", err)
	}
	wantCols := []string{"County", "RPL_EJI", "RPL_EBM", "RPL_SVM", "RPL_HVM", "RPL_CBM", "RPL_EJI_CBM"}
	if len(tbl.Columns) != len(wantCols) {
		t.Fatalf("Expected columns %v, got %v", wantCols, tbl.Columns)
	}
	for i, c := range wantCols {
		if tbl.Columns[i] != c {
			t.Errorf("Column %d: expected %s, got %s", i, c, tbl.Columns[i])
		}
	}

	row, ok := eji.SelectCounty(tbl, "Luna", "2024", eji.AllMetrics())
	if !ok {
		t.Fatal("Expected Luna row")
	}
	if got := row.Value(eji.OverallEJI); got != eji.Of(0.7904) {
		t.Errorf("Expected 0.7904, got %+v", got)
	}
	if got := row.Value(eji.ClimateBurden); got.Valid {
		t.Errorf("Expected empty CSV cell to be missing, got %+v", got)
	}
}

func TestStoreTablesAndSchema(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	path := filepath.Join("testdata", "2022", "clean", StateFileName("2022"))
	if _, err := store.LoadCSV(ctx, "state_2022", path, "2022", "fixture"); err != nil {
		t.Fatalf("LoadCSV failed: %v", err)
	}

	names, err := store.Tables(ctx)
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	found := false
	for _, n := range names {
		if n == "state_2022" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected state_2022 in %v", names)
	}

	cols, err := store.TableInfo(ctx, "state_2022")
	if err != nil {
		t.Fatalf("TableInfo failed: %v", err)
	}
	if len(cols) != 5 || cols[0].Name != "State" || cols[1].Type != "VARCHAR" {
		t.Errorf("Unexpected schema %+v", cols)
	}

	res, err := store.ExecuteQuery(ctx, "SELECT State FROM state_2022 WHERE State = 'New Mexico'")
	if err != nil {
		t.Fatalf("ExecuteQuery failed: %v", err)
	}
	if len(res) != 1 || res[0]["State"] != "New Mexico" {
		t.Errorf("Unexpected query result %v", res)
	}

	summary, err := store.Summarize(ctx, "state_2022")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(summary) != 5 {
		t.Errorf("Expected one summary row per column, got %d", len(summary))
	}

	ingests, err := store.Ingests(ctx)
	if err != nil {
		t.Fatalf("Ingests failed: %v", err)
	}
	if len(ingests) != 1 || ingests[0].Rows != 3 || ingests[0].Year != "2022" {
		t.Errorf("Unexpected ingest log %+v", ingests)
	}
}

func TestStoreRejectsBadIdentifiers(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	for _, name := range []string{"state_2022; DROP TABLE x", "", "1abc", `a"b`} {
		if _, err := store.Table(context.Background(), name); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("Expected ErrInvalidIdentifier for %q, got %v", name, err)
		}
	}
}

func TestNarrationCache(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.LoadNarration(ctx, "k", time.Hour); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Expected cache miss, got %v", err)
	}
	if err := store.SaveNarration(ctx, "k", "claude-haiku-4-5", "EJI rose."); err != nil {
		t.Fatalf("SaveNarration failed: %v", err)
	}
	got, err := store.LoadNarration(ctx, "k", time.Hour)
	if err != nil || got != "EJI rose." {
		t.Errorf("Expected cached narration, got %q (%v)", got, err)
	}
	if err := store.SaveNarration(ctx, "k", "claude-haiku-4-5", "EJI fell."); err != nil {
		t.Fatalf("SaveNarration upsert failed: %v", err)
	}
	if got, _ := store.LoadNarration(ctx, "k", time.Hour); got != "EJI fell." {
		t.Errorf("Expected upserted narration, got %q", got)
	}
}

package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"ejiviz/internal/eji"
	"ejiviz/internal/logging"
)

// DBFileName is the DuckDB database kept in the data directory.
const DBFileName = "eji.duckdb"

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store wraps the DuckDB connection holding the ingested CSVs.
type Store struct {
	conn   *sql.DB
	path   string
	logger *slog.Logger
}

// ColumnInfo is one row of PRAGMA table_info.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// IngestRecord describes when a table was last loaded.
type IngestRecord struct {
	Table    string    `json:"table"`
	Year     string    `json:"year"`
	Source   string    `json:"source"`
	Rows     int64     `json:"rows"`
	LoadedAt time.Time `json:"loaded_at"`
}

// OpenStore opens (creating if needed) <dataDir>/eji.duckdb.
func OpenStore(dataDir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return openStore(filepath.Join(dataDir, DBFileName), logger)
}

// OpenMemoryStore opens an in-memory DuckDB database.
func OpenMemoryStore(logger *slog.Logger) (*Store, error) {
	return openStore("", logger)
}

func openStore(path string, logger *slog.Logger) (*Store, error) {
	logger = logging.OrDiscard(logger)
	db, err := sql.Open("duckdb", path)
	if err != nil {
		logger.Error("Failed to open DuckDB database", "error", err, "db_path", path)
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	s := &Store{conn: db, path: path, logger: logger}
	if err := s.createCacheTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createCacheTables() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS ingest_log (
			table_name VARCHAR PRIMARY KEY,
			year VARCHAR NOT NULL,
			source VARCHAR NOT NULL,
			row_count BIGINT NOT NULL,
			loaded_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create ingest_log table: %w", err)
	}
	_, err = s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS narration_cache (
			cache_key VARCHAR PRIMARY KEY,
			model VARCHAR NOT NULL,
			content VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create narration_cache table: %w", err)
	}
	return nil
}

// Close closes the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func quoteIdent(name string) (string, error) {
	if !identifier.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return `"` + name + `"`, nil
}

// LoadCSV replaces table with the contents of the CSV at path. Every column
// is read as text; numeric conversion happens when rows are selected.
func (s *Store) LoadCSV(ctx context.Context, table, path, year, source string) (int64, error) {
	ident, err := quoteIdent(table)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	query := fmt.Sprintf(`
		CREATE OR REPLACE TABLE %s AS
		SELECT * FROM read_csv('%s', header=true, all_varchar=true)
	`, ident, strings.ReplaceAll(path, "'", "''"))
	if _, err := s.conn.ExecContext(ctx, query); err != nil {
		s.logger.Error("Failed to ingest CSV", "error", err, "table", table, "path", path)
		return 0, fmt.Errorf("failed to create %s table: %w", table, err)
	}

	var rows int64
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+ident).Scan(&rows); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", table, err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO ingest_log (table_name, year, source, row_count, loaded_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (table_name) DO UPDATE SET
			year = EXCLUDED.year,
			source = EXCLUDED.source,
			row_count = EXCLUDED.row_count,
			loaded_at = EXCLUDED.loaded_at
	`, table, year, source, rows, time.Now().UTC())
	if err != nil {
		s.logger.Warn("Failed to record ingest", "error", err, "table", table)
	}

	s.logger.Info("Ingested CSV", "table", table, "rows", rows, "duration", time.Since(start))
	return rows, nil
}

// Table reads every row of name into an eji.Table in storage order.
func (s *Store) Table(ctx context.Context, name string) (eji.Table, error) {
	ident, err := quoteIdent(name)
	if err != nil {
		return eji.Table{}, err
	}
	rows, err := s.conn.QueryContext(ctx, "SELECT * FROM "+ident)
	if err != nil {
		return eji.Table{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return eji.Table{}, fmt.Errorf("failed to get columns: %w", err)
	}
	t := eji.Table{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return eji.Table{}, fmt.Errorf("failed to scan %s row: %w", name, err)
		}
		t.Rows = append(t.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return eji.Table{}, fmt.Errorf("error iterating %s: %w", name, err)
	}
	return t, nil
}

// Tables lists the tables in the database.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// TableInfo describes the columns of name.
func (s *Store) TableInfo(ctx context.Context, name string) ([]ColumnInfo, error) {
	if _, err := quoteIdent(name); err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info('%s')", name))
	if err != nil {
		return nil, fmt.Errorf("failed to get schema for %s: %w", name, err)
	}
	defer rows.Close()

	var cols []ColumnInfo
	for rows.Next() {
		var (
			cid       int
			colName   string
			colType   string
			notNull   bool
			dfltValue sql.NullString
			pk        bool
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		cols = append(cols, ColumnInfo{Name: colName, Type: colType, Nullable: !notNull})
	}
	return cols, rows.Err()
}

// ExecuteQuery runs arbitrary DuckDB SQL and returns rows keyed by column.
func (s *Store) ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()
	return scanMaps(rows)
}

// Summarize runs DuckDB's SUMMARIZE over name.
func (s *Store) Summarize(ctx context.Context, name string) ([]map[string]any, error) {
	ident, err := quoteIdent(name)
	if err != nil {
		return nil, err
	}
	return s.ExecuteQuery(ctx, "SUMMARIZE "+ident)
}

// Ingests lists the ingest log, newest first.
func (s *Store) Ingests(ctx context.Context) ([]IngestRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT table_name, year, source, row_count, loaded_at
		FROM ingest_log ORDER BY loaded_at DESC, table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read ingest log: %w", err)
	}
	defer rows.Close()

	var out []IngestRecord
	for rows.Next() {
		var r IngestRecord
		if err := rows.Scan(&r.Table, &r.Year, &r.Source, &r.Rows, &r.LoadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ingest record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveNarration caches generated comparison text.
func (s *Store) SaveNarration(ctx context.Context, key, model, content string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO narration_cache (cache_key, model, content, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cache_key) DO UPDATE SET
			model = EXCLUDED.model,
			content = EXCLUDED.content,
			created_at = EXCLUDED.created_at
	`, key, model, content, time.Now().UTC())
	if err != nil {
		s.logger.Error("Failed to save narration cache", "error", err, "key", key)
		return fmt.Errorf("failed to save narration cache: %w", err)
	}
	return nil
}

// ErrCacheMiss is returned when no fresh narration is cached.
var ErrCacheMiss = errors.New("no cache entry found")

// LoadNarration returns cached text no older than maxAge.
func (s *Store) LoadNarration(ctx context.Context, key string, maxAge time.Duration) (string, error) {
	var (
		content   string
		createdAt time.Time
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT content, created_at FROM narration_cache WHERE cache_key = $1`, key,
	).Scan(&content, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to load narration cache: %w", err)
	}
	if time.Since(createdAt) > maxAge {
		return "", ErrCacheMiss
	}
	return content, nil
}

func scanMaps(rows *sql.Rows) ([]map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

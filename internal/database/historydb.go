package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/seosmoke/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "seosmoke.db"

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02 15:04:05.000000"

// HistoryDB provides SQLite-based storage for check reports.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS check_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		report_json TEXT NOT NULL,
		summary TEXT,
		fingerprint TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_url ON check_runs(url);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON check_runs(timestamp);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport stores a report and returns its run ID.
func (h *HistoryDB) SaveReport(ctx context.Context, report *model.Report) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	summaryJSON, err := json.Marshal(report.Summary())
	if err != nil {
		return 0, fmt.Errorf("failed to serialize summary: %w", err)
	}

	query := `
	INSERT INTO check_runs (url, timestamp, report_json, summary, fingerprint)
	VALUES (?, ?, ?, ?, ?)
	`

	res, err := h.db.ExecContext(ctx, query,
		report.URL,
		formatTimestamp(report.DateChecked),
		string(reportJSON),
		string(summaryJSON),
		report.Fingerprint,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}
	return res.LastInsertId()
}

// GetLatestReport retrieves the most recent report for url.
// It returns nil without error when url has never been checked.
func (h *HistoryDB) GetLatestReport(ctx context.Context, url string) (*model.Report, error) {
	query := `
	SELECT report_json FROM check_runs
	WHERE url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`
	return h.queryReport(ctx, query, url)
}

// GetReportByID retrieves a report by its run ID.
// It returns nil without error when the ID does not exist.
func (h *HistoryDB) GetReportByID(ctx context.Context, id int64) (*model.Report, error) {
	query := `
	SELECT report_json FROM check_runs
	WHERE id = ?
	`
	return h.queryReport(ctx, query, id)
}

func (h *HistoryDB) queryReport(ctx context.Context, query string, arg any) (*model.Report, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, query, arg).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// ListCheckedURLs returns every URL that has at least one stored run.
func (h *HistoryDB) ListCheckedURLs(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT url FROM check_runs
	ORDER BY url
	`

	rows, err := h.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list URLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// GetHistory retrieves all reports for url, newest first.
// Rows whose JSON cannot be decoded are skipped.
func (h *HistoryDB) GetHistory(ctx context.Context, url string) ([]*model.Report, error) {
	query := `
	SELECT report_json FROM check_runs
	WHERE url = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := h.db.QueryContext(ctx, query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.Report
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

// RunMetadata describes a stored run without loading the full report.
type RunMetadata struct {
	// ID is the run identifier.
	ID int64 `json:"id"`

	// URL is the checked URL.
	URL string `json:"url"`

	// Timestamp is when the run started.
	Timestamp time.Time `json:"timestamp"`

	// Summary counts results by status.
	Summary model.Summary `json:"summary"`

	// Fingerprint is the page content fingerprint, empty if the fetch failed.
	Fingerprint string `json:"fingerprint,omitempty"`
}

// GetHistoryWithMetadata retrieves run metadata for url, newest first.
func (h *HistoryDB) GetHistoryWithMetadata(ctx context.Context, url string) ([]RunMetadata, error) {
	return h.queryMetadata(ctx, `
	SELECT id, url, timestamp, summary, fingerprint
	FROM check_runs
	WHERE url = ?
	ORDER BY timestamp DESC, id DESC
	`, url)
}

// GetHistorySince retrieves run metadata for url at or after since, newest first.
func (h *HistoryDB) GetHistorySince(ctx context.Context, url string, since time.Time) ([]RunMetadata, error) {
	return h.queryMetadata(ctx, `
	SELECT id, url, timestamp, summary, fingerprint
	FROM check_runs
	WHERE url = ? AND timestamp >= ?
	ORDER BY timestamp DESC, id DESC
	`, url, formatTimestamp(since))
}

func (h *HistoryDB) queryMetadata(ctx context.Context, query string, args ...any) ([]RunMetadata, error) {
	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string
		var summaryJSON, fingerprint sql.NullString

		if err := rows.Scan(&meta.ID, &meta.URL, &timestamp, &summaryJSON, &fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Fingerprint = fingerprint.String
		if summaryJSON.Valid && summaryJSON.String != "" {
			// A malformed summary leaves the zero counts in place.
			_ = json.Unmarshal([]byte(summaryJSON.String), &meta.Summary) //nolint:errcheck
		}

		results = append(results, meta)
	}
	return results, rows.Err()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats lists the layouts accepted when reading timestamps back.
// The order matters: more specific formats come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// parseTimestamp parses s with the first matching layout, as UTC.
// It returns the zero time when no layout matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

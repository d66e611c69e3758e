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

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// DatabaseFile is the file name of the archive inside the database directory.
const DatabaseFile = "arachne.db"

// ErrScanNotFound is returned when no archived report matches a query.
var ErrScanNotFound = errors.New("scan report not found")

// CrawlDB provides SQLite-based storage for crawl reports.
// It is safe for concurrent use; batch crawls save into one CrawlDB.
//
// Design decision: We store the full report as JSON next to a few summary
// columns. The JSON keeps the archive in step with the report format, and the
// columns let history listings run without decoding every report.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, DatabaseFile)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
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

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per completed crawl
	CREATE TABLE IF NOT EXISTS scan_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		scanned_at INTEGER NOT NULL,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		broken_links INTEGER NOT NULL DEFAULT 0,
		high_count INTEGER NOT NULL DEFAULT 0,
		medium_count INTEGER NOT NULL DEFAULT 0,
		low_count INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_seed ON scan_reports(seed);
	CREATE INDEX IF NOT EXISTS idx_reports_scanned_at ON scan_reports(scanned_at);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveScanReport archives a crawl report and returns its ID.
func (cdb *CrawlDB) SaveScanReport(ctx context.Context, report *model.ScanReport) (int64, error) {
	if report.Result == nil {
		report.Result = model.NewResult()
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	summary := report.Summary()
	query := `
	INSERT INTO scan_reports (seed, scanned_at, pages_crawled, broken_links, high_count, medium_count, low_count, cancelled, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := cdb.db.ExecContext(ctx, query,
		report.Seed,
		report.DateScanned.UnixNano(),
		summary.PagesCrawled,
		summary.BrokenLinks,
		summary.High,
		summary.Medium,
		summary.Low,
		report.Cancelled,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save scan report: %w", err)
	}

	return result.LastInsertId()
}

// GetLatestScanReport retrieves the most recent report for seed.
// It returns ErrScanNotFound when the seed was never archived.
func (cdb *CrawlDB) GetLatestScanReport(ctx context.Context, seed string) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scan_reports
	WHERE seed = ?
	ORDER BY scanned_at DESC, id DESC
	LIMIT 1
	`

	return cdb.queryReport(ctx, query, seed)
}

// GetScanReportByID retrieves a report by its database ID.
// It returns ErrScanNotFound when no report has that ID.
func (cdb *CrawlDB) GetScanReportByID(ctx context.Context, id int64) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scan_reports
	WHERE id = ?
	`

	return cdb.queryReport(ctx, query, id)
}

// queryReport runs a single-row report query.
func (cdb *CrawlDB) queryReport(ctx context.Context, query string, arg any) (*model.ScanReport, error) {
	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, arg).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	return decodeReport(reportJSON)
}

// decodeReport parses an archived report.
func decodeReport(reportJSON string) (*model.ScanReport, error) {
	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if report.Result == nil {
		report.Result = model.NewResult()
	}
	return &report, nil
}

// ListScannedSeeds returns every archived seed in lexical order.
func (cdb *CrawlDB) ListScannedSeeds(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT seed FROM scan_reports
	ORDER BY seed
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []string
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}

	return seeds, rows.Err()
}

// GetScanHistory retrieves all reports for seed, newest first.
// Malformed rows are skipped.
func (cdb *CrawlDB) GetScanHistory(ctx context.Context, seed string) ([]*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scan_reports
	WHERE seed = ?
	ORDER BY scanned_at DESC, id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var reports []*model.ScanReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		report, err := decodeReport(reportJSON)
		if err != nil {
			continue
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// ScanReportMetadata contains summary information about an archived report.
// This is used for displaying scan history without loading the full report.
type ScanReportMetadata struct {
	// ID is the unique identifier of the report in the database.
	ID int64 `json:"id"`

	// Seed is the start URL of the crawl.
	Seed string `json:"seed"`

	// DateScanned is when the crawl started.
	DateScanned time.Time `json:"date_scanned"`

	// Cancelled marks a partial report.
	Cancelled bool `json:"cancelled"`

	// Summary holds the page, broken link and severity counts.
	Summary model.Summary `json:"summary"`
}

// GetScanHistoryWithMetadata retrieves report metadata for seed, newest first.
// This is more efficient than GetScanHistory when only metadata is needed.
func (cdb *CrawlDB) GetScanHistoryWithMetadata(ctx context.Context, seed string) ([]ScanReportMetadata, error) {
	query := `
	SELECT id, seed, scanned_at, pages_crawled, broken_links, high_count, medium_count, low_count, cancelled
	FROM scan_reports
	WHERE seed = ?
	ORDER BY scanned_at DESC, id DESC
	`

	rows, err := cdb.db.QueryContext(ctx, query, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var results []ScanReportMetadata
	for rows.Next() {
		var meta ScanReportMetadata
		var scannedAt int64

		err := rows.Scan(
			&meta.ID,
			&meta.Seed,
			&scannedAt,
			&meta.Summary.PagesCrawled,
			&meta.Summary.BrokenLinks,
			&meta.Summary.High,
			&meta.Summary.Medium,
			&meta.Summary.Low,
			&meta.Cancelled,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.DateScanned = time.Unix(0, scannedAt)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// DeleteScanHistory removes every archived report for seed and returns the count.
func (cdb *CrawlDB) DeleteScanHistory(ctx context.Context, seed string) (int64, error) {
	result, err := cdb.db.ExecContext(ctx, `DELETE FROM scan_reports WHERE seed = ?`, seed)
	if err != nil {
		return 0, fmt.Errorf("failed to delete scan history: %w", err)
	}
	return result.RowsAffected()
}

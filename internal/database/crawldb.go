package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/multicrawler/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "multicrawler.db"

// CrawlDB stores crawl results in SQLite.
// Results from every crawl accumulate in one table until ClearAll is called.
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

	// EnableWAL enables Write-Ahead Logging so readers don't block the
	// crawl while it is inserting.
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
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

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

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every worker inserts through this handle; SQLite has a single writer.
	db.SetMaxOpenConns(1)
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

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

func (cdb *CrawlDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS crawl_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		status_code INTEGER,
		content_size INTEGER,
		referrer TEXT,
		content_type TEXT,
		page_title TEXT,
		load_time INTEGER,
		timestamp INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_crawl_results_url ON crawl_results(url);
	CREATE INDEX IF NOT EXISTS idx_crawl_results_timestamp ON crawl_results(timestamp);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Insert appends a result. Duplicate URLs are kept: every revisit and
// every crawl adds a row.
func (cdb *CrawlDB) Insert(ctx context.Context, result model.CrawlResult) error {
	query := `
	INSERT INTO crawl_results (url, status_code, content_size, referrer, content_type, page_title, load_time, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := cdb.db.ExecContext(ctx, query,
		result.URL,
		result.StatusCode,
		result.ContentSize,
		result.Referrer,
		result.ContentType,
		result.Title,
		result.LoadTime,
		result.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert crawl result: %w", err)
	}
	return nil
}

// GetAll returns every stored result in insertion order.
func (cdb *CrawlDB) GetAll(ctx context.Context) ([]model.CrawlResult, error) {
	query := `
	SELECT url, status_code, content_size, referrer, content_type, page_title, load_time, timestamp
	FROM crawl_results
	ORDER BY id
	`

	rows, err := cdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl results: %w", err)
	}
	defer rows.Close()

	results := make([]model.CrawlResult, 0)
	for rows.Next() {
		var (
			r           model.CrawlResult
			referrer    sql.NullString
			contentType sql.NullString
			title       sql.NullString
		)
		err := rows.Scan(
			&r.URL,
			&r.StatusCode,
			&r.ContentSize,
			&referrer,
			&contentType,
			&title,
			&r.LoadTime,
			&r.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crawl result: %w", err)
		}
		r.Referrer = referrer.String
		r.ContentType = contentType.String
		r.Title = title.String
		results = append(results, r)
	}

	return results, rows.Err()
}

// Count returns the number of stored results.
func (cdb *CrawlDB) Count(ctx context.Context) (int, error) {
	var n int
	if err := cdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM crawl_results").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count crawl results: %w", err)
	}
	return n, nil
}

// ClearAll deletes every stored result.
func (cdb *CrawlDB) ClearAll(ctx context.Context) error {
	if _, err := cdb.db.ExecContext(ctx, "DELETE FROM crawl_results"); err != nil {
		return fmt.Errorf("failed to clear crawl results: %w", err)
	}
	return nil
}

// Statistics aggregates the stored results. An empty table yields zeros.
func (cdb *CrawlDB) Statistics(ctx context.Context) (model.Statistics, error) {
	query := `
	SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN status_code >= 200 AND status_code < 300 THEN 1 ELSE 0 END), 0),
		COALESCE(AVG(content_size), 0),
		COALESCE(MAX(timestamp) - MIN(timestamp), 0)
	FROM crawl_results
	`

	var stats model.Statistics
	err := cdb.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalPages,
		&stats.SuccessCount,
		&stats.AverageSize,
		&stats.TotalTime,
	)
	if err != nil {
		return model.Statistics{}, fmt.Errorf("failed to compute statistics: %w", err)
	}
	return stats, nil
}

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

	"github.com/nao1215/linkaudit/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "linkaudit.db"

// HistoryDB stores audit reports.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the directory and the database file.
	CreateIfNotExists bool

	// EnableWAL switches the journal to write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns options that create the database with WAL enabled.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	mode := "rw"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		mode = "rwc"
	} else if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		}
		return nil, fmt.Errorf("failed to check database path: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := h.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS audit_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		base_url TEXT NOT NULL,
		base_domain TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		pages_audited INTEGER NOT NULL DEFAULT 0,
		total_links INTEGER NOT NULL DEFAULT 0,
		broken_links INTEGER NOT NULL DEFAULT 0,
		average_score REAL NOT NULL DEFAULT 0,
		severity_summary TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_base_url ON audit_reports(base_url);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON audit_reports(timestamp);
	`
	_, err := h.db.ExecContext(ctx, schema)
	return err
}

// ReportMetadata summarizes a stored report without loading it.
type ReportMetadata struct {
	ID           int64
	BaseURL      string
	Timestamp    time.Time
	PagesAudited int
	TotalLinks   int
	BrokenLinks  int
	AverageScore float64

	// SeveritySummary maps "critical", "high", "medium", "low" and "info"
	// to finding counts.
	SeveritySummary map[string]int
}

// SaveReport stores report and returns its ID.
func (h *HistoryDB) SaveReport(ctx context.Context, report *model.AuditReport) (int64, error) {
	simple := model.NewSimpleReport(report)

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}
	summaryJSON, err := json.Marshal(map[string]int{
		"critical": simple.CriticalCount,
		"high":     simple.HighCount,
		"medium":   simple.MediumCount,
		"low":      simple.LowCount,
		"info":     simple.InfoCount,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to serialize severity summary: %w", err)
	}

	query := `
	INSERT INTO audit_reports
		(base_url, base_domain, timestamp, pages_audited, total_links, broken_links, average_score, severity_summary, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := h.db.ExecContext(ctx, query,
		report.BaseURL,
		report.BaseDomain,
		report.DateAudited.UTC().Format(timestampLayout),
		simple.PagesAudited,
		simple.TotalLinks,
		simple.BrokenLinks,
		simple.AverageScore,
		string(summaryJSON),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save audit report: %w", err)
	}
	return result.LastInsertId()
}

// ReportByID returns the report stored under id.
func (h *HistoryDB) ReportByID(ctx context.Context, id int64) (*model.AuditReport, error) {
	var reportJSON string
	err := h.db.QueryRowContext(ctx, `SELECT report_json FROM audit_reports WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNoReport, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit report: %w", err)
	}
	return decodeReport(reportJSON)
}

// LatestReports returns up to n reports of baseURL, newest first.
func (h *HistoryDB) LatestReports(ctx context.Context, baseURL string, n int) ([]*model.AuditReport, error) {
	query := `
	SELECT report_json FROM audit_reports
	WHERE base_url = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT ?
	`
	rows, err := h.db.QueryContext(ctx, query, baseURL, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.AuditReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit report: %w", err)
		}
		report, err := decodeReport(reportJSON)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit reports: %w", err)
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReport, baseURL)
	}
	return reports, nil
}

// History lists the stored runs of baseURL, newest first.
func (h *HistoryDB) History(ctx context.Context, baseURL string) ([]ReportMetadata, error) {
	query := `
	SELECT id, base_url, timestamp, pages_audited, total_links, broken_links, average_score, severity_summary
	FROM audit_reports
	WHERE base_url = ?
	ORDER BY timestamp DESC, id DESC
	`
	rows, err := h.db.QueryContext(ctx, query, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var (
			meta        ReportMetadata
			timestamp   string
			summaryJSON sql.NullString
		)
		if err := rows.Scan(&meta.ID, &meta.BaseURL, &timestamp, &meta.PagesAudited,
			&meta.TotalLinks, &meta.BrokenLinks, &meta.AverageScore, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)
		meta.SeveritySummary = make(map[string]int)
		if summaryJSON.Valid && summaryJSON.String != "" {
			_ = json.Unmarshal([]byte(summaryJSON.String), &meta.SeveritySummary) //nolint:errcheck // a broken summary leaves the map empty
		}
		results = append(results, meta)
	}
	return results, rows.Err()
}

// ListSites returns every base URL with at least one stored report.
func (h *HistoryDB) ListSites(ctx context.Context) ([]string, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT DISTINCT base_url FROM audit_reports ORDER BY base_url`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// Prune deletes all but the newest keep reports of baseURL and returns how
// many were removed.
func (h *HistoryDB) Prune(ctx context.Context, baseURL string, keep int) (int64, error) {
	query := `
	DELETE FROM audit_reports
	WHERE base_url = ? AND id NOT IN (
		SELECT id FROM audit_reports
		WHERE base_url = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	)
	`
	result, err := h.db.ExecContext(ctx, query, baseURL, baseURL, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit reports: %w", err)
	}
	return result.RowsAffected()
}

func decodeReport(reportJSON string) (*model.AuditReport, error) {
	var report model.AuditReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse audit report: %w", err)
	}
	return &report, nil
}

// timestampLayout is the stored timestamp format. It is fixed width, so the
// text order of the column is the time order; RFC3339Nano trims trailing
// zeros and would sort "...:53Z" after "...:53.5Z".
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// timestampFormats are tried in order by parseTimestamp.
var timestampFormats = []string{
	timestampLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses a stored timestamp, returning the zero time when no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

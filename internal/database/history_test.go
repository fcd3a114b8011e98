package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/linkaudit/internal/model"
)

func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newReport(baseURL string, audited time.Time, findings ...model.Finding) *model.AuditReport {
	report := model.NewAuditReport(baseURL, "example.com")
	report.DateAudited = audited
	report.AddPage(&model.Page{URL: baseURL, FetchStatus: model.FetchSuccess, StatusCode: 200})
	report.Stats = model.LinkStats{Total: 10, Internal: 7, External: 3, StatusChecked: true, Checked: 10, Broken: 2}
	report.AverageScore = 64.5
	for _, f := range findings {
		report.AddFinding(f)
	}
	return report
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nested", "dir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("missing database without create", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Errorf("expected ErrDatabaseNotFound, got %v", err)
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if _, err := db.SaveReport(context.Background(), newReport("https://example.com/", time.Now())); err != nil {
			t.Fatalf("failed to save report: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()

		sites, err := db.ListSites(context.Background())
		if err != nil {
			t.Fatalf("ListSites failed: %v", err)
		}
		if len(sites) != 1 {
			t.Errorf("expected 1 site, got %v", sites)
		}
	})
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists || !opts.EnableWAL {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestSaveAndLoadReport(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	audited := time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)
	report := newReport("https://example.com/", audited,
		model.NewFinding(model.FindingBrokenLinks, "Broken links", "", "2", "https://example.com/"))

	id, err := db.SaveReport(ctx, report)
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("unexpected id %d", id)
	}

	loaded, err := db.ReportByID(ctx, id)
	if err != nil {
		t.Fatalf("ReportByID failed: %v", err)
	}
	if loaded.BaseURL != report.BaseURL {
		t.Errorf("BaseURL = %q", loaded.BaseURL)
	}
	if !loaded.DateAudited.Equal(audited) {
		t.Errorf("DateAudited = %v, want %v", loaded.DateAudited, audited)
	}
	if loaded.Stats.Broken != 2 {
		t.Errorf("Stats.Broken = %d", loaded.Stats.Broken)
	}
	if len(loaded.Findings()) != 1 || loaded.Findings()[0].Type != model.FindingBrokenLinks {
		t.Errorf("unexpected findings: %+v", loaded.Findings())
	}

	if _, err := db.ReportByID(ctx, id+100); !errors.Is(err, ErrNoReport) {
		t.Errorf("expected ErrNoReport, got %v", err)
	}
}

func TestLatestReports(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		if _, err := db.SaveReport(ctx, newReport("https://example.com/", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
	}
	if _, err := db.SaveReport(ctx, newReport("https://other.example/", base)); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	reports, err := db.LatestReports(ctx, "https://example.com/", 2)
	if err != nil {
		t.Fatalf("LatestReports failed: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if !reports[0].DateAudited.After(reports[1].DateAudited) {
		t.Error("reports must be ordered newest first")
	}
	if !reports[0].DateAudited.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("newest report = %v", reports[0].DateAudited)
	}

	if _, err := db.LatestReports(ctx, "https://unknown.example/", 2); !errors.Is(err, ErrNoReport) {
		t.Errorf("expected ErrNoReport, got %v", err)
	}
}

func TestLatestReportsWithinOneSecond(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	whole := time.Date(2026, 9, 1, 12, 0, 53, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)

	// The newer run is saved first so that the id order disagrees with the
	// time order.
	newerID, err := db.SaveReport(ctx, newReport("https://example.com/", half))
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if _, err := db.SaveReport(ctx, newReport("https://example.com/", whole)); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	reports, err := db.LatestReports(ctx, "https://example.com/", 2)
	if err != nil {
		t.Fatalf("LatestReports failed: %v", err)
	}
	if len(reports) != 2 || !reports[0].DateAudited.Equal(half) || !reports[1].DateAudited.Equal(whole) {
		t.Fatalf("expected %v before %v, got %v", half, whole, []time.Time{reports[0].DateAudited, reports[len(reports)-1].DateAudited})
	}

	history, err := db.History(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 || history[0].ID != newerID || !history[0].Timestamp.Equal(half) {
		t.Errorf("expected report %d first, got %+v", newerID, history)
	}
}

func TestHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	first := newReport("https://example.com/", base,
		model.NewFinding(model.FindingRobotsDisallowAll, "Blocked", "", "", ""),
		model.NewFinding(model.FindingBrokenLinks, "Broken links", "", "2", ""))
	second := newReport("https://example.com/", base.Add(24*time.Hour))

	firstID, err := db.SaveReport(ctx, first)
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if _, err := db.SaveReport(ctx, second); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	history, err := db.History(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}

	oldest := history[1]
	if oldest.ID != firstID {
		t.Errorf("oldest ID = %d, want %d", oldest.ID, firstID)
	}
	if !oldest.Timestamp.Equal(base) {
		t.Errorf("Timestamp = %v", oldest.Timestamp)
	}
	if oldest.SeveritySummary["critical"] != 1 || oldest.SeveritySummary["high"] != 1 {
		t.Errorf("unexpected summary: %v", oldest.SeveritySummary)
	}
	if oldest.PagesAudited != 1 || oldest.TotalLinks != 10 || oldest.BrokenLinks != 2 || oldest.AverageScore != 64.5 {
		t.Errorf("unexpected metadata: %+v", oldest)
	}

	empty, err := db.History(ctx, "https://unknown.example/")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no history, got %d", len(empty))
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	for i := range 4 {
		if _, err := db.SaveReport(ctx, newReport("https://example.com/", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
	}

	removed, err := db.Prune(ctx, "https://example.com/", 1)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	history, err := db.History(ctx, "https://example.com/")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || !history[0].Timestamp.Equal(base.Add(3*time.Hour)) {
		t.Errorf("unexpected remaining history: %+v", history)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-09-01T08:30:00.500000000Z", time.Date(2026, 9, 1, 8, 30, 0, 500000000, time.UTC)},
		{"2026-09-01T08:30:00.123Z", time.Date(2026, 9, 1, 8, 30, 0, 123000000, time.UTC)},
		{"2026-09-01 08:30:00", time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC)},
		{"not a time", time.Time{}},
	}
	for _, tt := range tests {
		if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

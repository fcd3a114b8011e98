package main

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/nao1215/linkaudit/internal/database"
	"github.com/nao1215/linkaudit/internal/report"
)

func TestSiteKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"https://example.com", "https://example.com", false},
		{"https://Example.com/", "https://example.com", false},
		{"https://example.com/docs/?q=1#top", "https://example.com/docs", false},
		{"example.com", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := siteKey(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("siteKey(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("siteKey(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSelectReports(t *testing.T) {
	t.Parallel()

	dir, ids := seedHistory(t, 1, 8, 15)
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	t.Run("latest two by default", func(t *testing.T) {
		t.Parallel()
		previous, current, err := selectReports(ctx, db, testSite, compareOptions{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if previous.DateAudited.Day() != 8 || current.DateAudited.Day() != 15 {
			t.Errorf("got %v -> %v", previous.DateAudited, current.DateAudited)
		}
	})

	t.Run("explicit IDs", func(t *testing.T) {
		t.Parallel()
		previous, current, err := selectReports(ctx, db, testSite, compareOptions{fromID: ids[0], toID: ids[1]})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if previous.DateAudited.Day() != 1 || current.DateAudited.Day() != 8 {
			t.Errorf("got %v -> %v", previous.DateAudited, current.DateAudited)
		}
	})

	t.Run("since date", func(t *testing.T) {
		t.Parallel()
		previous, current, err := selectReports(ctx, db, testSite, compareOptions{since: "2026-09-05"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if previous.DateAudited.Day() != 8 || current.DateAudited.Day() != 15 {
			t.Errorf("got %v -> %v", previous.DateAudited, current.DateAudited)
		}
	})

	t.Run("since leaves a single report", func(t *testing.T) {
		t.Parallel()
		if _, _, err := selectReports(ctx, db, testSite, compareOptions{since: "2026-09-10"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("since matches nothing", func(t *testing.T) {
		t.Parallel()
		if _, _, err := selectReports(ctx, db, testSite, compareOptions{since: "2027-01-01"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		t.Parallel()
		if _, _, err := selectReports(ctx, db, testSite, compareOptions{since: "09/01/2026"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("ID of another site", func(t *testing.T) {
		t.Parallel()
		_, _, err := selectReports(ctx, db, "https://other.example", compareOptions{fromID: ids[0]})
		if err == nil || !strings.Contains(err.Error(), "belongs to") {
			t.Errorf("expected ownership error, got %v", err)
		}
	})

	t.Run("unknown ID", func(t *testing.T) {
		t.Parallel()
		if _, _, err := selectReports(ctx, db, testSite, compareOptions{fromID: 9999}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("to without from", func(t *testing.T) {
		t.Parallel()
		if _, _, err := selectReports(ctx, db, testSite, compareOptions{toID: ids[1]}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown site", func(t *testing.T) {
		t.Parallel()
		if _, _, err := selectReports(ctx, db, "https://unknown.example", compareOptions{}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestCompareCmd(t *testing.T) {
	t.Parallel()

	t.Run("text output", func(t *testing.T) {
		t.Parallel()
		dir, _ := seedHistory(t, 1, 8)
		out, err := runCmd(t, "compare", "--db-dir", dir, testSite)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Audit Comparison: "+testSite) {
			t.Errorf("unexpected output: %q", out)
		}
		if !strings.Contains(out, "Resolved Findings (1)") {
			t.Errorf("expected the broken links finding to be resolved, got %q", out)
		}
		if !strings.Contains(out, "IMPROVED") {
			t.Errorf("expected improvement, got %q", out)
		}
	})

	t.Run("json output", func(t *testing.T) {
		t.Parallel()
		dir, ids := seedHistory(t, 1, 8)
		out, err := runCmd(t, "compare", "--db-dir", dir, "--json",
			"--from", strconv.FormatInt(ids[0], 10), "--to", strconv.FormatInt(ids[1], 10), testSite)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var c report.Comparison
		if err := json.Unmarshal([]byte(out), &c); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if c.Direction != report.DirectionImproved {
			t.Errorf("Direction = %q", c.Direction)
		}
	})

	t.Run("markdown output", func(t *testing.T) {
		t.Parallel()
		dir, _ := seedHistory(t, 1, 8)
		out, err := runCmd(t, "compare", "--db-dir", dir, "-m", testSite)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "#") {
			t.Errorf("expected markdown headings, got %q", out)
		}
	})

	t.Run("single report", func(t *testing.T) {
		t.Parallel()
		dir, _ := seedHistory(t, 1)
		_, err := runCmd(t, "compare", "--db-dir", dir, testSite)
		if err == nil || !strings.Contains(err.Error(), "at least 2") {
			t.Errorf("expected at least 2 error, got %v", err)
		}
	})

	t.Run("no database", func(t *testing.T) {
		t.Parallel()
		_, err := runCmd(t, "compare", "--db-dir", t.TempDir(), testSite)
		if err == nil || !strings.Contains(err.Error(), "no audit history") {
			t.Errorf("expected no history error, got %v", err)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()
		if _, err := runCmd(t, "compare", "--db-dir", t.TempDir(), "-j", "-m", testSite); err == nil {
			t.Error("expected error")
		}
	})
}

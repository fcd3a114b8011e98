package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/linkaudit/internal/config"
	"github.com/nao1215/linkaudit/internal/database"
	"github.com/nao1215/linkaudit/internal/model"
	"github.com/nao1215/linkaudit/internal/report"
)

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <base-url>",
		Short: "Compare stored audit reports of a site",
		Long: `Compare shows what changed between two stored audits of a site:
new and resolved findings, the average score and the broken link count.

Reports are stored by 'linkaudit audit --save'. By default the latest two
reports are compared.

Examples:
  # Compare the latest two audits
  linkaudit compare https://example.com

  # Compare a specific pair of reports (see 'linkaudit history')
  linkaudit compare --from 3 --to 7 https://example.com

  # Compare against the first audit since a date
  linkaudit compare --since 2026-01-01 https://example.com

  # Markdown output
  linkaudit compare -m https://example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().Int64("from", 0, "ID of the previous report (default: second newest)")
	cmd.Flags().Int64("to", 0, "ID of the current report (default: newest)")
	cmd.Flags().StringP("since", "s", "", "Use the first report on or after this date as previous (format: YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false, "Output comparison in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output comparison in Markdown format")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

// compareOptions selects the reports of a comparison.
type compareOptions struct {
	fromID int64
	toID   int64
	since  string
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	baseURL, err := siteKey(args[0])
	if err != nil {
		return err
	}

	f := cmd.Flags()
	var opts compareOptions
	if opts.fromID, err = f.GetInt64("from"); err != nil {
		return err
	}
	if opts.toID, err = f.GetInt64("to"); err != nil {
		return err
	}
	if opts.since, err = f.GetString("since"); err != nil {
		return err
	}
	if opts.since != "" && opts.fromID > 0 {
		return errors.New("--since and --from cannot be used together")
	}
	jsonOutput, err := f.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := f.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown cannot be used together")
	}
	dbDir, err := f.GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			return errors.New("no audit history yet; run 'linkaudit audit --save' first")
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	previous, current, err := selectReports(ctx, db, baseURL, opts)
	if err != nil {
		return err
	}

	c := report.Compare(previous, current)
	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return report.WriteComparisonJSON(out, c)
	case markdownOutput:
		return report.WriteComparisonMarkdown(out, c)
	default:
		return report.WriteComparisonText(out, c)
	}
}

// siteKey normalizes a base URL the way audit stores it.
func siteKey(raw string) (string, error) {
	u, err := config.ParseBaseURL(raw)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// selectReports picks the previous and current reports of baseURL.
func selectReports(ctx context.Context, db *database.HistoryDB, baseURL string, opts compareOptions) (*model.AuditReport, *model.AuditReport, error) {
	var current *model.AuditReport
	if opts.toID > 0 {
		r, err := reportOfSite(ctx, db, baseURL, opts.toID)
		if err != nil {
			return nil, nil, err
		}
		current = r
	}

	switch {
	case opts.fromID > 0:
		previous, err := reportOfSite(ctx, db, baseURL, opts.fromID)
		if err != nil {
			return nil, nil, err
		}
		if current == nil {
			if current, err = latestReport(ctx, db, baseURL); err != nil {
				return nil, nil, err
			}
		}
		return previous, current, nil

	case opts.since != "":
		sinceDate, err := time.Parse(time.DateOnly, opts.since)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		history, err := db.History(ctx, baseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get audit history: %w", err)
		}
		// History is newest first; the oldest match is the last one.
		var previousID int64
		for i := len(history) - 1; i >= 0; i-- {
			if !history[i].Timestamp.Before(sinceDate) {
				previousID = history[i].ID
				break
			}
		}
		if previousID == 0 {
			return nil, nil, fmt.Errorf("no audits of %s since %s", baseURL, opts.since)
		}
		currentID := opts.toID
		if currentID == 0 {
			currentID = history[0].ID
		}
		if previousID == currentID {
			return nil, nil, fmt.Errorf("only one audit since %s; at least 2 are required for comparison", opts.since)
		}
		previous, err := db.ReportByID(ctx, previousID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get report %d: %w", previousID, err)
		}
		if current == nil {
			if current, err = db.ReportByID(ctx, currentID); err != nil {
				return nil, nil, fmt.Errorf("failed to get report %d: %w", currentID, err)
			}
		}
		return previous, current, nil
	}

	if current != nil {
		return nil, nil, errors.New("--to requires --from or --since")
	}
	reports, err := db.LatestReports(ctx, baseURL, 2)
	if err != nil {
		if errors.Is(err, database.ErrNoReport) {
			return nil, nil, fmt.Errorf("no audit history found for %s", baseURL)
		}
		return nil, nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	if len(reports) < 2 {
		return nil, nil, fmt.Errorf("at least 2 audits are required for comparison (found %d)", len(reports))
	}
	return reports[1], reports[0], nil
}

// reportOfSite loads report id and checks that it belongs to baseURL.
func reportOfSite(ctx context.Context, db *database.HistoryDB, baseURL string, id int64) (*model.AuditReport, error) {
	r, err := db.ReportByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNoReport) {
			return nil, fmt.Errorf("report with ID %d not found", id)
		}
		return nil, fmt.Errorf("failed to get report %d: %w", id, err)
	}
	if r.BaseURL != baseURL {
		return nil, fmt.Errorf("report ID %d belongs to %s, not %s", id, r.BaseURL, baseURL)
	}
	return r, nil
}

func latestReport(ctx context.Context, db *database.HistoryDB, baseURL string) (*model.AuditReport, error) {
	reports, err := db.LatestReports(ctx, baseURL, 1)
	if err != nil {
		if errors.Is(err, database.ErrNoReport) {
			return nil, fmt.Errorf("no audit history found for %s", baseURL)
		}
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}
	return reports[0], nil
}

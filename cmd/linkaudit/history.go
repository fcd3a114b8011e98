package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/linkaudit/internal/config"
	"github.com/nao1215/linkaudit/internal/database"
)

const noFindingsMessage = "No findings"

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [base-url]",
		Short: "List stored audit reports",
		Long: `History lists the audits stored by 'linkaudit audit --save'.

Without an argument it lists every audited site. With a base URL it lists
the stored reports of that site, newest first, with their IDs for
'linkaudit compare --from/--to'.

Examples:
  # List audited sites
  linkaudit history

  # List the reports of a site
  linkaudit history https://example.com

  # Keep only the 10 newest reports of a site
  linkaudit history --keep 10 https://example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int("keep", 0, "Delete all but the newest N reports of the site")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	keep, err := cmd.Flags().GetInt("keep")
	if err != nil {
		return err
	}
	if keep < 0 {
		return errors.New("--keep must not be negative")
	}
	if keep > 0 && len(args) == 0 {
		return errors.New("--keep requires a base URL")
	}
	var baseURL string
	if len(args) == 1 {
		if baseURL, err = siteKey(args[0]); err != nil {
			return err
		}
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			fmt.Fprintln(out, "No audits stored yet.")
			printHint(out, "Use 'linkaudit audit --save <base-url>' to store an audit.")
			return nil
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if baseURL == "" {
		sites, err := db.ListSites(ctx)
		if err != nil {
			return err
		}
		return listSites(out, sites)
	}

	if keep > 0 {
		removed, err := db.Prune(ctx, baseURL, keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %d report(s) of %s\n\n", removed, baseURL)
	}

	history, err := db.History(ctx, baseURL)
	if err != nil {
		return err
	}
	return listHistory(out, baseURL, history)
}

func listSites(w io.Writer, sites []string) error {
	if len(sites) == 0 {
		fmt.Fprintln(w, "No audited sites found in the database.")
		printHint(w, "Use 'linkaudit audit --save <base-url>' to store an audit.")
		return nil
	}

	fmt.Fprintf(w, "Audited sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(w, "  • %s\n", site)
	}
	printHint(w, "Use 'linkaudit history <base-url>' to see the reports of a site.")
	return nil
}

func listHistory(w io.Writer, baseURL string, history []database.ReportMetadata) error {
	if len(history) == 0 {
		fmt.Fprintf(w, "No audit history found for %s\n", baseURL)
		return nil
	}

	fmt.Fprintf(w, "Audit history for %s (%d reports):\n\n", baseURL, len(history))
	fmt.Fprintf(w, "  %-6s  %-20s  %-14s  %6s  %6s  %6s  %s\n", "ID", "Date", "", "Pages", "Broken", "Score", "Findings")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 86))
	for _, meta := range history {
		fmt.Fprintf(w, "  %-6d  %-20s  %-14s  %6d  %6d  %6.1f  %s\n",
			meta.ID,
			meta.Timestamp.Local().Format("2006-01-02 15:04:05"),
			humanize.Time(meta.Timestamp),
			meta.PagesAudited,
			meta.BrokenLinks,
			meta.AverageScore,
			formatSeveritySummary(meta.SeveritySummary),
		)
	}

	printHint(w,
		"Use 'linkaudit compare <base-url>' to compare the latest two reports.",
		"Use 'linkaudit compare --from <id> --to <id> <base-url>' to compare specific reports.",
	)
	return nil
}

// formatSeveritySummary renders counts as "C:1 H:2 M:0 ..." skipping zeros.
func formatSeveritySummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	for _, s := range []struct{ key, label string }{
		{"critical", "C"},
		{"high", "H"},
		{"medium", "M"},
		{"low", "L"},
		{"info", "I"},
	} {
		if v := summary[s.key]; v > 0 {
			parts = append(parts, fmt.Sprintf("%s:%d", s.label, v))
		}
	}
	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}

// printHint writes a usage hint after a listing.
func printHint(w io.Writer, lines ...string) {
	fmt.Fprintln(w)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

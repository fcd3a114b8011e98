package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/linkaudit/internal/model"
)

// ErrEmptyQuery is returned when a lookup is requested without a query.
var ErrEmptyQuery = errors.New("empty query")

// SearchSignalProvider returns search engine signals for a query.
type SearchSignalProvider interface {
	SearchSignals(ctx context.Context, query string) (*model.SearchSignals, error)
}

// KeywordIntelligenceProvider returns keyword metrics for a keyword.
type KeywordIntelligenceProvider interface {
	KeywordIntelligence(ctx context.Context, keyword string) (*model.KeywordReport, error)
}

// Set holds the configured providers. Either field may be nil.
type Set struct {
	Search   SearchSignalProvider
	Keywords KeywordIntelligenceProvider
}

// Empty reports whether no provider is configured.
func (s Set) Empty() bool {
	return s.Search == nil && s.Keywords == nil
}

// Lookup queries every configured provider with query and stores the results
// in report. Provider failures are logged and returned joined; they never
// leave partial results in report.
func (s Set) Lookup(ctx context.Context, query string, report *model.AuditReport) error {
	query = strings.TrimSpace(query)
	if s.Empty() {
		return nil
	}
	if query == "" {
		return ErrEmptyQuery
	}

	var errs []error
	if s.Search != nil {
		signals, err := s.Search.SearchSignals(ctx, query)
		if err != nil {
			slog.Warn("search signal provider failed", "query", query, "error", err)
			errs = append(errs, fmt.Errorf("search signals: %w", err))
		} else {
			report.SearchSignals = signals
		}
	}
	if s.Keywords != nil {
		keywords, err := s.Keywords.KeywordIntelligence(ctx, query)
		if err != nil {
			slog.Warn("keyword intelligence provider failed", "keyword", query, "error", err)
			errs = append(errs, fmt.Errorf("keyword intelligence: %w", err))
		} else {
			report.Keywords = keywords
		}
	}
	return errors.Join(errs...)
}

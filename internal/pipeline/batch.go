package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/linkaudit/internal/model"
)

// DefaultBatchConcurrency is the number of sites audited at once by default.
const DefaultBatchConcurrency = 2

// Factory creates the pipeline of one site. It is called once per site so
// that no step state is shared between sites.
type Factory func(baseURL string) *Pipeline

// BatchProcessor audits several sites concurrently.
type BatchProcessor struct {
	factory     Factory
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets the logger of the batch processor.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets how many sites are audited at once.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a BatchProcessor.
func NewBatchProcessor(factory Factory, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		factory:     factory,
		concurrency: DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch audits every site and returns the reports in input order.
// A failing site does not stop the others; its error is in its report.
// Sites not started before cancellation have a nil report.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, baseURLs []string) ([]*model.AuditReport, error) {
	results := make([]*model.AuditReport, len(baseURLs))
	err := bp.ProcessBatchWithCallback(ctx, baseURLs, func(report *model.AuditReport, index int) {
		results[index] = report
	})
	return results, err
}

// ProcessBatchWithCallback audits every site and calls callback as each
// report completes. The callback runs on the goroutine of the site and
// must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	baseURLs []string,
	callback func(report *model.AuditReport, index int),
) error {
	bp.logger.Info("starting batch processing", "total_sites", len(baseURLs), "concurrency", bp.concurrency)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, baseURL := range baseURLs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("auditing site", "site", baseURL, "index", i+1, "total", len(baseURLs))

			report := NewReport(baseURL)
			if err := bp.factory(baseURL).Execute(ctx, report); err != nil {
				bp.logger.Warn("audit failed", "site", baseURL, "error", err)
			} else {
				bp.logger.Info("audit completed", "site", baseURL, "duration", report.Duration)
			}

			callback(report, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete", "total_sites", len(baseURLs), "elapsed", time.Since(start))
	return err
}

package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/nao1215/linkaudit/internal/linkgraph"
	"github.com/nao1215/linkaudit/internal/model"
)

// Step is one stage of a site audit.
type Step interface {
	// Do executes the step. Per-URL failures are recorded in the report;
	// an error means the step itself could not do its job.
	Do(ctx context.Context, report *model.AuditReport) error

	// Name returns the step's name for logging.
	Name() string
}

// Pipeline executes steps in order against one report.
type Pipeline struct {
	steps           []Step
	logger          *slog.Logger
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger of the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing steps after one fails. The first
// error is still recorded in the report.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends several steps in order.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs the steps in order. Cancellation is checked between steps;
// a cancelled run marks the report as timed out.
func (p *Pipeline) Execute(ctx context.Context, report *model.AuditReport) error {
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
	}()

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "reason", ctx.Err())
			report.TimedOut = true
			report.SetError(ctx.Err())
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step", "step", step.Name(), "site", report.BaseURL)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "site", report.BaseURL, "error", err)
			report.SetError(err)
			if ctx.Err() != nil {
				report.TimedOut = true
			}
			if !p.continueOnError {
				return err
			}
		} else {
			p.logger.Debug("step completed", "step", step.Name(), "site", report.BaseURL)
		}

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// NewReport creates the report of one site run.
func NewReport(baseURL string) *model.AuditReport {
	var domain string
	if u, err := url.Parse(baseURL); err == nil {
		domain = linkgraph.NormalizeDomain(u.Hostname())
	}
	return model.NewAuditReport(baseURL, domain)
}

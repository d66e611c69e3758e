package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nadyarudie/Web-Crawler/internal/model"
)

// Step is one stage of processing a seed: crawling it, exporting the result,
// archiving it. Each step receives the report the previous steps filled in.
//
// Design decision: We use an interface rather than function types so that
// steps can carry their collaborators (spider, archive, output directory)
// and report a Name for logs and step timings.
type Step interface {
	// Do runs the step against report. Problems that belong in the crawl
	// result (broken links, unreachable pages) are recorded there and Do
	// returns nil; an error means the step itself could not do its job.
	Do(ctx context.Context, report *model.ScanReport) error

	// Name identifies the step in logs and in ScanReport.Steps.
	Name() string
}

// Pipeline runs the steps for one seed in order.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps later steps running after a failed one, so a
	// failed CSV export does not cost the seed its archive entry.
	continueOnError bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError keeps executing after a step fails. The failure is
// still recorded in report.Error and in the step's timing entry.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends steps; they run in the order added.
func (p *Pipeline) AddStep(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// StepNames returns the step names in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Execute runs the steps in order and appends a StepTiming per executed step
// to report.Steps.
//
// A crawl that ended early leaves a partial result. Once a step marks the
// report cancelled, the remaining steps are skipped: partial results are
// streamed and rendered but never exported or archived. The same applies
// when ctx is done before a step starts.
//
// Returns the first step error unless continueOnError is set, otherwise
// ctx.Err() when execution stopped because of cancellation.
func (p *Pipeline) Execute(ctx context.Context, report *model.ScanReport) error {
	logger := p.logger.With("seed", report.Seed)
	logger.Debug("pipeline started", "steps", p.StepNames())

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			logger.Warn("pipeline cancelled", "next_step", step.Name(), "reason", err)
			report.Cancelled = true
			return err
		}

		err := p.runStep(ctx, step, report)
		if err != nil {
			logger.Error("step failed", "step", step.Name(), "error", err)
			report.Error = err.Error()
			if !p.continueOnError {
				return err
			}
		}

		if report.Cancelled {
			logger.Info("crawl ended early, skipping remaining steps", "after", step.Name())
			return ctx.Err()
		}
	}
	return nil
}

// runStep executes one step and records its timing.
func (p *Pipeline) runStep(ctx context.Context, step Step, report *model.ScanReport) error {
	start := time.Now()
	err := step.Do(ctx, report)

	timing := model.StepTiming{Name: step.Name(), Duration: time.Since(start)}
	if err != nil {
		timing.Error = err.Error()
	}
	report.Steps = append(report.Steps, timing)

	p.logger.Debug("step finished", "seed", report.Seed, "step", timing.Name, "duration", timing.Duration)
	return err
}

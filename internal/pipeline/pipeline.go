package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/seosmoke/internal/check"
	"github.com/nao1215/seosmoke/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
type Step interface {
	// Do executes the step against run. Check failures are recorded in
	// run.Report and are not errors; an error means the step itself broke.
	Do(ctx context.Context, run *Run) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step returns an error.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
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

// NewCheckPipeline builds the standard pipeline: one fetch step followed by
// one step per check, in the given order.
func NewCheckPipeline(fetcher Fetcher, checks []check.Check, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddStep(NewFetchStep(fetcher, WithFetchLogger(p.logger)))

	steps := make([]Step, 0, len(checks))
	for _, c := range checks {
		steps = append(steps, NewCheckStep(c))
	}
	p.AddSteps(steps...)
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence against run.
//
// Cancellation is checked before each step. A cancelled run is marked as
// timed out and the context error is returned.
func (p *Pipeline) Execute(ctx context.Context, run *Run) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			run.Report.TimedOut = true
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", run.Target,
		)

		if err := step.Do(ctx, run); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", run.Target,
				"error", err,
			)
			if !p.continueOnError {
				return err
			}
		}
	}

	return nil
}

// Check runs the pipeline for target and returns the finished report.
// The report is returned even when err is non-nil.
func (p *Pipeline) Check(ctx context.Context, target string) (*model.Report, error) {
	run := NewRun(target)
	start := time.Now()
	err := p.Execute(ctx, run)
	run.Report.Elapsed = time.Since(start)

	s := run.Report.Summary()
	p.logger.Info("check completed",
		"url", target,
		"passed", s.Passed,
		"failed", s.Failed,
		"skipped", s.Skipped,
		"elapsed", run.Report.Elapsed,
	)
	return run.Report, err
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

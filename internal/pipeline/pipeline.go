package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/irsyad/internal/model"
)

// Job is one document moving through the pipeline.
type Job struct {
	// URL is the document URL.
	URL string

	// Index is the position of the document in its batch.
	Index int

	// Page is set by the fetch step.
	Page *model.Page

	// Record is set by the extract step.
	Record *model.ArticleRecord

	// Err is the error of the step that failed, if any.
	Err error

	// Steps lists the names of the steps that completed.
	Steps []string
}

// NewJob creates a job for url at position index.
func NewJob(url string, index int) *Job {
	return &Job{URL: url, Index: index}
}

// Failed reports whether a step failed.
func (j *Job) Failed() bool {
	return j.Err != nil
}

// Step defines one stage of document processing.
type Step interface {
	// Do executes the step on the job. A returned error stops the job.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order for a single job.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
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

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence for job.
// Context cancellation is checked before each step. It returns the first
// step error (also stored in job.Err) or the context error.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Debug("pipeline cancelled", "step", step.Name(), "url", job.URL)
			if job.Err == nil {
				job.Err = ctx.Err()
			}
			return ctx.Err()
		default:
		}

		if err := step.Do(ctx, job); err != nil {
			p.logger.Debug("step failed", "step", step.Name(), "url", job.URL, "error", err)
			job.Err = err
			return err
		}

		job.Steps = append(job.Steps, step.Name())
	}

	return job.Err
}

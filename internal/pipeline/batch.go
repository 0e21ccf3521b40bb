package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrPanic is returned when a job panics. The panic stops the whole batch.
var ErrPanic = errors.New("document job panicked")

// BatchProcessor runs the jobs of one listing page concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
type BatchProcessor struct {
	// pipelineFactory creates the pipeline each job runs through.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of jobs in flight.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Default is 1, which processes documents strictly in order.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     1,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatchWithCallback runs every URL through the pipeline and calls
// callback for each finished job, failed or not.
//
// Jobs that fail inside the pipeline do not stop the batch. A callback error
// or cancellation of ctx stops scheduling new jobs and is returned. With a
// concurrency of 1 the callback sees jobs in input order; otherwise it is
// called from several goroutines in completion order.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	urls []string,
	callback func(job *Job) error,
) error {
	bp.logger.Debug("starting batch",
		"documents", len(urls),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, u := range urls {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %s: %v", ErrPanic, u, r)
				}
			}()

			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			job := NewJob(u, i)
			p := bp.pipelineFactory()
			_ = p.Execute(gctx, job) //nolint:errcheck // error is stored in job

			if job.Failed() && gctx.Err() != nil {
				return gctx.Err()
			}
			return callback(job)
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	bp.logger.Debug("batch complete",
		"documents", len(urls),
		"elapsed", time.Since(startTime),
	)

	return err
}

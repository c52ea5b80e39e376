package propagation

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/timesys"
)

// sampleJob is a unit of work for the worker pool.
type sampleJob struct {
	index   int
	instant timesys.JulianDate
}

// sampleResult is the output of one sample, tagged with its input index.
type sampleResult struct {
	index  int
	result Result
}

// WorkerPool fans per-instant propagation over a fixed number of goroutines.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
// A non-positive count uses runtime.NumCPU().
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// PropagateSamples propagates prop to every instant. Results are returned
// in the order of instants; per-sample failures are carried in Result.Err.
// If ctx is cancelled the partial results are discarded and ctx.Err() is
// returned.
func (wp *WorkerPool) PropagateSamples(ctx context.Context, prop Propagator, instants []timesys.JulianDate) ([]Result, error) {
	if len(instants) == 0 {
		return nil, ctx.Err()
	}

	workers := wp.workers
	if workers > len(instants) {
		workers = len(instants)
	}

	jobs := make(chan sampleJob, workers*2)
	results := make(chan sampleResult, workers*2)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				state, err := prop.PropagateAt(job.instant)
				r := sampleResult{
					index:  job.index,
					result: Result{Instant: job.instant, State: state, Err: err},
				}
				select {
				case results <- r:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, instant := range instants {
			select {
			case jobs <- sampleJob{index: i, instant: instant}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Result, len(instants))
	var failed int
	for r := range results {
		out[r.index] = r.result
		if r.result.Err != nil {
			failed++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failed > 0 {
		wp.logger.Debug("samples failed", "component", "propagation", "failed", failed, "samples", len(instants))
	}
	return out, nil
}

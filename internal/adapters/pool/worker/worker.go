// Package worker evaluates queued batch rows concurrently.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/ergofit/internal/adapters/pool/queue"
	"github.com/okian/ergofit/internal/domain/model"
	"github.com/okian/ergofit/pkg/logger"
	"github.com/okian/ergofit/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Evaluator solves one job.
type Evaluator interface {
	Evaluate(ctx context.Context, job queue.Job) (model.AngleResult, error)
}

// Outcome is the result of one job.
type Outcome struct {
	Row    int
	Result model.AngleResult
	Err    error
}

// Collector receives outcomes. It is called from every worker goroutine.
type Collector interface {
	Collect(ctx context.Context, o Outcome)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue closes or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)
	// Shutdown stops the worker after the job in hand.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	evaluator Evaluator
	collector Collector
	name      string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, e Evaluator, c Collector, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		evaluator: e,
		collector: c,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out", logger.String("worker", w.name))
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		metrics.RecordBatchRow()
	}()

	r, err := w.evaluator.Evaluate(ctx, job)
	if err != nil {
		metrics.RecordErrorByComponent("worker", "evaluate")
		w.logger.Error(ctx, "evaluation failed",
			logger.String("worker", w.name),
			logger.Int("row", job.Row),
			logger.Error(err),
		)
	}
	w.collector.Collect(ctx, Outcome{Row: job.Row, Result: r, Err: err})
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses the
// number of CPUs.
func NewPool(workerCount int, q Queue, e Evaluator, c Collector, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, e, c, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Wait blocks until every worker has returned.
func (p *Pool) Wait() {
	for _, w := range p.workers {
		<-w.done
	}
}

// Shutdown closes the queue, stops every worker and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// indexCollector writes each outcome to its row slot. Rows are distinct, so
// no two workers write the same slot.
type indexCollector struct {
	out []Outcome
}

func (c *indexCollector) Collect(_ context.Context, o Outcome) {
	c.out[o.Row] = o
}

// RunBatch evaluates jobs with a fresh queue and pool and returns outcomes
// in input order. Job rows are renumbered by position.
func RunBatch(ctx context.Context, jobs []queue.Job, e Evaluator, workerCount int, opts ...Option) ([]Outcome, error) {
	if len(jobs) == 0 {
		return nil, nil
	}
	q := queue.NewInMemoryQueue(queue.WithCapacity(len(jobs)))
	for i, j := range jobs {
		j.Row = i
		if err := q.Enqueue(ctx, j); err != nil {
			_ = q.Close()
			return nil, fmt.Errorf("enqueue row %d: %w", i, err)
		}
	}
	_ = q.Close()

	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}
	c := &indexCollector{out: make([]Outcome, len(jobs))}
	p := NewPool(workerCount, q, e, c, opts...)
	p.Start(ctx)
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}
	return c.out, nil
}

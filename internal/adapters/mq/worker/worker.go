// Package worker runs results sync jobs taken off the queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/teamsite/internal/adapters/mq/queue"
	"github.com/okian/teamsite/internal/domain/model"
	"github.com/okian/teamsite/pkg/logger"
	"github.com/okian/teamsite/pkg/metrics"
)

const (
	defaultWorkerCount = 2
	defaultJobTimeout  = 2 * time.Minute
	poolShutdownWait   = 30 * time.Second
)

// Importer refreshes one season of events from the results API.
type Importer interface {
	Sync(ctx context.Context, year int) (model.SyncReport, error)
}

// Queue is where workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// DoneFunc is called after every job, whether it failed or not.
type DoneFunc func(ctx context.Context, job queue.Job, report model.SyncReport, err error)

// Worker processes sync jobs.
type Worker interface {
	// Run processes jobs until the queue closes, ctx ends or Shutdown is called.
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker runs one job at a time.
type InMemoryWorker struct {
	queue      Queue
	importer   Importer
	name       string
	jobTimeout time.Duration
	onDone     DoneFunc

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, importer Importer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		importer:   importer,
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

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

// Shutdown stops the loop after the current job and waits for it.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) {
	start := time.Now()
	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	report, err := w.importer.Sync(jobCtx, job.Year)
	elapsed := time.Since(start)
	if report.Duration == 0 {
		report.Duration = elapsed
	}

	metrics.RecordWorkerProcessingLatency(float64(elapsed.Milliseconds()))
	metrics.RecordSyncResult(err == nil, elapsed.Seconds())

	if err != nil {
		errType := "sync_error"
		if errors.Is(err, context.DeadlineExceeded) {
			errType = "sync_timeout"
		}
		metrics.RecordErrorByComponent("worker", errType)
		w.logger.Error(ctx, "sync job failed",
			logger.String("job", job.ID),
			logger.Int("year", job.Year),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
	} else {
		metrics.RecordImported(report.Events, report.Awards)
		w.logger.Info(ctx, "sync job finished",
			logger.String("job", job.ID),
			logger.Int("year", job.Year),
			logger.Int("events", report.Events),
			logger.Int("awards", report.Awards),
			logger.Int("failed", len(report.Failed)),
			logger.Duration("elapsed", elapsed),
		)
	}

	if w.onDone != nil {
		w.onDone(ctx, job, report, err)
	}
}

// Pool manages several workers reading the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	cancel  context.CancelFunc

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. Worker options are applied
// to every worker; WithName is suffixed with the worker index.
func NewPool(workerCount int, q Queue, importer Importer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Nop(),
	}

	probe := &InMemoryWorker{logger: logger.Nop()}
	for _, opt := range opts {
		opt(probe)
	}
	p.logger = probe.logger.Named("worker-pool")
	userDone := probe.onDone

	counting := func(ctx context.Context, job queue.Job, report model.SyncReport, err error) {
		p.processed.Add(1)
		if err != nil {
			p.failed.Add(1)
		}
		if userDone != nil {
			userDone(ctx, job, report, err)
		}
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{}, opts...)
		workerOpts = append(workerOpts, WithName("worker-"+strconv.Itoa(i)), WithOnDone(counting))
		p.workers[i] = NewInMemoryWorker(q, importer, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	for _, w := range p.workers {
		go w.Run(runCtx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many jobs finished and how many of them failed.
func (p *Pool) Processed() (total, failed int64) {
	return p.processed.Load(), p.failed.Load()
}

// Shutdown closes the queue, lets workers drain it and waits for them.
// Workers still busy when ctx or the pool deadline expires are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	if p.cancel == nil {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, poolShutdownWait)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-waitCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
		if timedOut {
			break
		}
	}
	p.cancel()
	if timedOut {
		for _, w := range p.workers {
			<-w.done
		}
		return fmt.Errorf("worker pool shutdown: %w", waitCtx.Err())
	}
	return nil
}

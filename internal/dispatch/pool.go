package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Observer receives job outcomes. Implemented by the metrics package.
type Observer interface {
	JobFinished(name string, err error, elapsed time.Duration)
	JobDropped(name string)
}

// PoolConfig sizes a Pool.
type PoolConfig struct {
	// WorkerCount is the number of concurrent workers. Values below 1 mean 1.
	WorkerCount int

	// JobTimeout bounds each job. Zero means no timeout.
	JobTimeout time.Duration
}

// Pool runs jobs from a Queue on a fixed number of goroutines.
type Pool struct {
	queue       *Queue
	workerCount int
	jobTimeout  time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	// errorHandler is called when a job fails. If nil, errors are only logged.
	errorHandler func(job Job, err error)
	observer     Observer
}

// NewPool creates a pool reading from queue. Call Start to launch workers.
func NewPool(queue *Queue, cfg PoolConfig, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", cfg.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		queue:       queue,
		workerCount: workerCount,
		jobTimeout:  cfg.JobTimeout,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// SetErrorHandler sets a callback for failed jobs.
func (p *Pool) SetErrorHandler(handler func(job Job, err error)) {
	p.errorHandler = handler
}

// SetObserver sets the job outcome observer.
func (p *Pool) SetObserver(o Observer) {
	p.observer = o
}

// Start launches the workers.
func (p *Pool) Start() {
	p.logger.Info("starting dispatch workers", "worker_count", p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue and waits for queued jobs to finish. If ctx expires
// first, running jobs are cancelled and Stop returns ctx.Err().
func (p *Pool) Stop(ctx context.Context) error {
	p.queue.Close()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("dispatch workers stopped")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn("dispatch workers stopped before draining queue", "pending", p.queue.Len())
		return ctx.Err()
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log := p.logger.With("worker_id", id)
	for job := range p.queue.Jobs() {
		if p.ctx.Err() != nil {
			if p.observer != nil {
				p.observer.JobDropped(job.Name())
			}
			continue
		}
		p.run(log, job)
	}
}

func (p *Pool) run(log *slog.Logger, job Job) {
	ctx := p.ctx
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := safeRun(ctx, job)
	elapsed := time.Since(start)

	if p.observer != nil {
		p.observer.JobFinished(job.Name(), err, elapsed)
	}
	if err != nil {
		log.Error("job failed",
			"job", job.Name(),
			"duration_ms", elapsed.Milliseconds(),
			"error", err)
		if p.errorHandler != nil {
			p.errorHandler(job, err)
		}
		return
	}
	log.Debug("job completed", "job", job.Name(), "duration_ms", elapsed.Milliseconds())
}

func safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name(), r)
		}
	}()
	return job.Run(ctx)
}

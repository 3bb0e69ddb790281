package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tasksync/tasksync-api/internal/config"
)

// Dispatcher is the fire-and-forget entry point used by services.
type Dispatcher struct {
	queue    *Queue
	pool     *Pool
	observer Observer
	logger   *slog.Logger
}

// New builds a dispatcher from configuration. Call Start before submitting.
func New(cfg config.DispatchConfig, observer Observer, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dispatch"))

	queue := NewQueue(cfg.QueueSize, logger)
	pool := NewPool(queue, PoolConfig{WorkerCount: cfg.Workers, JobTimeout: cfg.JobTimeout}, logger)
	if observer != nil {
		pool.SetObserver(observer)
	}
	return &Dispatcher{queue: queue, pool: pool, observer: observer, logger: logger}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	d.pool.Start()
}

// Stop drains the queue, bounded by ctx.
func (d *Dispatcher) Stop(ctx context.Context) error {
	return d.pool.Stop(ctx)
}

// Submit queues job. A full or closed queue drops the job and logs it; the
// caller is never blocked.
func (d *Dispatcher) Submit(job Job) {
	err := d.queue.Enqueue(job)
	if err == nil {
		return
	}

	if d.observer != nil {
		d.observer.JobDropped(job.Name())
	}
	level := slog.LevelWarn
	if errors.Is(err, ErrQueueClosed) {
		level = slog.LevelInfo
	}
	d.logger.Log(context.Background(), level, "job dropped",
		slog.String("job", job.Name()),
		slog.String("reason", err.Error()))
}

// Go submits fn as a job named name.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) {
	d.Submit(NewJob(name, fn))
}

// Pending reports how many jobs are waiting for a worker.
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

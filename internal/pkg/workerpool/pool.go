package workerpool

import (
	"context"
	"sync"
	"time"

	"github.com/paulexconde/formdeck/internal/logger"
)

type Job func(ctx context.Context)

type WorkerPool struct {
	queue chan Job
	log   *logger.Logger
	wg    sync.WaitGroup
}

func NewWorkerPool(ctx context.Context, log *logger.Logger, workerCount int, queueSize int) *WorkerPool {
	pool := &WorkerPool{
		queue: make(chan Job, queueSize),
		log:   log.With("component", "workerpool"),
	}

	for i := 0; i < workerCount; i++ {
		go pool.worker(ctx)
	}

	return pool
}

// worker drains the queue until it is closed. A cancelled ctx is the
// job's concern, not the pool's, so accepted jobs are never dropped.
func (p *WorkerPool) worker(ctx context.Context) {
	for job := range p.queue {
		job(ctx)
		p.wg.Done()
	}
}

// Submit counts the job before it is queued, so Shutdown waits for
// everything accepted rather than only jobs a worker already picked up.
func (p *WorkerPool) Submit(job Job) {
	p.wg.Add(1)
	select {
	case p.queue <- job:
	default:
		p.wg.Done()
		p.log.Warn("worker pool queue full, job dropped")
	}
}

func (p *WorkerPool) Shutdown(ctx context.Context) {
	close(p.queue)

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		p.log.Warn("worker pool shutdown timed out")
	case <-done:
		p.log.Info("worker pool shutdown complete")
	}
}

func WithRetry(log *logger.Logger, retries int, delay time.Duration, job func(ctx context.Context) error) Job {
	return func(ctx context.Context) {
		for i := 0; i < retries; i++ {
			if ctx.Err() != nil {
				return
			}

			err := job(ctx)
			if err == nil {
				return
			}
			log.Warn("job failed", "attempt", i+1, "retries", retries, "error", err)
			time.Sleep(delay)
		}
		log.Error("job failed after max retries")
	}
}

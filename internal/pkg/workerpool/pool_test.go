package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulexconde/formdeck/internal/logger"
)

func TestShutdownWaitsForQueuedJobs(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, logger.NewNop(), 1, 16)

	var ran int32
	for i := 0; i < 8; i++ {
		pool.Submit(func(ctx context.Context) {
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&ran, 1)
		})
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool.Shutdown(shutdownCtx)

	if got := atomic.LoadInt32(&ran); got != 8 {
		t.Errorf("expected all 8 queued jobs to run before shutdown, got %d", got)
	}
}

func TestSubmitDropsWhenQueueFull(t *testing.T) {
	ctx := context.Background()
	pool := NewWorkerPool(ctx, logger.NewNop(), 1, 2)

	started := make(chan struct{})
	release := make(chan struct{})
	var ran int32

	pool.Submit(func(ctx context.Context) {
		close(started)
		<-release
		atomic.AddInt32(&ran, 1)
	})
	<-started

	// the worker is busy; these two fill the queue exactly
	for i := 0; i < 2; i++ {
		pool.Submit(func(ctx context.Context) {
			atomic.AddInt32(&ran, 1)
		})
	}
	// and this one has nowhere to go
	pool.Submit(func(ctx context.Context) {
		atomic.AddInt32(&ran, 1)
	})

	close(release)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool.Shutdown(shutdownCtx)

	if got := atomic.LoadInt32(&ran); got != 3 {
		t.Errorf("expected 3 accepted jobs to run, got %d", got)
	}
}

func TestWithRetry(t *testing.T) {
	attempts := 0
	job := WithRetry(logger.NewNop(), 3, time.Millisecond, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	job(context.Background())

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	job := WithRetry(logger.NewNop(), 3, time.Millisecond, func(ctx context.Context) error {
		attempts++
		return errors.New("transient")
	})

	job(ctx)

	if attempts != 0 {
		t.Errorf("expected no attempts under a cancelled context, got %d", attempts)
	}
}

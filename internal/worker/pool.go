// Package worker runs fire-and-forget background tasks with bounded
// concurrency. The pool is owned by the process lifecycle: callers submit
// and forget, shutdown drains.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrPoolClosed is returned by Submit after Shutdown has started.
var ErrPoolClosed = errors.New("worker: pool is shut down")

// Pool runs submitted tasks on goroutines, at most size at a time.
type Pool struct {
	log    zerolog.Logger
	sem    chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	wg     sync.WaitGroup
	closed bool
}

// NewPool returns a pool allowing size concurrent tasks.
func NewPool(size int, log zerolog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		log:    log,
		sem:    make(chan struct{}, size),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit schedules task for execution and returns immediately. The task
// receives a context that is cancelled when shutdown gives up draining.
// A panicking task is logged and does not take the process down.
func (p *Pool) Submit(name string, task func(ctx context.Context)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		select {
		case p.sem <- struct{}{}:
		case <-p.ctx.Done():
			p.log.Warn().Str("task", name).Msg("task dropped during shutdown")
			return
		}
		defer func() { <-p.sem }()
		defer func() {
			if r := recover(); r != nil {
				p.log.Error().Str("task", name).Interface("panic", r).
					Msg("background task panicked")
			}
		}()
		task(p.ctx)
	}()
	return nil
}

// Shutdown stops accepting tasks and waits for in-flight ones. When ctx
// expires first, running tasks are cancelled and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

package services

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Dispatcher runs background jobs on their own goroutines with at most
// `workers` running at once. Jobs beyond the limit wait in their goroutine
// for a slot; the caller never blocks. After Close, new jobs are dropped.
type Dispatcher struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu     sync.RWMutex
	closed bool
	stop   chan struct{}
}

// NewDispatcher returns a dispatcher allowing workers concurrent jobs.
func NewDispatcher(workers int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{
		sem:  semaphore.NewWeighted(int64(workers)),
		stop: make(chan struct{}),
	}
}

// Go schedules fn and reports whether it was accepted. ctx is handed to fn
// and bounds the wait for a slot; it should not be tied to a request that is
// about to finish.
func (d *Dispatcher) Go(ctx context.Context, fn func(context.Context)) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.acquire(ctx); err != nil {
			return
		}
		defer d.sem.Release(1)
		fn(ctx)
	}()
	return true
}

// acquire waits for a slot, giving up when ctx ends or the dispatcher is
// closed so queued jobs do not hold up shutdown.
func (d *Dispatcher) acquire(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.stop:
			cancel()
		case <-ctx.Done():
		}
	}()
	return d.sem.Acquire(ctx, 1)
}

// Close stops accepting jobs, abandons those still waiting for a slot and
// waits for running ones until ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.stop)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

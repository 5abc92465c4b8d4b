package services

import (
	"context"
	"log"
	"sync"
	"time"
)

// Background runs best-effort side effects detached from the request that
// triggered them. Errors and panics are logged, never returned.
type Background struct {
	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
	timeout time.Duration
}

func NewBackground(timeout time.Duration) *Background {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Background{timeout: timeout}
}

// Go runs fn with a context that survives cancellation of ctx but is bounded
// by the Background timeout. After Close, fn is dropped.
func (b *Background) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		log.Printf("[bg][%s][drop] shutting down", name)
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[bg][%s][panic] %v", name, r)
			}
		}()
		ctx, cancel := context.WithTimeout(detached, b.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("[bg][%s][err] %v", name, err)
		}
	}()
}

// Wait blocks until every started task has returned. New tasks may still
// be started afterwards.
func (b *Background) Wait() {
	b.wg.Wait()
}

// Close stops accepting tasks and waits for the running ones. It is safe to
// call more than once.
func (b *Background) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.wg.Wait()
}

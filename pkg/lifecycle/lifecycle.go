// Package lifecycle coordinates startup hooks, shutdown hooks, and tracked
// background work for the service.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Coordinator sequences service startup and shutdown.
//
// Shutdown runs in two phases: cancel the context and wait for work started
// with Go, then run the shutdown hooks. Background decision runs therefore
// finish their terminal writes before connections close.
type Coordinator struct {
	ctx          context.Context
	cancel       context.CancelFunc
	startupWg    sync.WaitGroup
	backgroundWg sync.WaitGroup

	hooksMu sync.Mutex
	hooks   []func()

	readyMu sync.RWMutex
	ready   bool
}

func New() *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context is cancelled when Shutdown begins.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnStartup runs fn concurrently with the other startup hooks.
func (c *Coordinator) OnStartup(fn func()) {
	c.startupWg.Go(fn)
}

// OnShutdown registers fn to run, concurrently with the other hooks, once
// background work has drained. The context is already cancelled when fn runs.
func (c *Coordinator) OnShutdown(fn func()) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Go runs fn on a tracked goroutine with the coordinator's context.
func (c *Coordinator) Go(fn func(ctx context.Context)) {
	c.backgroundWg.Go(func() {
		fn(c.ctx)
	})
}

// Ready reports whether WaitForStartup has returned.
func (c *Coordinator) Ready() bool {
	c.readyMu.RLock()
	defer c.readyMu.RUnlock()
	return c.ready
}

// WaitForStartup blocks until every startup hook returns, then marks the
// coordinator ready.
func (c *Coordinator) WaitForStartup() {
	c.startupWg.Wait()
	c.readyMu.Lock()
	c.ready = true
	c.readyMu.Unlock()
}

// Shutdown returns an error if draining and hooks together exceed timeout.
// Work still running at that point is abandoned.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.backgroundWg.Wait()

		c.hooksMu.Lock()
		hooks := c.hooks
		c.hooksMu.Unlock()

		var wg sync.WaitGroup
		for _, fn := range hooks {
			wg.Go(fn)
		}
		wg.Wait()
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}

// Package tasks runs best-effort side effects (confirmation email, newsletter
// subscriber writes, mailing-list contacts) off the request path. Failures are
// logged and counted, never returned to the request that scheduled them.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nevloh/nevloh-website-sub001/pkg/logging"
)

// Observer records task outcomes. Status is "ok", "failed" or "panic".
type Observer interface {
	ObserveTask(name, status string)
}

// Func is a unit of best-effort work.
type Func func(ctx context.Context) error

// Runner executes tasks with bounded concurrency and a per-task timeout.
// A Runner created with zero workers runs every task inline, which keeps
// tests deterministic.
type Runner struct {
	group    *errgroup.Group
	inline   bool
	timeout  time.Duration
	logger   *logging.Logger
	observer Observer

	mu     sync.RWMutex
	closed bool
}

// NewRunner creates a runner allowing at most workers concurrent tasks.
func NewRunner(workers int, timeout time.Duration, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	r := &Runner{
		timeout: timeout,
		logger:  logger,
		inline:  workers <= 0,
	}
	if !r.inline {
		r.group = &errgroup.Group{}
		r.group.SetLimit(workers)
	}
	return r
}

// NewInlineRunner returns a runner that executes tasks synchronously.
func NewInlineRunner(logger *logging.Logger) *Runner {
	return NewRunner(0, 0, logger)
}

// WithObserver attaches an outcome observer.
func (r *Runner) WithObserver(o Observer) *Runner {
	r.observer = o
	return r
}

// Go schedules fn. The task gets a context detached from ctx's cancellation
// (the request may finish first) but bounded by the runner timeout. Extra
// attrs are attached to failure logs.
func (r *Runner) Go(ctx context.Context, name string, fn Func, attrs ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	task := func() error {
		r.run(ctx, name, fn, attrs)
		return nil
	}

	r.mu.RLock()
	if r.inline || r.closed {
		r.mu.RUnlock()
		_ = task()
		return
	}
	if !r.group.TryGo(task) {
		r.logger.Warn("task runner saturated, waiting for a slot", "task", name)
		r.group.Go(task)
	}
	r.mu.RUnlock()
}

func (r *Runner) run(parent context.Context, name string, fn Func, attrs []any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.timeout)
	defer cancel()

	start := time.Now()
	status := "ok"
	defer func() {
		if rec := recover(); rec != nil {
			status = "panic"
			r.logger.Error("task panicked", append([]any{"task", name, "panic", fmt.Sprint(rec)}, attrs...)...)
		}
		if r.observer != nil {
			r.observer.ObserveTask(name, status)
		}
	}()

	if err := fn(ctx); err != nil {
		status = "failed"
		r.logger.Error("task failed", append([]any{"task", name, "error", err, "duration_ms", time.Since(start).Milliseconds()}, attrs...)...)
		return
	}
	r.logger.Debug("task completed", "task", name, "duration_ms", time.Since(start).Milliseconds())
}

// Wait blocks until every scheduled task has finished.
func (r *Runner) Wait() {
	if r.inline {
		return
	}
	_ = r.group.Wait()
}

// Close stops accepting asynchronous work (later tasks run inline) and waits
// for in-flight tasks or ctx expiry, whichever comes first.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("tasks: drain interrupted: %w", ctx.Err())
	}
}

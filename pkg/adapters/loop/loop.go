// Package loop provides schedulers for hosts without an interactive loop of
// their own. Loop runs timers and submitted work on a single goroutine;
// Manual fires timers only when told to.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/pkg/ports"
)

// Loop serializes timer callbacks and submitted work onto the goroutine that
// calls Run. Safe for concurrent use.
type Loop struct {
	work   chan func()
	logger *slog.Logger
}

// Option configures the loop.
type Option func(*Loop)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithQueueSize sets how much work may be pending before submitters block.
func WithQueueSize(n int) Option {
	return func(l *Loop) {
		l.work = make(chan func(), n)
	}
}

// New creates a loop. Nothing runs until Run is called.
func New(opts ...Option) *Loop {
	l := &Loop{
		work:   make(chan func(), 64),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("loop started")
	defer l.logger.Debug("loop stopped")
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.work:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "panic", r)
		}
	}()
	fn()
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}
	select {
	case l.work <- task:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn without waiting.
func (l *Loop) Post(fn func()) {
	l.work <- fn
}

// Every implements ports.Scheduler. A tick that is still queued when the
// next one fires is coalesced, so callbacks never pile up.
func (l *Loop) Every(interval time.Duration, fn func()) ports.StopFunc {
	ticker := time.NewTicker(interval)
	stop := make(chan struct{})
	var stopped, pending atomic.Bool

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if !pending.CompareAndSwap(false, true) {
					continue
				}
				task := func() {
					pending.Store(false)
					if !stopped.Load() {
						fn()
					}
				}
				select {
				case l.work <- task:
				case <-stop:
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			stopped.Store(true)
			close(stop)
		})
	}
}

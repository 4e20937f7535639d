package domain

import (
	"context"
	"time"
)

// RunEvent describes a run lifecycle transition.
type RunEvent struct {
	Timestamp    time.Time     `json:"timestamp"`
	ControllerID string        `json:"controller_id"`
	RunID        string        `json:"run_id"`
	Generator    string        `json:"generator"`
	Phase        Phase         `json:"phase"`
	Elapsed      time.Duration `json:"elapsed"`
	ExitCode     *int          `json:"exit_code,omitempty"`
	Err          error         `json:"-"`
}

// LogEvent carries one captured output line.
type LogEvent struct {
	ControllerID string  `json:"controller_id"`
	RunID        string  `json:"run_id"`
	Line         LogLine `json:"line"`
}

// LifecycleHooks defines callbacks for supervisor observability.
// Hooks run on the supervisor's goroutine and must not block.
type LifecycleHooks struct {
	OnRunStart func(context.Context, *RunEvent)
	OnRunEnd   func(context.Context, *RunEvent)
	OnLogLine  func(context.Context, *LogEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart: chainRun(h.OnRunStart, other.OnRunStart),
		OnRunEnd:   chainRun(h.OnRunEnd, other.OnRunEnd),
		OnLogLine:  chainLog(h.OnLogLine, other.OnLogLine),
	}
}

func chainRun(a, b func(context.Context, *RunEvent)) func(context.Context, *RunEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainLog(a, b func(context.Context, *LogEvent)) func(context.Context, *LogEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *LogEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

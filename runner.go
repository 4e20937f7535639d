package mediabridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/supervisor"
)

// Executor runs fn on the engine's scheduler goroutine and waits for it.
// *loop.Loop implements it.
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

// Runner executes single runs to completion for hosts that want a blocking
// call, such as the CLI. The executor's loop must be running.
type Runner struct {
	Engine   *Engine
	Executor Executor
}

// NewRunner creates a runner.
func NewRunner(engine *Engine, exec Executor) *Runner {
	return &Runner{Engine: engine, Executor: exec}
}

// Run starts the stored controller and blocks until its run ends. When ctx is
// cancelled the run is cancelled and Run still waits for its teardown.
func (r *Runner) Run(ctx context.Context, controllerID string, overrides domain.Bindings) (domain.RunStatus, error) {
	return r.run(ctx, controllerID, func(c context.Context) (domain.RunStatus, error) {
		return r.Engine.Start(c, controllerID, overrides)
	})
}

// RunRequest is Run for an explicit request.
func (r *Runner) RunRequest(ctx context.Context, req supervisor.StartRequest) (domain.RunStatus, error) {
	return r.run(ctx, req.ControllerID, func(c context.Context) (domain.RunStatus, error) {
		return r.Engine.StartRequest(c, req)
	})
}

func (r *Runner) run(ctx context.Context, controllerID string, start func(context.Context) (domain.RunStatus, error)) (domain.RunStatus, error) {
	if r.Executor == nil {
		return domain.RunStatus{}, fmt.Errorf("executor must be set (use a running loop)")
	}
	done, stop := r.Engine.Done(controllerID)
	defer stop()

	var st domain.RunStatus
	var startErr error
	if err := r.Executor.Do(ctx, func() { st, startErr = start(ctx) }); err != nil {
		return domain.RunStatus{}, err
	}
	if startErr != nil {
		return st, startErr
	}

	select {
	case res := <-done:
		return res.Status, res.Err
	case <-ctx.Done():
	}

	// The caller's context is gone; cancellation and teardown run on a fresh one.
	bg := context.WithoutCancel(ctx)
	var cancelErr error
	if err := r.Executor.Do(bg, func() { cancelErr = r.Engine.Cancel(controllerID) }); err != nil {
		return st, err
	}
	if cancelErr != nil && !errors.Is(cancelErr, domain.ErrNotRunning) {
		return st, cancelErr
	}
	res := <-done
	return res.Status, res.Err
}

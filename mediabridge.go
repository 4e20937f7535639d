package mediabridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/pkg/adapters/process"
	"github.com/aretw0/mediabridge/pkg/bridge"
	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/materializer"
	"github.com/aretw0/mediabridge/pkg/ports"
	"github.com/aretw0/mediabridge/pkg/resolver"
	"github.com/aretw0/mediabridge/pkg/supervisor"
)

// Version is the release of this module.
const Version = "0.3.0"

// Engine is the high-level entry point of the library. It wires a project,
// a generator source and a scheduler into a running supervisor.
//
// Start, Cancel, Status, Active and Shutdown must be called on the
// scheduler's goroutine. Attach and Done may be called from anywhere.
type Engine struct {
	project    ports.Project
	generators ports.GeneratorSource
	supervisor *supervisor.Supervisor

	spawner        ports.Spawner
	hooks          domain.LifecycleHooks
	reporter       ports.Reporter
	supervisorOpts []supervisor.Option
	logger         *slog.Logger

	mu      sync.Mutex
	waiters map[string][]chan Result
}

// Result is the outcome of one run.
type Result struct {
	Status domain.RunStatus
	Err    error
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithReporter sets the user-facing message sink.
func WithReporter(r ports.Reporter) Option {
	return func(e *Engine) {
		e.reporter = r
	}
}

// WithSpawner replaces the local process spawner.
func WithSpawner(s ports.Spawner) Option {
	return func(e *Engine) {
		e.spawner = s
	}
}

// WithSupervisorOptions passes tuning options (timeouts, tick interval,
// scratch root, claimer) through to the supervisor.
func WithSupervisorOptions(opts ...supervisor.Option) Option {
	return func(e *Engine) {
		e.supervisorOpts = append(e.supervisorOpts, opts...)
	}
}

// New initializes an engine for one project.
func New(project ports.Project, generators ports.GeneratorSource, scheduler ports.Scheduler, opts ...Option) *Engine {
	e := &Engine{
		project:    project,
		generators: generators,
		logger:     logging.NewNop(),
		waiters:    make(map[string][]chan Result),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.spawner == nil {
		e.spawner = process.NewSpawner(process.WithLogger(e.logger))
	}

	supOpts := []supervisor.Option{
		supervisor.WithLogger(e.logger),
		supervisor.WithMaterializer(materializer.New(project, project, project, materializer.WithLogger(e.logger))),
		supervisor.WithLifecycleHooks(e.hooks),
		supervisor.WithLifecycleHooks(domain.LifecycleHooks{OnRunEnd: e.notify}),
	}
	if e.reporter != nil {
		supOpts = append(supOpts, supervisor.WithReporter(e.reporter))
	}
	supOpts = append(supOpts, e.supervisorOpts...)

	e.supervisor = supervisor.New(
		generators,
		resolver.New(project, resolver.WithLogger(e.logger)),
		e.spawner,
		scheduler,
		supOpts...,
	)
	return e
}

// Attach creates a controller strip for the named generator, binding the
// current selection to its inputs.
func (e *Engine) Attach(ctx context.Context, generator string, opts bridge.AttachOptions) (*bridge.Attachment, error) {
	def, err := e.generators.Definition(ctx, generator)
	if err != nil {
		return nil, err
	}
	att, err := bridge.Attach(ctx, e.project, e.project, def, opts)
	if err != nil {
		return nil, err
	}
	e.logger.Info("generator attached", "generator", generator, "strip", att.Strip.Key, "unbound", att.Unbound)
	return att, nil
}

// Start runs the generator stored for a controller. Overrides replace
// individual bindings for this run only.
func (e *Engine) Start(ctx context.Context, controllerID string, overrides domain.Bindings) (domain.RunStatus, error) {
	req, err := bridge.Load(ctx, e.project, controllerID, overrides)
	if err != nil {
		return domain.RunStatus{ControllerID: controllerID, Phase: domain.PhaseIdle}, fmt.Errorf("%w: %s", err, controllerID)
	}
	return e.supervisor.Start(ctx, req)
}

// StartRequest runs an explicit request without stored controller state.
func (e *Engine) StartRequest(ctx context.Context, req supervisor.StartRequest) (domain.RunStatus, error) {
	return e.supervisor.Start(ctx, req)
}

// Cancel asks the active run of a controller to stop.
func (e *Engine) Cancel(controllerID string) error {
	return e.supervisor.Cancel(controllerID)
}

// Status returns the active or last run of a controller.
func (e *Engine) Status(controllerID string) (domain.RunStatus, bool) {
	return e.supervisor.Status(controllerID)
}

// Active returns the controllers with a run in progress.
func (e *Engine) Active() []string {
	return e.supervisor.Active()
}

// Shutdown cancels every active run immediately.
func (e *Engine) Shutdown() {
	e.supervisor.Shutdown()
}

// Project returns the project the engine works on.
func (e *Engine) Project() ports.Project {
	return e.project
}

// Done returns a channel that receives the result of the next run of
// controllerID to end, and a func that stops waiting.
func (e *Engine) Done(controllerID string) (<-chan Result, func()) {
	ch := make(chan Result, 1)
	e.mu.Lock()
	e.waiters[controllerID] = append(e.waiters[controllerID], ch)
	e.mu.Unlock()

	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		list := e.waiters[controllerID]
		for i, w := range list {
			if w == ch {
				e.waiters[controllerID] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(e.waiters[controllerID]) == 0 {
			delete(e.waiters, controllerID)
		}
	}
}

// notify runs on the supervisor's goroutine after a run has been recorded.
func (e *Engine) notify(ctx context.Context, ev *domain.RunEvent) {
	e.mu.Lock()
	list := e.waiters[ev.ControllerID]
	delete(e.waiters, ev.ControllerID)
	e.mu.Unlock()

	if len(list) == 0 {
		return
	}
	st, _ := e.supervisor.Status(ev.ControllerID)
	for _, ch := range list {
		ch <- Result{Status: st, Err: ev.Err}
	}
}

// Package supervisor runs generator programs without blocking the host.
//
// A Supervisor owns one run per controller strip. Each run is an explicit state
// machine (idle, starting, running, then finished, errored or cancelled) that
// advances only when the host's scheduler calls back. Every call, including the
// scheduled ticks, must happen on the host's loop goroutine.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/ports"
	"github.com/aretw0/mediabridge/pkg/resolver"
	"github.com/google/uuid"
)

// Materializer writes a finished run's outputs back to the timeline.
type Materializer interface {
	Materialize(ctx context.Context, def *domain.GeneratorDefinition, outputs map[string]string, controllerID string) error
}

// StartRequest asks for a generator to run on behalf of a controller strip.
type StartRequest struct {
	ControllerID string
	Generator    string
	Bindings     domain.Bindings
}

// Supervisor starts, advances and tears down generator runs.
// It is not safe for concurrent use.
type Supervisor struct {
	generators   ports.GeneratorSource
	resolver     *resolver.Resolver
	spawner      ports.Spawner
	scheduler    ports.Scheduler
	materializer Materializer
	reporter     ports.Reporter
	claimer      ports.RunClaimer
	claimTTL     time.Duration
	logger       *slog.Logger
	hooks        domain.LifecycleHooks

	interval       time.Duration
	defaultTimeout time.Duration
	logHistory     int
	scratchRoot    string
	interrupt      <-chan struct{}

	runs map[string]*run
	last map[string]domain.RunStatus
}

// Option configures the supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) {
		s.logger = logger
	}
}

// WithLifecycleHooks sets observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Supervisor) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithMaterializer sets where finished outputs go. Without one, outputs are
// discarded at teardown.
func WithMaterializer(m Materializer) Option {
	return func(s *Supervisor) {
		s.materializer = m
	}
}

// WithReporter sets the user-facing message sink.
func WithReporter(r ports.Reporter) Option {
	return func(s *Supervisor) {
		s.reporter = r
	}
}

// WithTickInterval sets how often runs advance.
func WithTickInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithDefaultTimeout sets the timeout for generators that declare none.
// Zero means unbounded.
func WithDefaultTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		s.defaultTimeout = d
	}
}

// WithLogHistory sets how many recent output lines each run keeps.
func WithLogHistory(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.logHistory = n
		}
	}
}

// WithScratchRoot sets the directory under which each run gets its own
// scratch directory.
func WithScratchRoot(dir string) Option {
	return func(s *Supervisor) {
		s.scratchRoot = dir
	}
}

// WithInterruptSource cancels every active run on its next tick once ch
// delivers or is closed.
func WithInterruptSource(ch <-chan struct{}) Option {
	return func(s *Supervisor) {
		s.interrupt = ch
	}
}

// WithClaimer coordinates controller ownership with other processes sharing
// the same project. Claims expire after ttl.
func WithClaimer(c ports.RunClaimer, ttl time.Duration) Option {
	return func(s *Supervisor) {
		s.claimer = c
		s.claimTTL = ttl
	}
}

// New creates a supervisor.
func New(generators ports.GeneratorSource, res *resolver.Resolver, spawner ports.Spawner, scheduler ports.Scheduler, opts ...Option) *Supervisor {
	s := &Supervisor{
		generators:  generators,
		resolver:    res,
		spawner:     spawner,
		scheduler:   scheduler,
		reporter:    nopReporter{},
		claimTTL:    time.Hour,
		logger:      logging.NewNop(),
		interval:    domain.DefaultTickInterval,
		logHistory:  domain.DefaultLogHistory,
		scratchRoot: filepath.Join(os.TempDir(), "mediabridge"),
		runs:        make(map[string]*run),
		last:        make(map[string]domain.RunStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches a run for req.ControllerID. A controller with an active run
// is rejected with domain.ErrRunActive and left untouched. Any failure to load
// the definition, resolve arguments or spawn the program ends the run in the
// errored phase before a process exists.
func (s *Supervisor) Start(ctx context.Context, req StartRequest) (domain.RunStatus, error) {
	if active, ok := s.runs[req.ControllerID]; ok {
		return active.status(), fmt.Errorf("%w: %s", domain.ErrRunActive, req.ControllerID)
	}

	r := &run{
		ctx:          context.WithoutCancel(ctx),
		controllerID: req.ControllerID,
		runID:        uuid.NewString(),
		generator:    req.Generator,
		phase:        domain.PhaseStarting,
		log:          newLogBuffer(s.logHistory),
		startedAt:    time.Now(),
	}
	logger := s.logger.With("controller", r.controllerID, "run", r.runID, "generator", r.generator)

	if s.claimer != nil {
		unlock, err := s.claimer.Claim(ctx, r.controllerID, s.claimTTL)
		if err != nil {
			if errors.Is(err, domain.ErrRunActive) {
				return domain.RunStatus{ControllerID: r.controllerID, Phase: domain.PhaseRunning},
					fmt.Errorf("%w: %s is running elsewhere", domain.ErrRunActive, r.controllerID)
			}
			logger.Warn("failed to claim controller", "error", err)
		}
		r.unlock = unlock
	}

	s.runs[r.controllerID] = r
	if err := s.launch(ctx, r, req.Bindings); err != nil {
		logger.Error("run failed to start", "error", err)
		r.err = err
		s.finish(r, domain.PhaseErrored)
		return s.last[r.controllerID], err
	}

	logger.Info("run started", "pid", r.proc.PID(), "timeout", r.timeout)
	if s.hooks.OnRunStart != nil {
		s.hooks.OnRunStart(r.ctx, r.event())
	}
	s.reporter.Report(domain.Infof(r.controllerID, "%s started", r.generator))
	s.reporter.RequestRedraw()
	return r.status(), nil
}

func (s *Supervisor) launch(ctx context.Context, r *run, bindings domain.Bindings) error {
	def, err := s.generators.Definition(ctx, r.generator)
	if err != nil {
		return err
	}
	r.def = def

	r.scratchDir = filepath.Join(s.scratchRoot, r.runID)
	if err := os.MkdirAll(r.scratchDir, 0700); err != nil {
		return fmt.Errorf("%w: cannot create scratch directory: %v", domain.ErrProcess, err)
	}

	res, err := s.resolver.Resolve(ctx, def, bindings, r.scratchDir)
	if err != nil {
		return err
	}
	r.outputs = res.OutputPaths
	r.temps = res.TempFiles

	if r.stdout, err = os.Create(filepath.Join(r.scratchDir, "stdout.log")); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProcess, err)
	}
	if r.stderr, err = os.Create(filepath.Join(r.scratchDir, "stderr.log")); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProcess, err)
	}
	r.stdoutTail = newTail(r.stdout)
	r.stderrTail = newTail(r.stderr)

	r.timeout = s.defaultTimeout
	if t := def.Command.Timeout; t != nil {
		r.timeout = time.Duration(*t) * time.Second
	}

	proc, err := s.spawner.Spawn(ports.ProcessSpec{
		Program: res.Args[0],
		Args:    res.Args[1:],
		Stdout:  r.stdout,
		Stderr:  r.stderr,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrProcess, err)
	}
	r.proc = proc
	r.phase = domain.PhaseRunning
	r.stop = s.scheduler.Every(s.interval, func() { s.tick(r) })
	return nil
}

// Cancel asks the active run of a controller to stop. The run is killed and
// cleaned up on its next tick.
func (s *Supervisor) Cancel(controllerID string) error {
	r, ok := s.runs[controllerID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotRunning, controllerID)
	}
	r.cancelRequested = true
	return nil
}

// Status returns the active run of a controller, or its last finished run.
func (s *Supervisor) Status(controllerID string) (domain.RunStatus, bool) {
	if r, ok := s.runs[controllerID]; ok {
		return r.status(), true
	}
	st, ok := s.last[controllerID]
	return st, ok
}

// Active returns the controllers with a run in progress, sorted.
func (s *Supervisor) Active() []string {
	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Shutdown cancels and tears down every active run immediately.
func (s *Supervisor) Shutdown() {
	for _, id := range s.Active() {
		r := s.runs[id]
		r.err = domain.ErrCancelled
		s.finish(r, domain.PhaseCancelled)
	}
}

type nopReporter struct{}

func (nopReporter) Report(domain.Message) {}
func (nopReporter) RequestRedraw()        {}

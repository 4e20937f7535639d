package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/ports"
)

// run is the mutable state of one supervised invocation.
type run struct {
	ctx          context.Context
	controllerID string
	runID        string
	generator    string
	def          *domain.GeneratorDefinition

	phase           domain.Phase
	proc            ports.Process
	stop            ports.StopFunc
	unlock          ports.UnlockFunc
	elapsed         time.Duration
	timeout         time.Duration
	cancelRequested bool
	startedAt       time.Time
	exitCode        *int
	err             error

	scratchDir string
	stdout     *os.File
	stderr     *os.File
	stdoutTail *tail
	stderrTail *tail
	log        *logBuffer

	outputs map[string]string
	temps   []string
}

func (r *run) status() domain.RunStatus {
	st := domain.RunStatus{
		ControllerID: r.controllerID,
		RunID:        r.runID,
		Generator:    r.generator,
		Phase:        r.phase,
		Elapsed:      r.elapsed,
		ExitCode:     r.exitCode,
		Log:          r.log.snapshot(),
	}
	if r.proc != nil {
		st.PID = r.proc.PID()
	}
	if r.err != nil {
		st.Error = r.err.Error()
	}
	return st
}

func (r *run) event() *domain.RunEvent {
	return &domain.RunEvent{
		Timestamp:    time.Now(),
		ControllerID: r.controllerID,
		RunID:        r.runID,
		Generator:    r.generator,
		Phase:        r.phase,
		Elapsed:      r.elapsed,
		ExitCode:     r.exitCode,
		Err:          r.err,
	}
}

// tick advances r by one step: cancellation, timeout, output tailing and a
// non-blocking liveness check, in that order.
func (s *Supervisor) tick(r *run) {
	if s.runs[r.controllerID] != r || r.phase.Terminal() {
		return
	}

	s.checkInterrupt()
	if r.cancelRequested {
		r.err = domain.ErrCancelled
		s.finish(r, domain.PhaseCancelled)
		return
	}

	r.elapsed += s.interval
	if r.timeout > 0 && r.elapsed > r.timeout {
		r.err = fmt.Errorf("%w: %w after %s", domain.ErrProcess, domain.ErrTimeout, r.timeout)
		s.finish(r, domain.PhaseErrored)
		return
	}

	s.drain(r, false)

	status, exited, err := r.proc.Poll()
	if err != nil {
		r.err = fmt.Errorf("%w: %v", domain.ErrProcess, err)
		s.finish(r, domain.PhaseErrored)
		return
	}
	if !exited {
		s.reporter.RequestRedraw()
		return
	}

	s.drain(r, true)
	code := status.Code
	r.exitCode = &code
	if code != 0 {
		r.err = fmt.Errorf("%w: %s exited with code %d", domain.ErrProcess, r.def.Command.Program, code)
		s.finish(r, domain.PhaseErrored)
		return
	}

	r.phase = domain.PhaseFinished
	if err := s.materialize(r); err != nil {
		for _, e := range flatten(err) {
			s.logger.Error("output not materialized", "controller", r.controllerID, "run", r.runID, "error", e)
			s.reporter.Report(domain.Errorf(r.controllerID, "%v", e))
		}
	}
	s.finish(r, domain.PhaseFinished)
}

func (s *Supervisor) checkInterrupt() {
	if s.interrupt == nil {
		return
	}
	select {
	case <-s.interrupt:
		for _, r := range s.runs {
			r.cancelRequested = true
		}
	default:
	}
}

// drain moves newly captured lines into the log. Stderr lines are tagged but
// never fail a run. At exit, unterminated last lines are included.
func (s *Supervisor) drain(r *run, final bool) {
	for _, src := range []struct {
		stream domain.Stream
		tail   *tail
	}{{domain.Stdout, r.stdoutTail}, {domain.Stderr, r.stderrTail}} {
		lines, err := src.tail.lines()
		if err != nil {
			s.logger.Warn("failed to read captured output", "stream", src.stream, "error", err)
		}
		if final {
			lines = append(lines, src.tail.flush()...)
		}
		for _, text := range lines {
			if strings.TrimSpace(text) == "" {
				continue
			}
			line := domain.LogLine{Stream: src.stream, Text: text}
			r.log.push(line)
			s.logger.Debug("output", "controller", r.controllerID, "stream", src.stream, "line", text)
			if s.hooks.OnLogLine != nil {
				s.hooks.OnLogLine(r.ctx, &domain.LogEvent{ControllerID: r.controllerID, RunID: r.runID, Line: line})
			}
		}
	}
}

func (s *Supervisor) materialize(r *run) (err error) {
	if s.materializer == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrMaterialize, p)
		}
	}()
	return s.materializer.Materialize(r.ctx, r.def, r.outputs, r.controllerID)
}

// finish moves r into a terminal phase, records its final status and tears
// it down. It runs exactly once per run.
func (s *Supervisor) finish(r *run, phase domain.Phase) {
	r.phase = phase
	logger := s.logger.With("controller", r.controllerID, "run", r.runID)

	s.teardown(r)

	final := r.status()
	s.last[r.controllerID] = final
	delete(s.runs, r.controllerID)
	r.elapsed = 0
	r.cancelRequested = false

	switch phase {
	case domain.PhaseFinished:
		logger.Info("run finished", "elapsed", final.Elapsed)
		s.reporter.Report(domain.Infof(r.controllerID, "%s finished in %s", r.generator, final.Elapsed))
	case domain.PhaseCancelled:
		logger.Info("run cancelled", "elapsed", final.Elapsed)
		s.reporter.Report(domain.Warningf(r.controllerID, "%s cancelled", r.generator))
	default:
		logger.Error("run failed", "error", r.err, "elapsed", final.Elapsed)
		s.reporter.Report(domain.Errorf(r.controllerID, "%s failed: %v", r.generator, r.err))
	}

	if s.hooks.OnRunEnd != nil {
		ev := r.event()
		ev.Elapsed = final.Elapsed
		s.hooks.OnRunEnd(r.ctx, ev)
	}
	s.reporter.RequestRedraw()
}

// teardown releases everything a run holds. Individual failures are logged
// and never stop the remaining steps.
func (s *Supervisor) teardown(r *run) {
	if r.stop != nil {
		r.stop()
		r.stop = nil
	}
	if r.proc != nil {
		if err := r.proc.Kill(); err != nil {
			s.logger.Warn("failed to kill process", "pid", r.proc.PID(), "error", err)
		}
	}
	for _, f := range []*os.File{r.stdout, r.stderr} {
		if f == nil {
			continue
		}
		f.Close()
		s.remove(f.Name())
	}
	r.stdout, r.stderr = nil, nil

	for _, p := range r.temps {
		s.remove(p)
	}
	r.temps = nil

	if r.scratchDir != "" {
		if err := os.RemoveAll(r.scratchDir); err != nil {
			s.logger.Warn("failed to remove scratch directory", "path", r.scratchDir, "error", err)
		}
	}
	if r.unlock != nil {
		if err := r.unlock(r.ctx); err != nil {
			s.logger.Warn("failed to release controller claim", "error", err)
		}
		r.unlock = nil
	}
}

func (s *Supervisor) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove temp file", "path", path, "error", err)
	}
}

// flatten splits joined errors so each output failure is reported on its own.
func flatten(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

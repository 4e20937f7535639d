// Package process starts generator programs and polls them without blocking,
// so a single-threaded host loop can supervise them.
package process

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/pkg/ports"
)

// Spawner implements ports.Spawner for local processes.
// Programs are executed directly, never through a shell.
type Spawner struct {
	baseDir string
	env     []string
	logger  *slog.Logger
}

// Option configures the spawner.
type Option func(*Spawner)

// WithBaseDir sets the working directory for programs whose spec has none.
func WithBaseDir(dir string) Option {
	return func(s *Spawner) {
		s.baseDir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(s *Spawner) {
		s.env = append(s.env, env...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spawner) {
		s.logger = logger
	}
}

// NewSpawner creates a new process spawner.
func NewSpawner(opts ...Option) *Spawner {
	s := &Spawner{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn starts spec.Program with its output going straight to the capture files.
func (s *Spawner) Spawn(spec ports.ProcessSpec) (ports.Process, error) {
	path, err := exec.LookPath(spec.Program)
	if err != nil {
		return nil, fmt.Errorf("program %q not found: %w", spec.Program, err)
	}

	cmd := exec.Command(path, spec.Args...)
	cmd.Dir = spec.Dir
	if cmd.Dir == "" {
		cmd.Dir = s.baseDir
	}
	cmd.Env = append(cmd.Environ(), s.env...)
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr
	configure(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %q: %w", spec.Program, err)
	}

	s.logger.Debug("process started", "pid", cmd.Process.Pid, "program", path, "args", strings.Join(spec.Args, " "))
	return newProcess(cmd), nil
}

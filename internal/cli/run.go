package cli

import (
	"context"
	"io"
	"time"

	"github.com/aretw0/mediabridge"
	"github.com/aretw0/mediabridge/internal/presentation/tui"
	"github.com/aretw0/mediabridge/internal/settings"
	"github.com/aretw0/mediabridge/pkg/adapters/file"
	"github.com/aretw0/mediabridge/pkg/adapters/loop"
	"github.com/aretw0/mediabridge/pkg/adapters/memory"
	"github.com/aretw0/mediabridge/pkg/bridge"
	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/ports"
	"github.com/aretw0/mediabridge/pkg/registry"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Settings settings.Settings
	Debug    bool
	Quiet    bool
	Out      io.Writer

	// Generator is the path of the generator document.
	Generator string
	// Project is the project file. Without it the run uses a throwaway
	// project whose artifacts go to Settings.OutputDir.
	Project string
	// Controller reruns a stored controller instead of attaching a new one.
	Controller string
	Bindings   []string
	// Timeout replaces the global timeout for generators that declare none.
	Timeout time.Duration
}

// Run executes one generator to completion and prints where its outputs went.
func Run(ctx context.Context, opts RunOptions) (domain.RunStatus, error) {
	if opts.Timeout > 0 {
		opts.Settings.GlobalTimeout = opts.Timeout
	}
	logger := createLogger(opts.Settings, opts.Debug)

	overrides, err := ParseBindings(opts.Bindings)
	if err != nil {
		return domain.RunStatus{}, err
	}

	generators := registry.New(registry.WithLogger(logger))
	entry, err := generators.Add(opts.Generator)
	if err != nil {
		return domain.RunStatus{}, err
	}

	project, err := openProject(opts.Project, opts.Settings)
	if err != nil {
		return domain.RunStatus{}, err
	}

	// The loop outlives ctx so an interrupted run can still be torn down.
	l := loop.New(loop.WithLogger(logger))
	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	defer stopLoop()
	go func() { _ = l.Run(loopCtx) }()

	eng := createEngine(engineConfig{
		settings:   opts.Settings,
		logger:     logger,
		project:    project,
		generators: generators,
		scheduler:  l,
		reporter:   tui.NewReporter(opts.Out, opts.Quiet),
	})

	controllerID := opts.Controller
	if controllerID == "" {
		att, err := eng.Attach(ctx, entry.Name, bridge.AttachOptions{FrameStart: 1})
		if err != nil {
			return domain.RunStatus{}, err
		}
		controllerID = att.Strip.ID
		logger.Debug("controller attached", "controller", controllerID, "unbound", att.Unbound)
	}

	st, err := mediabridge.NewRunner(eng, l).Run(ctx, controllerID, overrides)
	if err == nil && !opts.Quiet {
		printOutputs(ctx, opts.Out, project, controllerID)
	}
	return st, err
}

// openProject opens the project file, or an in-memory project when path is empty.
func openProject(path string, s settings.Settings) (ports.Project, error) {
	if path == "" {
		return memory.NewProject(memory.WithOutputDir(s.OutputDir)), nil
	}
	return file.New(path)
}

// printOutputs lists the strips a finished run wrote to.
func printOutputs(ctx context.Context, w io.Writer, project ports.Project, controllerID string) {
	ids := []string{controllerID}
	if c, err := project.LoadController(ctx, controllerID); err == nil && len(c.Outputs) > 0 {
		ids = ids[:0]
		for _, l := range c.Outputs {
			ids = append(ids, l.StripID)
		}
	}
	for _, id := range ids {
		s, err := project.Strip(ctx, id)
		if err != nil {
			continue
		}
		switch {
		case s.Kind == domain.StripText:
			printSystemMessage(w, "%s: %s", s.Name, s.Text)
		case s.FilePath != "":
			printSystemMessage(w, "%s: %s", s.Name, s.FilePath)
		}
	}
}

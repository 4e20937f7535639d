package cli

import (
	"log/slog"

	"github.com/aretw0/mediabridge"
	"github.com/aretw0/mediabridge/internal/settings"
	"github.com/aretw0/mediabridge/pkg/observability"
	"github.com/aretw0/mediabridge/pkg/ports"
	"github.com/aretw0/mediabridge/pkg/supervisor"
)

// engineConfig gathers what every command needs to build an engine.
type engineConfig struct {
	settings   settings.Settings
	logger     *slog.Logger
	project    ports.Project
	generators ports.GeneratorSource
	scheduler  ports.Scheduler
	reporter   ports.Reporter
}

// createEngine initializes an engine with standard CLI conventions.
func createEngine(cfg engineConfig, extra ...mediabridge.Option) *mediabridge.Engine {
	s := cfg.settings
	supOpts := []supervisor.Option{
		supervisor.WithTickInterval(s.TickInterval),
		supervisor.WithDefaultTimeout(s.GlobalTimeout),
		supervisor.WithLogHistory(s.LogHistory),
	}
	if s.ScratchDir != "" {
		supOpts = append(supOpts, supervisor.WithScratchRoot(s.ScratchDir))
	}

	opts := []mediabridge.Option{
		mediabridge.WithLogger(cfg.logger),
		mediabridge.WithLifecycleHooks(observability.LoggingHooks(cfg.logger)),
		mediabridge.WithSupervisorOptions(supOpts...),
	}
	if cfg.reporter != nil {
		opts = append(opts, mediabridge.WithReporter(cfg.reporter))
	}
	opts = append(opts, extra...)

	return mediabridge.New(cfg.project, cfg.generators, cfg.scheduler, opts...)
}

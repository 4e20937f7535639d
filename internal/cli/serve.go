package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/mediabridge"
	"github.com/aretw0/mediabridge/internal/presentation/tui"
	"github.com/aretw0/mediabridge/internal/settings"
	"github.com/aretw0/mediabridge/pkg/adapters/file"
	httpadapter "github.com/aretw0/mediabridge/pkg/adapters/http"
	"github.com/aretw0/mediabridge/pkg/adapters/loop"
	redisadapter "github.com/aretw0/mediabridge/pkg/adapters/redis"
	"github.com/aretw0/mediabridge/pkg/observability"
	"github.com/aretw0/mediabridge/pkg/ports"
	"github.com/aretw0/mediabridge/pkg/registry"
	"github.com/aretw0/mediabridge/pkg/supervisor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configures the serve command. Settings.Redis.Addr selects
// the shared Redis project; otherwise Project names a project file.
type ServeOptions struct {
	Settings settings.Settings
	Debug    bool
	Quiet    bool
	Out      io.Writer
	Project  string
}

// service is the assembled server, separated from Serve for tests.
type service struct {
	handler http.Handler
	engine  *mediabridge.Engine
	loop    *loop.Loop
	close   func()
}

func newService(ctx context.Context, opts ServeOptions, logger *slog.Logger) (*service, error) {
	s := opts.Settings

	generators := registry.New(registry.WithLogger(logger))
	if s.GeneratorsDir != "" {
		if _, err := generators.LoadDir(s.GeneratorsDir); err != nil {
			logger.Warn("some generators were skipped", "error", err)
		}
	}

	var project ports.Project
	var supOpts []supervisor.Option
	closeFn := func() {}
	if s.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     s.Redis.Addr,
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		project = redisadapter.NewFromClient(client,
			redisadapter.WithPrefix(s.Redis.Prefix),
			redisadapter.WithOutputDir(s.OutputDir),
		)
		supOpts = append(supOpts, supervisor.WithClaimer(redisadapter.NewClaimer(client, s.Redis.Prefix), time.Hour))
		closeFn = func() { _ = client.Close() }
		logger.Info("using redis project", "addr", s.Redis.Addr, "prefix", s.Redis.Prefix)
	} else {
		p, err := file.New(opts.Project)
		if err != nil {
			return nil, fmt.Errorf("serve needs --project or redis.addr: %w", err)
		}
		project = p
		logger.Info("using project file", "path", p.Path())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		closeFn()
		return nil, err
	}

	streams := httpadapter.NewStreamManager()
	l := loop.New(loop.WithLogger(logger))
	supOpts = append(supOpts, supervisor.WithInterruptSource(ctx.Done()))
	eng := createEngine(engineConfig{
		settings:   s,
		logger:     logger,
		project:    project,
		generators: generators,
		scheduler:  l,
		reporter:   tui.NewReporter(opts.Out, opts.Quiet),
	},
		mediabridge.WithLifecycleHooks(metrics.Hooks()),
		mediabridge.WithLifecycleHooks(streams.Hooks()),
		mediabridge.WithSupervisorOptions(supOpts...),
	)

	api := httpadapter.NewServer(eng, l,
		httpadapter.WithLogger(logger),
		httpadapter.WithGenerators(generators),
		httpadapter.WithStreams(streams),
	)
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	api.Mount(router)

	return &service{handler: router, engine: eng, loop: l, close: closeFn}, nil
}

// Serve runs the HTTP control API until ctx is cancelled.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger := createLogger(opts.Settings, opts.Debug)
	svc, err := newService(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer svc.close()

	if !opts.Quiet {
		tui.PrintBanner(opts.Out, mediabridge.Version)
		printSystemMessage(opts.Out, "Listening on %s", opts.Settings.Listen)
	}

	srv := &http.Server{
		Addr:              opts.Settings.Listen,
		Handler:           svc.handler,
		ReadHeaderTimeout: shutdownTimeout,
	}

	// The loop outlives ctx so active runs can be torn down on shutdown.
	loopCtx, stopLoop := context.WithCancel(context.WithoutCancel(ctx))
	defer stopLoop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.loop.Run(loopCtx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if doErr := svc.loop.Do(shutdownCtx, svc.engine.Shutdown); doErr != nil {
			logger.Error("failed to stop active runs", "error", doErr)
		}
		stopLoop()
		logger.Info("server stopped")
		return err
	})
	return g.Wait()
}

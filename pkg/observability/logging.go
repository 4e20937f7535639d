package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/mediabridge/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one record per run
// transition. Program output is logged at debug level, stderr included.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run started",
				"controller", e.ControllerID,
				"run", e.RunID,
				"generator", e.Generator,
			)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			attrs := []any{
				"controller", e.ControllerID,
				"run", e.RunID,
				"generator", e.Generator,
				"phase", e.Phase,
				"elapsed", e.Elapsed,
			}
			if e.ExitCode != nil {
				attrs = append(attrs, "exit_code", *e.ExitCode)
			}
			if e.Err != nil {
				logger.ErrorContext(ctx, "run failed", append(attrs, "error", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "run ended", attrs...)
		},
		OnLogLine: func(ctx context.Context, e *domain.LogEvent) {
			logger.DebugContext(ctx, e.Line.Text,
				"controller", e.ControllerID,
				"stream", e.Line.Stream,
			)
		},
	}
}

package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RunLifecycle(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	start := &domain.RunEvent{ControllerID: "c1", RunID: "r1", Generator: "Upscale", Phase: domain.PhaseRunning}
	hooks.OnRunStart(ctx, start)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsStarted.WithLabelValues("Upscale")))

	hooks.OnLogLine(ctx, &domain.LogEvent{ControllerID: "c1", RunID: "r1", Line: domain.LogLine{Stream: domain.Stderr, Text: "50%"}})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LogLines.WithLabelValues("stderr")))

	hooks.OnRunEnd(ctx, &domain.RunEvent{ControllerID: "c1", RunID: "r1", Generator: "Upscale", Phase: domain.PhaseFinished, Elapsed: 2 * time.Second})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsEnded.WithLabelValues("Upscale", "finished")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestMetrics_StartFailureLeavesGauge(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnRunStart(ctx, &domain.RunEvent{RunID: "r1", Generator: "A"})
	hooks.OnRunEnd(ctx, &domain.RunEvent{RunID: "r2", Generator: "A", Phase: domain.PhaseErrored, Err: domain.ErrBinding})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveRuns), "a run that never started is not subtracted")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsEnded.WithLabelValues("A", "errored")))
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := LoggingHooks(logger)
	ctx := context.Background()

	code := 2
	hooks.OnRunStart(ctx, &domain.RunEvent{ControllerID: "c1", RunID: "r1", Generator: "Upscale"})
	hooks.OnLogLine(ctx, &domain.LogEvent{ControllerID: "c1", Line: domain.LogLine{Stream: domain.Stdout, Text: "done"}})
	hooks.OnRunEnd(ctx, &domain.RunEvent{ControllerID: "c1", RunID: "r1", Generator: "Upscale", Phase: domain.PhaseErrored, ExitCode: &code, Err: errors.New("exit status 2")})

	out := buf.String()
	assert.Contains(t, out, `msg="run started"`)
	assert.Contains(t, out, "msg=done")
	assert.Contains(t, out, "stream=stdout")
	assert.Contains(t, out, `msg="run failed"`)
	assert.Contains(t, out, "exit_code=2")
}

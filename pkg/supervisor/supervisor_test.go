package supervisor_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/aretw0/mediabridge/pkg/adapters/loop"
	"github.com/aretw0/mediabridge/pkg/adapters/memory"
	"github.com/aretw0/mediabridge/pkg/config"
	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/ports"
	"github.com/aretw0/mediabridge/pkg/resolver"
	"github.com/aretw0/mediabridge/pkg/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeProcess struct {
	pid     int
	exited  bool
	code    int
	killed  bool
	pollErr error
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Poll() (ports.ExitStatus, bool, error) {
	return ports.ExitStatus{Code: p.code}, p.exited, p.pollErr
}

func (p *fakeProcess) Kill() error {
	if !p.exited {
		p.killed = true
		p.exited = true
		p.code = 137
	}
	return nil
}

func (p *fakeProcess) exit(code int) {
	p.exited = true
	p.code = code
}

type fakeSpawner struct {
	specs   []ports.ProcessSpec
	procs   []*fakeProcess
	err     error
	onSpawn func(spec ports.ProcessSpec)
}

func (s *fakeSpawner) Spawn(spec ports.ProcessSpec) (ports.Process, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.specs = append(s.specs, spec)
	if s.onSpawn != nil {
		s.onSpawn(spec)
	}
	p := &fakeProcess{pid: 1000 + len(s.procs)}
	s.procs = append(s.procs, p)
	return p, nil
}

type staticGenerators map[string]*domain.GeneratorDefinition

func (g staticGenerators) Definition(ctx context.Context, name string) (*domain.GeneratorDefinition, error) {
	def, ok := g[name]
	if !ok {
		return nil, domain.ErrGeneratorNotFound
	}
	return def, nil
}

type recordingMaterializer struct {
	calls   []map[string]string
	present []bool
	err     error
	panics  bool
}

func (m *recordingMaterializer) Materialize(ctx context.Context, def *domain.GeneratorDefinition, outputs map[string]string, controllerID string) error {
	m.calls = append(m.calls, outputs)
	for _, p := range outputs {
		_, err := os.Stat(p)
		m.present = append(m.present, err == nil)
	}
	if m.panics {
		panic("materializer exploded")
	}
	return m.err
}

type recordingReporter struct {
	messages []domain.Message
	redraws  int
}

func (r *recordingReporter) Report(msg domain.Message) { r.messages = append(r.messages, msg) }
func (r *recordingReporter) RequestRedraw()            { r.redraws++ }

func (r *recordingReporter) severities() []domain.Severity {
	var out []domain.Severity
	for _, m := range r.messages {
		out = append(out, m.Severity)
	}
	return out
}

// --- Harness ---

const genDoc = `
name: Gen
command:
  program: gen
  argument-list:
    - argument: "{Prompt}"
    - argument: "{Out}"
  timeout: 5
properties:
  input:
    - name: Prompt
      type: text
  output:
    - name: Out
      type: image
      file-ext: .png
`

type harness struct {
	sup          *supervisor.Supervisor
	sched        *loop.Manual
	spawner      *fakeSpawner
	materializer *recordingMaterializer
	reporter     *recordingReporter
	scratch      string
	ended        []*domain.RunEvent
}

func newHarness(t *testing.T, docs map[string]string, opts ...supervisor.Option) *harness {
	t.Helper()
	gens := staticGenerators{}
	for name, doc := range docs {
		def, err := config.Parse([]byte(doc))
		require.NoError(t, err)
		gens[name] = def
	}

	h := &harness{
		sched:        loop.NewManual(),
		spawner:      &fakeSpawner{},
		materializer: &recordingMaterializer{},
		reporter:     &recordingReporter{},
		scratch:      t.TempDir(),
	}
	base := []supervisor.Option{
		supervisor.WithScratchRoot(h.scratch),
		supervisor.WithMaterializer(h.materializer),
		supervisor.WithReporter(h.reporter),
		supervisor.WithLifecycleHooks(domain.LifecycleHooks{
			OnRunEnd: func(_ context.Context, e *domain.RunEvent) { h.ended = append(h.ended, e) },
		}),
	}
	h.sup = supervisor.New(gens, resolver.New(memory.NewProject()), h.spawner, h.sched, append(base, opts...)...)
	return h
}

func (h *harness) start(t *testing.T, controller string) domain.RunStatus {
	t.Helper()
	st, err := h.sup.Start(context.Background(), supervisor.StartRequest{
		ControllerID: controller,
		Generator:    "Gen",
		Bindings:     domain.Bindings{"Prompt": domain.TextSource("a fox")},
	})
	require.NoError(t, err)
	return st
}

func (h *harness) phase(t *testing.T, controller string) domain.Phase {
	t.Helper()
	st, ok := h.sup.Status(controller)
	require.True(t, ok)
	return st.Phase
}

func assertNoLeftovers(t *testing.T, h *harness) {
	t.Helper()
	entries, err := os.ReadDir(h.scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "no scratch files survive a run")
	assert.Zero(t, h.sched.Armed(), "tick is disarmed")
}

// --- Tests ---

func TestSupervisor_Success(t *testing.T) {
	h := newHarness(t, map[string]string{"Gen": genDoc})

	st := h.start(t, "c1")
	assert.Equal(t, domain.PhaseRunning, st.Phase)
	assert.Equal(t, 1000, st.PID)
	require.Len(t, h.spawner.specs, 1)
	spec := h.spawner.specs[0]
	assert.Equal(t, "gen", spec.Program)
	assert.Equal(t, "a fox", spec.Args[0])
	assert.Equal(t, 1, h.sched.Armed())

	// The program writes its output and exits cleanly.
	require.NoError(t, os.WriteFile(spec.Args[1], []byte("png"), 0644))
	h.sched.Tick()
	assert.Equal(t, domain.PhaseRunning, h.phase(t, "c1"))
	h.spawner.procs[0].exit(0)
	h.sched.Tick()

	final, ok := h.sup.Status("c1")
	require.True(t, ok)
	assert.Equal(t, domain.PhaseFinished, final.Phase)
	require.NotNil(t, final.ExitCode)
	assert.Equal(t, 0, *final.ExitCode)
	assert.Equal(t, 200*time.Millisecond, final.Elapsed)
	assert.Empty(t, final.Error)

	require.Len(t, h.materializer.calls, 1)
	assert.Equal(t, spec.Args[1], h.materializer.calls[0]["Out"])
	assert.Equal(t, []bool{true}, h.materializer.present, "outputs still exist while materializing")

	assert.Empty(t, h.sup.Active())
	assertNoLeftovers(t, h)
	require.Len(t, h.ended, 1)
	assert.Equal(t, domain.PhaseFinished, h.ended[0].Phase)
	assert.Equal(t, []domain.Severity{domain.SeverityInfo, domain.SeverityInfo}, h.reporter.severities())
	assert.Positive(t, h.reporter.redraws)
}

func TestSupervisor_Timeout(t *testing.T) {
	h := newHarness(t, map[string]string{"Gen": genDoc})
	h.start(t, "c1")

	h.sched.TickN(50)
	assert.Equal(t, domain.PhaseRunning, h.phase(t, "c1"), "exactly the timeout is still within budget")

	h.sched.Tick()
	st, _ := h.sup.Status("c1")
	assert.Equal(t, domain.PhaseErrored, st.Phase)
	assert.Equal(t, 5100*time.Millisecond, st.Elapsed)
	assert.Contains(t, st.Error, "timed out")
	assert.True(t, h.spawner.procs[0].killed)
	assert.Empty(t, h.materializer.calls)
	require.Len(t, h.ended, 1)
	assert.ErrorIs(t, h.ended[0].Err, domain.ErrTimeout)
	assert.ErrorIs(t, h.ended[0].Err, domain.ErrProcess)
	assertNoLeftovers(t, h)
}

func TestSupervisor_TimeoutPriority(t *testing.T) {
	unbounded := `
name: Gen
command:
  program: gen
  timeout: 0
`
	noTimeout := `
name: Gen
command:
  program: gen
`

	t.Run("Zero Is Unbounded Even With A Global Default", func(t *testing.T) {
		h := newHarness(t, map[string]string{"Gen": unbounded}, supervisor.WithDefaultTimeout(time.Second))
		h.start(t, "c1")
		h.sched.TickN(100)
		assert.Equal(t, domain.PhaseRunning, h.phase(t, "c1"))
		h.sup.Shutdown()
	})

	t.Run("Global Default Applies", func(t *testing.T) {
		h := newHarness(t, map[string]string{"Gen": noTimeout}, supervisor.WithDefaultTimeout(time.Second))
		h.start(t, "c1")
		h.sched.TickN(10)
		assert.Equal(t, domain.PhaseRunning, h.phase(t, "c1"))
		h.sched.Tick()
		assert.Equal(t, domain.PhaseErrored, h.phase(t, "c1"))
	})

	t.Run("No Timeout Anywhere", func(t *testing.T) {
		h := newHarness(t, map[string]string{"Gen": noTimeout})
		h.start(t, "c1")
		h.sched.TickN(1000)
		assert.Equal(t, domain.PhaseRunning, h.phase(t, "c1"))
		h.sup.Shutdown()
	})
}

func TestSupervisor_Cancel(t *testing.T) {
	h := newHarness(t, map[string]string{"Gen": genDoc})
	h.start(t, "c1")
	h.sched.TickN(3)

	require.NoError(t, h.sup.Cancel("c1"))
	assert.Equal(t, domain.PhaseRunning, h.phase(t, "c1"), "cancellation is observed on the next tick")

	h.sched.Tick()
	st, _ := h.sup.Status("c1")
	assert.Equal(t, domain.PhaseCancelled, st.Phase)
	assert.True(t, h.spawner.procs[0].killed)
	assert.Empty(t, h.materializer.calls)
	assertNoLeftovers(t, h)

	assert.ErrorIs(t, h.sup.Cancel("c1"), domain.ErrNotRunning)
}

func TestSupervisor_NonZeroExit(t *testing.T) {
	h := newHarness(t, map[string]string{"Gen": genDoc})
	h.start(t, "c1")
	h.spawner.procs[0].exit(2)
	h.sched.Tick()

	st, _ := h.sup.Status("c1")
	assert.Equal(t, domain.PhaseErrored, st.Phase)
	require.NotNil(t, st.ExitCode)
	assert.Equal(t, 2, *st.ExitCode)
	assert.Contains(t, st.Error, "exited with code 2")
	assert.Empty(t, h.materializer.calls)
	assert.Contains(t, h.reporter.severities(), domain.SeverityError)
	assertNoLeftovers(t, h)
}

func TestSupervisor_PollError(t *testing.T) {
	h := newHarness(t, map[string]string{"Gen": genDoc})
	h.start(t, "c1")
	h.spawner.procs[0].pollErr = errors.New("wait4: no child")
	h.sched.Tick()

	assert.Equal(t, domain.PhaseErrored, h.phase(t, "c1"))
	assertNoLeftovers(t, h)
}

func TestSupervisor_OutputTailing(t *testing.T) {
	h := newHarness(t, map[string]string{"Gen": genDoc}, supervisor.WithLogHistory(3))
	var streamed []domain.LogLine
	h.sup = supervisor.New(staticGenerators{"Gen": mustParse(t, genDoc)}, resolver.New(memory.NewProject()), h.spawner, h.sched,
		supervisor.WithScratchRoot(h.scratch),
		supervisor.WithLogHistory(3),
		supervisor.WithLifecycleHooks(domain.LifecycleHooks{
			OnLogLine: func(_ context.Context, e *domain.LogEvent) { streamed = append(streamed, e.Line) },
		}),
	)

	var stdout, stderr *os.File
	h.spawner.onSpawn = func(spec ports.ProcessSpec) { stdout, stderr = spec.Stdout, spec.Stderr }
	h.start(t, "c1")

	_, err := stdout.WriteString("one\ntwo\n\nthr")
	require.NoError(t, err)
	_, err = stderr.WriteString("warning: low memory\n")
	require.NoError(t, err)
	h.sched.Tick()

	st, _ := h.sup.Status("c1")
	assert.Equal(t, []domain.LogLine{
		{Stream: domain.Stdout, Text: "one"},
		{Stream: domain.Stdout, Text: "two"},
		{Stream: domain.Stderr, Text: "warning: low memory"},
	}, st.Log, "blank lines are skipped and partial lines held back")

	_, err = stdout.WriteString("ee\nfour")
	require.NoError(t, err)
	h.spawner.procs[0].exit(0)
	h.sched.Tick()

	st, _ = h.sup.Status("c1")
	assert.Equal(t, domain.PhaseFinished, st.Phase, "stderr output alone is not a failure")
	assert.Equal(t, []domain.LogLine{
		{Stream: domain.Stderr, Text: "warning: low memory"},
		{Stream: domain.Stdout, Text: "three"},
		{Stream: domain.Stdout, Text: "four"},
	}, st.Log, "the buffer keeps the most recent lines")
	assert.Len(t, streamed, 5)
	assert.Equal(t, "[stderr] warning: low memory", streamed[2].String())
}

func TestSupervisor_OneRunPerController(t *testing.T) {
	h := newHarness(t, map[string]string{"Gen": genDoc})
	first := h.start(t, "c1")

	st, err := h.sup.Start(context.Background(), supervisor.StartRequest{ControllerID: "c1", Generator: "Gen"})
	assert.ErrorIs(t, err, domain.ErrRunActive)
	assert.Equal(t, first.RunID, st.RunID)
	assert.Len(t, h.spawner.specs, 1)
	assert.Equal(t, domain.PhaseRunning, h.phase(t, "c1"))

	h.start(t, "c2")
	assert.Equal(t, []string{"c1", "c2"}, h.sup.Active())
	assert.Equal(t, 2, h.sched.Armed())

	h.spawner.procs[1].exit(0)
	h.sched.Tick()
	assert.Equal(t, []string{"c1"}, h.sup.Active(), "controllers run independently")
	h.sup.Shutdown()
}

func TestSupervisor_StartFailures(t *testing.T) {
	tests := []struct {
		name      string
		generator string
		bindings  domain.Bindings
		spawnErr  error
		want      error
	}{
		{"Unknown Generator", "Nope", nil, nil, domain.ErrGeneratorNotFound},
		{"Unbound Required Input", "Gen", nil, nil, domain.ErrBinding},
		{"Spawn Failure", "Gen", domain.Bindings{"Prompt": domain.TextSource("x")}, errors.New("no such program"), domain.ErrProcess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, map[string]string{"Gen": genDoc})
			h.spawner.err = tt.spawnErr

			st, err := h.sup.Start(context.Background(), supervisor.StartRequest{
				ControllerID: "c1", Generator: tt.generator, Bindings: tt.bindings,
			})
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, domain.PhaseErrored, st.Phase)
			assert.Empty(t, h.spawner.procs)
			assert.Empty(t, h.sup.Active())
			assertNoLeftovers(t, h)

			again, ok := h.sup.Status("c1")
			require.True(t, ok)
			assert.Equal(t, domain.PhaseErrored, again.Phase)
		})
	}
}

func TestSupervisor_MaterializeFailures(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		h := newHarness(t, map[string]string{"Gen": genDoc})
		h.materializer.err = errors.Join(
			errors.New("output A: missing"),
			errors.New("output B: disk full"),
		)
		h.start(t, "c1")
		h.spawner.procs[0].exit(0)
		h.sched.Tick()

		assert.Equal(t, domain.PhaseFinished, h.phase(t, "c1"))
		errs := 0
		for _, m := range h.reporter.messages {
			if m.Severity == domain.SeverityError {
				errs++
			}
		}
		assert.Equal(t, 2, errs, "each output failure is reported")
		assertNoLeftovers(t, h)
	})

	t.Run("Panic", func(t *testing.T) {
		h := newHarness(t, map[string]string{"Gen": genDoc})
		h.materializer.panics = true
		h.start(t, "c1")
		h.spawner.procs[0].exit(0)

		assert.NotPanics(t, h.sched.Tick)
		assert.Contains(t, h.reporter.severities(), domain.SeverityError)
		assertNoLeftovers(t, h)
	})
}

func TestSupervisor_Interrupt(t *testing.T) {
	interrupt := make(chan struct{}, 1)
	h := newHarness(t, map[string]string{"Gen": genDoc}, supervisor.WithInterruptSource(interrupt))
	h.start(t, "c1")
	h.start(t, "c2")

	interrupt <- struct{}{}
	h.sched.Tick()

	assert.Equal(t, domain.PhaseCancelled, h.phase(t, "c1"))
	assert.Equal(t, domain.PhaseCancelled, h.phase(t, "c2"))
	assertNoLeftovers(t, h)
}

func TestSupervisor_Shutdown(t *testing.T) {
	h := newHarness(t, map[string]string{"Gen": genDoc})
	h.start(t, "c1")
	h.start(t, "c2")

	h.sup.Shutdown()
	assert.Empty(t, h.sup.Active())
	assert.Equal(t, domain.PhaseCancelled, h.phase(t, "c1"))
	assert.True(t, h.spawner.procs[0].killed)
	assert.True(t, h.spawner.procs[1].killed)
	assertNoLeftovers(t, h)
}

func TestSupervisor_RestartAfterFinish(t *testing.T) {
	h := newHarness(t, map[string]string{"Gen": genDoc})
	first := h.start(t, "c1")
	h.spawner.procs[0].exit(0)
	h.sched.Tick()

	second := h.start(t, "c1")
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, time.Duration(0), second.Elapsed, "elapsed starts over")
	h.sup.Shutdown()
}

type claimer struct {
	held     map[string]bool
	released int
}

func (c *claimer) Claim(ctx context.Context, id string, ttl time.Duration) (ports.UnlockFunc, error) {
	if c.held[id] {
		return nil, domain.ErrRunActive
	}
	c.held[id] = true
	return func(context.Context) error {
		delete(c.held, id)
		c.released++
		return nil
	}, nil
}

func TestSupervisor_Claimer(t *testing.T) {
	c := &claimer{held: map[string]bool{"elsewhere": true}}
	h := newHarness(t, map[string]string{"Gen": genDoc}, supervisor.WithClaimer(c, time.Minute))

	_, err := h.sup.Start(context.Background(), supervisor.StartRequest{ControllerID: "elsewhere", Generator: "Gen"})
	assert.ErrorIs(t, err, domain.ErrRunActive)
	assert.Empty(t, h.spawner.procs)

	h.start(t, "c1")
	assert.True(t, c.held["c1"])
	h.spawner.procs[0].exit(0)
	h.sched.Tick()
	assert.False(t, c.held["c1"])
	assert.Equal(t, 1, c.released)
}

func mustParse(t *testing.T, doc string) *domain.GeneratorDefinition {
	t.Helper()
	def, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return def
}

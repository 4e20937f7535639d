package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/internal/settings"
	"github.com/aretw0/mediabridge/pkg/adapters/file"
	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shoutDoc = `
name: Shout
description: Appends an exclamation mark
command:
  program: sh
  argument-list:
    - argument: "-c"
    - argument: "printf '%s!' \"$1\" > \"$0\"; exit $2"
    - argument: "{Out}"
    - argument: "{Msg}"
    - argument: "{Code}"
properties:
  input:
    - name: Msg
      type: text
    - name: Code
      type: text
      default-value: "0"
  output:
    - name: Out
      type: text
`

const paintDoc = `
name: Paint
command:
  program: paint
  arguments: "{Source} {Image}"
properties:
  input:
    - name: Source
      type: image
  output:
    - name: Image
      type: image
      file-ext: png
`

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func testSettings(t *testing.T) settings.Settings {
	s := settings.Defaults()
	s.TickInterval = 10 * time.Millisecond
	s.ScratchDir = t.TempDir()
	return s
}

func requireShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestRun_TextOutput(t *testing.T) {
	requireShell(t)
	gen := writeDoc(t, t.TempDir(), "shout.yaml", shoutDoc)
	var out bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := Run(ctx, RunOptions{
		Settings:  testSettings(t),
		Out:       &out,
		Generator: gen,
		Bindings:  []string{"Msg=text:hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFinished, st.Phase)
	assert.Equal(t, 0, ExitCode(st, err))
	assert.Contains(t, out.String(), ">>> Shout: hello!")
}

func TestRun_ExitStatus(t *testing.T) {
	requireShell(t)
	gen := writeDoc(t, t.TempDir(), "shout.yaml", shoutDoc)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	st, err := Run(ctx, RunOptions{
		Settings:  testSettings(t),
		Out:       io.Discard,
		Generator: gen,
		Bindings:  []string{"Msg=x", "Code=4"},
	})
	require.ErrorIs(t, err, domain.ErrProcess)
	assert.Equal(t, 4, ExitCode(st, err))
}

func TestRun_UnboundRequiredInput(t *testing.T) {
	gen := writeDoc(t, t.TempDir(), "shout.yaml", shoutDoc)
	_, err := Run(context.Background(), RunOptions{
		Settings:  testSettings(t),
		Out:       io.Discard,
		Generator: gen,
	})
	assert.ErrorIs(t, err, domain.ErrBinding)
}

func TestRun_BadBinding(t *testing.T) {
	_, err := Run(context.Background(), RunOptions{
		Settings: testSettings(t),
		Bindings: []string{"nope"},
	})
	assert.ErrorIs(t, err, ErrBadBinding)
}

func TestAttach_ProjectFile(t *testing.T) {
	dir := t.TempDir()
	gen := writeDoc(t, dir, "paint.yaml", paintDoc)
	projectPath := filepath.Join(dir, "edit.json")

	project, err := file.New(projectPath)
	require.NoError(t, err)
	ctx := context.Background()
	photo, err := project.AddStrip(ctx, domain.NewStrip{Name: "Photo", Kind: domain.StripImage, Channel: 1, FilePath: filepath.Join(dir, "photo.jpg")})
	require.NoError(t, err)

	var out bytes.Buffer
	att, err := Attach(ctx, AttachOptions{
		Settings:   testSettings(t),
		Out:        &out,
		Generator:  gen,
		Project:    projectPath,
		FrameStart: 10,
		Select:     []string{photo.Key},
	})
	require.NoError(t, err)
	assert.Empty(t, att.Unbound)
	assert.Equal(t, domain.StripImage, att.Strip.Kind)

	stored, err := project.LoadController(ctx, att.Strip.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paint", stored.Generator)
	require.Contains(t, stored.Inputs, "Source")
	assert.Contains(t, out.String(), "Source <- strip ")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeDoc(t, dir, "paint.yaml", paintDoc)
	bad := writeDoc(t, dir, "bad.yaml", "name: Broken\ncommand: {}\n")

	var out bytes.Buffer
	require.NoError(t, Validate(&out, []string{good}))
	assert.Contains(t, out.String(), "'Paint' is valid")

	out.Reset()
	err := Validate(&out, []string{good, bad})
	assert.ErrorIs(t, err, ErrInvalidGenerators)
	assert.Contains(t, out.String(), "bad.yaml")
}

func TestDescribe(t *testing.T) {
	gen := writeDoc(t, t.TempDir(), "shout.yaml", shoutDoc)
	var out bytes.Buffer
	require.NoError(t, Describe(&out, gen, false))
	assert.Contains(t, out.String(), "# Shout")
	assert.Contains(t, out.String(), "| Code | text | text | no | `0` |")

	out.Reset()
	require.NoError(t, Describe(&out, gen, true))
	assert.Contains(t, out.String(), "program[[\"sh\"]]")
	assert.Contains(t, out.String(), "program --> out_Out")
}

func TestListGenerators(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "paint.yaml", paintDoc)
	writeDoc(t, dir, "shout.yml", shoutDoc)
	writeDoc(t, dir, "broken.yaml", "name: [\n")
	writeDoc(t, dir, "notes.txt", "ignored")

	var out bytes.Buffer
	entries, err := ListGenerators(&out, dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Paint", entries[0].Name)
	assert.Contains(t, out.String(), "Appends an exclamation mark")
	assert.Contains(t, out.String(), "skipped:")

	_, err = ListGenerators(&out, filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestService_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	writeDoc(t, dir, "paint.yaml", paintDoc)

	s := testSettings(t)
	s.Redis.Addr = mr.Addr()
	s.GeneratorsDir = dir

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, err := newService(ctx, ServeOptions{Settings: s, Out: io.Discard, Quiet: true}, logging.NewNop())
	require.NoError(t, err)
	defer svc.close()
	go func() { _ = svc.loop.Run(ctx) }()

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		svc.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/healthz")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get("/generators")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Paint"`)

	w = get("/runs")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mediabridge_active_runs 0")

	w = get("/controllers/ghost/run")
	assert.Contains(t, w.Body.String(), `"phase":"idle"`)
}

func TestService_NeedsProject(t *testing.T) {
	_, err := newService(context.Background(), ServeOptions{Settings: testSettings(t), Out: io.Discard}, logging.NewNop())
	assert.ErrorIs(t, err, domain.ErrNoProject)
}

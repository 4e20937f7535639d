// Package http exposes run control over HTTP for hosts that are not editors:
// starting, inspecting and cancelling runs, listing generators and streaming
// run events.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/aretw0/mediabridge/pkg/registry"
	"github.com/aretw0/mediabridge/pkg/supervisor"
	"github.com/go-chi/chi/v5"
)

// Engine is the run control surface the server drives. Its methods are only
// ever called through the Executor.
type Engine interface {
	Start(ctx context.Context, controllerID string, overrides domain.Bindings) (domain.RunStatus, error)
	StartRequest(ctx context.Context, req supervisor.StartRequest) (domain.RunStatus, error)
	Cancel(controllerID string) error
	Status(controllerID string) (domain.RunStatus, bool)
	Active() []string
}

// Executor runs fn on the engine's loop goroutine and waits for it.
type Executor interface {
	Do(ctx context.Context, fn func()) error
}

// GeneratorLister lists the available generators.
type GeneratorLister interface {
	List() []registry.Entry
}

// Server serves the control API.
type Server struct {
	engine     Engine
	exec       Executor
	generators GeneratorLister
	Streams    *StreamManager
	logger     *slog.Logger
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGenerators enables GET /generators.
func WithGenerators(g GeneratorLister) Option {
	return func(s *Server) {
		s.generators = g
	}
}

// WithStreams shares a stream manager whose hooks were registered before
// the server existed.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewServer creates a server. Register Hooks with the supervisor to feed
// GET /events.
func NewServer(engine Engine, exec Executor, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		exec:   exec,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager()
		s.Streams.logger = s.logger
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/generators", s.ListGenerators)
	r.Get("/runs", s.ListRuns)
	r.Get("/events", s.SubscribeEvents)
	r.Route("/controllers/{id}/run", func(r chi.Router) {
		r.Get("/", s.GetRun)
		r.Post("/", s.StartRun)
		r.Delete("/", s.CancelRun)
	})
	return enableCORS(r)
}

// Mount adds the API routes to an existing router.
func (s *Server) Mount(r chi.Router) {
	r.Mount("/", s.Handler())
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SourceBody is the JSON form of one binding. Exactly one field is set.
type SourceBody struct {
	Text  *string `json:"text,omitempty"`
	File  string  `json:"file,omitempty"`
	Strip string  `json:"strip,omitempty"`
}

// StartBody is the POST /controllers/{id}/run payload. Without a generator
// the controller's stored state is used and bindings override it.
type StartBody struct {
	Generator string                `json:"generator,omitempty"`
	Bindings  map[string]SourceBody `json:"bindings,omitempty"`
}

// ErrorBody is returned for every failed request.
type ErrorBody struct {
	Error  string            `json:"error"`
	Status *domain.RunStatus `json:"status,omitempty"`
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListGenerators handles GET /generators.
func (s *Server) ListGenerators(w http.ResponseWriter, r *http.Request) {
	if s.generators == nil {
		writeJSON(w, http.StatusOK, []registry.Entry{})
		return
	}
	writeJSON(w, http.StatusOK, s.generators.List())
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	var runs []domain.RunStatus
	err := s.exec.Do(r.Context(), func() {
		for _, id := range s.engine.Active() {
			if st, ok := s.engine.Status(id); ok {
				runs = append(runs, st)
			}
		}
	})
	if err != nil {
		s.fail(w, err, nil)
		return
	}
	if runs == nil {
		runs = []domain.RunStatus{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// GetRun handles GET /controllers/{id}/run.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var st domain.RunStatus
	var ok bool
	if err := s.exec.Do(r.Context(), func() { st, ok = s.engine.Status(id) }); err != nil {
		s.fail(w, err, nil)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, domain.RunStatus{ControllerID: id, Phase: domain.PhaseIdle})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// StartRun handles POST /controllers/{id}/run.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body StartBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "invalid request body"})
			s.logger.Warn("StartRun: invalid request body", "error", err)
			return
		}
	}
	bindings, err := toBindings(body.Bindings)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: err.Error()})
		return
	}

	// The run outlives the request.
	ctx := context.WithoutCancel(r.Context())
	var st domain.RunStatus
	var startErr error
	err = s.exec.Do(r.Context(), func() {
		if body.Generator == "" {
			st, startErr = s.engine.Start(ctx, id, bindings)
			return
		}
		st, startErr = s.engine.StartRequest(ctx, supervisor.StartRequest{
			ControllerID: id,
			Generator:    body.Generator,
			Bindings:     bindings,
		})
	})
	if err != nil {
		s.fail(w, err, nil)
		return
	}
	if startErr != nil {
		s.fail(w, startErr, &st)
		return
	}
	writeJSON(w, http.StatusAccepted, st)
}

// CancelRun handles DELETE /controllers/{id}/run.
func (s *Server) CancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var cancelErr error
	if err := s.exec.Do(r.Context(), func() { cancelErr = s.engine.Cancel(id) }); err != nil {
		s.fail(w, err, nil)
		return
	}
	if cancelErr != nil {
		s.fail(w, cancelErr, nil)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) fail(w http.ResponseWriter, err error, st *domain.RunStatus) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	if st != nil && st.ControllerID == "" {
		st = nil
	}
	writeJSON(w, code, ErrorBody{Error: err.Error(), Status: st})
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrRunActive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotRunning),
		errors.Is(err, domain.ErrControllerNotFound),
		errors.Is(err, domain.ErrGeneratorNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBinding),
		errors.Is(err, domain.ErrConfig),
		errors.Is(err, domain.ErrNotImplemented),
		errors.Is(err, domain.ErrProcess):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func toBindings(in map[string]SourceBody) (domain.Bindings, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(domain.Bindings, len(in))
	for name, b := range in {
		set := 0
		if b.Text != nil {
			out[name] = domain.TextSource(*b.Text)
			set++
		}
		if b.File != "" {
			out[name] = domain.FileSource(b.File)
			set++
		}
		if b.Strip != "" {
			out[name] = domain.StripSource(b.Strip)
			set++
		}
		if set != 1 {
			return nil, fmt.Errorf("binding %q must set exactly one of text, file or strip", name)
		}
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

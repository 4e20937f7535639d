package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/pkg/domain"
)

// allControllers is the subscription key for clients that watch every run.
const allControllers = "*"

// Event is one server-sent event payload.
type Event struct {
	Type  string           `json:"type"`
	Run   *domain.RunEvent `json:"run,omitempty"`
	Log   *domain.LogEvent `json:"log,omitempty"`
	Error string           `json:"error,omitempty"`
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // controller ID -> set of channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a client for one controller, or every controller with "*".
func (sm *StreamManager) Subscribe(controllerID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[controllerID]; !ok {
		sm.subscribers[controllerID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[controllerID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[controllerID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, controllerID)
			}
		}
	}
}

// Broadcast delivers msg to the controller's subscribers and to global ones.
// Slow clients lose messages instead of blocking the caller.
func (sm *StreamManager) Broadcast(controllerID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{controllerID, allControllers} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping message", "controller", controllerID)
			}
		}
	}
}

// Hooks returns lifecycle hooks that publish run events to subscribers.
func (s *Server) Hooks() domain.LifecycleHooks {
	return s.Streams.Hooks()
}

// Hooks returns lifecycle hooks that publish run events to subscribers.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	publish := func(controllerID string, ev Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			sm.logger.Error("failed to encode event", "error", err)
			return
		}
		sm.Broadcast(controllerID, string(data))
	}
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			publish(e.ControllerID, Event{Type: "run_start", Run: e})
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			ev := Event{Type: "run_end", Run: e}
			if e.Err != nil {
				ev.Error = e.Err.Error()
			}
			publish(e.ControllerID, ev)
		},
		OnLogLine: func(ctx context.Context, e *domain.LogEvent) {
			publish(e.ControllerID, Event{Type: "log", Log: e})
		},
	}
}

// SubscribeEvents handles GET /events (SSE). The optional "controller" query
// parameter narrows the stream to one controller.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	key := r.URL.Query().Get("controller")
	if key == "" {
		key = allControllers
	}
	ch, cancel := s.Streams.Subscribe(key)
	defer cancel()
	s.logger.Debug("SSE: client subscribed", "controller", key)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE: client disconnected", "controller", key)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

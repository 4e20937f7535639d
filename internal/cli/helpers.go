package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/mediabridge/internal/logging"
	"github.com/aretw0/mediabridge/internal/settings"
	"github.com/aretw0/mediabridge/pkg/domain"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger on Stderr, keeping
// Stdout for reports. --debug overrides the configured level.
func createLogger(s settings.Settings, debug bool) *slog.Logger {
	level, err := s.Level()
	if err != nil || debug {
		level = slog.LevelDebug
	}
	return logging.NewWithFormat(os.Stderr, level, s.Format())
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// ErrBadBinding marks a malformed --bind value.
var ErrBadBinding = errors.New("invalid binding")

// ParseBinding parses "name=text:…", "name=file:…" or "name=strip:…".
// A value without a known prefix is literal text.
func ParseBinding(s string) (string, domain.Source, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", domain.Source{}, fmt.Errorf("%w: %q (want name=value)", ErrBadBinding, s)
	}
	name = strings.TrimSpace(name)
	kind, rest, found := strings.Cut(value, ":")
	if found {
		switch kind {
		case "text":
			return name, domain.TextSource(rest), nil
		case "file":
			if rest == "" {
				return "", domain.Source{}, fmt.Errorf("%w: %q has an empty path", ErrBadBinding, s)
			}
			return name, domain.FileSource(rest), nil
		case "strip":
			if rest == "" {
				return "", domain.Source{}, fmt.Errorf("%w: %q has an empty strip id", ErrBadBinding, s)
			}
			return name, domain.StripSource(rest), nil
		}
	}
	return name, domain.TextSource(value), nil
}

// ParseBindings parses every --bind value. A name given twice is an error.
func ParseBindings(values []string) (domain.Bindings, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(domain.Bindings, len(values))
	for _, v := range values {
		name, src, err := ParseBinding(v)
		if err != nil {
			return nil, err
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: %q bound twice", ErrBadBinding, name)
		}
		out[name] = src
	}
	return out, nil
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrCancelled)
}

// ExitCode maps a finished run onto the process exit status.
func ExitCode(st domain.RunStatus, err error) int {
	switch {
	case err == nil && st.Phase == domain.PhaseFinished:
		return 0
	case st.Phase == domain.PhaseCancelled || isInterrupted(err):
		return 130
	case errors.Is(err, domain.ErrProcess) && st.ExitCode != nil && *st.ExitCode > 0:
		return *st.ExitCode
	}
	return 1
}

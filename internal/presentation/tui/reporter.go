package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/muesli/termenv"
)

// Reporter prints run messages as system lines, colored by severity when
// the output supports it.
type Reporter struct {
	mu      sync.Mutex
	out     io.Writer
	profile termenv.Profile
	quiet   bool
}

// NewReporter creates a reporter writing to out. Quiet reporters only print
// warnings and errors.
func NewReporter(out io.Writer, quiet bool) *Reporter {
	profile := termenv.Ascii
	if IsTerminal(out) {
		profile = termenv.ColorProfile()
	}
	return &Reporter{out: out, profile: profile, quiet: quiet}
}

// Report prints one message.
func (r *Reporter) Report(msg domain.Message) {
	if r.quiet && msg.Severity == domain.SeverityInfo {
		return
	}
	tag := r.profile.String(string(msg.Severity))
	switch msg.Severity {
	case domain.SeverityError:
		tag = tag.Foreground(r.profile.Color("#f87171")).Bold()
	case domain.SeverityWarning:
		tag = tag.Foreground(r.profile.Color("#fbbf24"))
	default:
		tag = tag.Foreground(r.profile.Color("#34d399"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if msg.ControllerID != "" {
		fmt.Fprintf(r.out, ">>> [%s] %s: %s\n", tag, msg.ControllerID, msg.Text)
		return
	}
	fmt.Fprintf(r.out, ">>> [%s] %s\n", tag, msg.Text)
}

// RequestRedraw is a no-op; terminal output is append-only.
func (r *Reporter) RequestRedraw() {}

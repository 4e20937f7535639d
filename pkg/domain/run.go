package domain

import "time"

// Phase is the lifecycle stage of a supervised run.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseStarting  Phase = "starting"
	PhaseRunning   Phase = "running"
	PhaseFinished  Phase = "finished"
	PhaseErrored   Phase = "errored"
	PhaseCancelled Phase = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseErrored || p == PhaseCancelled
}

// Stream names a captured output stream of the external program.
type Stream string

const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// LogLine is one captured line of program output.
type LogLine struct {
	Stream Stream `json:"stream"`
	Text   string `json:"text"`
}

func (l LogLine) String() string {
	if l.Stream == Stderr {
		return "[stderr] " + l.Text
	}
	return l.Text
}

// RunStatus is a read-only snapshot of a controller's current or last run.
type RunStatus struct {
	ControllerID string        `json:"controller_id"`
	RunID        string        `json:"run_id,omitempty"`
	Generator    string        `json:"generator,omitempty"`
	Phase        Phase         `json:"phase"`
	Elapsed      time.Duration `json:"elapsed"`
	PID          int           `json:"pid,omitempty"`
	ExitCode     *int          `json:"exit_code,omitempty"`
	Error        string        `json:"error,omitempty"`
	Log          []LogLine     `json:"log,omitempty"`
}

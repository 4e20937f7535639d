package domain

import "fmt"

// Severity classifies a user-facing message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Message is a severity-tagged report for the user.
type Message struct {
	Severity     Severity `json:"severity"`
	ControllerID string   `json:"controller_id,omitempty"`
	Text         string   `json:"text"`
}

func Infof(controllerID, format string, args ...any) Message {
	return Message{Severity: SeverityInfo, ControllerID: controllerID, Text: fmt.Sprintf(format, args...)}
}

func Warningf(controllerID, format string, args ...any) Message {
	return Message{Severity: SeverityWarning, ControllerID: controllerID, Text: fmt.Sprintf(format, args...)}
}

func Errorf(controllerID, format string, args ...any) Message {
	return Message{Severity: SeverityError, ControllerID: controllerID, Text: fmt.Sprintf(format, args...)}
}

package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/mediabridge/pkg/domain"
)

// RunOverlay colors the diagram with the state of a run.
type RunOverlay struct {
	Phase domain.Phase
	// Bound lists the inputs that have a source for this run.
	Bound []string
}

// GenerateMermaid produces a Mermaid flowchart of a generator's data flow.
// It applies semantic styling:
// - Input: [/Parallelogram/]
// - Program: [[Subroutine]]
// - Output: ((Circle))
// Inputs that only reach the program through a conditional argument are
// drawn with a dotted edge.
func GenerateMermaid(def *domain.GeneratorDefinition, overlay *RunOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	program := "program"
	label := def.Command.Program
	if def.Command.Timeout != nil && *def.Command.Timeout > 0 {
		label = fmt.Sprintf("%s <br/> ⏱️ %ds", label, *def.Command.Timeout)
	}
	fmt.Fprintf(&sb, "    %s[[\"%s\"]]\n", program, escape(label))

	conditional := conditionalProperties(def)
	for _, in := range def.Inputs {
		id := "in_" + sanitizeMermaidID(in.Name)
		fmt.Fprintf(&sb, "    %s[/\"%s <br/> %s\"/]\n", id, escape(in.Name), in.Kind)

		arrow := "-->"
		if in.Transfer == domain.TransferFile {
			arrow = "-- file -->"
		}
		if conditional[in.Name] {
			arrow = "-. \"if set\" .->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", id, arrow, program)
	}
	for _, out := range def.Outputs {
		id := "out_" + sanitizeMermaidID(out.Name)
		fmt.Fprintf(&sb, "    %s((\"%s <br/> %s\"))\n", id, escape(out.Name), out.Extension())
		fmt.Fprintf(&sb, "    %s --> %s\n", program, id)
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef bound fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef running fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef finished fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.Bound {
			if _, ok := def.Input(name); !ok || seen[name] {
				continue
			}
			seen[name] = true
			fmt.Fprintf(&sb, "    class in_%s bound;\n", sanitizeMermaidID(name))
		}

		switch overlay.Phase {
		case domain.PhaseStarting, domain.PhaseRunning:
			fmt.Fprintf(&sb, "    class %s running;\n", program)
		case domain.PhaseFinished:
			fmt.Fprintf(&sb, "    class %s finished;\n", program)
		case domain.PhaseErrored, domain.PhaseCancelled:
			fmt.Fprintf(&sb, "    class %s failed;\n", program)
		}
	}

	return sb.String()
}

// conditionalProperties returns the properties referenced only by
// conditional argument items.
func conditionalProperties(def *domain.GeneratorDefinition) map[string]bool {
	out := make(map[string]bool)
	plain := make(map[string]bool)
	for _, item := range def.Command.ArgumentList {
		for _, in := range def.Inputs {
			if !strings.Contains(item.Text, "{"+in.Name+"}") {
				continue
			}
			if item.ConditionProperty != "" {
				out[in.Name] = true
			} else {
				plain[in.Name] = true
			}
		}
	}
	for name := range plain {
		delete(out, name)
	}
	return out
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

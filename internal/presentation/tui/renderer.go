package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/mediabridge/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// It uses a dark theme by default, but could be configurable.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Describe prints a markdown summary of a generator to w, rendered with
// glamour when w is a terminal.
func Describe(w io.Writer, def *domain.GeneratorDefinition) error {
	md := DescribeMarkdown(def)
	if IsTerminal(w) {
		out, err := NewRenderer()(md)
		if err != nil {
			return err
		}
		md = out
	}
	_, err := io.WriteString(w, md)
	return err
}

// DescribeMarkdown formats a generator definition as markdown.
func DescribeMarkdown(def *domain.GeneratorDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", def.Name)
	if def.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", def.Description)
	}

	b.WriteString("## Command\n\n```\n")
	b.WriteString(def.Command.Program)
	if def.Command.Arguments != nil {
		b.WriteString(" " + *def.Command.Arguments)
	}
	for _, item := range def.Command.ArgumentList {
		b.WriteString(" " + item.Text)
		if item.ConditionProperty != "" {
			fmt.Fprintf(&b, " [if %s]", item.ConditionProperty)
		}
	}
	b.WriteString("\n```\n\n")
	switch {
	case def.Command.Timeout == nil:
		b.WriteString("Timeout: global default\n\n")
	case *def.Command.Timeout == 0:
		b.WriteString("Timeout: none\n\n")
	default:
		fmt.Fprintf(&b, "Timeout: %ds\n\n", *def.Command.Timeout)
	}

	if len(def.Inputs) > 0 {
		b.WriteString("## Inputs\n\n| Name | Type | Pass via | Required | Default |\n|---|---|---|---|---|\n")
		for _, in := range def.Inputs {
			dflt := ""
			if in.Default != nil {
				dflt = fmt.Sprintf("`%s`", *in.Default)
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", in.Name, in.Kind, in.Transfer, yesNo(in.Required), dflt)
		}
		b.WriteString("\n")
	}
	if len(def.Outputs) > 0 {
		b.WriteString("## Outputs\n\n| Name | Type | Pass via | Extension |\n|---|---|---|---|\n")
		for _, out := range def.Outputs {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", out.Name, out.Kind, out.Transfer, out.Extension())
		}
		b.WriteString("\n")
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

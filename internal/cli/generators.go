package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/mediabridge/internal/presentation/graph"
	"github.com/aretw0/mediabridge/internal/presentation/tui"
	"github.com/aretw0/mediabridge/pkg/config"
	"github.com/aretw0/mediabridge/pkg/registry"
)

// ErrInvalidGenerators is returned when at least one document fails to parse.
var ErrInvalidGenerators = errors.New("invalid generator documents")

// Validate parses every document and reports each result. It fails if any
// document is invalid.
func Validate(w io.Writer, paths []string) error {
	failed := 0
	for _, path := range paths {
		def, err := config.LoadFile(path)
		if err != nil {
			failed++
			printSystemMessage(w, "%s: %v", path, err)
			continue
		}
		printSystemMessage(w, "%s: '%s' is valid.", path, def.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrInvalidGenerators, failed, len(paths))
	}
	return nil
}

// Describe renders one generator document, or its data flow as a Mermaid
// flowchart when mermaid is set.
func Describe(w io.Writer, path string, mermaid bool) error {
	def, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if mermaid {
		_, err := io.WriteString(w, graph.GenerateMermaid(def, nil))
		return err
	}
	return tui.Describe(w, def)
}

// ListGenerators loads every document in dir and prints the valid ones.
// Skipped documents are reported but do not fail the listing.
func ListGenerators(w io.Writer, dir string) ([]registry.Entry, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	reg := registry.New()
	_, err := reg.LoadDir(dir)
	for _, e := range reg.List() {
		if e.Description != "" {
			fmt.Fprintf(w, "%-24s %s\n", e.Name, e.Description)
			continue
		}
		fmt.Fprintln(w, e.Name)
	}
	if err != nil {
		printSystemMessage(w, "skipped: %v", err)
	}
	return reg.List(), nil
}

package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the serve banner.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Teal/Cyan)
	lines := []struct{ text, color string }{
		{"                  _ _       _          _     _            ", "#2dd4bf"},
		{"  _ __ ___   ___  __| (_) __ _| |__  _ __(_) __| | __ _  ___ ", "#22d3ee"},
		{" | '_ ` _ \\ / _ \\/ _` | |/ _` | '_ \\| '__| |/ _` |/ _` |/ _ \\", "#38bdf8"},
		{" | | | | | |  __/ (_| | | (_| | |_) | |  | | (_| | (_| |  __/", "#60a5fa"},
		{" |_| |_| |_|\\___|\\__,_|_|\\__,_|_.__/|_|  |_|\\__,_|\\__, |\\___|", "#818cf8"},
		{"                                                  |___/      ", "#a78bfa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", termenv.String("v"+version).Faint())
}

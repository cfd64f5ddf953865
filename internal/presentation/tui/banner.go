package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner to w, coloured when w is a colour terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"  _                 _ _                 _    ", "#34d399"},
		{" | | ___   __ _  __| | |__   __ _ _ __ | | __", "#2dd4bf"},
		{" | |/ _ \\ / _` |/ _` | '_ \\ / _` | '_ \\| |/ /", "#22d3ee"},
		{" | | (_) | (_| | (_| | |_) | (_| | | | |   < ", "#38bdf8"},
		{" |_|\\___/ \\__,_|\\__,_|_.__/ \\__,_|_| |_|_|\\_\\", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  gateway "+version).Faint())
	fmt.Fprintln(w)
}

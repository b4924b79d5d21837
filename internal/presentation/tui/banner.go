package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the seee banner, colored when out supports it.
func PrintBanner(out io.Writer, version string) {
	p := termenv.NewOutput(out).ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ___  ___  ___  ___ ", "#38bdf8"},
		{" / __|/ _ \\/ _ \\/ _ \\", "#22d3ee"},
		{" \\__ \\  __/  __/  __/", "#2dd4bf"},
		{" |___/\\___|\\___|\\___|", "#34d399"},
	}

	fmt.Fprintln(out)
	for _, l := range lines {
		fmt.Fprintln(out, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(out, termenv.String("  self-exploration, v"+version).Faint())
	fmt.Fprintln(out)
}

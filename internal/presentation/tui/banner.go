package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the slicer ASCII art banner.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"      _ _              ", "#fbbf24"},
		{"  ___| (_) ___ ___ _ __ ", "#f59e0b"},
		{" / __| | |/ __/ _ \\ '__|", "#f97316"},
		{" \\__ \\ | | (_|  __/ |   ", "#ef4444"},
		{" |___/_|_|\\___\\___|_|   ", "#e11d48"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

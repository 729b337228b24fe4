package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/slicer/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const barWidth = 30

// Progress draws run events on a terminal. On a terminal the bar is redrawn in
// place; otherwise each event is written on its own line.
type Progress struct {
	out         *termenv.Output
	interactive bool
	drawn       bool
}

// NewProgress creates a progress view on w.
func NewProgress(w io.Writer) *Progress {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	profile := termenv.Ascii
	if interactive {
		profile = termenv.EnvColorProfile()
	}
	return &Progress{
		out:         termenv.NewOutput(w, termenv.WithProfile(profile)),
		interactive: interactive,
	}
}

// Handle renders one event.
func (p *Progress) Handle(ev domain.Event) {
	switch ev.Type {
	case domain.EventProgress:
		if p.interactive {
			fmt.Fprintf(p.out, "\r%s", p.bar(ev.Percent))
			p.drawn = true
			return
		}
		fmt.Fprintf(p.out, "progress %3d%%\n", ev.Percent)
	case domain.EventStatus:
		p.line(p.out.String(ev.Status).Faint().String())
	case domain.EventComplete:
		p.line(p.out.String("done").Foreground(p.out.Color("2")).Bold().String())
	case domain.EventCancelled:
		p.line(p.out.String("cancelled: " + ev.Message()).Foreground(p.out.Color("3")).String())
	case domain.EventError:
		p.line(p.out.String("error: " + ev.Message()).Foreground(p.out.Color("1")).Bold().String())
	}
}

func (p *Progress) line(s string) {
	if p.drawn {
		fmt.Fprintln(p.out)
		p.drawn = false
	}
	fmt.Fprintln(p.out, s)
}

func (p *Progress) bar(percent int) string {
	percent = max(0, min(100, percent))
	filled := barWidth * percent / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return fmt.Sprintf("%s %3d%%", p.out.String(bar).Foreground(p.out.Color("6")), percent)
}

package domain

import "strings"

// MotionProgram is an ordered, append-only sequence of G-code lines.
type MotionProgram struct {
	lines []string
}

// Append adds lines at the end of the program.
func (p *MotionProgram) Append(lines ...string) {
	p.lines = append(p.lines, lines...)
}

// Lines returns a copy of the program lines.
func (p *MotionProgram) Lines() []string {
	out := make([]string, len(p.lines))
	copy(out, p.lines)
	return out
}

// Len returns the number of lines.
func (p *MotionProgram) Len() int {
	return len(p.lines)
}

// String joins the lines with newlines.
func (p *MotionProgram) String() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.lines, "\n")
}

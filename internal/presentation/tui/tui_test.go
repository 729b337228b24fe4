package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.Handle(domain.Event{Type: domain.EventStatus, Status: "Slicing started..."})
	p.Handle(domain.Event{Type: domain.EventProgress, Percent: 10})
	p.Handle(domain.Event{Type: domain.EventProgress, Percent: 100})
	p.Handle(domain.Event{Type: domain.EventComplete})

	assert.Equal(t, "Slicing started...\nprogress  10%\nprogress 100%\ndone\n", buf.String())
}

func TestProgress_Failure(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.Handle(domain.Event{Type: domain.EventError, Err: errors.New("malformed mesh")})
	p.Handle(domain.Event{Type: domain.EventCancelled, Err: errors.New("cancelled")})

	assert.Equal(t, "error: malformed mesh\ncancelled: cancelled\n", buf.String())
}

func TestProgress_Bar(t *testing.T) {
	p := NewProgress(&bytes.Buffer{})
	assert.Equal(t, strings.Repeat("█", 15)+strings.Repeat("░", 15)+"  50%", p.bar(50))
	assert.Equal(t, strings.Repeat("█", 30)+" 100%", p.bar(140))
}

func TestInspectReport(t *testing.T) {
	box := domain.NewBoundingBox()
	box.Include(0, 0, 0)
	box.Include(20, 10, 5)
	box.TriangleCount = 12

	report := InspectReport("cube.stl", box)
	assert.Contains(t, report, "# cube.stl")
	assert.Contains(t, report, "**Triangles:** 12")
	assert.Contains(t, report, "| X | 0.000 | 20.000 | 20.000 |")
	assert.Contains(t, report, "(10.000, 5.000, 2.500)")

	empty := InspectReport("empty.stl", domain.NewBoundingBox())
	assert.Contains(t, empty, "no geometry")
}

func TestProfilesReport_Renders(t *testing.T) {
	report := ProfilesReport(profile.Builtin())
	assert.Contains(t, report, "| draft | 0.28 | 10%")

	render, err := NewPlainRenderer()
	require.NoError(t, err)
	out, err := render(report)
	require.NoError(t, err)
	assert.Contains(t, out, "draft")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/_|_|")
}

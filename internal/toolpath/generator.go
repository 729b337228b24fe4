// Package toolpath turns the bounds of a mesh into a G-code motion program.
//
// The path is a placeholder: a skirt around the centered footprint of the
// model followed by a single-layer zig-zag raster. It is not a slicer.
package toolpath

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/aretw0/slicer/pkg/domain"
)

const (
	// BedCenterX and BedCenterY are where the footprint is centered, in mm.
	BedCenterX = 110.0
	BedCenterY = 110.0

	// SafeZ is the travel height after homing.
	SafeZ = 5.0

	// RasterStep is the spacing between infill rows and the inset from the skirt.
	RasterStep = 2.0

	// SkirtExtrusion is the filament fed per skirt segment.
	SkirtExtrusion = 2.0

	// InfillExtrusion is the filament fed per infill row.
	InfillExtrusion = 0.5
)

// Priming line geometry, independent of the model.
const (
	primeZ      = 0.28
	primeStartY = 20.0
	primeEndY   = 200.0
	primeFirstX = 10.1
	primeNextX  = 10.4
	primeFirstE = 15.0
	primeNextE  = 30.0
	clearZ      = 2.0
)

// StepFunc is called every Options.ProgressEvery infill rows and after the last
// row with the rows emitted so far and the total. Returning an error stops
// generation; the error is returned unchanged.
type StepFunc func(done, total int) error

// Options configures a generation.
type Options struct {
	// Now stamps the program header. Zero means time.Now.
	Now time.Time
	// ProgressEvery is the number of rows between two steps.
	ProgressEvery int
	// Generator names the producer in the header comment.
	Generator string
}

// Placement is the footprint of the model once centered on the bed.
type Placement struct {
	StartX, StartY float64
	EndX, EndY     float64
}

// Center returns the midpoint of the footprint.
func (p Placement) Center() (float64, float64) {
	return (p.StartX + p.EndX) / 2, (p.StartY + p.EndY) / 2
}

// Place centers the footprint of box on the bed.
func Place(box domain.BoundingBox) (Placement, error) {
	width, depth := box.Width(), box.Depth()
	if !finite(width) || !finite(depth) {
		return Placement{}, fmt.Errorf("%w: footprint %vx%v is not finite (triangles=%d)",
			domain.ErrDegenerateGeometry, width, depth, box.TriangleCount)
	}
	if width <= 0 || depth <= 0 {
		return Placement{}, fmt.Errorf("%w: footprint %vx%v has no area", domain.ErrDegenerateGeometry, width, depth)
	}

	startX := BedCenterX - width/2
	startY := BedCenterY - depth/2
	return Placement{
		StartX: startX,
		StartY: startY,
		EndX:   startX + width,
		EndY:   startY + depth,
	}, nil
}

// Rows returns the number of infill rows for a placement.
func Rows(p Placement) int {
	spanX := (p.EndX - RasterStep) - (p.StartX + RasterStep)
	spanY := (p.EndY - RasterStep) - (p.StartY + RasterStep)
	if spanX < 0 || spanY < 0 {
		return 0
	}
	// Tolerance keeps an exact multiple of the step from losing its last row
	return int(math.Floor(spanY/RasterStep+1e-9)) + 1
}

// Generate builds the motion program for box printed with settings.
// Apart from the header timestamp the output only depends on its inputs.
func Generate(box domain.BoundingBox, settings domain.Settings, opts Options, step StepFunc) (*domain.MotionProgram, error) {
	if !(settings.LayerHeight > 0) || math.IsInf(settings.LayerHeight, 0) {
		return nil, fmt.Errorf("%w: layer height %v", domain.ErrDegenerateGeometry, settings.LayerHeight)
	}

	place, err := Place(box)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	generator := opts.Generator
	if generator == "" {
		generator = "slicer"
	}
	every := opts.ProgressEvery
	if every <= 0 {
		every = domain.DefaultTuning().ProgressEvery
	}

	p := &domain.MotionProgram{}

	// 1. Header
	p.Append(
		"; generated by "+generator+" at "+now.UTC().Format(time.RFC3339),
		fmt.Sprintf("; layer_height=%s infill=%d%% supports=%t",
			height(settings.LayerHeight), settings.InfillPercent, settings.UseSupports),
		fmt.Sprintf("; bounds X[%s,%s] Y[%s,%s] Z[%s,%s] triangles=%d",
			coord(box.MinX), coord(box.MaxX), coord(box.MinY), coord(box.MaxY),
			coord(box.MinZ), coord(box.MaxZ), box.TriangleCount),
		"; infill density and supports are not applied to the path",
		temp("M140", settings.BedTempC),
		temp("M104", settings.NozzleTempC),
		temp("M190", settings.BedTempC),
		temp("M109", settings.NozzleTempC),
		"G28",
		"G92 E0",
		lift(SafeZ),
	)

	// 2. Prime line along the left edge of the bed
	p.Append(
		"; prime",
		primeMove(primeFirstX, primeStartY, 0, feedPrime),
		primeMove(primeFirstX, primeEndY, primeFirstE, feedExtrude),
		primeMove(primeNextX, primeEndY, 0, feedPrime),
		primeMove(primeNextX, primeStartY, primeNextE, feedExtrude),
		"G92 E0",
		lift(clearZ),
	)

	// 3. Skirt around the footprint
	e := 0.0
	p.Append(
		"; skirt",
		"G1 X"+coord(place.StartX)+" Y"+coord(place.StartY)+" Z"+height(settings.LayerHeight)+" F"+strconv.Itoa(feedTravel),
	)
	corners := [4][2]float64{
		{place.EndX, place.StartY},
		{place.EndX, place.EndY},
		{place.StartX, place.EndY},
		{place.StartX, place.StartY},
	}
	for _, c := range corners {
		e += SkirtExtrusion
		p.Append(extrude(c[0], c[1], e))
	}

	// 4. Zig-zag infill
	p.Append("; infill")
	left, right := place.StartX+RasterStep, place.EndX-RasterStep
	total := Rows(place)
	for row := 0; row < total; row++ {
		y := place.StartY + RasterStep + float64(row)*RasterStep
		from, to := left, right
		if row%2 == 1 {
			from, to = right, left
		}
		e += InfillExtrusion
		p.Append(travel(from, y), extrude(to, y, e))

		done := row + 1
		if step != nil && (done%every == 0 || done == total) {
			if err := step(done, total); err != nil {
				return nil, err
			}
		}
	}

	// 5. Footer
	p.Append(
		"; end",
		temp("M104", 0),
		temp("M140", 0),
		"G28 X0 Y0",
		"M84",
	)

	return p, nil
}

func primeMove(x, y, e float64, feed int) string {
	line := "G1 X" + coord(x) + " Y" + coord(y) + " Z" + height(primeZ)
	if e > 0 {
		line += " E" + extrusion(e)
	}
	return line + " F" + strconv.Itoa(feed)
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

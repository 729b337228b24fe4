package domain

import "math"

// BoundingBox accumulates the axis-aligned extrema of a mesh.
// Fields only ever widen while a mesh is parsed.
type BoundingBox struct {
	MinX          float64 `json:"min_x"`
	MaxX          float64 `json:"max_x"`
	MinY          float64 `json:"min_y"`
	MaxY          float64 `json:"max_y"`
	MinZ          float64 `json:"min_z"`
	MaxZ          float64 `json:"max_z"`
	TriangleCount int     `json:"triangle_count"`
}

// NewBoundingBox returns an empty box: minima at +Inf, maxima at -Inf.
func NewBoundingBox() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		MinX: inf, MaxX: -inf,
		MinY: inf, MaxY: -inf,
		MinZ: inf, MaxZ: -inf,
	}
}

// Include widens the box to contain the point.
func (b *BoundingBox) Include(x, y, z float64) {
	b.MinX = math.Min(b.MinX, x)
	b.MaxX = math.Max(b.MaxX, x)
	b.MinY = math.Min(b.MinY, y)
	b.MaxY = math.Max(b.MaxY, y)
	b.MinZ = math.Min(b.MinZ, z)
	b.MaxZ = math.Max(b.MaxZ, z)
}

// Width is the extent along X.
func (b BoundingBox) Width() float64 { return b.MaxX - b.MinX }

// Depth is the extent along Y.
func (b BoundingBox) Depth() float64 { return b.MaxY - b.MinY }

// Height is the extent along Z.
func (b BoundingBox) Height() float64 { return b.MaxZ - b.MinZ }

// Center returns the midpoint of the box.
func (b BoundingBox) Center() (x, y, z float64) {
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2, (b.MinZ + b.MaxZ) / 2
}

// Empty reports whether no vertex was ever included.
func (b BoundingBox) Empty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY || b.MinZ > b.MaxZ
}

// Finite reports whether the box is non-empty and all six extrema are finite
// numbers, so it can be measured and encoded as JSON.
func (b BoundingBox) Finite() bool {
	if b.Empty() {
		return false
	}
	for _, v := range [...]float64{b.MinX, b.MaxX, b.MinY, b.MaxY, b.MinZ, b.MaxZ} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}

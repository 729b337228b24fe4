// Package mesh reads and writes the flat binary STL triangle-mesh layout.
//
// A file is an 80-byte free-form header, a little-endian uint32 triangle count,
// and one 50-byte record per triangle: a normal vector, three vertices of three
// little-endian float32 coordinates each, and a 2-byte attribute count.
package mesh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/aretw0/slicer/pkg/domain"
)

const (
	// HeaderSize is the size of the free-form header.
	HeaderSize = 80
	// PreambleSize is the header plus the triangle count.
	PreambleSize = HeaderSize + 4
	// RecordSize is the size of one triangle record.
	RecordSize = 50

	vertexOffset = 12 // skip the normal
	vertexSize   = 12
)

// StepFunc is called after every batch with the number of triangles processed
// and the declared total. Returning an error stops parsing; the error is
// returned unchanged.
type StepFunc func(processed, declared int) error

// DeclaredCount returns the triangle count stored in the preamble.
func DeclaredCount(buf []byte) (int, error) {
	if len(buf) < PreambleSize {
		return 0, fmt.Errorf("%w: %d bytes is shorter than the %d byte preamble", domain.ErrMalformedMesh, len(buf), PreambleSize)
	}
	return int(binary.LittleEndian.Uint32(buf[HeaderSize:PreambleSize])), nil
}

// Bounds walks the triangle records of buf in batches of batch triangles and
// returns the bounding box of every vertex. The declared count is checked
// against the buffer length before any record is read.
func Bounds(buf []byte, batch int, step StepFunc) (domain.BoundingBox, error) {
	box := domain.NewBoundingBox()

	declared, err := DeclaredCount(buf)
	if err != nil {
		return box, err
	}

	need := PreambleSize + uint64(declared)*RecordSize
	if need > uint64(len(buf)) {
		return box, fmt.Errorf("%w: %d triangles declared need %d bytes, buffer has %d",
			domain.ErrMalformedMesh, declared, need, len(buf))
	}

	if batch <= 0 {
		batch = declared
	}

	for start := 0; start < declared; start += batch {
		end := min(start+batch, declared)

		for i := start; i < end; i++ {
			rec := buf[PreambleSize+i*RecordSize:]
			for v := 0; v < 3; v++ {
				off := vertexOffset + v*vertexSize
				box.Include(
					float64(readFloat32(rec[off:])),
					float64(readFloat32(rec[off+4:])),
					float64(readFloat32(rec[off+8:])),
				)
			}
			box.TriangleCount++
		}

		if step != nil {
			if err := step(end, declared); err != nil {
				return box, err
			}
		}
	}

	return box, nil
}

func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

package mesh

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Triangle is a single STL facet.
type Triangle struct {
	Normal   [3]float32
	Vertices [3][3]float32
}

// Encode writes tris as a binary STL to w.
// The header is truncated or space padded to 80 bytes.
func Encode(w io.Writer, header string, tris []Triangle) error {
	var pre [PreambleSize]byte
	copy(pre[:HeaderSize], header)
	for i := len(header); i < HeaderSize; i++ {
		pre[i] = ' '
	}
	binary.LittleEndian.PutUint32(pre[HeaderSize:], uint32(len(tris)))
	if _, err := w.Write(pre[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var rec [RecordSize]byte
	for i, t := range tris {
		putVec(rec[0:], t.Normal)
		for v := 0; v < 3; v++ {
			putVec(rec[vertexOffset+v*vertexSize:], t.Vertices[v])
		}
		rec[48], rec[49] = 0, 0
		if _, err := w.Write(rec[:]); err != nil {
			return fmt.Errorf("write triangle %d: %w", i, err)
		}
	}
	return nil
}

// EncodeBytes returns the binary STL encoding of tris.
func EncodeBytes(header string, tris []Triangle) []byte {
	var buf bytes.Buffer
	buf.Grow(PreambleSize + len(tris)*RecordSize)
	// bytes.Buffer never fails to write
	_ = Encode(&buf, header, tris)
	return buf.Bytes()
}

// Box returns the 12 triangles of an axis-aligned box from min to max.
func Box(minX, minY, minZ, maxX, maxY, maxZ float32) []Triangle {
	c := [8][3]float32{
		{minX, minY, minZ}, {maxX, minY, minZ}, {maxX, maxY, minZ}, {minX, maxY, minZ},
		{minX, minY, maxZ}, {maxX, minY, maxZ}, {maxX, maxY, maxZ}, {minX, maxY, maxZ},
	}
	faces := [6]struct {
		n [3]float32
		q [4]int
	}{
		{[3]float32{0, 0, -1}, [4]int{0, 3, 2, 1}},
		{[3]float32{0, 0, 1}, [4]int{4, 5, 6, 7}},
		{[3]float32{0, -1, 0}, [4]int{0, 1, 5, 4}},
		{[3]float32{0, 1, 0}, [4]int{3, 7, 6, 2}},
		{[3]float32{-1, 0, 0}, [4]int{0, 4, 7, 3}},
		{[3]float32{1, 0, 0}, [4]int{1, 2, 6, 5}},
	}

	tris := make([]Triangle, 0, 12)
	for _, f := range faces {
		tris = append(tris,
			Triangle{Normal: f.n, Vertices: [3][3]float32{c[f.q[0]], c[f.q[1]], c[f.q[2]]}},
			Triangle{Normal: f.n, Vertices: [3][3]float32{c[f.q[0]], c[f.q[2]], c[f.q[3]]}},
		)
	}
	return tris
}

func putVec(b []byte, v [3]float32) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(v[2]))
}

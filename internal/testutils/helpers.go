// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/slicer/internal/mesh"
	"github.com/stretchr/testify/require"
)

// Cube returns the binary STL of a cube with one corner at the origin.
func Cube(size float32) []byte {
	return mesh.EncodeBytes("cube", mesh.Box(0, 0, 0, size, size, size))
}

// EncodedCube returns Cube as a base64 mesh payload.
func EncodedCube(size float32) string {
	return base64.StdEncoding.EncodeToString(Cube(size))
}

// WriteCube writes a 20mm cube to dir/cube.stl and returns its path.
// It fails the test immediately on error.
func WriteCube(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "cube.stl")
	require.NoError(t, os.WriteFile(path, Cube(20), 0644), "Failed to write cube fixture")
	return path
}

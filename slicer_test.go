package slicer_test

import (
	"context"
	"encoding/base64"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/slicer"
	"github.com/aretw0/slicer/internal/mesh"
	"github.com/aretw0/slicer/pkg/adapters/memory"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube(size float32) string {
	return base64.StdEncoding.EncodeToString(mesh.EncodeBytes("cube", mesh.Box(0, 0, 0, size, size, size)))
}

func TestSlice_Cube(t *testing.T) {
	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	eng := slicer.New(slicer.WithClock(func() time.Time { return now }))

	prog, err := eng.Slice(context.Background(), domain.ConversionRequest{
		MeshData: cube(20),
		Settings: domain.DefaultSettings(),
	})
	require.NoError(t, err)

	lines := prog.Lines()
	assert.Equal(t, "; generated by slicer "+slicer.Version+" at 2026-10-14T08:00:00Z", lines[0])
	assert.Contains(t, lines, "G1 X100.000 Y100.000 Z0.20 F3000")
	assert.Equal(t, "M84", lines[len(lines)-1])
	assert.Equal(t, slicer.StateIdle, eng.State())
}

func TestSlice_ReturnsTerminalError(t *testing.T) {
	eng := slicer.New()

	_, err := eng.Slice(context.Background(), domain.ConversionRequest{MeshData: "@@@@", Settings: domain.DefaultSettings()})
	assert.ErrorIs(t, err, domain.ErrDecode)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Slice(ctx, domain.ConversionRequest{MeshData: cube(10), Settings: domain.DefaultSettings()})
	assert.ErrorIs(t, err, domain.ErrCancelled)
}

func TestConvert_AssignsRunIDs(t *testing.T) {
	ids := []string{"r1", "r2"}
	eng := slicer.New(slicer.WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))
	ctx := context.Background()

	for _, want := range []string{"r1", "r2"} {
		events, err := eng.Convert(ctx, domain.ConversionRequest{MeshData: cube(10), Settings: domain.DefaultSettings()})
		require.NoError(t, err)
		for ev := range events {
			assert.Equal(t, want, ev.RunID)
		}
	}

	runs, err := eng.Runs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2"}, runs)

	rec, err := eng.Run(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, domain.RunComplete, rec.Status)
	assert.True(t, strings.HasSuffix(rec.Program, "M84"))

	_, err = eng.Run(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestConvert_Busy(t *testing.T) {
	eng := slicer.New(slicer.WithEventBuffer(0))
	req := domain.ConversionRequest{MeshData: cube(10), Settings: domain.DefaultSettings()}

	events, err := eng.Convert(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, slicer.StateRunning, eng.State())
	assert.NotEmpty(t, eng.Active())

	_, err = eng.Convert(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrEngineBusy)

	for range events {
	}
	assert.Empty(t, eng.Active())
}

func TestInspect(t *testing.T) {
	eng := slicer.New(slicer.WithTuning(domain.Tuning{DecodeWindow: 100, ParseBatch: 3}))

	box, err := eng.Inspect(context.Background(), cube(30))
	require.NoError(t, err)
	assert.Equal(t, 12, box.TriangleCount)
	assert.Equal(t, 30.0, box.Height())
	assert.Equal(t, slicer.StateIdle, eng.State())

	_, err = eng.Inspect(context.Background(), "!!!!")
	assert.ErrorIs(t, err, domain.ErrDecode)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Inspect(ctx, cube(30))
	assert.ErrorIs(t, err, domain.ErrCancelled)
}

func TestInspect_NonFinite(t *testing.T) {
	tris := mesh.Box(0, 0, 0, 10, 10, 10)
	tris[5].Vertices[2][1] = float32(math.Inf(-1))

	_, err := slicer.New().Inspect(context.Background(),
		base64.StdEncoding.EncodeToString(mesh.EncodeBytes("inf", tris)))
	assert.ErrorIs(t, err, domain.ErrDegenerateGeometry)
}

func TestWithStore(t *testing.T) {
	store := memory.New()
	eng := slicer.New(slicer.WithStore(store))
	assert.Same(t, store, eng.Store())

	_, err := eng.Slice(context.Background(), domain.ConversionRequest{MeshData: cube(10), Settings: domain.DefaultSettings()})
	require.NoError(t, err)

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

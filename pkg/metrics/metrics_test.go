package metrics_test

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/aretw0/slicer"
	"github.com/aretw0/slicer/internal/mesh"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordsRuns(t *testing.T) {
	reg := prometheus.NewRegistry()
	col, err := metrics.New(reg)
	require.NoError(t, err)

	eng := slicer.New(slicer.WithLifecycleHooks(col.Hooks()))
	ctx := context.Background()
	cube := base64.StdEncoding.EncodeToString(mesh.EncodeBytes("", mesh.Box(0, 0, 0, 20, 20, 20)))

	_, err = eng.Slice(ctx, domain.ConversionRequest{MeshData: cube, Settings: domain.DefaultSettings()})
	require.NoError(t, err)
	_, err = eng.Slice(ctx, domain.ConversionRequest{MeshData: "####", Settings: domain.DefaultSettings()})
	require.Error(t, err)

	expected := `
# HELP slicer_runs_total Finished conversion runs by outcome.
# TYPE slicer_runs_total counter
slicer_runs_total{outcome="COMPLETE"} 1
slicer_runs_total{outcome="ERROR"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "slicer_runs_total"))

	expected = `
# HELP slicer_runs_active Runs currently in flight.
# TYPE slicer_runs_active gauge
slicer_runs_active 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "slicer_runs_active"))

	stages, err := testutil.GatherAndCount(reg, "slicer_stage_duration_seconds")
	require.NoError(t, err)
	// three successful stages, one failed decode
	assert.Equal(t, 4, stages)

	events, err := testutil.GatherAndCount(reg, "slicer_events_total")
	require.NoError(t, err)
	assert.Equal(t, 4, events, "STATUS, PROGRESS, COMPLETE and ERROR")

	triangles, err := testutil.GatherAndCount(reg, "slicer_mesh_triangles")
	require.NoError(t, err)
	assert.Equal(t, 1, triangles)
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := metrics.New(reg)
	require.NoError(t, err)

	_, err = metrics.New(reg)
	assert.Error(t, err)
}

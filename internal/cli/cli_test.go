package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/slicer/internal/mesh"
	"github.com/aretw0/slicer/internal/testutils"
	"github.com/aretw0/slicer/pkg/adapters/file"
	"github.com/aretw0/slicer/pkg/adapters/memory"
	"github.com/aretw0/slicer/pkg/adapters/sqlite"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv("SLICER_LOG_LEVEL", "warn")
	t.Setenv("SLICER_LOG_FORMAT", "json")
	t.Setenv("SLICER_REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("SLICER_PROFILES", "profiles.yaml")

	cfg := Config{LogLevel: "debug"}
	cfg.ApplyEnv(func(flag string) bool { return flag == "log-level" })

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
	assert.Equal(t, "profiles.yaml", cfg.Profiles)
}

func TestConfig_Logger(t *testing.T) {
	_, err := (&Config{LogLevel: "loud"}).Logger()
	assert.Error(t, err)

	_, err = (&Config{LogLevel: "info", LogFormat: "xml"}).Logger()
	assert.Error(t, err)

	logger, err := (&Config{Debug: true}).Logger()
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4))
}

func TestConfig_OpenStore(t *testing.T) {
	dir := t.TempDir()

	store, closer, err := (&Config{}).OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, store)
	assert.NoError(t, closer.Close())

	store, _, err = (&Config{Store: StoreFile, StoreDir: dir}).OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, store)

	store, closer, err = (&Config{Store: StoreSQLite, StoreDir: dir}).OpenStore()
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, store)
	assert.NoError(t, closer.Close())

	_, _, err = (&Config{Store: StoreRedis}).OpenStore()
	assert.ErrorIs(t, err, ErrUnknownStore)

	_, _, err = (&Config{Store: "etcd"}).OpenStore()
	assert.ErrorIs(t, err, ErrUnknownStore)
}

func TestConfig_EncryptedStore(t *testing.T) {
	dir := t.TempDir()
	key := strings.Repeat("ab", 32)
	cfg := Config{Store: StoreFile, StoreDir: dir, StoreKey: key}

	err := Slice(context.Background(), cfg, SliceOptions{Input: testutils.WriteCube(t, dir), Quiet: true}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	ids, err := file.New(dir).List(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)

	plain, err := file.New(dir).Load(context.Background(), ids[0])
	require.NoError(t, err)
	assert.NotContains(t, plain.Program, "G28")

	store, _, err := cfg.OpenStore()
	require.NoError(t, err)
	run, err := store.Load(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Contains(t, run.Program, "G28")

	_, _, err = (&Config{StoreKey: "short"}).OpenStore()
	assert.ErrorContains(t, err, "invalid store key")
}

func TestConfig_RegistryMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  - name: petg\n    bed_temp: 80\n    nozzle_temp: 240\n"), 0644))

	reg, err := (&Config{Profiles: path}).Registry()
	require.NoError(t, err)

	p, err := reg.Get("petg")
	require.NoError(t, err)
	assert.Equal(t, 80, p.Settings.BedTempC)

	_, err = reg.Get("draft")
	assert.NoError(t, err)
}

func TestSlice_WritesProgram(t *testing.T) {
	dir := t.TempDir()
	input := testutils.WriteCube(t, dir)
	output := filepath.Join(dir, "out", "cube.gcode")

	var stderr bytes.Buffer
	err := Slice(context.Background(), Config{}, SliceOptions{
		Input:     input,
		Output:    output,
		Profile:   "fine",
		Overrides: map[string]any{"bedTemp": "65"},
	}, &bytes.Buffer{}, &stderr)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "; layer_height=0.16 infill=20%")
	assert.Contains(t, text, "M140 S65")
	assert.True(t, strings.HasSuffix(text, "M84\n"))

	assert.Contains(t, stderr.String(), "progress 100%")
	assert.Contains(t, stderr.String(), "done")
}

func TestSlice_Stdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := Slice(context.Background(), Config{}, SliceOptions{
		Input: testutils.WriteCube(t, t.TempDir()),
		Quiet: true,
	}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "G28")
	assert.Empty(t, stderr.String())
}

func TestSlice_Errors(t *testing.T) {
	dir := t.TempDir()

	err := Slice(context.Background(), Config{}, SliceOptions{Input: filepath.Join(dir, "missing.stl")}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)

	err = Slice(context.Background(), Config{}, SliceOptions{Input: testutils.WriteCube(t, dir), Profile: "nope"}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	truncated := filepath.Join(dir, "truncated.stl")
	buf := mesh.EncodeBytes("", mesh.Box(0, 0, 0, 10, 10, 10))
	require.NoError(t, os.WriteFile(truncated, buf[:200], 0644))
	var stderr bytes.Buffer
	err = Slice(context.Background(), Config{}, SliceOptions{Input: truncated}, &bytes.Buffer{}, &stderr)
	assert.ErrorIs(t, err, domain.ErrMalformedMesh)
	assert.Contains(t, stderr.String(), "error:")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Slice(ctx, Config{}, SliceOptions{Input: testutils.WriteCube(t, dir), Quiet: true}, &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, domain.ErrCancelled)
}

func TestSlice_RecordsRun(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Store: StoreFile, StoreDir: filepath.Join(dir, "runs")}

	err := Slice(context.Background(), cfg, SliceOptions{Input: testutils.WriteCube(t, dir), Quiet: true}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)

	ids, err := file.New(cfg.StoreDir).List(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestInspect_JSON(t *testing.T) {
	var stdout bytes.Buffer
	path := testutils.WriteCube(t, t.TempDir())
	require.NoError(t, Inspect(context.Background(), Config{}, path, true, &stdout))

	var res InspectResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	assert.Equal(t, path, res.File)
	assert.Equal(t, 12, res.Bounds.TriangleCount)
	assert.InDelta(t, 20, res.Depth, 1e-9)
}

func TestInspect_Report(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, Inspect(context.Background(), Config{}, testutils.WriteCube(t, t.TempDir()), false, &stdout))
	assert.Contains(t, stdout.String(), "# cube.stl")
	assert.Contains(t, stdout.String(), "**Triangles:** 12")
}

func TestListProfiles(t *testing.T) {
	var table, yaml bytes.Buffer
	require.NoError(t, ListProfiles(Config{}, false, &table))
	require.NoError(t, ListProfiles(Config{}, true, &yaml))

	assert.Contains(t, table.String(), "| standard |")
	assert.Contains(t, yaml.String(), "name: standard")
}

func TestBridge_EndOfInput(t *testing.T) {
	meshData := testutils.EncodedCube(20)
	in := strings.NewReader(`{"type":"SLICE","payload":{"stlData":"` + meshData + `","profile":"draft"}}` + "\n")

	var out bytes.Buffer
	require.NoError(t, Bridge(context.Background(), Config{}, in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, "COMPLETE", last["type"])
}

func TestMCP_UnknownTransport(t *testing.T) {
	err := MCP(context.Background(), Config{}, "carrier-pigeon", 0)
	assert.ErrorContains(t, err, "unknown transport")
}

package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/slicer/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunStoreContract(t *testing.T, store RunStore) {
	t.Helper()
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")
	started := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		runID := prefix + "-save"
		run := domain.NewRun(runID, domain.DefaultSettings(), started)
		require.NoError(t, store.Save(ctx, run))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, runID, loaded.ID)
		assert.Equal(t, domain.RunRunning, loaded.Status)
		assert.Equal(t, domain.DefaultSettings(), loaded.Settings)
		assert.True(t, started.Equal(loaded.StartedAt))
		assert.Nil(t, loaded.Bounds)
	})

	t.Run("Overwrite with terminal status", func(t *testing.T) {
		runID := prefix + "-finish"
		run := domain.NewRun(runID, domain.DefaultSettings(), started)
		require.NoError(t, store.Save(ctx, run))

		box := domain.BoundingBox{MaxX: 20, MaxY: 20, MaxZ: 20, TriangleCount: 12}
		run.Status = domain.RunComplete
		run.Bounds = &box
		run.Program = "G28\nM84"
		run.FinishedAt = started.Add(time.Second)
		require.NoError(t, store.Save(ctx, run))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunComplete, loaded.Status)
		assert.True(t, loaded.Finished())
		require.NotNil(t, loaded.Bounds)
		assert.Equal(t, box, *loaded.Bounds)
		assert.Equal(t, "G28\nM84", loaded.Program)
		assert.True(t, run.FinishedAt.Equal(loaded.FinishedAt))
	})

	t.Run("Stored copy is isolated", func(t *testing.T) {
		runID := prefix + "-isolated"
		run := domain.NewRun(runID, domain.DefaultSettings(), started)
		require.NoError(t, store.Save(ctx, run))

		run.Status = domain.RunFailed
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunRunning, loaded.Status)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		runID := prefix + "-delete"
		require.NoError(t, store.Save(ctx, domain.NewRun(runID, domain.DefaultSettings(), started)))

		require.NoError(t, store.Delete(ctx, runID))
		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")

		assert.NoError(t, store.Delete(ctx, runID), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := prefix + "-list-1"
		id2 := prefix + "-list-2"
		require.NoError(t, store.Save(ctx, domain.NewRun(id1, domain.DefaultSettings(), started)))
		require.NoError(t, store.Save(ctx, domain.NewRun(id2, domain.DefaultSettings(), started.Add(time.Minute))))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/slicer/pkg/adapters/memory"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.New()
	ports.RunStoreContract(t, store)
}

func TestMemoryStore_ListOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, domain.NewRun("late", domain.DefaultSettings(), base.Add(2*time.Hour))))
	require.NoError(t, store.Save(ctx, domain.NewRun("early", domain.DefaultSettings(), base)))
	require.NoError(t, store.Save(ctx, domain.NewRun("b", domain.DefaultSettings(), base.Add(time.Hour))))
	require.NoError(t, store.Save(ctx, domain.NewRun("a", domain.DefaultSettings(), base.Add(time.Hour))))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "a", "b", "late"}, ids)
}

func TestMemoryStore_BoundsAreCopied(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	run := domain.NewRun("r", domain.DefaultSettings(), time.Now())
	run.Bounds = &domain.BoundingBox{MaxX: 1}
	require.NoError(t, store.Save(ctx, run))

	run.Bounds.MaxX = 99
	loaded, err := store.Load(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, 1.0, loaded.Bounds.MaxX)
}

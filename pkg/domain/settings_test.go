package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/slicer/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Settings)
		wantErr bool
	}{
		{"defaults", func(s *domain.Settings) {}, false},
		{"infill zero", func(s *domain.Settings) { s.InfillPercent = 0 }, false},
		{"infill full", func(s *domain.Settings) { s.InfillPercent = 100 }, false},
		{"infill over", func(s *domain.Settings) { s.InfillPercent = 101 }, true},
		{"infill negative", func(s *domain.Settings) { s.InfillPercent = -1 }, true},
		{"bed negative", func(s *domain.Settings) { s.BedTempC = -5 }, true},
		{"nozzle negative", func(s *domain.Settings) { s.NozzleTempC = -5 }, true},
		// Layer height is checked by the generator, not here
		{"zero layer height", func(s *domain.Settings) { s.LayerHeight = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidSettings)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTuning_Normalize(t *testing.T) {
	tuning := domain.Tuning{DecodeWindow: 10, ParseBatch: -1}.Normalize()
	assert.Equal(t, 8, tuning.DecodeWindow, "window must be a multiple of 4")
	assert.Equal(t, domain.DefaultTuning().ParseBatch, tuning.ParseBatch)
	assert.Equal(t, domain.DefaultTuning().ProgressEvery, tuning.ProgressEvery)

	tuning = domain.Tuning{DecodeWindow: 3}.Normalize()
	assert.Equal(t, domain.DefaultTuning().DecodeWindow, tuning.DecodeWindow)
}

func TestKind(t *testing.T) {
	wrapped := fmt.Errorf("parse: %w", domain.ErrMalformedMesh)
	assert.Equal(t, domain.ErrMalformedMesh, domain.Kind(wrapped))
	assert.Nil(t, domain.Kind(errors.New("other")))
	assert.True(t, domain.EventCancelled.Terminal())
	assert.False(t, domain.EventProgress.Terminal())
	assert.Equal(t, domain.RunFailed, domain.StatusFor(domain.EventError))
}

func TestChainHooks(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnRunStart: func(context.Context, *domain.RunEvent) { calls = append(calls, "a:start") },
		OnEvent:    func(context.Context, *domain.Event) { calls = append(calls, "a:event") },
	}
	b := domain.LifecycleHooks{
		OnRunStart:  func(context.Context, *domain.RunEvent) { calls = append(calls, "b:start") },
		OnRunFinish: func(context.Context, *domain.RunEvent) { calls = append(calls, "b:finish") },
	}

	h := domain.ChainHooks(a, domain.LifecycleHooks{}, b)
	ctx := context.Background()
	h.OnRunStart(ctx, &domain.RunEvent{})
	h.OnEvent(ctx, &domain.Event{})
	h.OnRunFinish(ctx, &domain.RunEvent{})
	assert.Nil(t, h.OnStageEnter)
	assert.Nil(t, h.OnStageLeave)

	assert.Equal(t, []string{"a:start", "b:start", "a:event", "b:finish"}, calls)
}

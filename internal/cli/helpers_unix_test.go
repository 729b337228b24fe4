//go:build unix

package cli

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithSignals_NamesSignal(t *testing.T) {
	err := RunWithSignals(context.Background(), func(ctx context.Context) error {
		require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return errors.New("signal was not delivered")
		}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "interrupted by terminated")
}

func TestRunWithSignals_PassesThrough(t *testing.T) {
	assert.NoError(t, RunWithSignals(context.Background(), func(context.Context) error { return nil }))

	boom := errors.New("boom")
	err := RunWithSignals(context.Background(), func(context.Context) error { return boom })
	assert.Equal(t, boom, err)
}

package ports

import (
	"context"

	"github.com/aretw0/slicer/pkg/domain"
)

// RunStore defines the interface for persisting conversion runs.
// A run is saved once when it starts and again when it reaches a terminal status.
type RunStore interface {
	// Save creates or replaces the record of a run.
	Save(ctx context.Context, run *domain.Run) error

	// Load retrieves a run by ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.Run, error)

	// Delete removes a run. Deleting a missing run is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns the IDs of all stored runs.
	List(ctx context.Context) ([]string, error)
}

package domain

import "time"

// RunStatus defines the lifecycle position of a persisted run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunComplete  RunStatus = "complete"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Run is the persisted record of one conversion.
type Run struct {
	ID         string       `json:"id"`
	Status     RunStatus    `json:"status"`
	Settings   Settings     `json:"settings"`
	Bounds     *BoundingBox `json:"bounds,omitempty"`
	Program    string       `json:"program,omitempty"`
	Error      string       `json:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitempty"`
}

// NewRun creates a record in the running status.
func NewRun(id string, settings Settings, startedAt time.Time) *Run {
	return &Run{
		ID:        id,
		Status:    RunRunning,
		Settings:  settings,
		StartedAt: startedAt,
	}
}

// Finished reports whether the run reached a terminal status.
func (r *Run) Finished() bool {
	return r.Status != RunRunning
}

// StatusFor maps a terminal event type to the persisted run status.
func StatusFor(t EventType) RunStatus {
	switch t {
	case EventComplete:
		return RunComplete
	case EventCancelled:
		return RunCancelled
	case EventError:
		return RunFailed
	default:
		return RunRunning
	}
}

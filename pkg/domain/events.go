package domain

import (
	"context"
	"time"
)

// EventType defines the category of an outbound event.
type EventType string

const (
	EventStatus    EventType = "STATUS"
	EventProgress  EventType = "PROGRESS"
	EventComplete  EventType = "COMPLETE"
	EventError     EventType = "ERROR"
	EventCancelled EventType = "CANCELLED"
)

// Terminal reports whether no further events follow an event of this type.
func (t EventType) Terminal() bool {
	return t == EventComplete || t == EventError || t == EventCancelled
}

// Stage identifies a step of the conversion pipeline.
type Stage string

const (
	StageDecode   Stage = "decode"
	StageParse    Stage = "parse"
	StageGenerate Stage = "generate"
)

// Event is a single message of a run, delivered to the host in emission order.
// Exactly one of Status, Percent, Program or Err is meaningful, depending on Type.
// COMPLETE events also carry the Bounds of the model.
type Event struct {
	RunID     string         `json:"run_id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Status    string         `json:"status,omitempty"`
	Percent   int            `json:"percent,omitempty"`
	Program   *MotionProgram `json:"-"`
	Bounds    *BoundingBox   `json:"bounds,omitempty"`
	Err       error          `json:"-"`
}

// Message returns the human readable payload of a STATUS, ERROR or CANCELLED event.
func (e Event) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Status
}

// StageEvent reports entry into or exit from a pipeline stage.
type StageEvent struct {
	RunID    string
	Stage    Stage
	Duration time.Duration // zero on entry
	Err      error
}

// RunEvent reports the start or the end of a run.
type RunEvent struct {
	RunID         string
	Outcome       EventType // zero on start
	TriangleCount int
	Lines         int
	Duration      time.Duration
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run on the run's worker goroutine and must not block.
type LifecycleHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnStageEnter func(context.Context, *StageEvent)
	OnStageLeave func(context.Context, *StageEvent)
	OnEvent      func(context.Context, *Event)
	OnRunFinish  func(context.Context, *RunEvent)
}

// ChainHooks combines several hook sets; each callback runs the non-nil
// callbacks of every set, in order.
func ChainHooks(sets ...LifecycleHooks) LifecycleHooks {
	var out LifecycleHooks
	for _, h := range sets {
		out.OnRunStart = chain(out.OnRunStart, h.OnRunStart)
		out.OnStageEnter = chain(out.OnStageEnter, h.OnStageEnter)
		out.OnStageLeave = chain(out.OnStageLeave, h.OnStageLeave)
		out.OnEvent = chain(out.OnEvent, h.OnEvent)
		out.OnRunFinish = chain(out.OnRunFinish, h.OnRunFinish)
	}
	return out
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}

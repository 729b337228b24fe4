package slicer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/slicer/internal/decode"
	"github.com/aretw0/slicer/internal/logging"
	"github.com/aretw0/slicer/internal/mesh"
	"github.com/aretw0/slicer/internal/runtime"
	"github.com/aretw0/slicer/pkg/adapters/memory"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/ports"
	"github.com/google/uuid"
)

// State is the position of the engine state machine.
type State = runtime.State

const (
	StateIdle    = runtime.StateIdle
	StateRunning = runtime.StateRunning
)

// Engine is the high-level entry point for the slicer library.
// It wraps the internal runtime, assigns run IDs and exposes the run history.
type Engine struct {
	runtime *runtime.Engine
	store   ports.RunStore
	tuning  domain.Tuning
	logger  *slog.Logger
	newID   func() string

	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLifecycleHooks(hooks))
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore records runs in the given store instead of the default in-memory one.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithClock sets the time source for events and program headers.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithClock(clock))
	}
}

// WithTuning overrides the decode window, parse batch and progress granularity.
func WithTuning(t domain.Tuning) Option {
	return func(e *Engine) {
		e.tuning = t.Normalize()
	}
}

// WithEventBuffer sets the capacity of event channels returned by Convert.
func WithEventBuffer(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithEventBuffer(n))
	}
}

// WithIDGenerator replaces the random UUID run IDs.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// New creates an idle Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{
		tuning: domain.DefaultTuning(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.store == nil {
		eng.store = memory.New()
	}

	base := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithStore(eng.store),
		runtime.WithTuning(eng.tuning),
		runtime.WithGeneratorName("slicer " + Version),
	}
	eng.runtime = runtime.NewEngine(append(base, eng.runtimeOpts...)...)
	return eng
}

// Convert starts a conversion under a fresh run ID and returns its event
// stream. The caller must drain the channel; it is closed after the terminal
// event. While another run is in flight it fails with domain.ErrEngineBusy.
func (e *Engine) Convert(ctx context.Context, req domain.ConversionRequest) (<-chan domain.Event, error) {
	return e.ConvertRun(ctx, e.newID(), req)
}

// ConvertRun is Convert with a caller-chosen run ID.
func (e *Engine) ConvertRun(ctx context.Context, runID string, req domain.ConversionRequest) (<-chan domain.Event, error) {
	return e.runtime.Convert(ctx, runID, req)
}

// Slice runs a conversion to completion and returns the program.
// ERROR and CANCELLED outcomes are returned as errors.
func (e *Engine) Slice(ctx context.Context, req domain.ConversionRequest) (*domain.MotionProgram, error) {
	events, err := e.Convert(ctx, req)
	if err != nil {
		return nil, err
	}

	var last domain.Event
	for ev := range events {
		last = ev
	}

	switch last.Type {
	case domain.EventComplete:
		return last.Program, nil
	case domain.EventError, domain.EventCancelled:
		return nil, last.Err
	default:
		return nil, errors.New("event stream closed without a terminal event")
	}
}

// Inspect decodes a payload and measures its bounding box without generating
// a program. It does not occupy the engine. A mesh with non-finite vertices
// fails with ErrDegenerateGeometry.
func (e *Engine) Inspect(ctx context.Context, meshData string) (domain.BoundingBox, error) {
	check := func(int, int) error {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", domain.ErrCancelled, context.Cause(ctx))
		}
		return nil
	}

	buf, err := decode.Base64(meshData, e.tuning.DecodeWindow, check)
	if err != nil {
		return domain.BoundingBox{}, err
	}
	box, err := mesh.Bounds(buf, e.tuning.ParseBatch, check)
	if err != nil {
		return domain.BoundingBox{}, err
	}
	if !box.Empty() && !box.Finite() {
		return domain.BoundingBox{}, fmt.Errorf("%w: mesh has non-finite coordinates (triangles=%d)",
			domain.ErrDegenerateGeometry, box.TriangleCount)
	}
	return box, nil
}

// Cancel aborts the in-flight run with the given ID. An empty ID cancels
// whatever is running. It reports whether a run was cancelled.
func (e *Engine) Cancel(runID string) bool {
	return e.runtime.Cancel(runID)
}

// State returns the current state of the engine.
func (e *Engine) State() State {
	return e.runtime.State()
}

// Active returns the ID of the in-flight run, or "" when idle.
func (e *Engine) Active() string {
	return e.runtime.Active()
}

// Run returns the record of a past or current run.
func (e *Engine) Run(ctx context.Context, runID string) (*domain.Run, error) {
	return e.store.Load(ctx, runID)
}

// Runs lists the IDs of recorded runs.
func (e *Engine) Runs(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// Store exposes the run store.
func (e *Engine) Store() ports.RunStore {
	return e.store
}

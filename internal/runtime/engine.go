// Package runtime runs the decode, parse and generate pipeline of a conversion
// and turns its progress into an ordered stream of domain events.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/aretw0/slicer/internal/decode"
	"github.com/aretw0/slicer/internal/logging"
	"github.com/aretw0/slicer/internal/mesh"
	"github.com/aretw0/slicer/internal/toolpath"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/ports"
)

// State is the position of the engine state machine.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Progress ranges owned by each stage.
const (
	decodeEnd   = 10
	parseEnd    = 50
	generateEnd = 100
)

// DefaultEventBuffer is the capacity of the event channel returned by Convert.
const DefaultEventBuffer = 64

// Engine is the conversion state machine. It runs at most one conversion at a
// time; a Convert while a run is in flight is rejected with domain.ErrEngineBusy.
type Engine struct {
	mu      sync.Mutex
	state   State
	active  string
	current context.CancelFunc

	tuning    domain.Tuning
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	store     ports.RunStore
	clock     func() time.Time
	generator string
	buffer    int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithTuning overrides the chunk sizes of the pipeline.
func WithTuning(t domain.Tuning) EngineOption {
	return func(e *Engine) {
		e.tuning = t.Normalize()
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStore records every run in the given store.
func WithStore(store ports.RunStore) EngineOption {
	return func(e *Engine) {
		e.store = store
	}
}

// WithClock sets the time source used for events and program headers.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithGeneratorName sets the producer name written in program headers.
func WithGeneratorName(name string) EngineOption {
	return func(e *Engine) {
		e.generator = name
	}
}

// WithEventBuffer sets the capacity of the event channel.
func WithEventBuffer(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.buffer = n
		}
	}
}

// NewEngine creates an idle engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		state:  StateIdle,
		tuning: domain.DefaultTuning(),
		logger: logging.NewNop(),
		clock:  time.Now,
		buffer: DefaultEventBuffer,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current state of the engine.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Active returns the ID of the in-flight run, or "" when idle.
func (e *Engine) Active() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Cancel aborts the in-flight run when its ID matches runID; an empty runID
// matches any run. It reports whether a run was cancelled.
func (e *Engine) Cancel(runID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil || (runID != "" && runID != e.active) {
		return false
	}
	e.current()
	return true
}

// Convert starts a run and returns its event stream. The channel is closed
// after the terminal COMPLETE, ERROR or CANCELLED event; the caller must drain
// it. Cancelling ctx aborts the run at the next yield point.
func (e *Engine) Convert(ctx context.Context, runID string, req domain.ConversionRequest) (<-chan domain.Event, error) {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: run %s rejected while another run is in flight", domain.ErrEngineBusy, runID)
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.state = StateRunning
	e.active = runID
	e.current = cancel
	e.mu.Unlock()

	out := make(chan domain.Event, e.buffer)
	r := &run{
		engine:  e,
		id:      runID,
		req:     req,
		out:     out,
		cancel:  cancel,
		logger:  e.logger.With("run_id", runID),
		started: e.clock(),
		last:    -1,
	}
	r.record(ctx, domain.NewRun(runID, req.Settings, r.started))
	go r.execute(runCtx)
	return out, nil
}

func (e *Engine) release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateIdle
	e.active = ""
	e.current = nil
}

// run holds the per-run state. It is only touched by the worker goroutine.
type run struct {
	engine  *Engine
	id      string
	req     domain.ConversionRequest
	out     chan domain.Event
	cancel  context.CancelFunc
	logger  *slog.Logger
	started time.Time

	last      int
	done      bool
	bounds    *domain.BoundingBox
	triangles int
}

func (r *run) execute(ctx context.Context) {
	defer close(r.out)
	defer r.cancel()

	e := r.engine
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{RunID: r.id})
	}
	r.logger.Debug("run started", "encoded_size", len(r.req.MeshData))

	prog, err := r.pipeline(ctx)
	if err != nil {
		r.fail(ctx, err)
		return
	}
	r.complete(ctx, prog)
}

func (r *run) pipeline(ctx context.Context) (*domain.MotionProgram, error) {
	e := r.engine
	tuning := e.tuning

	r.status(ctx, "Slicing started...")
	r.progress(ctx, 0)

	if err := r.req.Settings.Validate(); err != nil {
		return nil, err
	}

	// 1. Decode
	var buf []byte
	err := r.stage(ctx, domain.StageDecode, func() error {
		var err error
		buf, err = decode.Base64(r.req.MeshData, tuning.DecodeWindow, func(done, total int) error {
			if err := yield(ctx); err != nil {
				return err
			}
			r.progress(ctx, scale(0, decodeEnd, done, total))
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	r.progress(ctx, decodeEnd)

	// 2. Parse
	var box domain.BoundingBox
	err = r.stage(ctx, domain.StageParse, func() error {
		declared, err := mesh.DeclaredCount(buf)
		if err != nil {
			return err
		}
		r.status(ctx, fmt.Sprintf("Parsing %d triangles...", declared))

		box, err = mesh.Bounds(buf, tuning.ParseBatch, func(processed, declared int) error {
			if err := yield(ctx); err != nil {
				return err
			}
			r.progress(ctx, scale(decodeEnd, parseEnd, processed, declared))
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	// The decoded buffer is no longer needed once the box is known
	buf = nil
	r.triangles = box.TriangleCount
	// Non-finite extrema cannot be persisted
	if box.Finite() {
		r.bounds = &box
	}
	r.progress(ctx, parseEnd)

	// 3. Generate
	var prog *domain.MotionProgram
	err = r.stage(ctx, domain.StageGenerate, func() error {
		r.status(ctx, "Generating toolpath...")
		var err error
		prog, err = toolpath.Generate(box, r.req.Settings, toolpath.Options{
			Now:           e.clock(),
			ProgressEvery: tuning.ProgressEvery,
			Generator:     e.generator,
		}, func(done, total int) error {
			if err := yield(ctx); err != nil {
				return err
			}
			r.progress(ctx, scale(parseEnd, generateEnd, done, total))
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	r.progress(ctx, generateEnd)
	return prog, nil
}

// stage wraps fn with stage hooks and logging.
func (r *run) stage(ctx context.Context, stage domain.Stage, fn func() error) error {
	hooks := r.engine.hooks
	if hooks.OnStageEnter != nil {
		hooks.OnStageEnter(ctx, &domain.StageEvent{RunID: r.id, Stage: stage})
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	if hooks.OnStageLeave != nil {
		hooks.OnStageLeave(ctx, &domain.StageEvent{RunID: r.id, Stage: stage, Duration: elapsed, Err: err})
	}
	r.logger.Debug("stage finished", "stage", stage, "duration", elapsed, "error", err)
	return err
}

// yield is the cooperative suspension point between two chunks of work.
func yield(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", domain.ErrCancelled, context.Cause(ctx))
	}
	goruntime.Gosched()
	return nil
}

// scale maps done/total onto [lo, hi].
func scale(lo, hi, done, total int) int {
	if total <= 0 {
		return hi
	}
	return lo + (hi-lo)*done/total
}

func (r *run) emit(ctx context.Context, ev domain.Event) {
	if r.done {
		return
	}
	ev.RunID = r.id
	ev.Timestamp = r.engine.clock()
	if ev.Type.Terminal() {
		r.done = true
	}
	if hook := r.engine.hooks.OnEvent; hook != nil {
		hook(ctx, &ev)
	}
	r.out <- ev
}

func (r *run) status(ctx context.Context, msg string) {
	r.emit(ctx, domain.Event{Type: domain.EventStatus, Status: msg})
}

// progress emits only strictly increasing percentages.
func (r *run) progress(ctx context.Context, pct int) {
	if pct <= r.last {
		return
	}
	pct = min(pct, generateEnd)
	r.last = pct
	r.emit(ctx, domain.Event{Type: domain.EventProgress, Percent: pct})
}

func (r *run) complete(ctx context.Context, prog *domain.MotionProgram) {
	r.status(ctx, fmt.Sprintf("Toolpath ready: %d lines", prog.Len()))

	rec := r.finalRecord(domain.RunComplete)
	rec.Program = prog.String()
	r.finish(ctx, domain.EventComplete, prog.Len(), rec)

	r.emit(ctx, domain.Event{Type: domain.EventComplete, Program: prog, Bounds: r.bounds})
}

func (r *run) fail(ctx context.Context, err error) {
	eventType := domain.EventError
	if errors.Is(err, domain.ErrCancelled) {
		eventType = domain.EventCancelled
	}

	rec := r.finalRecord(domain.StatusFor(eventType))
	rec.Error = err.Error()
	r.finish(ctx, eventType, 0, rec)

	r.emit(ctx, domain.Event{Type: eventType, Err: err})
}

func (r *run) finalRecord(status domain.RunStatus) *domain.Run {
	rec := domain.NewRun(r.id, r.req.Settings, r.started)
	rec.Status = status
	rec.Bounds = r.bounds
	rec.FinishedAt = r.engine.clock()
	return rec
}

// finish persists the outcome and returns the engine to idle before the
// terminal event is delivered, so a host reacting to it may start a new run.
func (r *run) finish(ctx context.Context, outcome domain.EventType, lines int, rec *domain.Run) {
	r.record(ctx, rec)

	elapsed := r.engine.clock().Sub(r.started)
	triangles := r.triangles
	if hook := r.engine.hooks.OnRunFinish; hook != nil {
		hook(ctx, &domain.RunEvent{
			RunID:         r.id,
			Outcome:       outcome,
			TriangleCount: triangles,
			Lines:         lines,
			Duration:      elapsed,
		})
	}

	if outcome == domain.EventComplete {
		r.logger.Info("run complete", "triangles", triangles, "lines", lines, "duration", elapsed)
	} else {
		r.logger.Warn("run ended", "outcome", outcome, "error", rec.Error, "duration", elapsed)
	}

	r.engine.release()
}

// record saves the run, detached from cancellation so aborted runs are kept.
func (r *run) record(ctx context.Context, rec *domain.Run) {
	store := r.engine.store
	if store == nil {
		return
	}
	if err := store.Save(context.WithoutCancel(ctx), rec); err != nil {
		r.logger.Error("failed to record run", "status", rec.Status, "error", err)
	}
}

// Package http exposes the slicing engine over HTTP with server-sent events
// for run progress.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/slicer"
	"github.com/aretw0/slicer/internal/logging"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/profile"
	"github.com/aretw0/slicer/pkg/protocol"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// Engine defines the part of slicer.Engine served over HTTP.
type Engine interface {
	ConvertRun(ctx context.Context, runID string, req domain.ConversionRequest) (<-chan domain.Event, error)
	Cancel(runID string) bool
	Run(ctx context.Context, runID string) (*domain.Run, error)
	Runs(ctx context.Context) ([]string, error)
}

// Server routes HTTP requests to the engine.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	profiles *profile.Registry
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	newID    func() string
	maxBody  int64

	router   chi.Router
	baseCtx  context.Context
	stopRuns context.CancelFunc
	wg       sync.WaitGroup
}

// Option configures the Server.
type Option func(*Server)

// WithProfiles enables profile names in SLICE payloads and GET /profiles.
func WithProfiles(reg *profile.Registry) Option {
	return func(s *Server) {
		s.profiles = reg
	}
}

// WithMetrics serves the gatherer on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithIDGenerator replaces the random UUID run IDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Server) {
		s.newID = fn
	}
}

// WithMaxBodySize bounds POST /slice bodies.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		s.maxBody = n
	}
}

// New creates the server. Runs started through it are cancelled by Close.
func New(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		logger:  logging.NewNop(),
		newID:   uuid.NewString,
		maxBody: int64(protocol.MaxMessageSize()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	s.baseCtx, s.stopRuns = context.WithCancel(context.Background())

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Post("/slice", s.Slice)
	r.Get("/runs", s.ListRuns)
	r.Route("/runs/{id}", func(r chi.Router) {
		r.Get("/", s.GetRun)
		r.Delete("/", s.CancelRun)
		r.Get("/gcode", s.GetProgram)
		r.Get("/events", s.SubscribeEvents)
	})
	r.Get("/profiles", s.ListProfiles)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close cancels the runs started by the server and waits for their terminal
// events to be published.
func (s *Server) Close() {
	s.stopRuns()
	s.wg.Wait()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Slice handles POST /slice.
func (s *Server) Slice(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: limit=%d", protocol.ErrMessageTooLarge, tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cmd, err := protocol.DecodeCommand(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if cmd.Type != protocol.TypeSlice {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: expected SLICE, got %s", protocol.ErrInvalidCommand, cmd.Type))
		return
	}

	base := domain.DefaultSettings()
	if name := cmd.Slice.Profile; name != "" {
		if s.profiles == nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, name))
			return
		}
		p, err := s.profiles.Get(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		base = p.Settings
	}

	req, err := cmd.Slice.Request(base)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	runID := s.newID()
	events, err := s.Engine.ConvertRun(s.baseCtx, runID, req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrEngineBusy) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}

	s.wg.Add(1)
	go s.publish(runID, events)

	s.logger.Info("run accepted", "run_id", runID, "encoded_size", len(req.MeshData))
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

// publish forwards the events of one run to its SSE subscribers.
func (s *Server) publish(runID string, events <-chan domain.Event) {
	defer s.wg.Done()

	for ev := range events {
		data, err := json.Marshal(protocol.FromEvent(ev))
		if err != nil {
			s.logger.Error("failed to encode event", "run_id", runID, "error", err)
			continue
		}
		if ev.Type.Terminal() {
			s.Streams.Finish(runID, string(data))
			continue
		}
		s.Streams.Broadcast(runID, string(data))
	}
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.Engine.Runs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": runs})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetProgram handles GET /runs/{id}/gcode.
func (s *Server) GetProgram(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	if run.Status != domain.RunComplete {
		writeError(w, http.StatusConflict, fmt.Errorf("run %s is %s", run.ID, run.Status))
		return
	}

	w.Header().Set("Content-Type", "text/x-gcode; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.ID+".gcode"))
	io.WriteString(w, run.Program)
}

// CancelRun handles DELETE /runs/{id}.
func (s *Server) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if s.Engine.Cancel(runID) {
		s.logger.Info("run cancel requested", "run_id", runID)
		writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
		return
	}

	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeError(w, http.StatusConflict, fmt.Errorf("run %s is %s", run.ID, run.Status))
}

// SubscribeEvents handles GET /runs/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	runID := chi.URLParam(r, "id")

	ch, done, cancel := s.Streams.Subscribe(runID)
	defer cancel()

	// The stream history is bounded; older runs are answered from their record
	if ch != nil && run.Finished() {
		if msg, ok := protocol.FromRun(run); ok {
			data, err := json.Marshal(msg)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			ch, done = nil, string(data)
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	if ch == nil {
		fmt.Fprintf(w, "data: %s\n\n", done)
		flusher.Flush()
		return
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "run_id", runID)
			return
		case msg, ok := <-ch:
			if !ok {
				if final, found := s.Streams.Terminal(runID); found {
					fmt.Fprintf(w, "data: %s\n\n", final)
					flusher.Flush()
				}
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// ListProfiles handles GET /profiles.
func (s *Server) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := []profile.Profile{}
	if s.profiles != nil {
		profiles = s.profiles.All()
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := LoadSpec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "slicer-http",
		"version":     slicer.Version,
		"api_version": apiVersion,
	})
}

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*domain.Run, bool) {
	run, err := s.Engine.Run(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrRunNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return nil, false
	}
	return run, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

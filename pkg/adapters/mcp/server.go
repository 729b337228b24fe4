package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/slicer"
	"github.com/aretw0/slicer/internal/logging"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/profile"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ProfilesURI is the resource listing the print profiles.
const ProfilesURI = "slicer://profiles"

// Engine defines the interface required by the MCP server to drive conversions.
type Engine interface {
	Slice(ctx context.Context, req domain.ConversionRequest) (*domain.MotionProgram, error)
	Inspect(ctx context.Context, meshData string) (domain.BoundingBox, error)
	Run(ctx context.Context, runID string) (*domain.Run, error)
}

// InspectResponse is the result of inspect_model.
type InspectResponse struct {
	Bounds domain.BoundingBox `json:"bounds"`
	Width  float64            `json:"width"`
	Depth  float64            `json:"depth"`
	Height float64            `json:"height"`
}

// Server wraps the slicer Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	profiles  *profile.Registry
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithProfiles replaces the built-in profile registry.
func WithProfiles(reg *profile.Registry) Option {
	return func(s *Server) {
		s.profiles = reg
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:   engine,
		profiles: profile.Default(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("slicer-mcp", slicer.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: slice_model
	s.mcpServer.AddTool(mcp.NewTool("slice_model",
		mcp.WithDescription("Convert a base64 encoded binary STL model into G-code. Omitted settings come from the profile, or the defaults."),
		mcp.WithString("stl_data", mcp.Required(), mcp.Description("Base64 encoded binary STL")),
		mcp.WithString("profile", mcp.Description("Name of a print profile (optional)")),
		mcp.WithNumber("layer_height", mcp.Description("Layer height in mm")),
		mcp.WithNumber("infill", mcp.Description("Infill percentage, 0-100")),
		mcp.WithNumber("bed_temp", mcp.Description("Bed temperature in Celsius")),
		mcp.WithNumber("nozzle_temp", mcp.Description("Nozzle temperature in Celsius")),
		mcp.WithBoolean("use_supports", mcp.Description("Generate supports")),
	), s.handleSlice)

	// TOOL: inspect_model
	s.mcpServer.AddTool(mcp.NewTool("inspect_model",
		mcp.WithDescription("Measure the bounding box and triangle count of a base64 encoded binary STL model."),
		mcp.WithString("stl_data", mcp.Required(), mcp.Description("Base64 encoded binary STL")),
	), s.handleInspect)

	// TOOL: get_run
	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get the record of a past conversion."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID")),
	), s.handleGetRun)
}

func (s *Server) settings(req mcp.CallToolRequest) (domain.Settings, error) {
	base := domain.DefaultSettings()
	if name := req.GetString("profile", ""); name != "" {
		p, err := s.profiles.Get(name)
		if err != nil {
			return base, err
		}
		base = p.Settings
	}

	return domain.Settings{
		LayerHeight:   req.GetFloat("layer_height", base.LayerHeight),
		InfillPercent: req.GetInt("infill", base.InfillPercent),
		BedTempC:      req.GetInt("bed_temp", base.BedTempC),
		NozzleTempC:   req.GetInt("nozzle_temp", base.NozzleTempC),
		UseSupports:   req.GetBool("use_supports", base.UseSupports),
	}, nil
}

func (s *Server) handleSlice(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := req.RequireString("stl_data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	settings, err := s.settings(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	program, err := s.engine.Slice(ctx, domain.ConversionRequest{MeshData: data, Settings: settings})
	if err != nil {
		s.logger.Warn("MCP slice_model failed", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("slice failed: %v", err)), nil
	}
	return mcp.NewToolResultText(program.String()), nil
}

func (s *Server) handleInspect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := req.RequireString("stl_data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	box, err := s.engine.Inspect(ctx, data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}

	resp := InspectResponse{Bounds: box}
	if box.Finite() {
		resp.Width, resp.Depth, resp.Height = box.Width(), box.Depth(), box.Height()
	} else {
		// Infinite extrema are not representable in JSON.
		resp.Bounds = domain.BoundingBox{}
	}
	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode inspect result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("run_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	run, err := s.engine.Run(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	jsonBytes, err := json.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("encode run %s: %w", id, err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: slicer://profiles
	s.mcpServer.AddResource(mcp.NewResource(ProfilesURI, "Print Profiles",
		mcp.WithResourceDescription("Available print profiles as JSON"),
		mcp.WithMIMEType("application/json"),
	), s.handleProfiles)
}

func (s *Server) handleProfiles(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.profiles.All())
	if err != nil {
		return nil, fmt.Errorf("failed to encode profiles: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ProfilesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

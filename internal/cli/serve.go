package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/slicer/pkg/adapters/http"
	"github.com/aretw0/slicer/pkg/adapters/mcp"
	"github.com/aretw0/slicer/pkg/bridge"
	"github.com/aretw0/slicer/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP host until ctx is cancelled.
func Serve(ctx context.Context, cfg Config, addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.New(reg)
	if err != nil {
		return err
	}

	eng, closer, logger, err := cfg.Engine(collector.Hooks())
	if err != nil {
		return err
	}
	defer closer.Close()

	profiles, err := cfg.Registry()
	if err != nil {
		return err
	}

	handler := httpadapter.New(eng,
		httpadapter.WithProfiles(profiles),
		httpadapter.WithLogger(logger),
		httpadapter.WithMetrics(reg),
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "address", addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Cancelled runs end their SSE streams, which lets Shutdown drain.
		handler.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		logger.Info("HTTP server stopped")
		return nil
	})
	return g.Wait()
}

// Bridge runs the JSON-lines host on the given streams until the input ends
// or ctx is cancelled.
func Bridge(ctx context.Context, cfg Config, in io.Reader, out io.Writer) error {
	eng, closer, logger, err := cfg.Engine()
	if err != nil {
		return err
	}
	defer closer.Close()

	profiles, err := cfg.Registry()
	if err != nil {
		return err
	}

	b := bridge.New(eng,
		bridge.WithIO(in, out),
		bridge.WithProfiles(profiles),
		bridge.WithLogger(logger),
	)
	err = b.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// MCP runs the MCP host over stdio or SSE.
func MCP(ctx context.Context, cfg Config, transport string, port int) error {
	eng, closer, logger, err := cfg.Engine()
	if err != nil {
		return err
	}
	defer closer.Close()

	profiles, err := cfg.Registry()
	if err != nil {
		return err
	}

	srv := mcp.NewServer(eng, mcp.WithProfiles(profiles), mcp.WithLogger(logger))
	switch transport {
	case "stdio":
		logger.Info("Starting slicer MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
}

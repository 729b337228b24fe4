package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/slicer"
	"github.com/aretw0/slicer/internal/logging"
	"github.com/aretw0/slicer/pkg/adapters/file"
	"github.com/aretw0/slicer/pkg/adapters/memory"
	"github.com/aretw0/slicer/pkg/adapters/redis"
	"github.com/aretw0/slicer/pkg/adapters/sqlite"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/persistence/middleware"
	"github.com/aretw0/slicer/pkg/ports"
	"github.com/aretw0/slicer/pkg/profile"
)

// Store backends accepted by --store.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// ErrUnknownStore is returned for a --store value that names no backend.
var ErrUnknownStore = errors.New("unknown store")

// Config holds the options shared by every command.
type Config struct {
	LogLevel  string
	LogFormat string
	Store     string
	StoreDir  string
	RedisURL  string
	Profiles  string
	StoreKey  string
	Timeout   time.Duration
	Debug     bool
}

// ApplyEnv fills the fields the environment overrides.
// Flags explicitly set on the command line win over the environment.
func (c *Config) ApplyEnv(changed func(flag string) bool) {
	set := func(flag, env string, dst *string) {
		if changed != nil && changed(flag) {
			return
		}
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	set("log-level", "SLICER_LOG_LEVEL", &c.LogLevel)
	set("log-format", "SLICER_LOG_FORMAT", &c.LogFormat)
	set("redis-url", "SLICER_REDIS_URL", &c.RedisURL)
	set("profiles", "SLICER_PROFILES", &c.Profiles)
	set("store-key", "SLICER_STORE_KEY", &c.StoreKey)
}

// Logger builds the application logger. Without a level or debug flag
// commands stay quiet.
func (c *Config) Logger() (*slog.Logger, error) {
	if c.Debug {
		c.LogLevel = "debug"
	}
	if c.LogLevel == "" {
		return logging.NewNop(), nil
	}

	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.LogFormat)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format), nil
}

// Registry returns the built-in profiles plus those of the profiles file.
func (c *Config) Registry() (*profile.Registry, error) {
	reg := profile.Default()
	if c.Profiles == "" {
		return reg, nil
	}

	profiles, err := profile.LoadFile(c.Profiles)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if err := reg.Register(p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Name, err)
		}
	}
	return reg, nil
}

// OpenStore opens the run store backend, encrypted when a store key is set.
// The closer releases its connections.
func (c *Config) OpenStore() (ports.RunStore, io.Closer, error) {
	store, closer, err := c.openBackend()
	if err != nil || c.StoreKey == "" {
		return store, closer, err
	}

	key, err := middleware.ParseKey(c.StoreKey)
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("invalid store key: %w", err)
	}
	return middleware.Chain(store, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})), closer, nil
}

func (c *Config) openBackend() (ports.RunStore, io.Closer, error) {
	switch c.Store {
	case "", StoreMemory:
		return memory.New(), nopCloser{}, nil
	case StoreFile:
		return file.New(c.StoreDir), nopCloser{}, nil
	case StoreRedis:
		if c.RedisURL == "" {
			return nil, nil, fmt.Errorf("%w: redis requires --redis-url or SLICER_REDIS_URL", ErrUnknownStore)
		}
		store, err := redis.New(c.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case StoreSQLite:
		dir := c.StoreDir
		if dir == "" {
			dir = ".slicer"
		}
		store, err := sqlite.Open(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStore, c.Store)
}

// Engine builds the engine, its store and its logger from the configuration.
func (c *Config) Engine(hooks ...domain.LifecycleHooks) (*slicer.Engine, io.Closer, *slog.Logger, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, nil, nil, err
	}
	store, closer, err := c.OpenStore()
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []slicer.Option{
		slicer.WithLogger(logger),
		slicer.WithStore(store),
	}
	if c.Debug {
		hooks = append(hooks, debugHooks(logger))
	}
	if len(hooks) > 0 {
		opts = append(opts, slicer.WithLifecycleHooks(domain.ChainHooks(hooks...)))
	}
	return slicer.New(opts...), closer, logger, nil
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			logger.Debug("Enter Stage", "run_id", e.RunID, "stage", e.Stage)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			if e.Err != nil {
				logger.Debug("Leave Stage (Error)", "run_id", e.RunID, "stage", e.Stage, "err", e.Err)
				return
			}
			logger.Debug("Leave Stage", "run_id", e.RunID, "stage", e.Stage, "duration", e.Duration)
		},
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Package bridge serves the slicing engine over a JSON-lines stream, one
// protocol message per line, typically on stdin and stdout.
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/slicer/internal/logging"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/profile"
	"github.com/aretw0/slicer/pkg/protocol"
)

// Engine is the part of slicer.Engine the bridge drives.
type Engine interface {
	Convert(ctx context.Context, req domain.ConversionRequest) (<-chan domain.Event, error)
	Cancel(runID string) bool
}

// Bridge reads commands and writes events.
type Bridge struct {
	engine   Engine
	profiles *profile.Registry
	defaults domain.Settings
	logger   *slog.Logger
	in       io.Reader
	out      io.Writer
	maxSize  int

	mu  sync.Mutex
	enc *json.Encoder
	wg  sync.WaitGroup
}

// Option configures the Bridge.
type Option func(*Bridge)

// WithIO replaces stdin and stdout.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(b *Bridge) {
		b.in = r
		b.out = w
	}
}

// WithProfiles resolves the "profile" field of SLICE commands.
func WithProfiles(reg *profile.Registry) Option {
	return func(b *Bridge) {
		b.profiles = reg
	}
}

// WithDefaults sets the settings used when a command carries none.
func WithDefaults(s domain.Settings) Option {
	return func(b *Bridge) {
		b.defaults = s
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithMaxMessageSize bounds the length of one inbound line.
func WithMaxMessageSize(n int) Option {
	return func(b *Bridge) {
		b.maxSize = n
	}
}

// New creates a bridge in front of engine.
func New(engine Engine, opts ...Option) *Bridge {
	b := &Bridge{
		engine:   engine,
		defaults: domain.DefaultSettings(),
		logger:   logging.NewNop(),
		in:       os.Stdin,
		out:      os.Stdout,
		maxSize:  protocol.MaxMessageSize(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.enc = json.NewEncoder(b.out)
	return b
}

// Serve processes commands until the input ends or ctx is cancelled, then
// waits for the in-flight run to deliver its terminal message. Cancelling ctx
// also cancels the run.
func (b *Bridge) Serve(ctx context.Context) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go b.read(ctx, lines, readErr)

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			b.handle(ctx, line)
		}
	}
}

func (b *Bridge) read(ctx context.Context, lines chan<- []byte, errc chan<- error) {
	defer close(lines)

	scanner := bufio.NewScanner(b.in)
	scanner.Buffer(make([]byte, 0, min(64*1024, b.maxSize)), b.maxSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		// Scanner reuses its buffer
		msg := append([]byte(nil), line...)
		select {
		case lines <- msg:
		case <-ctx.Done():
			errc <- nil
			return
		}
	}

	err := scanner.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		b.write(protocol.ErrorMessage(fmt.Errorf("%w: limit=%d", protocol.ErrMessageTooLarge, b.maxSize)))
		err = fmt.Errorf("%w: limit=%d", protocol.ErrMessageTooLarge, b.maxSize)
	}
	errc <- err
}

func (b *Bridge) handle(ctx context.Context, line []byte) {
	cmd, err := protocol.DecodeCommand(line)
	if err != nil {
		b.logger.Warn("rejected command", "error", err, "size", len(line))
		b.write(protocol.ErrorMessage(err))
		return
	}

	switch cmd.Type {
	case protocol.TypeCancel:
		if !b.engine.Cancel("") {
			b.logger.Debug("cancel without an active run")
		}
	case protocol.TypeSlice:
		b.slice(ctx, cmd.Slice)
	}
}

func (b *Bridge) slice(ctx context.Context, sc *protocol.SliceCommand) {
	base := b.defaults
	if sc.Profile != "" {
		if b.profiles == nil {
			b.write(protocol.ErrorMessage(fmt.Errorf("%w: %s", domain.ErrProfileNotFound, sc.Profile)))
			return
		}
		p, err := b.profiles.Get(sc.Profile)
		if err != nil {
			b.write(protocol.ErrorMessage(err))
			return
		}
		base = p.Settings
	}

	req, err := sc.Request(base)
	if err != nil {
		b.write(protocol.ErrorMessage(err))
		return
	}

	events, err := b.engine.Convert(ctx, req)
	if err != nil {
		b.logger.Warn("slice rejected", "error", err)
		b.write(protocol.ErrorMessage(err))
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for ev := range events {
			b.write(protocol.FromEvent(ev))
		}
	}()
}

func (b *Bridge) write(msg protocol.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.enc.Encode(msg); err != nil {
		b.logger.Error("failed to write message", "type", msg.Type, "error", err)
	}
}

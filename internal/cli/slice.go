package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/slicer/internal/presentation/tui"
	"github.com/aretw0/slicer/pkg/domain"
	"github.com/aretw0/slicer/pkg/profile"
	"github.com/aretw0/slicer/pkg/protocol"
	"golang.org/x/term"
)

// SliceOptions configures the slice command.
type SliceOptions struct {
	Input   string
	Output  string // "" or "-" writes to stdout
	Profile string
	// Overrides uses the wire names of the settings (layerHeight, infill, ...).
	Overrides map[string]any
	Quiet     bool
}

// Slice converts one STL file, drawing progress on stderr.
func Slice(ctx context.Context, cfg Config, opts SliceOptions, stdout, stderr io.Writer) error {
	raw, err := os.ReadFile(opts.Input)
	if err != nil {
		return fmt.Errorf("failed to read model: %w", err)
	}

	settings, err := resolveSettings(cfg, opts.Profile, opts.Overrides)
	if err != nil {
		return err
	}

	eng, closer, logger, err := cfg.Engine()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := withTimeout(ctx, cfg.Timeout)
	defer cancel()

	events, err := eng.Convert(ctx, domain.ConversionRequest{
		MeshData: base64.StdEncoding.EncodeToString(raw),
		Settings: settings,
	})
	if err != nil {
		return err
	}

	var view *tui.Progress
	if !opts.Quiet {
		view = tui.NewProgress(stderr)
	}

	var last domain.Event
	for ev := range events {
		if view != nil {
			view.Handle(ev)
		}
		last = ev
	}

	if last.Type != domain.EventComplete {
		if last.Err == nil {
			return errors.New("event stream closed without a terminal event")
		}
		return last.Err
	}

	logger.Info("model sliced", "run_id", last.RunID, "input", opts.Input, "lines", last.Program.Len())
	return writeProgram(opts.Output, stdout, last.Program)
}

func writeProgram(path string, stdout io.Writer, prog *domain.MotionProgram) error {
	text := prog.String() + "\n"
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, text)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write program: %w", err)
	}
	return nil
}

func resolveSettings(cfg Config, name string, overrides map[string]any) (domain.Settings, error) {
	base := domain.DefaultSettings()
	if name != "" {
		reg, err := cfg.Registry()
		if err != nil {
			return base, err
		}
		p, err := reg.Get(name)
		if err != nil {
			return base, err
		}
		base = p.Settings
	}
	if len(overrides) == 0 {
		return base, nil
	}
	return protocol.DecodeSettings(overrides, base)
}

// InspectResult is the JSON form of the inspect command.
type InspectResult struct {
	File   string             `json:"file"`
	Bounds domain.BoundingBox `json:"bounds"`
	Width  float64            `json:"width"`
	Depth  float64            `json:"depth"`
	Height float64            `json:"height"`
}

// Inspect measures one STL file and prints a report, or JSON when asJSON is set.
func Inspect(ctx context.Context, cfg Config, path string, asJSON bool, stdout io.Writer) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model: %w", err)
	}

	eng, closer, _, err := cfg.Engine()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := withTimeout(ctx, cfg.Timeout)
	defer cancel()

	box, err := eng.Inspect(ctx, base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		return err
	}

	if asJSON {
		res := InspectResult{File: path}
		if box.Finite() {
			res.Bounds = box
			res.Width, res.Depth, res.Height = box.Width(), box.Depth(), box.Height()
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	return printMarkdown(stdout, tui.InspectReport(filepath.Base(path), box))
}

// ListProfiles prints the profiles as a table, or as YAML when asYAML is set.
func ListProfiles(cfg Config, asYAML bool, stdout io.Writer) error {
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	if asYAML {
		return profile.Encode(stdout, reg.All())
	}
	return printMarkdown(stdout, tui.ProfilesReport(reg.All()))
}

// printMarkdown renders markdown with glamour on a terminal and writes it
// unchanged otherwise.
func printMarkdown(w io.Writer, markdown string) error {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		_, err := io.WriteString(w, markdown)
		return err
	}

	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		width = 0
	}
	render, err := tui.NewRenderer(width)
	if err != nil {
		return err
	}
	out, err := render(markdown)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

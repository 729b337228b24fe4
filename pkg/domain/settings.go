package domain

import "fmt"

// Settings holds the print parameters of a conversion.
// InfillPercent and UseSupports are carried through to the program header
// but do not change the generated geometry.
type Settings struct {
	LayerHeight   float64 `json:"layerHeight" yaml:"layer_height" mapstructure:"layerHeight"`
	InfillPercent int     `json:"infill" yaml:"infill" mapstructure:"infill"`
	BedTempC      int     `json:"bedTemp" yaml:"bed_temp" mapstructure:"bedTemp"`
	NozzleTempC   int     `json:"nozzleTemp" yaml:"nozzle_temp" mapstructure:"nozzleTemp"`
	UseSupports   bool    `json:"useSupports" yaml:"use_supports" mapstructure:"useSupports"`
}

// DefaultSettings mirrors the defaults of the mobile slicing screen.
func DefaultSettings() Settings {
	return Settings{
		LayerHeight:   0.2,
		InfillPercent: 15,
		BedTempC:      60,
		NozzleTempC:   200,
		UseSupports:   false,
	}
}

// Validate checks the ranges that are not geometry related.
// A non-positive LayerHeight is reported by the generator as ErrDegenerateGeometry.
func (s Settings) Validate() error {
	if s.InfillPercent < 0 || s.InfillPercent > 100 {
		return fmt.Errorf("%w: infill %d%% outside 0-100", ErrInvalidSettings, s.InfillPercent)
	}
	if s.BedTempC < 0 {
		return fmt.Errorf("%w: bed temperature %d", ErrInvalidSettings, s.BedTempC)
	}
	if s.NozzleTempC < 0 {
		return fmt.Errorf("%w: nozzle temperature %d", ErrInvalidSettings, s.NozzleTempC)
	}
	return nil
}

// ConversionRequest is the immutable input of a single run.
// MeshData is the transport-encoded (base64) binary STL.
type ConversionRequest struct {
	MeshData string
	Settings Settings
}

// Tuning holds the chunking constants of the pipeline.
// They bound the work done between two yield points and do not affect output.
type Tuning struct {
	// DecodeWindow is the number of encoded characters decoded per step.
	// It is rounded down to a multiple of 4.
	DecodeWindow int
	// ParseBatch is the number of triangles read per step.
	ParseBatch int
	// ProgressEvery is the number of infill rows between two progress events.
	ProgressEvery int
}

// DefaultTuning returns the reference chunk sizes.
func DefaultTuning() Tuning {
	return Tuning{
		DecodeWindow:  500_000,
		ParseBatch:    5_000,
		ProgressEvery: 10,
	}
}

// Normalize replaces unset or invalid values with defaults.
func (t Tuning) Normalize() Tuning {
	def := DefaultTuning()
	t.DecodeWindow -= t.DecodeWindow % 4
	if t.DecodeWindow <= 0 {
		t.DecodeWindow = def.DecodeWindow
	}
	if t.ParseBatch <= 0 {
		t.ParseBatch = def.ParseBatch
	}
	if t.ProgressEvery <= 0 {
		t.ProgressEvery = def.ProgressEvery
	}
	return t
}

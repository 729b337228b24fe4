// Package profile manages named print presets.
//
// A preset bundles the settings a user would otherwise pick one by one: layer
// height, infill density, bed and nozzle temperatures and supports. Presets are
// built in or loaded from YAML documents of the form:
//
//	profiles:
//	  - name: petg
//	    description: PETG at standard quality
//	    layer_height: 0.2
//	    bed_temp: 80
//	    nozzle_temp: 240
//
// Fields left out of a YAML profile take the values of domain.DefaultSettings.
package profile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/slicer/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Profile is a named set of print settings.
type Profile struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Settings    domain.Settings `yaml:",inline" json:"settings"`
}

// Validate checks the name and the settings.
func (p Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: profile without a name", domain.ErrInvalidSettings)
	}
	if err := p.Settings.Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return nil
}

type document struct {
	Profiles []Profile `yaml:"profiles"`
}

// rawProfile tells omitted fields apart from zero values.
type rawProfile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	LayerHeight *float64 `yaml:"layer_height"`
	Infill      *int     `yaml:"infill"`
	BedTemp     *int     `yaml:"bed_temp"`
	NozzleTemp  *int     `yaml:"nozzle_temp"`
	UseSupports *bool    `yaml:"use_supports"`
}

func (r rawProfile) profile() Profile {
	s := domain.DefaultSettings()
	if r.LayerHeight != nil {
		s.LayerHeight = *r.LayerHeight
	}
	if r.Infill != nil {
		s.InfillPercent = *r.Infill
	}
	if r.BedTemp != nil {
		s.BedTempC = *r.BedTemp
	}
	if r.NozzleTemp != nil {
		s.NozzleTempC = *r.NozzleTemp
	}
	if r.UseSupports != nil {
		s.UseSupports = *r.UseSupports
	}
	return Profile{Name: r.Name, Description: r.Description, Settings: s}
}

// Decode reads a YAML profile document and validates every entry.
func Decode(r io.Reader) ([]Profile, error) {
	var doc struct {
		Profiles []rawProfile `yaml:"profiles"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	profiles := make([]Profile, 0, len(doc.Profiles))
	for _, raw := range doc.Profiles {
		p := raw.profile()
		if err := p.Validate(); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// LoadFile reads a YAML profile document from disk.
func LoadFile(path string) ([]Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiles: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes profiles as a YAML document.
func Encode(w io.Writer, profiles []Profile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{Profiles: profiles}); err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}
	return enc.Close()
}

// Builtin returns the built-in presets. Layer heights and infill densities
// cover the choices offered by the companion app.
func Builtin() []Profile {
	mk := func(name, desc string, lh float64, infill int) Profile {
		s := domain.DefaultSettings()
		s.LayerHeight = lh
		s.InfillPercent = infill
		return Profile{Name: name, Description: desc, Settings: s}
	}
	return []Profile{
		mk("draft", "Fast draft, thick layers", 0.28, 10),
		mk("standard", "Everyday quality", 0.2, 15),
		mk("fine", "Fine detail", 0.16, 20),
		mk("ultra", "Finest layers", 0.12, 20),
		mk("strong", "Functional parts", 0.2, 40),
		mk("solid", "Fully solid", 0.2, 100),
	}
}

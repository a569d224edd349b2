package domain

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultEpoch is the reference day number of the default template
// (2020-01-05T03:30:00Z).
const DefaultEpoch = 737429.1458333333

// Template carries the defaults every basis is built from: reference epoch,
// mean offsets and reconstruction options.
type Template struct {
	Name      string  `toml:"name"`
	Epoch     float64 `toml:"reftime"`
	MeanLevel float64 `toml:"mean"`
	MeanU     float64 `toml:"umean"`
	MeanV     float64 `toml:"vmean"`
	Options   Options `toml:"opt"`
}

// DefaultTemplate returns the template used when no template file is configured.
func DefaultTemplate() Template {
	return Template{
		Name:  "default",
		Epoch: DefaultEpoch,
		Options: Options{
			NodSatNone: true,
			NoTrend:    true,
		},
	}
}

// ParseTemplate decodes a TOML template. Keys not present keep the defaults.
func ParseTemplate(data []byte) (Template, error) {
	tmpl := DefaultTemplate()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&tmpl); err != nil {
		return Template{}, fmt.Errorf("failed to decode template: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return Template{}, err
	}
	return tmpl, nil
}

// LoadTemplate reads a TOML template file.
func LoadTemplate(path string) (Template, error) {
	//nolint:gosec // G304: Path comes from configuration.
	b, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return ParseTemplate(b)
}

// Validate checks the template values.
func (t Template) Validate() error {
	if !finite(t.Epoch) || t.Epoch <= 0 {
		return fmt.Errorf("%w: template reftime must be a positive day number", ErrValidation)
	}
	if !finite(t.MeanLevel) || !finite(t.MeanU) || !finite(t.MeanV) {
		return fmt.Errorf("%w: template means must be finite", ErrValidation)
	}
	if t.Options.GwchLint && t.Options.GwchNone {
		return fmt.Errorf("%w: gwchlint and gwchnone are mutually exclusive", ErrValidation)
	}
	if t.Options.NodSatLint && t.Options.NodSatNone {
		return fmt.Errorf("%w: nodsatlint and nodsatnone are mutually exclusive", ErrValidation)
	}
	return nil
}

package domain

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// Options are the reconstruction switches carried by a basis.
type Options struct {
	NodSatLint  bool `toml:"nodsatlint"`  // Interpolate nodal corrections linearly over the record.
	NodSatNone  bool `toml:"nodsatnone"`  // Disable nodal corrections (f=1, u=0).
	GwchLint    bool `toml:"gwchlint"`    // Linear equilibrium argument anchored at the epoch.
	GwchNone    bool `toml:"gwchnone"`    // Pure linear phase, no astronomical offset.
	NoTrend     bool `toml:"notrend"`     // Constituents were fit without a trend term.
	Prefiltered bool `toml:"prefiltered"` // Input series was prefiltered before fitting.
}

// LevelConstituent is the per-point amplitude and phase of a level constituent.
type LevelConstituent struct {
	Amplitude float64 // Meters.
	PhaseDeg  float64 // Greenwich phase lag in degrees.
}

// CurrentConstituent is the per-point tidal ellipse of a current constituent.
type CurrentConstituent struct {
	MajorAxis      float64 // Semi-major axis in m/s.
	MinorAxis      float64 // Semi-minor axis in m/s, signed by rotation sense.
	InclinationDeg float64 // Counter-clockwise from east.
	PhaseDeg       float64
}

// Basis is a constituent basis ready for reconstruction. It is either a
// *LevelBasis or a *CurrentBasis.
type Basis interface {
	Names() []string
	Len() int
	header() *basisHeader
	// rotary returns the counter-clockwise and clockwise complex amplitudes.
	rotary() (ap, am []complex128)
}

type basisHeader struct {
	constituents []Constituent
	epoch        float64
	latitude     float64
	options      Options
}

// Names returns the constituent names in basis order.
func (h *basisHeader) Names() []string {
	names := make([]string, len(h.constituents))
	for i, c := range h.constituents {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of constituents.
func (h *basisHeader) Len() int { return len(h.constituents) }

// Frequencies returns the constituent frequencies in cycles per hour.
func (h *basisHeader) Frequencies() []float64 {
	out := make([]float64, len(h.constituents))
	for i, c := range h.constituents {
		out[i] = c.FreqCPH
	}
	return out
}

// CatalogIndices returns the catalog index of each constituent.
func (h *basisHeader) CatalogIndices() []int {
	out := make([]int, len(h.constituents))
	for i, c := range h.constituents {
		out[i] = c.Index
	}
	return out
}

// Epoch returns the reference day number.
func (h *basisHeader) Epoch() float64 { return h.epoch }

// Latitude returns the basis latitude in degrees.
func (h *basisHeader) Latitude() float64 { return h.latitude }

// Options returns the reconstruction options.
func (h *basisHeader) Options() Options { return h.options }

func (h *basisHeader) header() *basisHeader { return h }

// LevelBasis is a one-dimensional (water level) basis.
type LevelBasis struct {
	basisHeader
	mean      float64
	amplitude []float64
	phase     []float64
}

// Mean returns the mean level offset.
func (b *LevelBasis) Mean() float64 { return b.mean }

// Amplitudes returns a copy of the amplitudes.
func (b *LevelBasis) Amplitudes() []float64 { return append([]float64(nil), b.amplitude...) }

// Phases returns a copy of the phases in degrees.
func (b *LevelBasis) Phases() []float64 { return append([]float64(nil), b.phase...) }

func (b *LevelBasis) rotary() (ap, am []complex128) {
	n := len(b.amplitude)
	ap = make([]complex128, n)
	am = make([]complex128, n)
	for i := range b.amplitude {
		ap[i] = complex(b.amplitude[i]/2, 0) * cmplx.Exp(complex(0, -Deg2Rad(b.phase[i])))
		am[i] = cmplx.Conj(ap[i])
	}
	return ap, am
}

// CurrentBasis is a two-dimensional (current ellipse) basis.
type CurrentBasis struct {
	basisHeader
	meanU, meanV float64
	major        []float64
	minor        []float64
	inclination  []float64
	phase        []float64
}

// MeanU returns the mean eastward current.
func (b *CurrentBasis) MeanU() float64 { return b.meanU }

// MeanV returns the mean northward current.
func (b *CurrentBasis) MeanV() float64 { return b.meanV }

func (b *CurrentBasis) rotary() (ap, am []complex128) {
	n := len(b.major)
	ap = make([]complex128, n)
	am = make([]complex128, n)
	for i := range b.major {
		theta := Deg2Rad(b.inclination[i])
		g := Deg2Rad(b.phase[i])
		ap[i] = complex((b.major[i]+b.minor[i])/2, 0) * cmplx.Exp(complex(0, theta-g))
		am[i] = complex((b.major[i]-b.minor[i])/2, 0) * cmplx.Exp(complex(0, theta+g))
	}
	return ap, am
}

// NewLevelBasis builds a level basis from parallel arrays.
func NewLevelBasis(tmpl Template, latitude float64, names []string, amplitude, phase []float64) (*LevelBasis, error) {
	if len(amplitude) != len(names) || len(phase) != len(names) {
		return nil, fmt.Errorf("%w: %d names, %d amplitudes, %d phases",
			ErrValidation, len(names), len(amplitude), len(phase))
	}
	hdr, err := newHeader(tmpl, latitude, names)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		if !finite(amplitude[i]) || amplitude[i] < 0 {
			return nil, fmt.Errorf("%w: amplitude of %s must be finite and non-negative, got %v", ErrValidation, name, amplitude[i])
		}
		if !finite(phase[i]) {
			return nil, fmt.Errorf("%w: phase of %s must be finite", ErrValidation, name)
		}
	}
	if !finite(tmpl.MeanLevel) {
		return nil, fmt.Errorf("%w: mean level must be finite", ErrValidation)
	}
	return &LevelBasis{
		basisHeader: *hdr,
		mean:        tmpl.MeanLevel,
		amplitude:   append([]float64(nil), amplitude...),
		phase:       append([]float64(nil), phase...),
	}, nil
}

// NewCurrentBasis builds a current basis from parallel arrays.
func NewCurrentBasis(tmpl Template, latitude float64, names []string, major, minor, inclination, phase []float64) (*CurrentBasis, error) {
	n := len(names)
	if len(major) != n || len(minor) != n || len(inclination) != n || len(phase) != n {
		return nil, fmt.Errorf("%w: %d names, %d major, %d minor, %d inclination, %d phase",
			ErrValidation, n, len(major), len(minor), len(inclination), len(phase))
	}
	hdr, err := newHeader(tmpl, latitude, names)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		if !finite(major[i]) || !finite(minor[i]) || !finite(inclination[i]) || !finite(phase[i]) {
			return nil, fmt.Errorf("%w: ellipse parameters of %s must be finite", ErrValidation, name)
		}
		if major[i] < 0 {
			return nil, fmt.Errorf("%w: major axis of %s must be non-negative, got %v", ErrValidation, name, major[i])
		}
	}
	if !finite(tmpl.MeanU) || !finite(tmpl.MeanV) {
		return nil, fmt.Errorf("%w: mean current must be finite", ErrValidation)
	}
	return &CurrentBasis{
		basisHeader: *hdr,
		meanU:       tmpl.MeanU,
		meanV:       tmpl.MeanV,
		major:       append([]float64(nil), major...),
		minor:       append([]float64(nil), minor...),
		inclination: append([]float64(nil), inclination...),
		phase:       append([]float64(nil), phase...),
	}, nil
}

// LevelBasisFromConstituents builds a level basis from repository values,
// ordered by catalog index.
func LevelBasisFromConstituents(tmpl Template, latitude float64, cons map[string]LevelConstituent) (*LevelBasis, error) {
	names, err := sortedNames(cons)
	if err != nil {
		return nil, err
	}
	amplitude := make([]float64, len(names))
	phase := make([]float64, len(names))
	for i, name := range names {
		amplitude[i] = cons[name].Amplitude
		phase[i] = cons[name].PhaseDeg
	}
	return NewLevelBasis(tmpl, latitude, names, amplitude, phase)
}

// CurrentBasisFromConstituents builds a current basis from repository values,
// ordered by catalog index.
func CurrentBasisFromConstituents(tmpl Template, latitude float64, cons map[string]CurrentConstituent) (*CurrentBasis, error) {
	names, err := sortedNames(cons)
	if err != nil {
		return nil, err
	}
	n := len(names)
	major, minor := make([]float64, n), make([]float64, n)
	incl, phase := make([]float64, n), make([]float64, n)
	for i, name := range names {
		c := cons[name]
		major[i], minor[i], incl[i], phase[i] = c.MajorAxis, c.MinorAxis, c.InclinationDeg, c.PhaseDeg
	}
	return NewCurrentBasis(tmpl, latitude, names, major, minor, incl, phase)
}

func newHeader(tmpl Template, latitude float64, names []string) (*basisHeader, error) {
	if err := validateLatitude(latitude); err != nil {
		return nil, err
	}
	if !finite(tmpl.Epoch) {
		return nil, fmt.Errorf("%w: reference epoch must be finite", ErrValidation)
	}
	cs := make([]Constituent, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		c, err := LookupConstituent(name)
		if err != nil {
			return nil, err
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("%w: duplicate constituent %s", ErrValidation, c.Name)
		}
		seen[c.Name] = true
		cs[i] = c
	}
	return &basisHeader{
		constituents: cs,
		epoch:        tmpl.Epoch,
		latitude:     latitude,
		options:      tmpl.Options,
	}, nil
}

func sortedNames[T any](cons map[string]T) ([]string, error) {
	names := make([]string, 0, len(cons))
	for name := range cons {
		if _, err := LookupConstituent(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return catalogIndex[normalizeName(names[i])] < catalogIndex[normalizeName(names[j])]
	})
	return names, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

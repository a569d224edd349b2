// Package netcdf serves tidal constituents from gridded NetCDF files.
//
// A level file carries one pair of variables per constituent on lat/lon axes:
//
//	M2_amplitude(lat, lon)  meters
//	M2_phase(lat, lon)      degrees
//
// A current file carries the tidal ellipse per constituent plus bathymetry:
//
//	M2_major_axis, M2_minor_axis   m/s
//	M2_inclination, M2_phase       degrees
//	Bathymetry                     meters, negative below sea level
//
// Files may instead stack the constituents along a leading dimension, with
// their names in a CHAR label variable:
//
//	cons(cons, strlen)                   "M2", "S2", ...
//	amplitude(cons, lat, lon), phase(cons, lat, lon)
//	major_axis, minor_axis, inclination, phase for currents
//
// Every constituent in a file must be in the catalog.
// Cells holding a fill value or NaN are treated as land.
package netcdf

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"sync"

	"go.ngs.io/tidepredictor/internal/adapter/interp"
	"go.ngs.io/tidepredictor/internal/adapter/ncio"
	"go.ngs.io/tidepredictor/internal/domain"
)

// Variable suffixes.
const (
	suffixAmplitude   = "_amplitude"
	suffixPhase       = "_phase"
	suffixMajor       = "_major_axis"
	suffixMinor       = "_minor_axis"
	suffixInclination = "_inclination"

	// Stacked layout: one 3D variable per field over (cons, lat, lon).
	stackedAmplitude   = "amplitude"
	stackedPhase       = "phase"
	stackedMajor       = "major_axis"
	stackedMinor       = "minor_axis"
	stackedInclination = "inclination"
)

var (
	labelNames     = []string{"cons", "constituent", "constituents"}
	bathymetryVars = []string{"Bathymetry", "bathymetry"}
)

// Sampling selects how a point is read from the rasters.
type Sampling int

const (
	// Nearest takes the closest grid cell.
	Nearest Sampling = iota
	// Bilinear blends the four surrounding cells; phases are blended as
	// complex numbers.
	Bilinear
)

// ParseSampling converts "nearest" or "bilinear".
func ParseSampling(s string) (Sampling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest":
		return Nearest, nil
	case "bilinear":
		return Bilinear, nil
	default:
		return Nearest, fmt.Errorf("unknown sampling %q (expected nearest or bilinear)", s)
	}
}

func (s Sampling) String() string {
	if s == Bilinear {
		return "bilinear"
	}
	return "nearest"
}

// Config locates the NetCDF files. Either path may be empty when the
// corresponding kind of prediction is not served.
type Config struct {
	LevelPath   string
	CurrentPath string
	Sampling    Sampling
	// SearchRing is how many cells around a land cell are searched for water.
	SearchRing int
}

// Repository reads constituents from NetCDF rasters. Files are loaded on first
// use and kept in memory; the repository is safe for concurrent use.
type Repository struct {
	cfg Config

	mu      sync.RWMutex
	level   *levelGrids
	current *currentGrids
}

type levelGrids struct {
	names     []string
	amplitude map[string]*interp.Grid2D
	phase     map[string]*interp.Grid2D
}

type currentGrids struct {
	names       []string
	major       map[string]*interp.Grid2D
	minor       map[string]*interp.Grid2D
	inclination map[string]*interp.Grid2D
	phase       map[string]*interp.Grid2D
	bathymetry  *interp.Grid2D
}

// NewRepository creates a repository for cfg. Files are not opened until the
// first query.
func NewRepository(cfg Config) *Repository {
	if cfg.SearchRing < 0 {
		cfg.SearchRing = 0
	}
	return &Repository{cfg: cfg}
}

// LevelConstituents returns the amplitude and phase of every constituent in
// the level file at (lon, lat).
func (r *Repository) LevelConstituents(lon, lat float64) (map[string]domain.LevelConstituent, error) {
	g, err := r.levelGrids()
	if err != nil {
		return nil, err
	}
	ref := g.amplitude[g.names[0]]
	if err := checkDomain(ref, lon, lat); err != nil {
		return nil, err
	}

	out := make(map[string]domain.LevelConstituent, len(g.names))
	for _, name := range g.names {
		amp, pha, err := r.samplePolar(g.amplitude[name], g.phase[name], lon, lat)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = domain.LevelConstituent{Amplitude: amp, PhaseDeg: pha}
	}
	return out, nil
}

// CurrentConstituents returns the tidal ellipse of every constituent in the
// current file at (lon, lat).
func (r *Repository) CurrentConstituents(lon, lat float64) (map[string]domain.CurrentConstituent, error) {
	g, err := r.currentGrids()
	if err != nil {
		return nil, err
	}
	ref := g.major[g.names[0]]
	if err := checkDomain(ref, lon, lat); err != nil {
		return nil, err
	}

	out := make(map[string]domain.CurrentConstituent, len(g.names))
	for _, name := range g.names {
		var c domain.CurrentConstituent
		if c.MajorAxis, c.PhaseDeg, err = r.samplePolar(g.major[name], g.phase[name], lon, lat); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if c.MinorAxis, err = r.sample(g.minor[name], lon, lat); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		// Inclination is an axis direction, not a vector: nearest cell only.
		if c.InclinationDeg, err = r.sampleNearest(g.inclination[name], lon, lat); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = c
	}
	return out, nil
}

// Bathymetry returns the positive water depth at (lon, lat) from the current
// file's bathymetry variable.
func (r *Repository) Bathymetry(lon, lat float64) (float64, error) {
	g, err := r.currentGrids()
	if err != nil {
		return 0, err
	}
	if g.bathymetry == nil {
		return 0, fmt.Errorf("%s has no bathymetry variable (tried: %v)", r.cfg.CurrentPath, bathymetryVars)
	}
	if err := checkDomain(g.bathymetry, lon, lat); err != nil {
		return 0, err
	}
	z, err := r.sample(g.bathymetry, lon, lat)
	if err != nil {
		return 0, err
	}
	if z >= 0 {
		return 0, fmt.Errorf("point (%g, %g) is on land (elevation %.2f m): %w", lon, lat, z, domain.ErrOutOfDomain)
	}
	return -z, nil
}

// Constituents lists the constituent names available in the level file.
func (r *Repository) Constituents() ([]string, error) {
	g, err := r.levelGrids()
	if err != nil {
		return nil, err
	}
	return append([]string(nil), g.names...), nil
}

func checkDomain(g *interp.Grid2D, lon, lat float64) error {
	return domain.CheckDomain(lon, lat, g.X[0], g.X[len(g.X)-1], g.Y[0], g.Y[len(g.Y)-1])
}

// sample reads a scalar field with the configured sampling.
func (r *Repository) sample(g *interp.Grid2D, lon, lat float64) (float64, error) {
	if r.cfg.Sampling == Bilinear {
		v, err := g.InterpolateAt(lon, lat)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, interp.ErrMissing) {
			return 0, err
		}
		// Coastal cell: fall back to the nearest wet cell.
	}
	return r.sampleNearest(g, lon, lat)
}

func (r *Repository) sampleNearest(g *interp.Grid2D, lon, lat float64) (float64, error) {
	i, j, ok := g.NearestValid(lon, lat, r.cfg.SearchRing)
	if !ok {
		return 0, fmt.Errorf("no water cell near (%g, %g): point is %w", lon, lat, domain.ErrOutOfDomain)
	}
	return g.At(i, j), nil
}

// samplePolar reads an amplitude/phase pair from the same cell.
func (r *Repository) samplePolar(amp, pha *interp.Grid2D, lon, lat float64) (float64, float64, error) {
	if r.cfg.Sampling == Bilinear {
		a, p, err := interp.InterpolatePolar(amp, pha, lon, lat)
		if err == nil {
			return a, p, nil
		}
		if !errors.Is(err, interp.ErrMissing) {
			return 0, 0, err
		}
	}
	i, j, ok := amp.NearestValid(lon, lat, r.cfg.SearchRing)
	if !ok || math.IsNaN(pha.At(i, j)) {
		return 0, 0, fmt.Errorf("no water cell near (%g, %g): point is %w", lon, lat, domain.ErrOutOfDomain)
	}
	return amp.At(i, j), pha.At(i, j), nil
}

func (r *Repository) levelGrids() (*levelGrids, error) {
	r.mu.RLock()
	g := r.level
	r.mu.RUnlock()
	if g != nil {
		return g, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.level != nil {
		return r.level, nil
	}
	if r.cfg.LevelPath == "" {
		return nil, errors.New("no level constituent file configured")
	}
	g, err := loadLevel(r.cfg.LevelPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d level constituents from %s", len(g.names), r.cfg.LevelPath)
	r.level = g
	return g, nil
}

func (r *Repository) currentGrids() (*currentGrids, error) {
	r.mu.RLock()
	g := r.current
	r.mu.RUnlock()
	if g != nil {
		return g, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return r.current, nil
	}
	if r.cfg.CurrentPath == "" {
		return nil, errors.New("no current constituent file configured")
	}
	g, err := loadCurrent(r.cfg.CurrentPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d current constituents from %s", len(g.names), r.cfg.CurrentPath)
	r.current = g
	return g, nil
}

// layer locates one constituent in a raster: either its own variables
// (<prefix><suffix>) or layer index of the stacked variables.
type layer struct {
	name   string // Catalog name.
	prefix string
	index  int
}

func (l layer) read(raster *ncio.Raster, stacked bool, field, suffix string) (*interp.Grid2D, error) {
	if stacked {
		return ncio.ReadLayer(raster.DS, field, l.index, raster.Lat, raster.Lon)
	}
	return raster.Grid(l.prefix + suffix)
}

// discover lists the constituents of raster. When the stacked variable
// stackedVar exists, names come from the label variable; otherwise every
// variable ending in suffixes[0] names a constituent and must have all the
// other suffixes. Names outside the catalog are rejected.
func discover(raster *ncio.Raster, stackedVar string, suffixes ...string) ([]layer, bool, error) {
	if ncio.HasVar(raster.DS, stackedVar) {
		labels, err := readLabels(raster)
		if err != nil {
			return nil, false, err
		}
		layers := make([]layer, len(labels))
		for i, label := range labels {
			c, err := domain.LookupConstituent(label)
			if err != nil {
				return nil, false, err
			}
			layers[i] = layer{name: c.Name, prefix: label, index: i}
		}
		return sortLayers(layers), true, nil
	}

	vars, err := ncio.VarNames(raster.DS)
	if err != nil {
		return nil, false, err
	}
	var layers []layer
	for _, v := range vars {
		prefix, ok := strings.CutSuffix(v, suffixes[0])
		if !ok || prefix == "" {
			continue
		}
		c, err := domain.LookupConstituent(prefix)
		if err != nil {
			return nil, false, err
		}
		for _, s := range suffixes[1:] {
			if !ncio.HasVar(raster.DS, prefix+s) {
				return nil, false, fmt.Errorf("constituent %s has %s but no %s", prefix, v, prefix+s)
			}
		}
		layers = append(layers, layer{name: c.Name, prefix: prefix})
	}
	return sortLayers(layers), false, nil
}

func readLabels(raster *ncio.Raster) ([]string, error) {
	for _, name := range labelNames {
		if ncio.HasVar(raster.DS, name) {
			return ncio.ReadLabels(raster.DS, name)
		}
	}
	return nil, fmt.Errorf("constituent label variable not found (tried: %v)", labelNames)
}

func sortLayers(layers []layer) []layer {
	sort.Slice(layers, func(i, j int) bool { return layers[i].name < layers[j].name })
	return layers
}

func names(layers []layer) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.name
	}
	return out
}

func loadLevel(path string) (*levelGrids, error) {
	raster, err := ncio.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = raster.Close() }()

	layers, stacked, err := discover(raster, stackedAmplitude, suffixAmplitude, suffixPhase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("no <NAME>%s/<NAME>%s or %s variables found in %s", suffixAmplitude, suffixPhase, stackedAmplitude, path)
	}

	g := &levelGrids{
		names:     names(layers),
		amplitude: make(map[string]*interp.Grid2D, len(layers)),
		phase:     make(map[string]*interp.Grid2D, len(layers)),
	}
	for _, l := range layers {
		if g.amplitude[l.name], err = l.read(raster, stacked, stackedAmplitude, suffixAmplitude); err != nil {
			return nil, err
		}
		if g.phase[l.name], err = l.read(raster, stacked, stackedPhase, suffixPhase); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func loadCurrent(path string) (*currentGrids, error) {
	raster, err := ncio.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = raster.Close() }()

	layers, stacked, err := discover(raster, stackedMajor, suffixMajor, suffixMinor, suffixInclination, suffixPhase)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("no current ellipse variables found in %s", path)
	}

	g := &currentGrids{
		names:       names(layers),
		major:       make(map[string]*interp.Grid2D, len(layers)),
		minor:       make(map[string]*interp.Grid2D, len(layers)),
		inclination: make(map[string]*interp.Grid2D, len(layers)),
		phase:       make(map[string]*interp.Grid2D, len(layers)),
	}
	fields := []struct {
		stacked, suffix string
		dst             map[string]*interp.Grid2D
	}{
		{stackedMajor, suffixMajor, g.major},
		{stackedMinor, suffixMinor, g.minor},
		{stackedInclination, suffixInclination, g.inclination},
		{stackedPhase, suffixPhase, g.phase},
	}
	for _, l := range layers {
		for _, f := range fields {
			grid, err := l.read(raster, stacked, f.stacked, f.suffix)
			if err != nil {
				return nil, err
			}
			f.dst[l.name] = grid
		}
	}

	for _, name := range bathymetryVars {
		if ncio.HasVar(raster.DS, name) {
			if g.bathymetry, err = raster.Grid(name); err != nil {
				return nil, err
			}
			break
		}
	}
	return g, nil
}

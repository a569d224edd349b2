// Package bathymetry reads water depth from a GEBCO-style elevation grid.
package bathymetry

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"go.ngs.io/tidepredictor/internal/adapter/interp"
	"go.ngs.io/tidepredictor/internal/adapter/ncio"
	"go.ngs.io/tidepredictor/internal/domain"
)

// Elevation variable names tried in order.
var elevationNames = []string{"elevation", "z", "Band1"}

// DefaultMargin is the half-width in degrees of the window read around a query.
const DefaultMargin = 2.0

// LocalStore loads depth from a local NetCDF file (disk or a FUSE mount).
// Only a window around the most recent query is kept in memory; a query
// outside it reloads the window.
type LocalStore struct {
	path   string
	margin float64

	mu   sync.Mutex
	axes *axes
	grid *interp.Grid2D
}

type axes struct {
	lat, lon []float64
	elev     string
	wrap360  bool
}

// NewLocalStore creates a store for the GEBCO file at path.
func NewLocalStore(path string) *LocalStore {
	return &LocalStore{path: path, margin: DefaultMargin}
}

// Depth returns the positive water depth at (lon, lat). Points above sea
// level and points outside the file coverage fail with domain.ErrOutOfDomain.
func (s *LocalStore) Depth(lon, lat float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.axes == nil {
		a, err := readAxes(s.path)
		if err != nil {
			return 0, err
		}
		s.axes = a
	}

	x := lon
	if s.axes.wrap360 {
		x = normalizeLon360(lon)
	}
	lo, hi := bounds(s.axes.lon)
	la, ha := bounds(s.axes.lat)
	if err := domain.CheckDomain(x, lat, lo, hi, la, ha); err != nil {
		return 0, err
	}

	if s.grid == nil || !s.grid.Contains(x, lat) {
		if err := s.load(x, lat); err != nil {
			return 0, err
		}
	}

	z, err := s.grid.InterpolateAt(x, lat)
	if err != nil {
		if !errors.Is(err, interp.ErrMissing) {
			return 0, err
		}
		i, j, ok := s.grid.NearestValid(x, lat, 1)
		if !ok {
			return 0, fmt.Errorf("no elevation data at (%g, %g): point is %w", lon, lat, domain.ErrOutOfDomain)
		}
		z = s.grid.At(i, j)
	}

	// GEBCO elevations are negative below sea level.
	if z >= 0 {
		return 0, fmt.Errorf("point (%g, %g) is on land (elevation %.1f m): %w", lon, lat, z, domain.ErrOutOfDomain)
	}
	return -z, nil
}

// load reads the window of +-margin degrees around (x, lat).
func (s *LocalStore) load(x, lat float64) error {
	raster, err := ncio.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = raster.Close() }()

	w := ncio.Window{}
	w.Lat0, w.Lat1 = span(raster.Lat, lat-s.margin, lat+s.margin)
	w.Lon0, w.Lon1 = span(raster.Lon, x-s.margin, x+s.margin)

	grid, err := ncio.ReadGridWindow(raster.DS, s.axes.elev, raster.Lat, raster.Lon, w)
	if err != nil {
		return fmt.Errorf("failed to load GEBCO grid: %w", err)
	}
	log.Printf("Loaded bathymetry window %dx%d around (%.3f, %.3f)", len(grid.Y), len(grid.X), x, lat)
	s.grid = grid
	return nil
}

func readAxes(path string) (*axes, error) {
	raster, err := ncio.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = raster.Close() }()

	a := &axes{lat: raster.Lat, lon: raster.Lon}
	for _, name := range elevationNames {
		if ncio.HasVar(raster.DS, name) {
			a.elev = name
			break
		}
	}
	if a.elev == "" {
		return nil, fmt.Errorf("%s: elevation variable not found (tried: %v)", path, elevationNames)
	}
	lo, hi := bounds(a.lon)
	a.wrap360 = lo >= 0 && hi > 180
	return a, nil
}

// span returns the half-open index range of axis values within [lo, hi],
// widened by one sample on each side and holding at least two samples.
// Axes may be ascending or descending.
func span(axis []float64, lo, hi float64) (int, int) {
	first, last := -1, -1
	for k, v := range axis {
		if v >= lo && v <= hi {
			if first < 0 {
				first = k
			}
			last = k
		}
	}
	if first < 0 {
		// Window narrower than the grid spacing.
		mid := (lo + hi) / 2
		best := math.Inf(1)
		for k, v := range axis {
			if d := math.Abs(v - mid); d < best {
				best, first, last = d, k, k
			}
		}
	}
	first = max(first-1, 0)
	last = min(last+1, len(axis)-1)
	if last == first && len(axis) > 1 {
		if first > 0 {
			first--
		} else {
			last++
		}
	}
	return first, last + 1
}

func bounds(axis []float64) (float64, float64) {
	lo, hi := axis[0], axis[len(axis)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

func normalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	return lon
}

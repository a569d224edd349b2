// Package memory provides an in-memory constituent repository covering a
// rectangular area with a single set of constituents.
package memory

import (
	"fmt"
	"maps"

	"go.ngs.io/tidepredictor/internal/domain"
)

// Bounds is a lon/lat rectangle, inclusive on every edge.
type Bounds struct {
	MinLon, MaxLon float64
	MinLat, MaxLat float64
}

// Global covers the whole sphere.
var Global = Bounds{MinLon: -180, MaxLon: 180, MinLat: -90, MaxLat: 90}

// Repository returns the same constituents for every point inside Bounds.
// It is read-only after construction and safe for concurrent use.
type Repository struct {
	bounds  Bounds
	level   map[string]domain.LevelConstituent
	current map[string]domain.CurrentConstituent
	depth   float64
}

// NewRepository copies the given constituents. depth is the positive water
// depth returned by Bathymetry.
func NewRepository(bounds Bounds, level map[string]domain.LevelConstituent, current map[string]domain.CurrentConstituent, depth float64) (*Repository, error) {
	if bounds.MinLon > bounds.MaxLon || bounds.MinLat > bounds.MaxLat {
		return nil, fmt.Errorf("%w: empty bounds %+v", domain.ErrValidation, bounds)
	}
	for name := range level {
		if _, err := domain.LookupConstituent(name); err != nil {
			return nil, err
		}
	}
	for name := range current {
		if _, err := domain.LookupConstituent(name); err != nil {
			return nil, err
		}
	}
	return &Repository{
		bounds:  bounds,
		level:   maps.Clone(level),
		current: maps.Clone(current),
		depth:   depth,
	}, nil
}

func (r *Repository) check(lon, lat float64) error {
	b := r.bounds
	return domain.CheckDomain(lon, lat, b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
}

// LevelConstituents returns a copy of the level constituents.
func (r *Repository) LevelConstituents(lon, lat float64) (map[string]domain.LevelConstituent, error) {
	if err := r.check(lon, lat); err != nil {
		return nil, err
	}
	return maps.Clone(r.level), nil
}

// CurrentConstituents returns a copy of the current constituents.
func (r *Repository) CurrentConstituents(lon, lat float64) (map[string]domain.CurrentConstituent, error) {
	if err := r.check(lon, lat); err != nil {
		return nil, err
	}
	return maps.Clone(r.current), nil
}

// Bathymetry returns the configured water depth.
func (r *Repository) Bathymetry(lon, lat float64) (float64, error) {
	if err := r.check(lon, lat); err != nil {
		return 0, err
	}
	if r.depth <= 0 {
		return 0, fmt.Errorf("no water depth for (%g, %g): point is %w", lon, lat, domain.ErrOutOfDomain)
	}
	return r.depth, nil
}

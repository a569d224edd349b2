// Package store defines the constituent repository consumed by the predictors.
package store

import "go.ngs.io/tidepredictor/internal/domain"

// LevelSource provides water-level constituents at a point.
type LevelSource interface {
	// LevelConstituents returns amplitude and phase per constituent name.
	// Coordinates outside the dataset coverage fail with domain.ErrOutOfDomain.
	LevelConstituents(lon, lat float64) (map[string]domain.LevelConstituent, error)
}

// CurrentSource provides current-ellipse constituents and water depth at a point.
type CurrentSource interface {
	// CurrentConstituents returns the tidal ellipse per constituent name.
	CurrentConstituents(lon, lat float64) (map[string]domain.CurrentConstituent, error)

	// Bathymetry returns the positive total water depth in meters.
	Bathymetry(lon, lat float64) (float64, error)
}

// Repository is a complete constituent repository.
type Repository interface {
	LevelSource
	CurrentSource
}

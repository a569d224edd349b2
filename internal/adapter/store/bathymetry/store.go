package bathymetry

import "go.ngs.io/tidepredictor/internal/adapter/store"

// DepthSource provides positive water depth in meters.
type DepthSource interface {
	Depth(lon, lat float64) (float64, error)
}

// Override serves constituents from the wrapped repository and water depth
// from Source.
type Override struct {
	store.Repository
	Source DepthSource
}

// Bathymetry returns the depth reported by Source.
func (o Override) Bathymetry(lon, lat float64) (float64, error) {
	return o.Source.Depth(lon, lat)
}

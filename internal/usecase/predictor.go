package usecase

import (
	"fmt"
	"time"

	"go.ngs.io/tidepredictor/internal/adapter/store"
	"go.ngs.io/tidepredictor/internal/domain"
)

// LevelPredictor predicts water levels from the constituents a repository
// holds for a point.
type LevelPredictor struct {
	repo     store.LevelSource
	template domain.Template
}

// NewLevelPredictor creates a level predictor using tmpl for every basis.
func NewLevelPredictor(repo store.LevelSource, tmpl domain.Template) *LevelPredictor {
	return &LevelPredictor{repo: repo, template: tmpl}
}

// Basis fetches the constituents at (lon, lat) and builds a level basis.
// Repository errors, ErrOutOfDomain included, are returned unchanged.
func (p *LevelPredictor) Basis(lon, lat float64) (*domain.LevelBasis, error) {
	if err := validateCoordinates(lon, lat); err != nil {
		return nil, err
	}
	cons, err := p.repo.LevelConstituents(lon, lat)
	if err != nil {
		return nil, err
	}
	return domain.LevelBasisFromConstituents(p.template, lat, cons)
}

// Predict returns levels from start to end inclusive at the given interval.
func (p *LevelPredictor) Predict(lon, lat float64, start, end time.Time, interval time.Duration) ([]domain.TideLevel, error) {
	times, err := domain.TimeGrid(start, end, interval)
	if err != nil {
		return nil, err
	}
	basis, err := p.Basis(lon, lat)
	if err != nil {
		return nil, err
	}
	series, err := domain.Reconstruct(basis, times)
	if err != nil {
		return nil, err
	}
	return series.Levels(), nil
}

// CurrentPredictor predicts depth-averaged currents and their vertical
// profile.
type CurrentPredictor struct {
	repo     store.CurrentSource
	template domain.Template
	profile  domain.ShearProfile
}

// NewCurrentPredictor creates a current predictor.
func NewCurrentPredictor(repo store.CurrentSource, tmpl domain.Template, profile domain.ShearProfile) *CurrentPredictor {
	return &CurrentPredictor{repo: repo, template: tmpl, profile: profile}
}

// WithProfile returns a copy of p that extrapolates with profile.
func (p *CurrentPredictor) WithProfile(profile domain.ShearProfile) *CurrentPredictor {
	c := *p
	c.profile = profile
	return &c
}

// Profile returns the shear profile in use.
func (p *CurrentPredictor) Profile() domain.ShearProfile { return p.profile }

// Basis fetches the current ellipses at (lon, lat) and builds a current basis.
func (p *CurrentPredictor) Basis(lon, lat float64) (*domain.CurrentBasis, error) {
	if err := validateCoordinates(lon, lat); err != nil {
		return nil, err
	}
	cons, err := p.repo.CurrentConstituents(lon, lat)
	if err != nil {
		return nil, err
	}
	return domain.CurrentBasisFromConstituents(p.template, lat, cons)
}

// PredictDepthAveraged returns (u, v) from start to end inclusive.
func (p *CurrentPredictor) PredictDepthAveraged(lon, lat float64, start, end time.Time, interval time.Duration) ([]domain.CurrentVector, error) {
	times, err := domain.TimeGrid(start, end, interval)
	if err != nil {
		return nil, err
	}
	basis, err := p.Basis(lon, lat)
	if err != nil {
		return nil, err
	}
	return p.DepthAveraged(basis, times)
}

// DepthAveraged reconstructs (u, v) on times from a basis already built.
func (p *CurrentPredictor) DepthAveraged(basis *domain.CurrentBasis, times []time.Time) ([]domain.CurrentVector, error) {
	series, err := domain.Reconstruct(basis, times)
	if err != nil {
		return nil, err
	}
	return series.Currents(), nil
}

// PredictProfile returns currents at every (time, depth) pair, time-major.
// When levels is empty the water column is sampled at evenly spaced depths
// from the seabed to the surface.
func (p *CurrentPredictor) PredictProfile(lon, lat float64, start, end time.Time, interval time.Duration, levels []float64) ([]domain.ProfilePoint, error) {
	times, err := domain.TimeGrid(start, end, interval)
	if err != nil {
		return nil, err
	}
	basis, err := p.Basis(lon, lat)
	if err != nil {
		return nil, err
	}
	return p.ProfileFromBasis(basis, lon, lat, times, levels)
}

// ProfileFromBasis expands the depth-averaged currents of basis over the
// water column at (lon, lat). Only the bathymetry is read from the
// repository.
func (p *CurrentPredictor) ProfileFromBasis(basis *domain.CurrentBasis, lon, lat float64, times []time.Time, levels []float64) ([]domain.ProfilePoint, error) {
	if err := p.profile.Validate(); err != nil {
		return nil, err
	}
	avg, err := p.DepthAveraged(basis, times)
	if err != nil {
		return nil, err
	}
	totalDepth, err := p.repo.Bathymetry(lon, lat)
	if err != nil {
		return nil, err
	}

	depths := levels
	if len(depths) == 0 {
		if depths, err = domain.ProfileDepths(totalDepth, domain.DefaultProfileDepths); err != nil {
			return nil, err
		}
	}
	return p.profile.Expand(avg, totalDepth, depths)
}

func validateCoordinates(lon, lat float64) error {
	if !(lat >= -90 && lat <= 90) {
		return fmt.Errorf("%w: latitude must be between -90 and 90, got %v", domain.ErrValidation, lat)
	}
	if !(lon >= -180 && lon <= 360) {
		return fmt.Errorf("%w: longitude must be between -180 and 360, got %v", domain.ErrValidation, lon)
	}
	return nil
}

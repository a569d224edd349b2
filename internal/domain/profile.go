package domain

import (
	"fmt"
	"math"
)

// DefaultShearExponent is the exponent of the 1/7 power-law profile.
const DefaultShearExponent = 1.0 / 7.0

// DefaultProfileDepths is the number of depths used when none are requested.
const DefaultProfileDepths = 10

// ShearProfile extrapolates a depth-averaged current to a power-law vertical
// profile u(z) = ū·(1+α)·((z+H)/H)^α, which integrates to ū over the column.
type ShearProfile struct {
	Alpha float64
}

// NewShearProfile returns a profile with the given exponent.
func NewShearProfile(alpha float64) (ShearProfile, error) {
	p := ShearProfile{Alpha: alpha}
	if err := p.Validate(); err != nil {
		return ShearProfile{}, err
	}
	return p, nil
}

// Validate checks the shear exponent.
func (p ShearProfile) Validate() error {
	if !finite(p.Alpha) || p.Alpha <= 0 {
		return fmt.Errorf("%w: shear exponent must be positive, got %v", ErrValidation, p.Alpha)
	}
	return nil
}

// Factor returns the ratio of the current at depth to the depth-averaged
// current. depth is in meters, negative below the surface, and must lie in
// [-totalDepth, 0].
func (p ShearProfile) Factor(depth, totalDepth float64) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := validateDepth(depth, totalDepth); err != nil {
		return 0, err
	}
	return (1 + p.Alpha) * math.Pow((depth+totalDepth)/totalDepth, p.Alpha), nil
}

// Expand applies the profile to every (time, depth) pair. Rows are ordered by
// time, then by the order of depths.
func (p ShearProfile) Expand(avg []CurrentVector, totalDepth float64, depths []float64) ([]ProfilePoint, error) {
	factors := make([]float64, len(depths))
	for i, d := range depths {
		f, err := p.Factor(d, totalDepth)
		if err != nil {
			return nil, err
		}
		factors[i] = f
	}

	out := make([]ProfilePoint, 0, len(avg)*len(depths))
	for _, c := range avg {
		for i, d := range depths {
			out = append(out, ProfilePoint{
				Time:            c.Time,
				Depth:           d,
				U:               c.U * factors[i],
				V:               c.V * factors[i],
				UAvg:            c.U,
				VAvg:            c.V,
				TotalWaterDepth: totalDepth,
			})
		}
	}
	return out, nil
}

// ProfileDepths returns n evenly spaced depths from -totalDepth to 0.
func ProfileDepths(totalDepth float64, n int) ([]float64, error) {
	if err := validateTotalDepth(totalDepth); err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: at least two profile depths required, got %d", ErrValidation, n)
	}
	depths := make([]float64, n)
	step := totalDepth / float64(n-1)
	for i := range depths {
		depths[i] = -totalDepth + float64(i)*step
	}
	depths[n-1] = 0
	return depths, nil
}

func validateTotalDepth(totalDepth float64) error {
	if !finite(totalDepth) || totalDepth <= 0 {
		return fmt.Errorf("%w: total water depth must be positive, got %v", ErrValidation, totalDepth)
	}
	return nil
}

func validateDepth(depth, totalDepth float64) error {
	if err := validateTotalDepth(totalDepth); err != nil {
		return err
	}
	if !finite(depth) || depth < -totalDepth || depth > 0 {
		return fmt.Errorf("%w: depth %v outside water column [%v, 0]", ErrValidation, depth, -totalDepth)
	}
	return nil
}

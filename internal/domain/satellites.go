package domain

import (
	"math"
	"math/cmplx"
)

// latClass selects how a satellite amplitude ratio scales with latitude.
type latClass int

const (
	latNone latClass = iota
	latR1            // Diurnal satellites of the third-degree potential.
	latR2            // Semidiurnal satellites of the third-degree potential.
)

// satellite is a line of the spectrum close to a main constituent. The
// Doodson deltas multiply the lunar perigee p, the negative node N' and the
// solar perigee p1; Phase is in cycles.
type satellite struct {
	DP, DN, DP1 float64
	Phase       float64
	Ratio       float64
	Lat         latClass
}

// satelliteTable lists the satellites of the main constituents (Foreman,
// 1977). Pure nodal lines of constituents with a Schureman kind are left out
// because nodalFactors already carries them.
var satelliteTable = map[string][]satellite{
	"O1": {
		{-1, 0, 0, 0.25, 0.0003, latR1},
		{0, -2, 0, 0.50, 0.0058, latNone},
		{0, -1, 0, 0.00, 0.1885, latNone},
		{1, -1, 0, 0.25, 0.0004, latR1},
		{1, 0, 0, 0.75, 0.0029, latR1},
		{1, 1, 0, 0.75, 0.0004, latR1},
		{2, 0, 0, 0.50, 0.0064, latNone},
		{2, 1, 0, 0.50, 0.0010, latNone},
	},
	"K1": {
		{-2, -1, 0, 0.00, 0.0002, latNone},
		{-1, -1, 0, 0.75, 0.0001, latR1},
		{-1, 0, 0, 0.75, 0.0007, latR1},
		{-1, 1, 0, 0.75, 0.0001, latR1},
		{0, -2, 0, 0.00, 0.0001, latNone},
		{0, -1, 0, 0.50, 0.0198, latNone},
		{0, 1, 0, 0.00, 0.1356, latNone},
		{0, 2, 0, 0.50, 0.0029, latNone},
		{1, 0, 0, 0.25, 0.0002, latR1},
		{1, 1, 0, 0.25, 0.0001, latR1},
	},
	"P1": {
		{0, -2, 0, 0.00, 0.0008, latNone},
		{0, -1, 0, 0.50, 0.0112, latNone},
		{0, 0, 2, 0.50, 0.0004, latNone},
		{1, 0, 0, 0.75, 0.0004, latR1},
		{2, 0, 0, 0.50, 0.0015, latNone},
		{2, 1, 0, 0.50, 0.0003, latNone},
	},
	"N2": {
		{-2, -2, 0, 0.50, 0.0006, latNone},
		{-1, 0, 0, 0.25, 0.0004, latR2},
		{0, -2, 0, 0.00, 0.0005, latNone},
		{0, -1, 0, 0.50, 0.0373, latNone},
		{1, 0, 0, 0.75, 0.0001, latR2},
	},
	"M2": {
		{-1, -1, 0, 0.75, 0.0005, latR2},
		{-1, 0, 0, 0.75, 0.0004, latR2},
		{0, -2, 0, 0.00, 0.0005, latNone},
		{0, -1, 0, 0.50, 0.0373, latNone},
		{1, -1, 0, 0.25, 0.0001, latR2},
		{1, 0, 0, 0.75, 0.0009, latR2},
		{1, 1, 0, 0.75, 0.0002, latR2},
		{2, 0, 0, 0.00, 0.0006, latNone},
		{2, 1, 0, 0.00, 0.0002, latNone},
	},
	"S2": {
		{0, 0, -1, 0.00, 0.0022, latNone},
		{1, 0, 0, 0.75, 0.0001, latR2},
		{2, 0, 0, 0.00, 0.0001, latNone},
	},
	"K2": {
		{-1, 0, 0, 0.75, 0.0024, latR2},
		{-1, 1, 0, 0.75, 0.0004, latR2},
		{0, -1, 0, 0.50, 0.0128, latNone},
		{0, 1, 0, 0.00, 0.2980, latNone},
		{0, 2, 0, 0.00, 0.0324, latNone},
	},
}

// Amplitude scale of the third-degree satellites at a given latitude.
// Latitudes closer than 5° to the equator are clamped to ±5° to keep the
// diurnal factor finite.
func latitudeScale(class latClass, latitude float64) float64 {
	if math.Abs(latitude) < 5 {
		latitude = math.Copysign(5, latitude)
	}
	s := math.Sin(Deg2Rad(latitude))
	switch class {
	case latR1:
		return 0.36309 * (1 - 5*s*s) / s
	case latR2:
		return 2.59808 * s
	}
	return 1
}

// satelliteFactors sums the satellites of a main constituent into a
// multiplicative correction (f, u in degrees).
func satelliteFactors(c Constituent, a AstronomicalArguments, latitude float64) (f, u float64) {
	sats := satelliteTable[c.Name]
	if len(sats) == 0 {
		return 1, 0
	}
	z := complex(1, 0)
	for _, s := range sats {
		// Pure nodal lines already shape the Schureman factor.
		if c.Nodal != NodalNone && s.DP == 0 && s.DP1 == 0 {
			continue
		}
		r := s.Ratio * latitudeScale(s.Lat, latitude)
		arg := 2 * math.Pi * (s.DP*a.P + s.DN*a.NP + s.DP1*a.PP + s.Phase)
		z += complex(r*math.Cos(arg), r*math.Sin(arg))
	}
	return cmplx.Abs(z), Rad2Deg(cmplx.Phase(z))
}

// Corrections returns the full nodal and satellite correction of a catalog
// constituent at a latitude. Compound constituents combine the corrections of
// their components as NodalFactors does.
func Corrections(c Constituent, a AstronomicalArguments, latitude float64) (f, u float64) {
	if !c.IsCompound() {
		return mainCorrection(c, a, latitude)
	}
	f = 1
	for _, term := range c.Terms {
		fk, uk := mainCorrection(catalog[catalogIndex[term.Name]], a, latitude)
		f *= math.Pow(fk, math.Abs(term.Coeff))
		u += term.Coeff * uk
	}
	return f, u
}

func mainCorrection(c Constituent, a AstronomicalArguments, latitude float64) (f, u float64) {
	fn, un := nodalFactors(c.Nodal, a)
	fs, us := satelliteFactors(c, a, latitude)
	return fn * fs, un + us
}

package domain

import (
	"math"
	"time"
)

// unixEpochDay is the day number of 1970-01-01T00:00:00Z, counting 0001-01-01
// as day 1 of the proleptic Gregorian calendar.
const unixEpochDay = 719163.0

// astronomicalEpochDay is the origin of the element polynomials (1899-12-31T12:00Z).
const astronomicalEpochDay = 693595.5

// DayNumber converts a time to a fractional day number.
func DayNumber(t time.Time) float64 {
	return float64(t.UnixNano())/(86400*1e9) + unixEpochDay
}

// TimeFromDayNumber is the inverse of DayNumber.
func TimeFromDayNumber(day float64) time.Time {
	ns := (day - unixEpochDay) * 86400 * 1e9
	return time.Unix(0, int64(math.Round(ns))).UTC()
}

// AstronomicalArguments holds the astronomical elements at one instant.
//
// Tau, S, H, P, NP and PP are the lunar time, mean longitude of the moon,
// mean longitude of the sun, lunar perigee, negative lunar node and solar
// perigee, all in cycles. The remaining fields are the Schureman auxiliary
// angles in degrees used by the nodal formulas.
type AstronomicalArguments struct {
	Tau, S, H, P, NP, PP float64

	N  float64 // Longitude of the lunar ascending node.
	Pg float64 // Longitude of the lunar perigee.
	I  float64 // Inclination of the lunar orbit to the equator.
	Nu float64
	Xi float64

	NuPrime    float64 // ν′
	TwoNuPrime float64 // 2ν″
}

var elementPolynomials = [5][4]float64{
	{270.434164, 13.1763965268, -0.0000850, 0.000000039},
	{279.696678, 0.9856473354, 0.00002267, 0.0},
	{334.329556, 0.1114040803, -0.0007739, -0.00000026},
	{-259.183275, 0.0529539222, -0.0001557, -0.000000050},
	{281.220844, 0.0000470684, 0.0000339, 0.000000070},
}

// CalculateAstronomicalArguments evaluates the astronomical elements at a day number.
func CalculateAstronomicalArguments(day float64) AstronomicalArguments {
	d := day - astronomicalEpochDay
	D := d / 10000
	terms := [4]float64{1, d, D * D, D * D * D}

	var el [5]float64
	for i, coeffs := range elementPolynomials {
		var deg float64
		for k, c := range coeffs {
			deg += c * terms[k]
		}
		el[i] = math.Mod(deg/360.0, 1.0)
	}

	a := AstronomicalArguments{
		Tau: math.Mod(day, 1.0) + el[1] - el[0],
		S:   el[0],
		H:   el[1],
		P:   el[2],
		NP:  el[3],
		PP:  el[4],
	}

	a.N = wrapDeg(-a.NP * 360.0)
	a.Pg = wrapDeg(a.P * 360.0)

	n := Deg2Rad(a.N)
	I := math.Acos(0.91370 - 0.03569*math.Cos(n))
	nu := math.Asin(0.08978 * math.Sin(n) / math.Sin(I))
	// atan2 keeps ξ continuous through N = 180°.
	xi := n - 2.0*math.Atan2(0.64412*math.Sin(n/2), math.Cos(n/2)) - nu

	sin2I := math.Sin(2 * I)
	sinI2 := math.Sin(I) * math.Sin(I)
	nuPrime := math.Atan2(sin2I*math.Sin(nu), sin2I*math.Cos(nu)+0.3347)
	twoNuPP := math.Atan2(sinI2*math.Sin(2*nu), sinI2*math.Cos(2*nu)+0.0727)

	a.I = Rad2Deg(I)
	a.Nu = Rad2Deg(nu)
	a.Xi = Rad2Deg(xi)
	a.NuPrime = Rad2Deg(nuPrime)
	a.TwoNuPrime = Rad2Deg(twoNuPP)

	return a
}

// elements returns the six Doodson elements in cycles.
func (a AstronomicalArguments) elements() [6]float64 {
	return [6]float64{a.Tau, a.S, a.H, a.P, a.NP, a.PP}
}

// EquilibriumArgument returns V for a constituent in cycles (not wrapped).
func (a AstronomicalArguments) EquilibriumArgument(c Constituent) float64 {
	el := a.elements()
	v := c.Offset
	for k, n := range c.Doodson {
		v += n * el[k]
	}
	return v
}

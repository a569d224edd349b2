package domain

import (
	"fmt"
	"math"
	"time"
)

// Arguments holds the per-time, per-constituent astronomical arguments used
// by the reconstruction. Rows are times, columns follow Names.
type Arguments struct {
	Times []time.Time
	Names []string
	V     [][]float64 // Equilibrium argument in degrees, [0, 360).
	F     [][]float64 // Nodal amplitude factor.
	U     [][]float64 // Nodal phase correction in degrees.
}

// nodalFactors returns the nodal amplitude factor and phase correction
// (degrees) of a main constituent kind. Formulas follow Schureman (1958).
func nodalFactors(kind NodalKind, a AstronomicalArguments) (f, u float64) {
	I := Deg2Rad(a.I)
	sinI := math.Sin(I)
	cosHalf := math.Cos(I / 2)
	sinHalf := math.Sin(I / 2)

	switch kind {
	case NodalMm:
		return (2.0/3.0 - sinI*sinI) / 0.5021, 0
	case NodalMf:
		return sinI * sinI / 0.1578, -2 * a.Xi
	case NodalO1:
		return sinI * cosHalf * cosHalf / 0.3800, 2*a.Xi - a.Nu
	case NodalJ1:
		return math.Sin(2*I) / 0.7214, -a.Nu
	case NodalOO1:
		return sinI * sinHalf * sinHalf / 0.0164, -2*a.Xi - a.Nu
	case NodalK1:
		sin2I := math.Sin(2 * I)
		f = math.Sqrt(0.8965*sin2I*sin2I + 0.6001*sin2I*math.Cos(Deg2Rad(a.Nu)) + 0.1006)
		return f, -a.NuPrime
	case NodalM2:
		return math.Pow(cosHalf, 4) / 0.9154, 2*a.Xi - 2*a.Nu
	case NodalK2:
		f = math.Sqrt(19.0444*math.Pow(sinI, 4) + 2.7702*sinI*sinI*math.Cos(2*Deg2Rad(a.Nu)) + 0.0981)
		return f, -a.TwoNuPrime
	case NodalL2:
		fM2, uM2 := nodalFactors(NodalM2, a)
		tanHalf := math.Tan(I / 2)
		t2 := tanHalf * tanHalf
		P := Deg2Rad(a.Pg - a.Xi)
		invRa := math.Sqrt(1 - 12*t2*math.Cos(2*P) + 36*t2*t2)
		R := math.Atan2(math.Sin(2*P), 1/(6*t2)-math.Cos(2*P))
		return fM2 * invRa, uM2 - Rad2Deg(R)
	case NodalM3:
		return math.Pow(cosHalf, 6) / 0.8758, 3*a.Xi - 3*a.Nu
	case NodalNone:
		return 1, 0
	}
	return 1, 0
}

// NodalFactors returns f and u (degrees) for a catalog constituent.
// Compound constituents combine their components: f is the product of
// f_k^|c_k| and u the sum of c_k·u_k.
func NodalFactors(c Constituent, a AstronomicalArguments) (f, u float64) {
	if !c.IsCompound() {
		return nodalFactors(c.Nodal, a)
	}
	f = 1
	for _, term := range c.Terms {
		m := catalog[catalogIndex[term.Name]]
		fk, uk := nodalFactors(m.Nodal, a)
		f *= math.Pow(fk, math.Abs(term.Coeff))
		u += term.Coeff * uk
	}
	return f, u
}

// ComputeArguments evaluates the equilibrium argument and nodal corrections
// for every constituent at every time.
//
// epoch is the reference day number (see DayNumber). With GwchNone the
// equilibrium argument is the linear phase 24·f·(t−epoch); GwchLint adds the
// astronomical argument evaluated once at the epoch; otherwise it is
// evaluated astronomically per sample. f and u carry the Schureman nodal
// terms and the latitude-scaled satellites (see Corrections). NodSatNone
// forces f=1, u=0 and NodSatLint interpolates f and u linearly between the
// first and last time.
func ComputeArguments(times []time.Time, epoch, latitude float64, cs []Constituent, opt Options) (*Arguments, error) {
	if err := validateLatitude(latitude); err != nil {
		return nil, err
	}
	if math.IsNaN(epoch) || math.IsInf(epoch, 0) {
		return nil, fmt.Errorf("%w: reference epoch must be finite", ErrValidation)
	}
	for _, c := range cs {
		i, ok := catalogIndex[c.Name]
		if !ok || catalog[i].Index != c.Index {
			return nil, fmt.Errorf("%w: %q", ErrUnknownConstituent, c.Name)
		}
	}

	nt, nc := len(times), len(cs)
	out := &Arguments{
		Times: times,
		Names: make([]string, nc),
		V:     make([][]float64, nt),
		F:     make([][]float64, nt),
		U:     make([][]float64, nt),
	}
	for j, c := range cs {
		out.Names[j] = c.Name
	}

	days := make([]float64, nt)
	for i, t := range times {
		days[i] = DayNumber(t)
		out.V[i] = make([]float64, nc)
		out.F[i] = make([]float64, nc)
		out.U[i] = make([]float64, nc)
	}

	perSampleV := !opt.GwchNone && !opt.GwchLint
	perSampleNodal := !opt.NodSatNone && !(opt.NodSatLint && nt > 1)

	var astro []AstronomicalArguments
	if perSampleV || perSampleNodal {
		astro = make([]AstronomicalArguments, nt)
		for i, d := range days {
			astro[i] = CalculateAstronomicalArguments(d)
		}
	}

	var ref AstronomicalArguments
	if opt.GwchLint && !opt.GwchNone {
		ref = CalculateAstronomicalArguments(epoch)
	}

	for i, d := range days {
		for j, c := range cs {
			var v float64
			switch {
			case opt.GwchNone:
				v = 24 * (d - epoch) * c.FreqCPH
			case opt.GwchLint:
				v = ref.EquilibriumArgument(c) + 24*(d-epoch)*c.FreqCPH
			default:
				v = astro[i].EquilibriumArgument(c)
			}
			out.V[i][j] = wrapDeg(v * 360.0)
		}
	}

	switch {
	case opt.NodSatNone:
		for i := range days {
			for j := range cs {
				out.F[i][j] = 1
			}
		}
	case !perSampleNodal:
		first := CalculateAstronomicalArguments(days[0])
		last := CalculateAstronomicalArguments(days[nt-1])
		span := days[nt-1] - days[0]
		for j, c := range cs {
			f0, u0 := Corrections(c, first, latitude)
			f1, u1 := Corrections(c, last, latitude)
			du := math.Remainder(u1-u0, 360.0)
			for i, d := range days {
				w := 0.0
				if span > 0 {
					w = (d - days[0]) / span
				}
				out.F[i][j] = f0 + w*(f1-f0)
				out.U[i][j] = u0 + w*du
			}
		}
	default:
		for i := range days {
			for j, c := range cs {
				out.F[i][j], out.U[i][j] = Corrections(c, astro[i], latitude)
			}
		}
	}

	return out, nil
}

func validateLatitude(lat float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v must be within [-90, 90]", ErrValidation, lat)
	}
	return nil
}

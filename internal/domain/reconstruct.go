package domain

import (
	"fmt"
	"math/cmplx"
	"time"
)

// Series is the output of a reconstruction. Level is set for level bases,
// U and V for current bases.
type Series struct {
	Times []time.Time
	Level []float64
	U     []float64
	V     []float64
}

// Levels returns the level series as TideLevel values.
func (s *Series) Levels() []TideLevel {
	out := make([]TideLevel, len(s.Level))
	for i, h := range s.Level {
		out[i] = TideLevel{Time: s.Times[i], HeightM: h}
	}
	return out
}

// Currents returns the current series as CurrentVector values.
func (s *Series) Currents() []CurrentVector {
	out := make([]CurrentVector, len(s.U))
	for i := range s.U {
		out[i] = CurrentVector{Time: s.Times[i], U: s.U[i], V: s.V[i]}
	}
	return out
}

// Reconstruct evaluates a basis on a time grid.
//
// Every constituent contributes E·ap + conj(E)·am with E = f·exp(i(V+u)),
// where ap and am are the rotary amplitudes of the basis. For a level basis
// am = conj(ap), so the sum is real and equals Σ f·A·cos(V+u−g).
func Reconstruct(b Basis, times []time.Time) (*Series, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil basis", ErrValidation)
	}
	if err := validateTimes(times); err != nil {
		return nil, err
	}

	h := b.header()
	args, err := ComputeArguments(times, h.epoch, h.latitude, h.constituents, h.options)
	if err != nil {
		return nil, err
	}

	ap, am := b.rotary()
	fit := make([]complex128, len(times))
	for i := range times {
		var sum complex128
		for j := range ap {
			e := complex(args.F[i][j], 0) * cmplx.Exp(complex(0, Deg2Rad(args.V[i][j]+args.U[i][j])))
			sum += e*ap[j] + cmplx.Conj(e)*am[j]
		}
		fit[i] = sum
	}

	out := &Series{Times: append([]time.Time(nil), times...)}
	switch basis := b.(type) {
	case *LevelBasis:
		out.Level = make([]float64, len(fit))
		for i, w := range fit {
			out.Level[i] = real(w) + basis.mean
		}
	case *CurrentBasis:
		out.U = make([]float64, len(fit))
		out.V = make([]float64, len(fit))
		for i, w := range fit {
			out.U[i] = real(w) + basis.meanU
			out.V[i] = imag(w) + basis.meanV
		}
	default:
		return nil, fmt.Errorf("%w: unsupported basis type %T", ErrValidation, b)
	}
	return out, nil
}

func validateTimes(times []time.Time) error {
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return fmt.Errorf("%w: time grid must be strictly increasing at index %d", ErrValidation, i)
		}
	}
	return nil
}

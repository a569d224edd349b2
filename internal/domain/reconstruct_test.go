package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

// regressionLevels is a 13-constituent mid-latitude basis (amplitude m, phase deg).
var regressionLevels = map[string]LevelConstituent{
	"MM":  {Amplitude: 0.0091, PhaseDeg: 353.7},
	"MF":  {Amplitude: 0.018, PhaseDeg: 0.0001},
	"Q1":  {Amplitude: 0.005, PhaseDeg: 126.9},
	"O1":  {Amplitude: 0.0161, PhaseDeg: 299.7},
	"P1":  {Amplitude: 0.031, PhaseDeg: 345.1},
	"K1":  {Amplitude: 0.1064, PhaseDeg: 350.8},
	"N2":  {Amplitude: 0.0961, PhaseDeg: 102.0},
	"M2":  {Amplitude: 0.4350, PhaseDeg: 105.6},
	"S2":  {Amplitude: 0.1543, PhaseDeg: 132.9},
	"K2":  {Amplitude: 0.0419, PhaseDeg: 130.2},
	"MN4": {Amplitude: 0.002, PhaseDeg: 270.0},
	"M4":  {Amplitude: 0.0057, PhaseDeg: 315.0},
	"MS4": {Amplitude: 0.001, PhaseDeg: 0.0006},
}

func hourlyGrid(t *testing.T, start time.Time, hours int) []time.Time {
	t.Helper()
	times, err := TimeGrid(start, start.Add(time.Duration(hours)*time.Hour), time.Hour)
	if err != nil {
		t.Fatalf("TimeGrid: %v", err)
	}
	return times
}

// TestReconstruct_SingleConstituent checks the cosine against hand values.
func TestReconstruct_SingleConstituent(t *testing.T) {
	refTime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tmpl := DefaultTemplate()
	tmpl.Epoch = DayNumber(refTime)
	tmpl.Options = Options{NodSatNone: true, GwchNone: true}

	basis, err := NewLevelBasis(tmpl, 35, []string{"M2"}, []float64{1.0}, []float64{0.0})
	if err != nil {
		t.Fatalf("NewLevelBasis: %v", err)
	}

	m2, _ := LookupConstituent("M2")
	period := 1 / m2.FreqCPH

	cases := []struct {
		hours float64
		want  float64
	}{
		{0, 1.0},
		{period / 4, 0.0},
		{period / 2, -1.0},
		{period, 1.0},
	}
	times := make([]time.Time, len(cases))
	for i, c := range cases {
		times[i] = refTime.Add(time.Duration(c.hours * float64(time.Hour)))
	}

	series, err := Reconstruct(basis, times)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	for i, c := range cases {
		if math.Abs(series.Level[i]-c.want) > 1e-6 {
			t.Errorf("Height at %.4f h: expected %.4f, got %.10f", c.hours, c.want, series.Level[i])
		}
	}
}

func TestReconstruct_EmptyBasisIsFlat(t *testing.T) {
	times := hourlyGrid(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 24)

	tmpl := DefaultTemplate()
	tmpl.MeanLevel = 0.25
	tmpl.MeanU = 0.1
	tmpl.MeanV = -0.2

	level, err := LevelBasisFromConstituents(tmpl, 34, nil)
	if err != nil {
		t.Fatalf("LevelBasisFromConstituents: %v", err)
	}
	ls, err := Reconstruct(level, times)
	if err != nil {
		t.Fatalf("Reconstruct level: %v", err)
	}
	if len(ls.Level) != len(times) {
		t.Fatalf("Expected %d levels, got %d", len(times), len(ls.Level))
	}
	for i, h := range ls.Level {
		if h != 0.25 {
			t.Errorf("Level %d: expected 0.25, got %v", i, h)
		}
	}

	current, err := CurrentBasisFromConstituents(tmpl, 34, map[string]CurrentConstituent{})
	if err != nil {
		t.Fatalf("CurrentBasisFromConstituents: %v", err)
	}
	cs, err := Reconstruct(current, times)
	if err != nil {
		t.Fatalf("Reconstruct current: %v", err)
	}
	for i := range cs.U {
		if cs.U[i] != 0.1 || cs.V[i] != -0.2 {
			t.Errorf("Current %d: expected (0.1, -0.2), got (%v, %v)", i, cs.U[i], cs.V[i])
		}
	}
}

func TestReconstruct_Periodicity(t *testing.T) {
	start := time.Date(2023, 6, 1, 7, 0, 0, 0, time.UTC)

	for _, name := range []string{"M2", "K1", "MF", "M4"} {
		for _, gwchNone := range []bool{false, true} {
			tmpl := DefaultTemplate()
			tmpl.Options = Options{NodSatNone: true, GwchNone: gwchNone}

			basis, err := NewLevelBasis(tmpl, 50, []string{name}, []float64{1.0}, []float64{37.0})
			if err != nil {
				t.Fatalf("NewLevelBasis(%s): %v", name, err)
			}
			c, _ := LookupConstituent(name)
			period := time.Duration(float64(time.Hour) / c.FreqCPH)

			times := []time.Time{start, start.Add(period), start.Add(2 * period), start.Add(3 * period)}
			series, err := Reconstruct(basis, times)
			if err != nil {
				t.Fatalf("Reconstruct(%s): %v", name, err)
			}
			for k := 1; k < len(times); k++ {
				if math.Abs(series.Level[k]-series.Level[0]) > 1e-6 {
					t.Errorf("%s (gwchnone=%v): level after %d periods %.10f differs from %.10f",
						name, gwchNone, k, series.Level[k], series.Level[0])
				}
			}
		}
	}
}

func TestReconstruct_DegenerateEllipse(t *testing.T) {
	times := hourlyGrid(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 30)

	tmpl := DefaultTemplate()
	tmpl.Options = Options{}

	inclination := 30.0
	basis, err := CurrentBasisFromConstituents(tmpl, 56, map[string]CurrentConstituent{
		"M2": {MajorAxis: 1.2, MinorAxis: 0, InclinationDeg: inclination, PhaseDeg: 45},
		"S2": {MajorAxis: 0.4, MinorAxis: 0, InclinationDeg: inclination, PhaseDeg: 200},
	})
	if err != nil {
		t.Fatalf("CurrentBasisFromConstituents: %v", err)
	}

	series, err := Reconstruct(basis, times)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}

	theta := Deg2Rad(inclination)
	var moved bool
	for i := range times {
		cross := series.U[i]*math.Sin(theta) - series.V[i]*math.Cos(theta)
		if math.Abs(cross) > 1e-9 {
			t.Errorf("Time %d: (%.6f, %.6f) is off the %.0f° line by %g", i, series.U[i], series.V[i], inclination, cross)
		}
		if math.Hypot(series.U[i], series.V[i]) > 0.1 {
			moved = true
		}
	}
	if !moved {
		t.Error("Expected a non-trivial rectilinear current")
	}
}

func TestReconstruct_CircularEllipseHasConstantSpeed(t *testing.T) {
	times := hourlyGrid(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 12)

	basis, err := CurrentBasisFromConstituents(DefaultTemplate(), 10, map[string]CurrentConstituent{
		"M2": {MajorAxis: 0.5, MinorAxis: 0.5, InclinationDeg: 0, PhaseDeg: 10},
	})
	if err != nil {
		t.Fatalf("CurrentBasisFromConstituents: %v", err)
	}
	series, err := Reconstruct(basis, times)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	for i, c := range series.Currents() {
		if math.Abs(c.Speed()-0.5) > 1e-9 {
			t.Errorf("Time %d: speed %.10f, expected 0.5", i, c.Speed())
		}
	}
}

func TestReconstruct_KnownBasisRegression(t *testing.T) {
	times := hourlyGrid(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 24)

	basis, err := LevelBasisFromConstituents(DefaultTemplate(), 34, regressionLevels)
	if err != nil {
		t.Fatalf("LevelBasisFromConstituents: %v", err)
	}
	if basis.Len() != 13 {
		t.Fatalf("Expected 13 constituents, got %d", basis.Len())
	}

	series, err := Reconstruct(basis, times)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(series.Level) != 25 {
		t.Fatalf("Expected 25 levels, got %d", len(series.Level))
	}

	maxLevel, minLevel := math.Inf(-1), math.Inf(1)
	var sumAmp float64
	for _, c := range regressionLevels {
		sumAmp += c.Amplitude
	}
	for _, h := range series.Level {
		maxLevel = math.Max(maxLevel, h)
		minLevel = math.Min(minLevel, h)
		if math.Abs(h) > sumAmp {
			t.Errorf("Level %.4f exceeds the sum of amplitudes %.4f", h, sumAmp)
		}
	}
	if maxLevel <= 0 {
		t.Errorf("Expected max level > 0, got %.4f", maxLevel)
	}
	if minLevel >= 0 {
		t.Errorf("Expected min level < 0, got %.4f", minLevel)
	}
}

func TestReconstruct_NodalCorrectionsChangeSeries(t *testing.T) {
	times := hourlyGrid(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 6)

	off := DefaultTemplate()
	on := DefaultTemplate()
	on.Options.NodSatNone = false

	a, err := LevelBasisFromConstituents(off, 34, regressionLevels)
	if err != nil {
		t.Fatal(err)
	}
	b, err := LevelBasisFromConstituents(on, 34, regressionLevels)
	if err != nil {
		t.Fatal(err)
	}
	sa, _ := Reconstruct(a, times)
	sb, _ := Reconstruct(b, times)

	var diff float64
	for i := range times {
		diff = math.Max(diff, math.Abs(sa.Level[i]-sb.Level[i]))
	}
	if diff < 1e-4 || diff > 0.1 {
		t.Errorf("Nodal corrections changed the series by %.6f m, expected a small non-zero change", diff)
	}
}

func TestReconstruct_Errors(t *testing.T) {
	tmpl := DefaultTemplate()

	if _, err := NewLevelBasis(tmpl, 0, []string{"M2", "S2"}, []float64{1}, []float64{0, 0}); !errors.Is(err, ErrValidation) {
		t.Errorf("Length mismatch: expected ErrValidation, got %v", err)
	}
	if _, err := NewCurrentBasis(tmpl, 0, []string{"M2"}, []float64{1}, []float64{0}, nil, []float64{0}); !errors.Is(err, ErrValidation) {
		t.Errorf("Current length mismatch: expected ErrValidation, got %v", err)
	}
	if _, err := LevelBasisFromConstituents(tmpl, 0, map[string]LevelConstituent{"XYZ9": {Amplitude: 1}}); !errors.Is(err, ErrUnknownConstituent) {
		t.Errorf("Unknown name: expected ErrUnknownConstituent, got %v", err)
	}
	if _, err := NewLevelBasis(tmpl, 0, []string{"M2", "m2"}, []float64{1, 1}, []float64{0, 0}); !errors.Is(err, ErrValidation) {
		t.Errorf("Duplicate name: expected ErrValidation, got %v", err)
	}
	if _, err := NewLevelBasis(tmpl, 95, []string{"M2"}, []float64{1}, []float64{0}); !errors.Is(err, ErrValidation) {
		t.Errorf("Bad latitude: expected ErrValidation, got %v", err)
	}

	basis, err := NewLevelBasis(tmpl, 0, []string{"M2"}, []float64{1}, []float64{0})
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := Reconstruct(basis, []time.Time{now, now}); !errors.Is(err, ErrValidation) {
		t.Errorf("Repeated time: expected ErrValidation, got %v", err)
	}
	if _, err := Reconstruct(nil, []time.Time{now}); !errors.Is(err, ErrValidation) {
		t.Errorf("Nil basis: expected ErrValidation, got %v", err)
	}

	series, err := Reconstruct(basis, []time.Time{now})
	if err != nil || len(series.Level) != 1 {
		t.Errorf("Single time: got %v, %v", series, err)
	}
}

func TestBasis_OrderedByCatalogAndImmutable(t *testing.T) {
	basis, err := LevelBasisFromConstituents(DefaultTemplate(), 34, regressionLevels)
	if err != nil {
		t.Fatal(err)
	}
	idx := basis.CatalogIndices()
	for i := 1; i < len(idx); i++ {
		if idx[i] <= idx[i-1] {
			t.Fatalf("Basis not ordered by catalog index: %v", basis.Names())
		}
	}

	amps := basis.Amplitudes()
	amps[0] = 99
	if basis.Amplitudes()[0] == 99 {
		t.Error("Amplitudes() exposed internal storage")
	}
}

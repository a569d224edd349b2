package interp

import (
	"errors"
	"math"
	"testing"
)

func TestBilinearInterpolate_CenterAndCorners(t *testing.T) {
	cell := GridCell{
		X0: 0, X1: 2,
		Y0: 0, Y1: 2,
		V00: 1, V10: 3,
		V01: 5, V11: 7,
	}

	tests := []struct {
		name     string
		x, y     float64
		expected float64
	}{
		{"center", 1, 1, 4},
		{"bottom-left", 0, 0, 1},
		{"bottom-right", 2, 0, 3},
		{"top-left", 0, 2, 5},
		{"top-right", 2, 2, 7},
		{"bottom edge", 1, 0, 2},
	}
	for _, tt := range tests {
		got, err := BilinearInterpolate(cell, tt.x, tt.y)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("%s: expected %.6f, got %.6f", tt.name, tt.expected, got)
		}
	}
}

func TestBilinearInterpolate_Errors(t *testing.T) {
	cell := GridCell{X0: 0, X1: 1, Y0: 0, Y1: 1}
	if _, err := BilinearInterpolate(cell, 1.5, 0.5); err == nil {
		t.Error("Expected error for point outside cell")
	}
	if _, err := BilinearInterpolate(GridCell{X0: 1, X1: 1, Y0: 0, Y1: 1}, 1, 0.5); err == nil {
		t.Error("Expected error for degenerate cell")
	}
}

func testGrid() *Grid2D {
	nan := math.NaN()
	return &Grid2D{
		X: []float64{0, 1, 2, 3},
		Y: []float64{10, 11, 12},
		Values: [][]float64{
			{1, 2, 3, 4},
			{4, nan, 6, 7},
			{nan, nan, 9, 10},
		},
	}
}

func TestGrid2D_Validate(t *testing.T) {
	if err := testGrid().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	bad := []*Grid2D{
		{X: []float64{}, Y: []float64{0}, Values: [][]float64{{}}},
		{X: []float64{0, 1}, Y: []float64{0}, Values: [][]float64{{1}}},
		{X: []float64{1, 0}, Y: []float64{0}, Values: [][]float64{{1, 2}}},
		{X: []float64{0, 1}, Y: []float64{0, 0}, Values: [][]float64{{1, 2}, {3, 4}}},
	}
	for i, g := range bad {
		if err := g.Validate(); err == nil {
			t.Errorf("grid %d: expected validation error", i)
		}
	}
}

func TestGrid2D_Nearest(t *testing.T) {
	g := testGrid()
	tests := []struct {
		x, y         float64
		wantI, wantJ int
	}{
		{0.2, 10.1, 0, 0},
		{1.6, 10.4, 0, 2},
		{0.5, 11.5, 1, 0}, // Ties resolve low.
		{5, 20, 2, 3},     // Clamped to the last cell.
	}
	for _, tt := range tests {
		i, j := g.Nearest(tt.x, tt.y)
		if i != tt.wantI || j != tt.wantJ {
			t.Errorf("Nearest(%v, %v) = (%d, %d), expected (%d, %d)", tt.x, tt.y, i, j, tt.wantI, tt.wantJ)
		}
	}
}

func TestGrid2D_NearestValid(t *testing.T) {
	g := testGrid()

	// (1, 11) is missing; its closest wet neighbour lies to the east.
	i, j, ok := g.NearestValid(1.1, 11, 1)
	if !ok {
		t.Fatal("Expected a wet neighbour")
	}
	if got := g.At(i, j); got != 6 {
		t.Errorf("NearestValid picked %v at (%d, %d), expected 6", got, i, j)
	}

	if _, _, ok := g.NearestValid(1.1, 11, 0); ok {
		t.Error("Ring 0 must not search neighbours")
	}

	dry := &Grid2D{X: []float64{0, 1}, Y: []float64{0, 1}, Values: [][]float64{{math.NaN(), math.NaN()}, {math.NaN(), math.NaN()}}}
	if _, _, ok := dry.NearestValid(0.5, 0.5, 1); ok {
		t.Error("All-missing grid must not yield a cell")
	}
}

func TestGrid2D_InterpolateAt(t *testing.T) {
	g := testGrid()

	got, err := g.InterpolateAt(2.5, 10.5)
	if err != nil {
		t.Fatalf("InterpolateAt: %v", err)
	}
	if math.Abs(got-5) > 1e-12 {
		t.Errorf("Expected 5, got %v", got)
	}

	if _, err := g.InterpolateAt(0.5, 10.5); !errors.Is(err, ErrMissing) {
		t.Errorf("Cell with missing corner: expected ErrMissing, got %v", err)
	}
	if _, err := g.InterpolateAt(-1, 10.5); err == nil {
		t.Error("Expected error outside the grid")
	}
}

func TestInterpolatePolar_WrapsPhase(t *testing.T) {
	amp := &Grid2D{X: []float64{0, 1}, Y: []float64{0, 1}, Values: [][]float64{{1, 1}, {1, 1}}}
	phase := &Grid2D{X: []float64{0, 1}, Y: []float64{0, 1}, Values: [][]float64{{350, 10}, {350, 10}}}

	a, p, err := InterpolatePolar(amp, phase, 0.5, 0.5)
	if err != nil {
		t.Fatalf("InterpolatePolar: %v", err)
	}
	// Halfway between 350 and 10 degrees is 0, not 180.
	if d := math.Abs(math.Remainder(p, 360)); d > 1e-9 {
		t.Errorf("Phase %.6f, expected 0", p)
	}
	if want := math.Cos(10 * math.Pi / 180); math.Abs(a-want) > 1e-12 {
		t.Errorf("Amplitude %.6f, expected %.6f", a, want)
	}
}

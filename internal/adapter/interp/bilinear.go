// Package interp samples regular lon/lat rasters by nearest cell or bilinear weights.
package interp

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sort"
)

// ErrMissing reports that a sample touches a cell without data (land or fill).
var ErrMissing = errors.New("missing value")

// GridCell holds the four corner values of one raster cell.
//
//	V01 ---- V11   Y1
//	 |        |
//	V00 ---- V10   Y0
//	X0       X1
type GridCell struct {
	X0, X1             float64
	Y0, Y1             float64
	V00, V10, V01, V11 float64
}

// weights returns the fractional position of (x, y) inside the cell.
func (c GridCell) weights(x, y float64) (float64, float64, error) {
	if c.X1 <= c.X0 || c.Y1 <= c.Y0 {
		return 0, 0, fmt.Errorf("degenerate cell [%g, %g] x [%g, %g]", c.X0, c.X1, c.Y0, c.Y1)
	}
	const tol = 1e-9
	if x < c.X0-tol || x > c.X1+tol || y < c.Y0-tol || y > c.Y1+tol {
		return 0, 0, fmt.Errorf("point (%.6f, %.6f) lies outside cell [%g, %g] x [%g, %g]", x, y, c.X0, c.X1, c.Y0, c.Y1)
	}
	tx := math.Max(0, math.Min(1, (x-c.X0)/(c.X1-c.X0)))
	ty := math.Max(0, math.Min(1, (y-c.Y0)/(c.Y1-c.Y0)))
	return tx, ty, nil
}

// BilinearInterpolate blends the corner values of cell at (x, y).
func BilinearInterpolate(cell GridCell, x, y float64) (float64, error) {
	tx, ty, err := cell.weights(x, y)
	if err != nil {
		return 0, err
	}
	bottom := cell.V00 + tx*(cell.V10-cell.V00)
	top := cell.V01 + tx*(cell.V11-cell.V01)
	return bottom + ty*(top-bottom), nil
}

// Grid2D is a raster with strictly increasing axes. Values[i][j] is the
// sample at (X[j], Y[i]); NaN marks a cell without data.
type Grid2D struct {
	X      []float64
	Y      []float64
	Values [][]float64
}

// Validate checks axis ordering and the shape of Values.
func (g *Grid2D) Validate() error {
	if len(g.X) == 0 || len(g.Y) == 0 {
		return errors.New("grid axes must not be empty")
	}
	if len(g.Values) != len(g.Y) {
		return fmt.Errorf("grid has %d rows for %d Y coordinates", len(g.Values), len(g.Y))
	}
	for i, row := range g.Values {
		if len(row) != len(g.X) {
			return fmt.Errorf("grid row %d has %d values, expected %d", i, len(row), len(g.X))
		}
	}
	if !strictlyIncreasing(g.X) {
		return errors.New("X coordinates must be strictly increasing")
	}
	if !strictlyIncreasing(g.Y) {
		return errors.New("Y coordinates must be strictly increasing")
	}
	return nil
}

func strictlyIncreasing(axis []float64) bool {
	for i := 1; i < len(axis); i++ {
		if !(axis[i] > axis[i-1]) {
			return false
		}
	}
	return true
}

// Contains reports whether (x, y) lies within the axis bounds.
func (g *Grid2D) Contains(x, y float64) bool {
	return x >= g.X[0] && x <= g.X[len(g.X)-1] && y >= g.Y[0] && y <= g.Y[len(g.Y)-1]
}

// At returns the stored value at row i, column j.
func (g *Grid2D) At(i, j int) float64 {
	return g.Values[i][j]
}

// nearestIndex returns the index of the axis value closest to v.
// Ties resolve to the lower index.
func nearestIndex(axis []float64, v float64) int {
	k := sort.SearchFloat64s(axis, v)
	switch {
	case k == 0:
		return 0
	case k == len(axis):
		return len(axis) - 1
	case v-axis[k-1] <= axis[k]-v:
		return k - 1
	default:
		return k
	}
}

// cellIndex returns the lower index of the axis interval containing v.
func cellIndex(axis []float64, v float64) int {
	if len(axis) < 2 {
		return 0
	}
	k := sort.SearchFloat64s(axis, v)
	if k > 0 {
		k--
	}
	if k > len(axis)-2 {
		k = len(axis) - 2
	}
	return k
}

// Nearest returns the row and column of the cell centre closest to (x, y).
func (g *Grid2D) Nearest(x, y float64) (int, int) {
	return nearestIndex(g.Y, y), nearestIndex(g.X, x)
}

// NearestValid returns the closest cell with data, searching the nearest
// cell first and then up to ring cells around it. ok is false when every
// candidate is missing.
func (g *Grid2D) NearestValid(x, y float64, ring int) (i, j int, ok bool) {
	i0, j0 := g.Nearest(x, y)
	if !math.IsNaN(g.Values[i0][j0]) {
		return i0, j0, true
	}

	best := math.Inf(1)
	for di := -ring; di <= ring; di++ {
		for dj := -ring; dj <= ring; dj++ {
			r, c := i0+di, j0+dj
			if r < 0 || r >= len(g.Y) || c < 0 || c >= len(g.X) || math.IsNaN(g.Values[r][c]) {
				continue
			}
			d := math.Hypot(g.X[c]-x, g.Y[r]-y)
			if d < best {
				best, i, j, ok = d, r, c, true
			}
		}
	}
	return i, j, ok
}

// cell builds the interpolation cell around (x, y).
func (g *Grid2D) cell(x, y float64) (GridCell, error) {
	if len(g.X) < 2 || len(g.Y) < 2 {
		return GridCell{}, errors.New("bilinear sampling needs at least 2x2 cells")
	}
	if !g.Contains(x, y) {
		return GridCell{}, fmt.Errorf("point (%.6f, %.6f) is outside grid range [%g, %g] x [%g, %g]",
			x, y, g.X[0], g.X[len(g.X)-1], g.Y[0], g.Y[len(g.Y)-1])
	}
	i, j := cellIndex(g.Y, y), cellIndex(g.X, x)
	c := GridCell{
		X0: g.X[j], X1: g.X[j+1],
		Y0: g.Y[i], Y1: g.Y[i+1],
		V00: g.Values[i][j], V10: g.Values[i][j+1],
		V01: g.Values[i+1][j], V11: g.Values[i+1][j+1],
	}
	if math.IsNaN(c.V00) || math.IsNaN(c.V10) || math.IsNaN(c.V01) || math.IsNaN(c.V11) {
		return c, ErrMissing
	}
	return c, nil
}

// InterpolateAt performs bilinear interpolation at (x, y). A cell with a
// missing corner fails with ErrMissing.
func (g *Grid2D) InterpolateAt(x, y float64) (float64, error) {
	c, err := g.cell(x, y)
	if err != nil {
		return 0, err
	}
	return BilinearInterpolate(c, x, y)
}

// InterpolatePolar interpolates an amplitude/phase pair as a complex number so
// that phases either side of 0/360 blend correctly. Both grids must share axes.
func InterpolatePolar(amp, phase *Grid2D, x, y float64) (float64, float64, error) {
	if len(amp.X) != len(phase.X) || len(amp.Y) != len(phase.Y) {
		return 0, 0, errors.New("amplitude and phase grids differ in shape")
	}
	ca, err := amp.cell(x, y)
	if err != nil {
		return 0, 0, err
	}
	cp, err := phase.cell(x, y)
	if err != nil {
		return 0, 0, err
	}

	re := GridCell{X0: ca.X0, X1: ca.X1, Y0: ca.Y0, Y1: ca.Y1}
	im := re
	re.V00, im.V00 = polar(ca.V00, cp.V00)
	re.V10, im.V10 = polar(ca.V10, cp.V10)
	re.V01, im.V01 = polar(ca.V01, cp.V01)
	re.V11, im.V11 = polar(ca.V11, cp.V11)

	r, err := BilinearInterpolate(re, x, y)
	if err != nil {
		return 0, 0, err
	}
	m, err := BilinearInterpolate(im, x, y)
	if err != nil {
		return 0, 0, err
	}

	z := complex(r, m)
	deg := cmplx.Phase(z) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return cmplx.Abs(z), deg, nil
}

func polar(a, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return a * math.Cos(rad), a * math.Sin(rad)
}

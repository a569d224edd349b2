// Package ncio reads lon/lat rasters from NetCDF files into interp grids.
package ncio

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/tidepredictor/internal/adapter/interp"
)

// Axis name candidates tried in order.
var (
	LatNames = []string{"lat", "latitude", "y"}
	LonNames = []string{"lon", "longitude", "x"}
)

// Window selects a half-open index range [Lat0, Lat1) x [Lon0, Lon1) of a raster.
type Window struct {
	Lat0, Lat1 int
	Lon0, Lon1 int
}

// ReadAxis reads the first 1D variable found among names.
func ReadAxis(ds netcdf.Dataset, names ...string) ([]float64, error) {
	for _, name := range names {
		v, err := ds.Var(name)
		if err != nil {
			continue
		}
		dims, err := v.Dims()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
		}
		if len(dims) != 1 {
			return nil, fmt.Errorf("axis %s is %dD, expected 1D", name, len(dims))
		}
		n, err := dims[0].Len()
		if err != nil {
			return nil, err
		}
		return readFloats(v, []uint64{0}, []uint64{n})
	}
	return nil, fmt.Errorf("axis variable not found (tried: %v)", names)
}

// HasVar reports whether the dataset defines a variable called name.
func HasVar(ds netcdf.Dataset, name string) bool {
	_, err := ds.Var(name)
	return err == nil
}

// ReadGrid reads the 2D variable name on the given axes. Fill values and
// missing values become NaN; scale_factor and add_offset are applied.
// Descending axes are flipped so the returned grid is always increasing.
func ReadGrid(ds netcdf.Dataset, name string, lat, lon []float64) (*interp.Grid2D, error) {
	return ReadGridWindow(ds, name, lat, lon, Window{Lat1: len(lat), Lon1: len(lon)})
}

// ReadGridWindow reads the sub-raster w of the 2D variable name.
func ReadGridWindow(ds netcdf.Dataset, name string, lat, lon []float64, w Window) (*interp.Grid2D, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s not found: %w", name, err)
	}
	return readPlane(v, name, nil, lat, lon, w)
}

// ReadLayer reads layer k of a 3D variable whose leading dimension indexes
// constituents, such as amplitude(cons, lat, lon).
func ReadLayer(ds netcdf.Dataset, name string, k int, lat, lon []float64) (*interp.Grid2D, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s not found: %w", name, err)
	}
	dims, err := v.LenDims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	if len(dims) != 3 {
		return nil, fmt.Errorf("%s is %dD, expected 3D", name, len(dims))
	}
	if k < 0 || uint64(k) >= dims[0] {
		return nil, fmt.Errorf("layer %d out of range for %s (%d layers)", k, name, dims[0])
	}
	return readPlane(v, name, []uint64{uint64(k)}, lat, lon, Window{Lat1: len(lat), Lon1: len(lon)})
}

// readPlane reads window w of the last two dimensions of v, with the leading
// dimensions fixed at lead.
func readPlane(v netcdf.Var, name string, lead []uint64, lat, lon []float64, w Window) (*interp.Grid2D, error) {
	if w.Lat0 < 0 || w.Lon0 < 0 || w.Lat1 > len(lat) || w.Lon1 > len(lon) || w.Lat0 >= w.Lat1 || w.Lon0 >= w.Lon1 {
		return nil, fmt.Errorf("invalid window %+v for %dx%d raster", w, len(lat), len(lon))
	}

	dims, err := v.LenDims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	if len(dims) != len(lead)+2 {
		return nil, fmt.Errorf("%s is %dD, expected %dD", name, len(dims), len(lead)+2)
	}
	d0, d1 := dims[len(lead)], dims[len(lead)+1]

	slab := func(s0, s1, c0, c1 int) ([]float64, error) {
		start := append(append([]uint64(nil), lead...), uint64(s0), uint64(s1))
		count := make([]uint64, len(lead), len(lead)+2)
		for i := range count {
			count[i] = 1
		}
		count = append(count, uint64(c0), uint64(c1))
		return readFloats(v, start, count)
	}

	nLat, nLon := w.Lat1-w.Lat0, w.Lon1-w.Lon0
	var values [][]float64
	switch {
	case d0 == uint64(len(lat)) && d1 == uint64(len(lon)):
		flat, err := slab(w.Lat0, w.Lon0, nLat, nLon)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		values = reshape(flat, nLat, nLon)
	case d0 == uint64(len(lon)) && d1 == uint64(len(lat)):
		flat, err := slab(w.Lon0, w.Lat0, nLon, nLat)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		values = transpose(reshape(flat, nLon, nLat))
	default:
		return nil, fmt.Errorf("%s has shape [%d, %d], expected [%d, %d] or [%d, %d]",
			name, d0, d1, len(lat), len(lon), len(lon), len(lat))
	}

	unpack(v, values)

	g := &interp.Grid2D{
		X:      append([]float64(nil), lon[w.Lon0:w.Lon1]...),
		Y:      append([]float64(nil), lat[w.Lat0:w.Lat1]...),
		Values: values,
	}
	orient(g)
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid grid %s: %w", name, err)
	}
	return g, nil
}

// VarNames lists the variables defined in the dataset, in file order.
func VarNames(ds netcdf.Dataset) ([]string, error) {
	n, err := ds.NVars()
	if err != nil {
		return nil, fmt.Errorf("failed to count variables: %w", err)
	}
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name, err := ds.VarN(i).Name()
		if err != nil {
			return nil, fmt.Errorf("failed to read name of variable %d: %w", i, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// ReadLabels reads a 2D CHAR variable of fixed-width labels, one per row,
// trimming padding NULs and spaces.
func ReadLabels(ds netcdf.Dataset, name string) ([]string, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s not found: %w", name, err)
	}
	if t, err := v.Type(); err != nil || t != netcdf.CHAR {
		return nil, fmt.Errorf("%s must be a CHAR variable", name)
	}
	dims, err := v.LenDims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions of %s: %w", name, err)
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("%s is %dD, expected 2D (label, length)", name, len(dims))
	}
	buf := make([]byte, dims[0]*dims[1])
	if err := v.ReadBytes(buf); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	out := make([]string, dims[0])
	width := int(dims[1])
	for i := range out {
		out[i] = strings.Trim(string(buf[i*width:(i+1)*width]), "\x00 ")
	}
	return out, nil
}

// readFloats reads a hyperslab of any numeric type as float64.
func readFloats(v netcdf.Var, start, count []uint64) ([]float64, error) {
	t, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get var type: %w", err)
	}
	n := 1
	for _, c := range count {
		n *= int(c)
	}

	switch t {
	case netcdf.DOUBLE:
		out := make([]float64, n)
		return out, v.ReadFloat64Slice(out, start, count)
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if err := v.ReadFloat32Slice(buf, start, count); err != nil {
			return nil, err
		}
		return widen(buf), nil
	case netcdf.INT:
		buf := make([]int32, n)
		if err := v.ReadInt32Slice(buf, start, count); err != nil {
			return nil, err
		}
		return widen(buf), nil
	case netcdf.SHORT:
		buf := make([]int16, n)
		if err := v.ReadInt16Slice(buf, start, count); err != nil {
			return nil, err
		}
		return widen(buf), nil
	default:
		return nil, fmt.Errorf("unsupported var type: %v", t)
	}
}

func widen[T float32 | int32 | int16](in []T) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = float64(x)
	}
	return out
}

func reshape(flat []float64, rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = flat[i*cols : (i+1)*cols]
	}
	return out
}

func transpose(in [][]float64) [][]float64 {
	if len(in) == 0 {
		return in
	}
	out := make([][]float64, len(in[0]))
	for j := range out {
		out[j] = make([]float64, len(in))
		for i := range in {
			out[j][i] = in[i][j]
		}
	}
	return out
}

// unpack marks fill cells as NaN and applies CF packing attributes in place.
func unpack(v netcdf.Var, values [][]float64) {
	fills := attrFloats(v, "_FillValue", "missing_value")
	scale, hasScale := attrFloat(v, "scale_factor")
	offset, hasOffset := attrFloat(v, "add_offset")

	for _, row := range values {
		for j, x := range row {
			if isFill(x, fills) {
				row[j] = math.NaN()
				continue
			}
			if hasScale {
				x *= scale
			}
			if hasOffset {
				x += offset
			}
			row[j] = x
		}
	}
}

func isFill(x float64, fills []float64) bool {
	if math.IsNaN(x) || math.Abs(x) >= 9.9e36 {
		return true
	}
	for _, f := range fills {
		if x == f {
			return true
		}
	}
	return false
}

func attrFloats(v netcdf.Var, names ...string) []float64 {
	var out []float64
	for _, name := range names {
		if f, ok := attrFloat(v, name); ok {
			out = append(out, f)
		}
	}
	return out
}

func attrFloat(v netcdf.Var, name string) (float64, bool) {
	a := v.Attr(name)
	n, err := a.Len()
	if err != nil || n == 0 {
		return 0, false
	}
	f64 := make([]float64, n)
	if err := a.ReadFloat64s(f64); err == nil {
		return f64[0], true
	}
	f32 := make([]float32, n)
	if err := a.ReadFloat32s(f32); err == nil {
		return float64(f32[0]), true
	}
	i32 := make([]int32, n)
	if err := a.ReadInt32s(i32); err == nil {
		return float64(i32[0]), true
	}
	i16 := make([]int16, n)
	if err := a.ReadInt16s(i16); err == nil {
		return float64(i16[0]), true
	}
	return 0, false
}

// orient flips descending axes so that both axes increase.
func orient(g *interp.Grid2D) {
	if len(g.Y) > 1 && g.Y[0] > g.Y[len(g.Y)-1] {
		reverse(g.Y)
		for i, k := 0, len(g.Values)-1; i < k; i, k = i+1, k-1 {
			g.Values[i], g.Values[k] = g.Values[k], g.Values[i]
		}
	}
	if len(g.X) > 1 && g.X[0] > g.X[len(g.X)-1] {
		reverse(g.X)
		for _, row := range g.Values {
			reverse(row)
		}
	}
}

func reverse(s []float64) {
	for i, k := 0, len(s)-1; i < k; i, k = i+1, k-1 {
		s[i], s[k] = s[k], s[i]
	}
}

// ErrNoAxis is returned by Open when a file lacks lat/lon coordinates.
var ErrNoAxis = errors.New("missing lat/lon axis")

// Raster is an open NetCDF file with its coordinate axes read.
type Raster struct {
	DS  netcdf.Dataset
	Lat []float64
	Lon []float64
}

// Open opens path read-only and reads its lat/lon axes.
func Open(path string) (*Raster, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file %s: %w", path, err)
	}
	lat, err := ReadAxis(ds, LatNames...)
	if err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("%s: %w: %w", path, ErrNoAxis, err)
	}
	lon, err := ReadAxis(ds, LonNames...)
	if err != nil {
		_ = ds.Close()
		return nil, fmt.Errorf("%s: %w: %w", path, ErrNoAxis, err)
	}
	return &Raster{DS: ds, Lat: lat, Lon: lon}, nil
}

// Grid reads the whole 2D variable name.
func (r *Raster) Grid(name string) (*interp.Grid2D, error) {
	return ReadGrid(r.DS, name, r.Lat, r.Lon)
}

// Close closes the underlying dataset.
func (r *Raster) Close() error {
	return r.DS.Close()
}

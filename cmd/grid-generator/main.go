// Package main generates synthetic level and current constituent grids in
// NetCDF for development and testing.
//
// Constituents are read from CSV tables (see internal/adapter/store/csv) and
// spread over a regular grid: amplitudes taper and phases lag with distance
// from a reference point, with a smooth spatial ripple on top.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/fhs/go-netcdf/netcdf"

	"go.ngs.io/tidepredictor/internal/adapter/store/csv"
	"go.ngs.io/tidepredictor/internal/domain"
)

// RegionalGrid defines the geographic bounds and resolution.
type RegionalGrid struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
}

func (g RegionalGrid) axes() (lat, lon []float64, err error) {
	if !(g.Resolution > 0) || g.LatMax < g.LatMin || g.LonMax < g.LonMin {
		return nil, nil, fmt.Errorf("invalid grid %+v", g)
	}
	nLat := int(math.Round((g.LatMax-g.LatMin)/g.Resolution)) + 1
	nLon := int(math.Round((g.LonMax-g.LonMin)/g.Resolution)) + 1
	lat = make([]float64, nLat)
	for i := range lat {
		lat[i] = g.LatMin + float64(i)*g.Resolution
	}
	lon = make([]float64, nLon)
	for j := range lon {
		lon[j] = g.LonMin + float64(j)*g.Resolution
	}
	return lat, lon, nil
}

// Generator builds the grids.
type Generator struct {
	Grid   RegionalGrid
	RefLat float64
	RefLon float64
	// Depth is the water depth at the reference point; it shoals to a
	// quarter of that at the edge of the taper.
	Depth float64
}

func main() {
	levelCSV := flag.String("level-csv", "./data/level_constituents.csv", "CSV with level constituents")
	currentCSV := flag.String("current-csv", "", "CSV with current ellipses (optional)")
	outDir := flag.String("out", "./data/grids", "Output directory for NetCDF files")
	region := flag.String("region", "northsea", "Region: northsea, global, or custom")
	latMin := flag.Float64("lat-min", 50.0, "Minimum latitude (custom region)")
	latMax := flag.Float64("lat-max", 62.0, "Maximum latitude (custom region)")
	lonMin := flag.Float64("lon-min", -5.0, "Minimum longitude (custom region)")
	lonMax := flag.Float64("lon-max", 10.0, "Maximum longitude (custom region)")
	resolution := flag.Float64("resolution", 0.1, "Grid resolution in degrees")
	refLat := flag.Float64("ref-lat", 56.0, "Latitude of the reference point")
	refLon := flag.Float64("ref-lon", 2.0, "Longitude of the reference point")
	depth := flag.Float64("depth", 60, "Water depth at the reference point in meters")
	flag.Parse()

	var grid RegionalGrid
	switch *region {
	case "northsea":
		grid = RegionalGrid{LatMin: 50, LatMax: 62, LonMin: -5, LonMax: 10, Resolution: *resolution}
	case "global":
		// Lower resolution for global
		grid = RegionalGrid{LatMin: -90, LatMax: 90, LonMin: -180, LonMax: 180, Resolution: 0.5}
	case "custom":
		grid = RegionalGrid{LatMin: *latMin, LatMax: *latMax, LonMin: *lonMin, LonMax: *lonMax, Resolution: *resolution}
	default:
		log.Fatalf("Unknown region: %s (use northsea, global, or custom)", *region)
	}

	gen := Generator{Grid: grid, RefLat: *refLat, RefLon: *refLon, Depth: *depth}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	level, err := csv.LoadLevelFile(*levelCSV)
	if err != nil {
		log.Fatalf("Failed to read level CSV: %v", err)
	}
	levelPath := filepath.Join(*outDir, "level.nc")
	if err := gen.WriteLevel(levelPath, level); err != nil {
		log.Fatalf("Failed to write %s: %v", levelPath, err)
	}
	log.Printf("Generated %s with %d constituents", levelPath, len(level))

	if *currentCSV != "" {
		current, err := csv.LoadCurrentFile(*currentCSV)
		if err != nil {
			log.Fatalf("Failed to read current CSV: %v", err)
		}
		currentPath := filepath.Join(*outDir, "current.nc")
		if err := gen.WriteCurrent(currentPath, current); err != nil {
			log.Fatalf("Failed to write %s: %v", currentPath, err)
		}
		log.Printf("Generated %s with %d constituents", currentPath, len(current))
	}

	lat, lon, _ := grid.axes()
	log.Printf("Grid: %.1f°-%.1f°N, %.1f°-%.1f°E, %d × %d points",
		grid.LatMin, grid.LatMax, grid.LonMin, grid.LonMax, len(lat), len(lon))
}

// taper is 1 at the reference point and falls to 0.5 about ten degrees away.
func (g Generator) taper(lat, lon float64) (factor, dist float64) {
	dLat, dLon := lat-g.RefLat, lon-g.RefLon
	dist = math.Hypot(dLat, dLon)
	factor = math.Cos(dist * math.Pi / 20)
	if factor < 0.5 {
		factor = 0.5
	}
	return factor, dist
}

func ripple(lat, lon float64) float64 {
	return 1 + 0.1*math.Sin(lat*math.Pi/15) + 0.05*math.Cos(lon*math.Pi/20)
}

func phaseShift(phase, lat, lon, dist float64) float64 {
	p := math.Mod(phase+2*dist+8*math.Sin(lat*math.Pi/30)+6*math.Cos(lon*math.Pi/40), 360)
	if p < 0 {
		p += 360
	}
	return p
}

// WriteLevel writes <NAME>_amplitude and <NAME>_phase for every constituent.
func (g Generator) WriteLevel(path string, cons map[string]domain.LevelConstituent) error {
	lat, lon, err := g.Grid.axes()
	if err != nil {
		return err
	}
	fields := make(map[string][]float64, 2*len(cons))
	for _, name := range sortedKeys(cons) {
		c := cons[name]
		amp := make([]float64, 0, len(lat)*len(lon))
		pha := make([]float64, 0, len(lat)*len(lon))
		for _, y := range lat {
			for _, x := range lon {
				f, d := g.taper(y, x)
				amp = append(amp, c.Amplitude*f*ripple(y, x))
				pha = append(pha, phaseShift(c.PhaseDeg, y, x, d))
			}
		}
		fields[name+"_amplitude"] = amp
		fields[name+"_phase"] = pha
	}
	return writeNetCDF(path, lat, lon, fields)
}

// WriteCurrent writes the ellipse parameters of every constituent and a
// Bathymetry variable (negative below sea level).
func (g Generator) WriteCurrent(path string, cons map[string]domain.CurrentConstituent) error {
	lat, lon, err := g.Grid.axes()
	if err != nil {
		return err
	}
	n := len(lat) * len(lon)
	fields := make(map[string][]float64, 4*len(cons)+1)

	bathy := make([]float64, 0, n)
	for _, y := range lat {
		for _, x := range lon {
			f, _ := g.taper(y, x)
			// 1 at the reference point, 0.25 at the edge of the taper.
			bathy = append(bathy, -g.Depth*(1.5*f-0.5))
		}
	}
	fields["Bathymetry"] = bathy

	for _, name := range sortedKeys(cons) {
		c := cons[name]
		major, minor := make([]float64, 0, n), make([]float64, 0, n)
		incl, pha := make([]float64, 0, n), make([]float64, 0, n)
		for _, y := range lat {
			for _, x := range lon {
				f, d := g.taper(y, x)
				r := ripple(y, x)
				major = append(major, c.MajorAxis*f*r)
				minor = append(minor, c.MinorAxis*f*r)
				incl = append(incl, c.InclinationDeg+5*math.Sin(x*math.Pi/20))
				pha = append(pha, phaseShift(c.PhaseDeg, y, x, d))
			}
		}
		fields[name+"_major_axis"] = major
		fields[name+"_minor_axis"] = minor
		fields[name+"_inclination"] = incl
		fields[name+"_phase"] = pha
	}
	return writeNetCDF(path, lat, lon, fields)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeNetCDF writes lat/lon axes and one DOUBLE variable per field.
func writeNetCDF(path string, lat, lon []float64, fields map[string][]float64) error {
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer ds.Close()

	latDim, err := ds.AddDim("lat", uint64(len(lat)))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("lon", uint64(len(lon)))
	if err != nil {
		return err
	}

	latVar, err := ds.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}

	names := sortedKeys(fields)
	vars := make([]netcdf.Var, len(names))
	for i, name := range names {
		if vars[i], err = ds.AddVar(name, netcdf.DOUBLE, []netcdf.Dim{latDim, lonDim}); err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
	}
	if err := ds.EndDef(); err != nil {
		return err
	}

	if err := latVar.WriteFloat64s(lat); err != nil {
		return err
	}
	if err := lonVar.WriteFloat64s(lon); err != nil {
		return err
	}
	for i, name := range names {
		if err := vars[i].WriteFloat64s(fields[name]); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

package main

import (
	"math"
	"path/filepath"
	"testing"

	"go.ngs.io/tidepredictor/internal/adapter/store/netcdf"
	"go.ngs.io/tidepredictor/internal/domain"
)

func TestGenerator_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	gen := Generator{
		Grid:   RegionalGrid{LatMin: 54, LatMax: 58, LonMin: 0, LonMax: 4, Resolution: 0.5},
		RefLat: 56,
		RefLon: 2,
		Depth:  40,
	}

	levelPath := filepath.Join(dir, "level.nc")
	if err := gen.WriteLevel(levelPath, map[string]domain.LevelConstituent{
		"M2": {Amplitude: 1.0, PhaseDeg: 100},
		"K1": {Amplitude: 0.1, PhaseDeg: 350},
	}); err != nil {
		t.Fatalf("WriteLevel: %v", err)
	}
	currentPath := filepath.Join(dir, "current.nc")
	if err := gen.WriteCurrent(currentPath, map[string]domain.CurrentConstituent{
		"M2": {MajorAxis: 0.5, MinorAxis: 0.1, InclinationDeg: 30, PhaseDeg: 200},
	}); err != nil {
		t.Fatalf("WriteCurrent: %v", err)
	}

	repo := netcdf.NewRepository(netcdf.Config{LevelPath: levelPath, CurrentPath: currentPath})

	level, err := repo.LevelConstituents(2, 56)
	if err != nil {
		t.Fatalf("LevelConstituents: %v", err)
	}
	if len(level) != 2 {
		t.Fatalf("Expected 2 constituents, got %v", level)
	}
	wantAmp := 1.0 * ripple(56, 2)
	if math.Abs(level["M2"].Amplitude-wantAmp) > 1e-9 {
		t.Errorf("M2 amplitude = %v, expected %v", level["M2"].Amplitude, wantAmp)
	}
	if want := phaseShift(100, 56, 2, 0); math.Abs(level["M2"].PhaseDeg-want) > 1e-9 {
		t.Errorf("M2 phase = %v, expected %v", level["M2"].PhaseDeg, want)
	}

	current, err := repo.CurrentConstituents(2, 56)
	if err != nil {
		t.Fatalf("CurrentConstituents: %v", err)
	}
	if current["M2"].MajorAxis <= current["M2"].MinorAxis {
		t.Errorf("Unexpected ellipse %+v", current["M2"])
	}

	depth, err := repo.Bathymetry(2, 56)
	if err != nil || math.Abs(depth-40) > 1e-9 {
		t.Errorf("Bathymetry = %v, %v; expected 40", depth, err)
	}

	// The taper flattens at half amplitude far from the reference point.
	far, err := repo.LevelConstituents(0, 54)
	if err != nil {
		t.Fatal(err)
	}
	if far["M2"].Amplitude >= level["M2"].Amplitude {
		t.Errorf("Amplitude does not taper: %v >= %v", far["M2"].Amplitude, level["M2"].Amplitude)
	}
}

func TestRegionalGrid_Axes(t *testing.T) {
	lat, lon, err := RegionalGrid{LatMin: 50, LatMax: 51, LonMin: -1, LonMax: 1, Resolution: 0.1}.axes()
	if err != nil {
		t.Fatal(err)
	}
	if len(lat) != 11 || len(lon) != 21 {
		t.Errorf("Axes %d × %d, expected 11 × 21", len(lat), len(lon))
	}
	if _, _, err := (RegionalGrid{LatMin: 1, LatMax: 0, Resolution: 1}).axes(); err == nil {
		t.Error("Expected error for inverted bounds")
	}
}

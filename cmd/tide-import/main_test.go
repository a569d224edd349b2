package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.ngs.io/tidepredictor/internal/adapter/store/sqlite"
	"go.ngs.io/tidepredictor/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestImportSite(t *testing.T) {
	dir := t.TempDir()
	repo, err := sqlite.Open(filepath.Join(dir, "sites.db"), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = repo.Close() }()

	level := writeFile(t, dir, "level.csv", "constituent,amplitude_m,phase_deg\nM2,1.5,80\nS2,0.5,120\nk1,0.1,200\n")
	current := writeFile(t, dir, "current.csv",
		"constituent,major_axis_m_s,minor_axis_m_s,inclination_deg,phase_deg\nM2,0.7,0.05,45,300\n")

	nLevel, nCurrent, err := importSite(repo, importRequest{
		Site:       sqlite.Site{ID: "ABD", Name: "Aberdeen", Latitude: 57.14, Longitude: -2.08, DepthM: 12},
		LevelCSV:   level,
		CurrentCSV: current,
	})
	if err != nil {
		t.Fatalf("importSite: %v", err)
	}
	if nLevel != 3 || nCurrent != 1 {
		t.Errorf("Imported %d level and %d current constituents", nLevel, nCurrent)
	}

	cons, err := repo.LevelConstituents(-2.08, 57.14)
	if err != nil {
		t.Fatalf("LevelConstituents: %v", err)
	}
	if cons["K1"].Amplitude != 0.1 {
		t.Errorf("K1 not normalised: %v", cons)
	}
	depth, err := repo.Bathymetry(-2.08, 57.14)
	if err != nil || depth != 12 {
		t.Errorf("Bathymetry = %v, %v", depth, err)
	}

	var buf bytes.Buffer
	if err := listSites(repo, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Aberdeen") {
		t.Errorf("Listing = %s", buf.String())
	}

	if err := repo.DeleteSite("ABD"); err != nil {
		t.Fatalf("DeleteSite: %v", err)
	}
	if err := listSites(repo, &bytes.Buffer{}); err == nil {
		t.Error("Expected an empty database after deleting the only site")
	}
}

func TestImportSite_Errors(t *testing.T) {
	dir := t.TempDir()
	repo, err := sqlite.Open(filepath.Join(dir, "sites.db"), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = repo.Close() }()

	site := sqlite.Site{ID: "X", Latitude: 50, Longitude: 0}
	if _, _, err := importSite(repo, importRequest{Site: site}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("No tables: expected ErrValidation, got %v", err)
	}

	bad := writeFile(t, dir, "bad.csv", "constituent,amplitude_m,phase_deg\nZZ7,1,0\n")
	if _, _, err := importSite(repo, importRequest{Site: site, LevelCSV: bad}); !errors.Is(err, domain.ErrUnknownConstituent) {
		t.Errorf("Unknown constituent: expected ErrUnknownConstituent, got %v", err)
	}

	if err := listSites(repo, &bytes.Buffer{}); err == nil {
		t.Error("Expected error listing an empty database")
	}
}

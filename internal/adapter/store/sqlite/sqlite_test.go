package sqlite

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"go.ngs.io/tidepredictor/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "sites.db"), 10)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	// Two sites in the Firth of Forth, one with currents.
	if err := repo.PutSite(
		Site{ID: "LEITH", Name: "Leith", Latitude: 55.99, Longitude: -3.18},
		map[string]domain.LevelConstituent{"M2": {Amplitude: 1.83, PhaseDeg: 78}, "S2": {Amplitude: 0.6, PhaseDeg: 120}},
		nil,
	); err != nil {
		t.Fatalf("PutSite LEITH: %v", err)
	}
	if err := repo.PutSite(
		Site{ID: "INCHKEITH", Name: "Inchkeith", Latitude: 56.03, Longitude: -3.13, DepthM: 22},
		map[string]domain.LevelConstituent{"M2": {Amplitude: 1.8, PhaseDeg: 77}},
		map[string]domain.CurrentConstituent{"M2": {MajorAxis: 0.6, MinorAxis: 0.05, InclinationDeg: 80, PhaseDeg: 300}},
	); err != nil {
		t.Fatalf("PutSite INCHKEITH: %v", err)
	}
	return repo
}

func TestRepository_NearestSite(t *testing.T) {
	repo := openTestRepo(t)

	tests := []struct {
		name     string
		lon, lat float64
		wantID   string
	}{
		{"at Leith", -3.18, 55.99, "LEITH"},
		{"near Inchkeith", -3.12, 56.04, "INCHKEITH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site, err := repo.NearestSite(tt.lon, tt.lat)
			if err != nil {
				t.Fatalf("NearestSite: %v", err)
			}
			if site.ID != tt.wantID {
				t.Errorf("NearestSite = %s, expected %s", site.ID, tt.wantID)
			}
		})
	}
}

func TestRepository_LevelConstituents(t *testing.T) {
	repo := openTestRepo(t)

	cons, err := repo.LevelConstituents(-3.18, 55.99)
	if err != nil {
		t.Fatalf("LevelConstituents: %v", err)
	}
	if len(cons) != 2 || cons["M2"].Amplitude != 1.83 {
		t.Errorf("Unexpected constituents: %v", cons)
	}

	// Replacing a site rewrites its constituents.
	if err := repo.PutSite(Site{ID: "LEITH", Latitude: 55.99, Longitude: -3.18},
		map[string]domain.LevelConstituent{"K1": {Amplitude: 0.1, PhaseDeg: 200}}, nil); err != nil {
		t.Fatal(err)
	}
	cons, _ = repo.LevelConstituents(-3.18, 55.99)
	if _, ok := cons["M2"]; ok || len(cons) != 1 {
		t.Errorf("Constituents not replaced: %v", cons)
	}
}

func TestRepository_CurrentsAndBathymetry(t *testing.T) {
	repo := openTestRepo(t)

	// Leith is closer but has no currents: the query resolves to Inchkeith.
	cons, err := repo.CurrentConstituents(-3.18, 55.99)
	if err != nil {
		t.Fatalf("CurrentConstituents: %v", err)
	}
	want := domain.CurrentConstituent{MajorAxis: 0.6, MinorAxis: 0.05, InclinationDeg: 80, PhaseDeg: 300}
	if cons["M2"] != want {
		t.Errorf("M2 = %+v, expected %+v", cons["M2"], want)
	}

	depth, err := repo.Bathymetry(-3.18, 55.99)
	if err != nil || depth != 22 {
		t.Errorf("Bathymetry = %v, %v; expected 22", depth, err)
	}
}

func TestRepository_OutOfDomain(t *testing.T) {
	repo := openTestRepo(t)

	_, err := repo.LevelConstituents(-10, -50)
	if !errors.Is(err, domain.ErrOutOfDomain) || !strings.Contains(err.Error(), "outside") {
		t.Errorf("Level: expected out-of-domain error, got %v", err)
	}
	_, err = repo.CurrentConstituents(-10, -50)
	if !errors.Is(err, domain.ErrOutOfDomain) || !strings.Contains(err.Error(), "outside") {
		t.Errorf("Current: expected out-of-domain error, got %v", err)
	}
}

func TestRepository_PutSiteValidation(t *testing.T) {
	repo := openTestRepo(t)

	if err := repo.PutSite(Site{ID: "", Latitude: 0, Longitude: 0}, nil, nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Empty id: expected ErrValidation, got %v", err)
	}
	if err := repo.PutSite(Site{ID: "X", Latitude: 95, Longitude: 0}, nil, nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Bad latitude: expected ErrValidation, got %v", err)
	}
	bad := map[string]domain.LevelConstituent{"QQ9": {}}
	if err := repo.PutSite(Site{ID: "X", Latitude: 1, Longitude: 1}, bad, nil); !errors.Is(err, domain.ErrUnknownConstituent) {
		t.Errorf("Unknown constituent: expected ErrUnknownConstituent, got %v", err)
	}

	sites, err := repo.Sites()
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != 2 || sites[0].ID != "INCHKEITH" {
		t.Errorf("Sites() = %+v", sites)
	}
}

func TestRepository_DeleteSiteCascades(t *testing.T) {
	repo := openTestRepo(t)

	// Hold one connection so the delete runs on another pooled connection.
	conn, err := repo.db.Conn(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = conn.Close() }()

	var fk int
	if err := conn.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&fk); err != nil || fk != 1 {
		t.Errorf("foreign_keys = %d, %v on a pooled connection", fk, err)
	}

	if err := repo.DeleteSite("INCHKEITH"); err != nil {
		t.Fatalf("DeleteSite: %v", err)
	}
	for _, table := range []string{"level_constituents", "current_constituents"} {
		var n int
		if err := repo.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE site_id = 'INCHKEITH'`).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("%s still holds %d rows of the deleted site", table, n)
		}
	}
	if err := repo.DeleteSite("INCHKEITH"); err == nil {
		t.Error("Expected error deleting a missing site")
	}
}

func TestHaversineKm(t *testing.T) {
	// One degree of latitude is about 111.2 km.
	if d := haversineKm(0, 0, 1, 0); math.Abs(d-111.19) > 0.05 {
		t.Errorf("haversineKm = %.3f, expected ~111.19", d)
	}
	if d := haversineKm(55, -3, 55, -3); d != 0 {
		t.Errorf("Zero distance = %v", d)
	}
}

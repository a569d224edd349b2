package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.ngs.io/tidepredictor/internal/adapter/store/bathymetry"
	"go.ngs.io/tidepredictor/internal/adapter/store/netcdf"
	"go.ngs.io/tidepredictor/internal/adapter/store/sqlite"
	"go.ngs.io/tidepredictor/internal/domain"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "SHEAR_ALPHA", "SAMPLING", "CORS_ORIGINS", "SQLITE_PATH", "SITE_MAX_DISTANCE_KM", "GIN_MODE"} {
		t.Setenv(key, "")
	}
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %s", cfg.Port)
	}
	if cfg.ShearAlpha != domain.DefaultShearExponent {
		t.Errorf("ShearAlpha = %v", cfg.ShearAlpha)
	}
	if cfg.Sampling != netcdf.Nearest {
		t.Errorf("Sampling = %v", cfg.Sampling)
	}
	if cfg.MaxDistanceKm != sqlite.DefaultMaxDistanceKm {
		t.Errorf("MaxDistanceKm = %v", cfg.MaxDistanceKm)
	}
	if cfg.CORSOrigins != nil {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestFromEnv_Values(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("SHEAR_ALPHA", "0.1")
	t.Setenv("SAMPLING", "bilinear")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "3000" || cfg.ShearAlpha != 0.1 || cfg.Sampling != netcdf.Bilinear {
		t.Errorf("Unexpected config %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %q", cfg.CORSOrigins)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("SHEAR_ALPHA", "steep")
	if _, err := FromEnv(); err == nil {
		t.Error("Expected error for non-numeric SHEAR_ALPHA")
	}
	t.Setenv("SHEAR_ALPHA", "")
	t.Setenv("SAMPLING", "cubic")
	if _, err := FromEnv(); err == nil {
		t.Error("Expected error for unknown sampling")
	}
}

func TestConfig_TemplateAndProfile(t *testing.T) {
	tmpl, err := Config{}.Template()
	if err != nil || tmpl.Epoch != domain.DefaultEpoch {
		t.Errorf("Default template: %+v, %v", tmpl, err)
	}

	path := filepath.Join(t.TempDir(), "tmpl.toml")
	if err := os.WriteFile(path, []byte("name = \"site\"\nmean = 0.25\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	tmpl, err = Config{TemplatePath: path}.Template()
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if tmpl.Name != "site" || tmpl.MeanLevel != 0.25 {
		t.Errorf("Loaded template %+v", tmpl)
	}

	if _, err := (Config{ShearAlpha: -1}).Profile(); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Negative alpha: expected ErrValidation, got %v", err)
	}
}

func TestConfig_OpenRepository(t *testing.T) {
	if _, _, err := (Config{}).OpenRepository(); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData, got %v", err)
	}

	dir := t.TempDir()
	cfg := Config{SQLitePath: filepath.Join(dir, "sites.db"), MaxDistanceKm: 10, GEBCOPath: filepath.Join(dir, "gebco.nc")}
	repo, closer, err := cfg.OpenRepository()
	if err != nil {
		t.Fatalf("OpenRepository: %v", err)
	}
	defer func() { _ = closer.Close() }()
	if _, ok := repo.(bathymetry.Override); !ok {
		t.Errorf("Expected bathymetry override, got %T", repo)
	}
	if cfg.Source() != "sqlite" {
		t.Errorf("Source = %s", cfg.Source())
	}

	cfg = Config{LevelDataPath: filepath.Join(dir, "level.nc")}
	repo, closer, err = cfg.OpenRepository()
	if err != nil {
		t.Fatalf("OpenRepository netcdf: %v", err)
	}
	defer func() { _ = closer.Close() }()
	if _, ok := repo.(*netcdf.Repository); !ok {
		t.Errorf("Expected NetCDF repository, got %T", repo)
	}

	cfg.LandMaskPath = filepath.Join(dir, "missing.shp")
	if _, _, err := cfg.OpenRepository(); err == nil {
		t.Error("Expected error for missing land mask")
	}
}

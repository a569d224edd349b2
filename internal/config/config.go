// Package config reads runtime settings from the environment and opens the
// constituent repository they describe.
package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/tidepredictor/internal/adapter/landmask"
	"go.ngs.io/tidepredictor/internal/adapter/store"
	"go.ngs.io/tidepredictor/internal/adapter/store/bathymetry"
	"go.ngs.io/tidepredictor/internal/adapter/store/netcdf"
	"go.ngs.io/tidepredictor/internal/adapter/store/sqlite"
	"go.ngs.io/tidepredictor/internal/domain"
)

// ErrNoData is returned when neither a NetCDF nor a SQLite source is set.
var ErrNoData = errors.New("no constituent data configured (set LEVEL_DATA_PATH, CURRENT_DATA_PATH or SQLITE_PATH)")

// Config holds every environment setting.
type Config struct {
	Port            string
	LevelDataPath   string
	CurrentDataPath string
	SQLitePath      string
	MaxDistanceKm   float64
	LandMaskPath    string
	GEBCOPath       string
	TemplatePath    string
	ShearAlpha      float64
	Sampling        netcdf.Sampling
	CORSOrigins     []string
	GinMode         string
}

// FromEnv reads the configuration from environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LevelDataPath:   getEnv("LEVEL_DATA_PATH", ""),
		CurrentDataPath: getEnv("CURRENT_DATA_PATH", ""),
		SQLitePath:      getEnv("SQLITE_PATH", ""),
		LandMaskPath:    getEnv("LAND_MASK_PATH", ""),
		GEBCOPath:       getEnv("GEBCO_PATH", ""),
		TemplatePath:    getEnv("TEMPLATE_PATH", ""),
		GinMode:         getEnv("GIN_MODE", "release"),
	}

	var err error
	if cfg.ShearAlpha, err = getFloat("SHEAR_ALPHA", domain.DefaultShearExponent); err != nil {
		return Config{}, err
	}
	if cfg.MaxDistanceKm, err = getFloat("SITE_MAX_DISTANCE_KM", sqlite.DefaultMaxDistanceKm); err != nil {
		return Config{}, err
	}
	if cfg.Sampling, err = netcdf.ParseSampling(getEnv("SAMPLING", "nearest")); err != nil {
		return Config{}, err
	}
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	return cfg, nil
}

// Template loads TEMPLATE_PATH, or returns the default template when unset.
func (c Config) Template() (domain.Template, error) {
	if c.TemplatePath == "" {
		return domain.DefaultTemplate(), nil
	}
	return domain.LoadTemplate(c.TemplatePath)
}

// Profile returns the shear profile for SHEAR_ALPHA.
func (c Config) Profile() (domain.ShearProfile, error) {
	return domain.NewShearProfile(c.ShearAlpha)
}

// Source names the backend OpenRepository selects.
func (c Config) Source() string {
	if c.SQLitePath != "" {
		return "sqlite"
	}
	return "netcdf"
}

// OpenRepository opens the configured backend and applies the optional
// bathymetry override and land mask. The returned closer releases the
// backend.
func (c Config) OpenRepository() (store.Repository, io.Closer, error) {
	var (
		repo   store.Repository
		closer io.Closer = nopCloser{}
	)

	switch {
	case c.SQLitePath != "":
		db, err := sqlite.Open(c.SQLitePath, c.MaxDistanceKm)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open site database: %w", err)
		}
		log.Printf("Using SQLite site database %s (max distance %g km)", c.SQLitePath, c.MaxDistanceKm)
		repo, closer = db, db
	case c.LevelDataPath != "" || c.CurrentDataPath != "":
		log.Printf("Using NetCDF grids (level: %q, current: %q, sampling: %s)", c.LevelDataPath, c.CurrentDataPath, c.Sampling)
		repo = netcdf.NewRepository(netcdf.Config{
			LevelPath:   c.LevelDataPath,
			CurrentPath: c.CurrentDataPath,
			Sampling:    c.Sampling,
			SearchRing:  1,
		})
	default:
		return nil, nil, ErrNoData
	}

	if c.GEBCOPath != "" {
		log.Printf("Bathymetry from %s", c.GEBCOPath)
		repo = bathymetry.Override{Repository: repo, Source: bathymetry.NewLocalStore(c.GEBCOPath)}
	}
	if c.LandMaskPath != "" {
		mask, err := landmask.Load(c.LandMaskPath)
		if err != nil {
			_ = closer.Close()
			return nil, nil, fmt.Errorf("failed to load land mask: %w", err)
		}
		repo = landmask.Repository{Repository: repo, Mask: mask}
	}
	return repo, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) (float64, error) {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

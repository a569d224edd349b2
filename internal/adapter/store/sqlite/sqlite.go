// Package sqlite serves constituents of surveyed sites from a SQLite database.
// A query is answered by the nearest site within a maximum distance.
package sqlite

import (
	"database/sql"
	"fmt"
	"math"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver.

	"go.ngs.io/tidepredictor/internal/domain"
)

// DefaultMaxDistanceKm bounds how far a query may be from a site.
const DefaultMaxDistanceKm = 25.0

const schema = `
	CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		depth_m REAL
	);
	CREATE INDEX IF NOT EXISTS idx_sites_coords ON sites(latitude, longitude);

	CREATE TABLE IF NOT EXISTS level_constituents (
		site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		constituent TEXT NOT NULL,
		amplitude_m REAL NOT NULL,
		phase_deg REAL NOT NULL,
		PRIMARY KEY (site_id, constituent)
	);

	CREATE TABLE IF NOT EXISTS current_constituents (
		site_id TEXT NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		constituent TEXT NOT NULL,
		major_axis_m_s REAL NOT NULL,
		minor_axis_m_s REAL NOT NULL,
		inclination_deg REAL NOT NULL,
		phase_deg REAL NOT NULL,
		PRIMARY KEY (site_id, constituent)
	);
`

// Site is a surveyed location.
type Site struct {
	ID        string
	Name      string
	Latitude  float64
	Longitude float64
	// DepthM is the positive water depth, 0 when unknown.
	DepthM float64
	// DistanceKm is filled by nearest-site queries.
	DistanceKm float64
}

// Repository answers constituent queries from the nearest site.
// It is safe for concurrent use.
type Repository struct {
	db            *sql.DB
	maxDistanceKm float64
}

// Open opens (creating if needed) the database at path. The pragmas are part
// of the DSN so every pooled connection enforces foreign keys.
func Open(path string, maxDistanceKm float64) (*Repository, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	repo, err := NewRepository(db, maxDistanceKm)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewRepository wraps an open database and ensures the schema exists.
func NewRepository(db *sql.DB, maxDistanceKm float64) (*Repository, error) {
	if maxDistanceKm <= 0 {
		maxDistanceKm = DefaultMaxDistanceKm
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Repository{db: db, maxDistanceKm: maxDistanceKm}, nil
}

// DeleteSite removes a site. Its constituents are removed by the foreign key
// cascade.
func (r *Repository) DeleteSite(id string) error {
	res, err := r.db.Exec(`DELETE FROM sites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting site %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("site %s not found", id)
	}
	return nil
}

// Close closes the database.
func (r *Repository) Close() error {
	return r.db.Close()
}

// PutSite inserts or replaces a site together with its constituents. Either
// map may be nil.
func (r *Repository) PutSite(site Site, level map[string]domain.LevelConstituent, current map[string]domain.CurrentConstituent) error {
	if site.ID == "" {
		return fmt.Errorf("%w: site id is empty", domain.ErrValidation)
	}
	if err := domain.CheckDomain(site.Longitude, site.Latitude, -180, 180, -90, 90); err != nil {
		return fmt.Errorf("%w: site %s: %w", domain.ErrValidation, site.ID, err)
	}

	for name := range level {
		if _, err := domain.LookupConstituent(name); err != nil {
			return err
		}
	}
	for name := range current {
		if _, err := domain.LookupConstituent(name); err != nil {
			return err
		}
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var depth any
	if site.DepthM > 0 {
		depth = site.DepthM
	}
	if _, err := tx.Exec(`
		INSERT INTO sites (id, name, latitude, longitude, depth_m) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, latitude = excluded.latitude,
			longitude = excluded.longitude, depth_m = excluded.depth_m
	`, site.ID, site.Name, site.Latitude, site.Longitude, depth); err != nil {
		return fmt.Errorf("inserting site %s: %w", site.ID, err)
	}

	if level != nil {
		if _, err := tx.Exec(`DELETE FROM level_constituents WHERE site_id = ?`, site.ID); err != nil {
			return fmt.Errorf("clearing level constituents: %w", err)
		}
		for name, c := range level {
			if _, err := tx.Exec(`
				INSERT INTO level_constituents (site_id, constituent, amplitude_m, phase_deg)
				VALUES (?, ?, ?, ?)
			`, site.ID, name, c.Amplitude, c.PhaseDeg); err != nil {
				return fmt.Errorf("inserting %s for site %s: %w", name, site.ID, err)
			}
		}
	}

	if current != nil {
		if _, err := tx.Exec(`DELETE FROM current_constituents WHERE site_id = ?`, site.ID); err != nil {
			return fmt.Errorf("clearing current constituents: %w", err)
		}
		for name, c := range current {
			if _, err := tx.Exec(`
				INSERT INTO current_constituents
					(site_id, constituent, major_axis_m_s, minor_axis_m_s, inclination_deg, phase_deg)
				VALUES (?, ?, ?, ?, ?, ?)
			`, site.ID, name, c.MajorAxis, c.MinorAxis, c.InclinationDeg, c.PhaseDeg); err != nil {
				return fmt.Errorf("inserting %s for site %s: %w", name, site.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Sites lists every site ordered by id.
func (r *Repository) Sites() ([]Site, error) {
	rows, err := r.db.Query(`SELECT id, name, latitude, longitude, COALESCE(depth_m, 0) FROM sites ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying sites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sites []Site
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude, &s.DepthM); err != nil {
			return nil, fmt.Errorf("scanning site: %w", err)
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// nearestSite returns the closest site holding rows in table, or
// ErrOutOfDomain when none lies within the maximum distance.
func (r *Repository) nearestSite(lon, lat float64, table string) (Site, error) {
	latDelta := r.maxDistanceKm / 111.0 * 1.5
	query := `
		SELECT id, name, latitude, longitude, COALESCE(depth_m, 0)
		FROM sites
		WHERE latitude BETWEEN ? AND ?`
	args := []any{lat - latDelta, lat + latDelta}

	// Skip the longitude filter near the poles and across the antimeridian.
	if c := math.Cos(lat * math.Pi / 180); c > 0.01 {
		lonDelta := latDelta / c
		if lon-lonDelta >= -180 && lon+lonDelta <= 180 {
			query += ` AND longitude BETWEEN ? AND ?`
			args = append(args, lon-lonDelta, lon+lonDelta)
		}
	}
	if table != "" {
		query += ` AND EXISTS (SELECT 1 FROM ` + table + ` t WHERE t.site_id = sites.id)`
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return Site{}, fmt.Errorf("querying sites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var candidates []Site
	for rows.Next() {
		var s Site
		if err := rows.Scan(&s.ID, &s.Name, &s.Latitude, &s.Longitude, &s.DepthM); err != nil {
			return Site{}, fmt.Errorf("scanning site: %w", err)
		}
		s.DistanceKm = haversineKm(lat, lon, s.Latitude, s.Longitude)
		if s.DistanceKm <= r.maxDistanceKm {
			candidates = append(candidates, s)
		}
	}
	if err := rows.Err(); err != nil {
		return Site{}, err
	}
	if len(candidates) == 0 {
		return Site{}, fmt.Errorf("no site within %.1f km of (%g, %g): point is %w", r.maxDistanceKm, lon, lat, domain.ErrOutOfDomain)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0], nil
}

// NearestSite returns the closest site of any kind.
func (r *Repository) NearestSite(lon, lat float64) (Site, error) {
	return r.nearestSite(lon, lat, "")
}

// LevelConstituents returns the level constituents of the nearest site.
func (r *Repository) LevelConstituents(lon, lat float64) (map[string]domain.LevelConstituent, error) {
	site, err := r.nearestSite(lon, lat, "level_constituents")
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(`
		SELECT constituent, amplitude_m, phase_deg
		FROM level_constituents WHERE site_id = ?
	`, site.ID)
	if err != nil {
		return nil, fmt.Errorf("querying level constituents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]domain.LevelConstituent)
	for rows.Next() {
		var name string
		var c domain.LevelConstituent
		if err := rows.Scan(&name, &c.Amplitude, &c.PhaseDeg); err != nil {
			return nil, fmt.Errorf("scanning level constituent: %w", err)
		}
		out[name] = c
	}
	return out, rows.Err()
}

// CurrentConstituents returns the current ellipses of the nearest site.
func (r *Repository) CurrentConstituents(lon, lat float64) (map[string]domain.CurrentConstituent, error) {
	site, err := r.nearestSite(lon, lat, "current_constituents")
	if err != nil {
		return nil, err
	}
	rows, err := r.db.Query(`
		SELECT constituent, major_axis_m_s, minor_axis_m_s, inclination_deg, phase_deg
		FROM current_constituents WHERE site_id = ?
	`, site.ID)
	if err != nil {
		return nil, fmt.Errorf("querying current constituents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]domain.CurrentConstituent)
	for rows.Next() {
		var name string
		var c domain.CurrentConstituent
		if err := rows.Scan(&name, &c.MajorAxis, &c.MinorAxis, &c.InclinationDeg, &c.PhaseDeg); err != nil {
			return nil, fmt.Errorf("scanning current constituent: %w", err)
		}
		out[name] = c
	}
	return out, rows.Err()
}

// Bathymetry returns the recorded depth of the nearest site with current data.
func (r *Repository) Bathymetry(lon, lat float64) (float64, error) {
	site, err := r.nearestSite(lon, lat, "current_constituents")
	if err != nil {
		return 0, err
	}
	if site.DepthM <= 0 {
		return 0, fmt.Errorf("site %s has no recorded depth, bathymetry is %w", site.ID, domain.ErrOutOfDomain)
	}
	return site.DepthM, nil
}

// haversineKm returns the great-circle distance between two points.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

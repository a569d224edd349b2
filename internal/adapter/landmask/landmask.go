// Package landmask rejects queries that fall on land polygons read from a
// shapefile.
package landmask

import (
	"fmt"
	"log"

	"github.com/jonas-p/go-shp"

	"go.ngs.io/tidepredictor/internal/adapter/store"
	"go.ngs.io/tidepredictor/internal/domain"
)

type polygon struct {
	box   shp.Box
	rings [][]shp.Point
}

// Mask is a set of land polygons. Rings inside a polygon follow the even-odd
// rule, so lakes and other holes count as water.
type Mask struct {
	polygons []polygon
}

// Load reads every polygon of the shapefile at path. Other shape types are
// skipped.
func Load(path string) (*Mask, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer func() { _ = reader.Close() }()

	m := &Mask{}
	for reader.Next() {
		_, s := reader.Shape()
		p, ok := s.(*shp.Polygon)
		if !ok {
			continue
		}
		m.polygons = append(m.polygons, polygon{box: p.BBox(), rings: splitParts(p.Parts, p.Points)})
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("reading shapefile: %w", err)
	}
	log.Printf("Loaded %d land polygons from %s", len(m.polygons), path)
	return m, nil
}

// NewMask builds a mask from rings given as closed or open point lists. Each
// entry is one polygon with its outer ring first.
func NewMask(polys ...[][]shp.Point) *Mask {
	m := &Mask{}
	for _, rings := range polys {
		var all []shp.Point
		for _, r := range rings {
			all = append(all, r...)
		}
		m.polygons = append(m.polygons, polygon{box: shp.BBoxFromPoints(all), rings: rings})
	}
	return m
}

func splitParts(parts []int32, points []shp.Point) [][]shp.Point {
	rings := make([][]shp.Point, 0, len(parts))
	for i, start := range parts {
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		rings = append(rings, points[start:end])
	}
	return rings
}

// Len returns the number of polygons.
func (m *Mask) Len() int { return len(m.polygons) }

// OnLand reports whether (lon, lat) lies inside any polygon.
func (m *Mask) OnLand(lon, lat float64) bool {
	for _, p := range m.polygons {
		if lon < p.box.MinX || lon > p.box.MaxX || lat < p.box.MinY || lat > p.box.MaxY {
			continue
		}
		inside := false
		for _, ring := range p.rings {
			if crossings(ring, lon, lat)%2 == 1 {
				inside = !inside
			}
		}
		if inside {
			return true
		}
	}
	return false
}

// crossings counts ring edges crossed by a ray from (x, y) towards +x.
func crossings(ring []shp.Point, x, y float64) int {
	n := 0
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Y > y) != (b.Y > y) && x < (b.X-a.X)*(y-a.Y)/(b.Y-a.Y)+a.X {
			n++
		}
	}
	return n
}

// Repository wraps a constituent repository and fails every query on land
// with domain.ErrOutOfDomain.
type Repository struct {
	store.Repository
	Mask *Mask
}

func (r Repository) check(lon, lat float64) error {
	if r.Mask.OnLand(lon, lat) {
		return fmt.Errorf("point (%g, %g) is on land and %w", lon, lat, domain.ErrOutOfDomain)
	}
	return nil
}

// LevelConstituents rejects land points before delegating.
func (r Repository) LevelConstituents(lon, lat float64) (map[string]domain.LevelConstituent, error) {
	if err := r.check(lon, lat); err != nil {
		return nil, err
	}
	return r.Repository.LevelConstituents(lon, lat)
}

// CurrentConstituents rejects land points before delegating.
func (r Repository) CurrentConstituents(lon, lat float64) (map[string]domain.CurrentConstituent, error) {
	if err := r.check(lon, lat); err != nil {
		return nil, err
	}
	return r.Repository.CurrentConstituents(lon, lat)
}

// Bathymetry rejects land points before delegating.
func (r Repository) Bathymetry(lon, lat float64) (float64, error) {
	if err := r.check(lon, lat); err != nil {
		return 0, err
	}
	return r.Repository.Bathymetry(lon, lat)
}

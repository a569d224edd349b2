// Package main loads site constituent tables into a SQLite database served by
// the sqlite repository.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"text/tabwriter"

	"go.ngs.io/tidepredictor/internal/adapter/store/csv"
	"go.ngs.io/tidepredictor/internal/adapter/store/sqlite"
	"go.ngs.io/tidepredictor/internal/domain"
)

// importRequest describes one site to load.
type importRequest struct {
	Site       sqlite.Site
	LevelCSV   string
	CurrentCSV string
}

func main() {
	dbPath := flag.String("db", "./data/sites.db", "SQLite database (created if missing)")
	id := flag.String("id", "", "Site identifier")
	name := flag.String("name", "", "Site name")
	lat := flag.Float64("lat", math.NaN(), "Site latitude")
	lon := flag.Float64("lon", math.NaN(), "Site longitude")
	depth := flag.Float64("depth", 0, "Water depth in meters (0 when unknown)")
	levelCSV := flag.String("level-csv", "", "CSV with level constituents")
	currentCSV := flag.String("current-csv", "", "CSV with current ellipses")
	list := flag.Bool("list", false, "List the sites in the database and exit")
	remove := flag.String("delete", "", "Delete the site with this identifier and exit")
	flag.Parse()

	repo, err := sqlite.Open(*dbPath, 0)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *dbPath, err)
	}
	defer func() { _ = repo.Close() }()

	if *remove != "" {
		if err := repo.DeleteSite(*remove); err != nil {
			log.Fatalf("Failed to delete site: %v", err)
		}
		log.Printf("Deleted site %s from %s", *remove, *dbPath)
		return
	}

	if *list {
		if err := listSites(repo, os.Stdout); err != nil {
			log.Fatalf("Failed to list sites: %v", err)
		}
		return
	}

	req := importRequest{
		Site:       sqlite.Site{ID: *id, Name: *name, Latitude: *lat, Longitude: *lon, DepthM: *depth},
		LevelCSV:   *levelCSV,
		CurrentCSV: *currentCSV,
	}
	nLevel, nCurrent, err := importSite(repo, req)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Imported site %s: %d level and %d current constituents into %s", req.Site.ID, nLevel, nCurrent, *dbPath)
}

// importSite reads the tables of req and stores them. At least one table is
// required.
func importSite(repo *sqlite.Repository, req importRequest) (nLevel, nCurrent int, err error) {
	if req.LevelCSV == "" && req.CurrentCSV == "" {
		return 0, 0, fmt.Errorf("%w: -level-csv or -current-csv is required", domain.ErrValidation)
	}

	var (
		level   map[string]domain.LevelConstituent
		current map[string]domain.CurrentConstituent
	)
	if req.LevelCSV != "" {
		if level, err = csv.LoadLevelFile(req.LevelCSV); err != nil {
			return 0, 0, err
		}
	}
	if req.CurrentCSV != "" {
		if current, err = csv.LoadCurrentFile(req.CurrentCSV); err != nil {
			return 0, 0, err
		}
	}

	if err := repo.PutSite(req.Site, level, current); err != nil {
		return 0, 0, err
	}
	return len(level), len(current), nil
}

func listSites(repo *sqlite.Repository, out io.Writer) error {
	sites, err := repo.Sites()
	if err != nil {
		return err
	}
	if len(sites) == 0 {
		return errors.New("database holds no sites")
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLAT\tLON\tDEPTH_M")
	for _, s := range sites {
		fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%.1f\n", s.ID, s.Name, s.Latitude, s.Longitude, s.DepthM)
	}
	return w.Flush()
}

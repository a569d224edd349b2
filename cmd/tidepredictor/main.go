// Package main provides the tidepredictor command line tool, which writes
// water level, current or current profile series for one location.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/akamensky/argparse"

	"go.ngs.io/tidepredictor/internal/config"
	"go.ngs.io/tidepredictor/internal/domain"
	"go.ngs.io/tidepredictor/internal/output"
	"go.ngs.io/tidepredictor/internal/usecase"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func main() {
	if err := run(os.Args, os.Stdout, time.Now()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

type options struct {
	lon, lat   float64
	start, end time.Time
	interval   time.Duration
	kind       string
	output     string
	format     output.Format
	precision  int
	alpha      float64
	levels     []float64
}

func run(args []string, stdout io.Writer, now time.Time) error {
	parser := argparse.NewParser("tidepredictor", "Predicts tidal water levels and currents from harmonic constituents. "+
		"Negative values are passed as --lon=-3.2.")

	lon := parser.Float("x", "lon", &argparse.Options{
		Required: true,
		Help:     "Longitude in decimal degrees"})
	lat := parser.Float("y", "lat", &argparse.Options{
		Required: true,
		Help:     "Latitude in decimal degrees"})
	startStr := parser.String("s", "start", &argparse.Options{
		Help: "Start time in UTC (default: today 00:00)"})
	endStr := parser.String("e", "end", &argparse.Options{
		Help: "End time in UTC, included (default: start + 1 day)"})
	interval := parser.Int("i", "interval", &argparse.Options{
		Default: 30,
		Help:    "Interval in minutes"})
	outPath := parser.String("o", "output", &argparse.Options{
		Help: "Output file; the format follows the suffix (.csv or .json). Default: stdout"})
	format := parser.Selector("", "format", []string{"csv", "json"}, &argparse.Options{
		Default: "csv",
		Help:    "Output format when writing to stdout"})
	kind := parser.Selector("t", "type", []string{"level", "current", "profile"}, &argparse.Options{
		Default: "level",
		Help:    "Series to predict"})
	precision := parser.Int("p", "precision", &argparse.Options{
		Default: 3,
		Help:    "Decimals in CSV output"})
	alpha := parser.Float("", "alpha", &argparse.Options{
		Default: domain.DefaultShearExponent,
		Help:    "Power-law shear exponent for profiles"})
	levels := parser.FloatList("l", "level", &argparse.Options{
		Help: "Profile depth in meters below the surface, negative; repeat for several (default: 10 evenly spaced)"})
	levelData := parser.String("", "level-data", &argparse.Options{
		Help: "NetCDF level constituents (overrides LEVEL_DATA_PATH)"})
	currentData := parser.String("", "current-data", &argparse.Options{
		Help: "NetCDF current constituents (overrides CURRENT_DATA_PATH)"})
	sqlitePath := parser.String("", "sqlite", &argparse.Options{
		Help: "SQLite site database (overrides SQLITE_PATH)"})

	if err := parser.Parse(args); err != nil {
		return errors.New(parser.Usage(err))
	}

	opts := options{
		lon:       *lon,
		lat:       *lat,
		interval:  time.Duration(*interval) * time.Minute,
		kind:      *kind,
		output:    *outPath,
		precision: *precision,
		alpha:     *alpha,
		levels:    *levels,
	}
	if err := opts.resolve(*startStr, *endStr, *format, now); err != nil {
		return err
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if *sqlitePath != "" {
		cfg.SQLitePath = *sqlitePath
	}
	if *levelData != "" {
		cfg.LevelDataPath = *levelData
	}
	if *currentData != "" {
		cfg.CurrentDataPath = *currentData
	}

	var buf bytes.Buffer
	if err := predict(cfg, opts, &buf); err != nil {
		return err
	}

	if opts.output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	//nolint:gosec // G306: Output is meant to be readable by others.
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}
	log.Printf("Wrote %s", opts.output)
	return nil
}

// resolve validates the options and fills in defaults.
func (o *options) resolve(startStr, endStr, format string, now time.Time) error {
	if !(o.lat >= -90 && o.lat <= 90) {
		return fmt.Errorf("%w: latitude must be between -90 and 90, got %v", domain.ErrValidation, o.lat)
	}
	if !(o.lon >= -180 && o.lon <= 360) {
		return fmt.Errorf("%w: longitude must be between -180 and 360, got %v", domain.ErrValidation, o.lon)
	}
	if o.interval < time.Minute {
		return fmt.Errorf("%w: interval must be at least 1 minute", domain.ErrValidation)
	}
	if o.precision < 0 {
		return fmt.Errorf("%w: precision must not be negative", domain.ErrValidation)
	}

	var err error
	if o.output != "" {
		o.format, err = output.FormatFromPath(o.output)
	} else {
		o.format, err = output.ParseFormat(format)
	}
	if err != nil {
		return err
	}

	o.start = time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	if startStr != "" {
		if o.start, err = parseTime(startStr); err != nil {
			return err
		}
	}
	o.end = o.start.AddDate(0, 0, 1)
	if endStr != "" {
		if o.end, err = parseTime(endStr); err != nil {
			return err
		}
	}
	if o.end.Before(o.start) {
		return fmt.Errorf("%w: end %s is before start %s", domain.ErrValidation,
			o.end.Format(time.RFC3339), o.start.Format(time.RFC3339))
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid time %q (expected YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS)", domain.ErrValidation, s)
}

func predict(cfg config.Config, o options, out io.Writer) error {
	tmpl, err := cfg.Template()
	if err != nil {
		return err
	}
	repo, closer, err := cfg.OpenRepository()
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	w := output.Writer{Format: o.format, Precision: o.precision}
	switch strings.ToLower(o.kind) {
	case "level":
		levels, err := usecase.NewLevelPredictor(repo, tmpl).Predict(o.lon, o.lat, o.start, o.end, o.interval)
		if err != nil {
			return err
		}
		return w.WriteLevels(out, levels)
	case "current":
		currents, err := usecase.NewCurrentPredictor(repo, tmpl, domain.ShearProfile{Alpha: o.alpha}).
			PredictDepthAveraged(o.lon, o.lat, o.start, o.end, o.interval)
		if err != nil {
			return err
		}
		return w.WriteCurrents(out, currents)
	case "profile":
		profile, err := domain.NewShearProfile(o.alpha)
		if err != nil {
			return err
		}
		points, err := usecase.NewCurrentPredictor(repo, tmpl, profile).
			PredictProfile(o.lon, o.lat, o.start, o.end, o.interval, o.levels)
		if err != nil {
			return err
		}
		return w.WriteProfile(out, points)
	default:
		return fmt.Errorf("%w: unknown type %q", domain.ErrValidation, o.kind)
	}
}

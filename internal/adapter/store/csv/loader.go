// Package csv reads constituent tables from CSV files.
//
// Level tables have the header
//
//	constituent,amplitude_m,phase_deg
//
// and current tables
//
//	constituent,major_axis_m_s,minor_axis_m_s,inclination_deg,phase_deg
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/tidepredictor/internal/domain"
)

// Column layouts.
var (
	LevelHeader   = []string{"constituent", "amplitude_m", "phase_deg"}
	CurrentHeader = []string{"constituent", "major_axis_m_s", "minor_axis_m_s", "inclination_deg", "phase_deg"}
)

// ReadLevel parses a level table. Constituent names are normalised to the
// catalog spelling.
func ReadLevel(r io.Reader) (map[string]domain.LevelConstituent, error) {
	out := make(map[string]domain.LevelConstituent)
	err := readTable(r, LevelHeader, func(name string, v []float64) error {
		out[name] = domain.LevelConstituent{Amplitude: v[0], PhaseDeg: v[1]}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadCurrent parses a current-ellipse table.
func ReadCurrent(r io.Reader) (map[string]domain.CurrentConstituent, error) {
	out := make(map[string]domain.CurrentConstituent)
	err := readTable(r, CurrentHeader, func(name string, v []float64) error {
		out[name] = domain.CurrentConstituent{MajorAxis: v[0], MinorAxis: v[1], InclinationDeg: v[2], PhaseDeg: v[3]}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadLevelFile reads a level table from path.
func LoadLevelFile(path string) (map[string]domain.LevelConstituent, error) {
	//nolint:gosec // G304: path comes from configuration or the command line.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open level CSV: %w", err)
	}
	defer func() { _ = f.Close() }()

	cons, err := ReadLevel(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cons, nil
}

// LoadCurrentFile reads a current table from path.
func LoadCurrentFile(path string) (map[string]domain.CurrentConstituent, error) {
	//nolint:gosec // G304: path comes from configuration or the command line.
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open current CSV: %w", err)
	}
	defer func() { _ = f.Close() }()

	cons, err := ReadCurrent(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cons, nil
}

// readTable validates the header and hands each row's numeric columns to fn.
func readTable(r io.Reader, header []string, fn func(name string, values []float64) error) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.FieldsPerRecord = len(header)

	got, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range header {
		if strings.TrimSpace(got[i]) != h {
			return fmt.Errorf("%w: invalid CSV header: expected %v, got %v", domain.ErrValidation, header, got)
		}
	}

	seen := make(map[string]bool)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record: %w", err)
		}

		c, err := domain.LookupConstituent(record[0])
		if err != nil {
			return err
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate constituent %s", domain.ErrValidation, c.Name)
		}
		seen[c.Name] = true

		values := make([]float64, len(record)-1)
		for i, field := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return fmt.Errorf("%w: invalid %s for constituent %s: %w", domain.ErrValidation, header[i+1], c.Name, err)
			}
			values[i] = v
		}
		if err := fn(c.Name, values); err != nil {
			return err
		}
	}

	if len(seen) == 0 {
		return fmt.Errorf("%w: no constituents in CSV", domain.ErrValidation)
	}
	return nil
}

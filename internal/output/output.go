// Package output writes prediction series as CSV or JSON.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"go.ngs.io/tidepredictor/internal/domain"
)

// TimeLayout is the timestamp format of every row.
const TimeLayout = "2006-01-02T15:04:05Z"

// Format is an output encoding.
type Format int

const (
	CSV Format = iota
	JSON
)

func (f Format) String() string {
	if f == JSON {
		return "json"
	}
	return "csv"
}

// ParseFormat converts "csv" or "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	}
	return CSV, fmt.Errorf("%w: unknown output format %q (expected csv or json)", domain.ErrValidation, s)
}

// FormatFromPath derives the format from a file suffix.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return CSV, fmt.Errorf("%w: output file %q has no suffix", domain.ErrValidation, path)
	}
	return ParseFormat(ext)
}

// Writer encodes series. Precision is the number of decimals in CSV output;
// JSON carries full precision.
type Writer struct {
	Format    Format
	Precision int
}

// Column headers.
var (
	LevelHeader   = []string{"time", "level"}
	CurrentHeader = []string{"time", "u", "v"}
	ProfileHeader = []string{"time", "depth", "u_avg", "u", "v_avg", "v", "total_water_depth"}
)

type levelRow struct {
	Time  string  `json:"time"`
	Level float64 `json:"level"`
}

type currentRow struct {
	Time string  `json:"time"`
	U    float64 `json:"u"`
	V    float64 `json:"v"`
}

type profileRow struct {
	Time            string  `json:"time"`
	Depth           float64 `json:"depth"`
	UAvg            float64 `json:"u_avg"`
	U               float64 `json:"u"`
	VAvg            float64 `json:"v_avg"`
	V               float64 `json:"v"`
	TotalWaterDepth float64 `json:"total_water_depth"`
}

// WriteLevels writes a level series.
func (w Writer) WriteLevels(out io.Writer, levels []domain.TideLevel) error {
	if w.Format == JSON {
		rows := make([]levelRow, len(levels))
		for i, l := range levels {
			rows[i] = levelRow{Time: formatTime(l), Level: l.HeightM}
		}
		return writeJSON(out, rows)
	}
	return w.writeCSV(out, LevelHeader, len(levels), func(i int) []string {
		return []string{formatTime(levels[i]), w.num(levels[i].HeightM)}
	})
}

// WriteCurrents writes a depth-averaged current series.
func (w Writer) WriteCurrents(out io.Writer, currents []domain.CurrentVector) error {
	if w.Format == JSON {
		rows := make([]currentRow, len(currents))
		for i, c := range currents {
			rows[i] = currentRow{Time: c.Time.UTC().Format(TimeLayout), U: c.U, V: c.V}
		}
		return writeJSON(out, rows)
	}
	return w.writeCSV(out, CurrentHeader, len(currents), func(i int) []string {
		c := currents[i]
		return []string{c.Time.UTC().Format(TimeLayout), w.num(c.U), w.num(c.V)}
	})
}

// WriteProfile writes profile rows in the order given.
func (w Writer) WriteProfile(out io.Writer, points []domain.ProfilePoint) error {
	if w.Format == JSON {
		rows := make([]profileRow, len(points))
		for i, p := range points {
			rows[i] = profileRow{
				Time:            p.Time.UTC().Format(TimeLayout),
				Depth:           p.Depth,
				UAvg:            p.UAvg,
				U:               p.U,
				VAvg:            p.VAvg,
				V:               p.V,
				TotalWaterDepth: p.TotalWaterDepth,
			}
		}
		return writeJSON(out, rows)
	}
	return w.writeCSV(out, ProfileHeader, len(points), func(i int) []string {
		p := points[i]
		return []string{
			p.Time.UTC().Format(TimeLayout),
			w.num(p.Depth), w.num(p.UAvg), w.num(p.U), w.num(p.VAvg), w.num(p.V), w.num(p.TotalWaterDepth),
		}
	})
}

func (w Writer) writeCSV(out io.Writer, header []string, n int, row func(int) []string) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (w Writer) num(v float64) string {
	return strconv.FormatFloat(v, 'f', w.Precision, 64)
}

func formatTime(l domain.TideLevel) string {
	return l.Time.UTC().Format(TimeLayout)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.ngs.io/tidepredictor/internal/domain"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"out.csv", CSV, false},
		{"dir/out.JSON", JSON, false},
		{"out.txt", CSV, true},
		{"out", CSV, true},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if tt.wantErr {
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("FormatFromPath(%q): expected ErrValidation, got %v", tt.path, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %v, %v; expected %v", tt.path, got, err, tt.want)
		}
	}
}

func TestWriter_LevelsCSV(t *testing.T) {
	var buf bytes.Buffer
	levels := []domain.TideLevel{
		{Time: t0, HeightM: 1.23456},
		{Time: t0.Add(30 * time.Minute), HeightM: -0.5},
	}
	if err := (Writer{Format: CSV, Precision: 3}).WriteLevels(&buf, levels); err != nil {
		t.Fatal(err)
	}
	want := "time,level\n2024-03-01T12:00:00Z,1.235\n2024-03-01T12:30:00Z,-0.500\n"
	if buf.String() != want {
		t.Errorf("CSV output:\n%s\nexpected:\n%s", buf.String(), want)
	}
}

func TestWriter_CurrentsCSV(t *testing.T) {
	var buf bytes.Buffer
	currents := []domain.CurrentVector{{Time: t0.In(time.FixedZone("CET", 3600)), U: 0.1, V: -0.25}}
	if err := (Writer{Precision: 2}).WriteCurrents(&buf, currents); err != nil {
		t.Fatal(err)
	}
	want := "time,u,v\n2024-03-01T12:00:00Z,0.10,-0.25\n"
	if buf.String() != want {
		t.Errorf("CSV output %q, expected %q", buf.String(), want)
	}
}

func TestWriter_ProfileCSV(t *testing.T) {
	var buf bytes.Buffer
	points := []domain.ProfilePoint{
		{Time: t0, Depth: -5, U: 0.55, V: 0.11, UAvg: 0.5, VAvg: 0.1, TotalWaterDepth: 20},
	}
	if err := (Writer{Precision: 1}).WriteProfile(&buf, points); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "time,depth,u_avg,u,v_avg,v,total_water_depth" {
		t.Errorf("Header = %s", lines[0])
	}
	if lines[1] != "2024-03-01T12:00:00Z,-5.0,0.5,0.6,0.1,0.1,20.0" {
		t.Errorf("Row = %s", lines[1])
	}
}

func TestWriter_JSONIgnoresPrecision(t *testing.T) {
	var buf bytes.Buffer
	points := []domain.ProfilePoint{{Time: t0, Depth: -5, U: 0.123456, UAvg: 0.1, TotalWaterDepth: 20}}
	if err := (Writer{Format: JSON, Precision: 1}).WriteProfile(&buf, points); err != nil {
		t.Fatal(err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0]["u"] != 0.123456 || rows[0]["time"] != "2024-03-01T12:00:00Z" {
		t.Errorf("Row = %v", rows[0])
	}
	for _, key := range ProfileHeader {
		if _, ok := rows[0][key]; !ok {
			t.Errorf("Missing key %s", key)
		}
	}
}

func TestWriter_EmptyJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (Writer{Format: JSON}).WriteLevels(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("Empty series = %q", buf.String())
	}
}

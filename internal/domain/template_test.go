package domain

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseTemplate(t *testing.T) {
	data := []byte(`
name = "north-sea"
reftime = 738000.5
mean = 0.12

[opt]
nodsatnone = false
nodsatlint = true
gwchlint = true
`)

	tmpl, err := ParseTemplate(data)
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	if tmpl.Name != "north-sea" || tmpl.Epoch != 738000.5 || tmpl.MeanLevel != 0.12 {
		t.Errorf("Unexpected template: %+v", tmpl)
	}
	if tmpl.Options.NodSatNone || !tmpl.Options.NodSatLint || !tmpl.Options.GwchLint {
		t.Errorf("Options not decoded: %+v", tmpl.Options)
	}
	// Keys missing from the file keep their defaults.
	if !tmpl.Options.NoTrend {
		t.Error("notrend default lost")
	}
}

func TestParseTemplate_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown key":     "reftime = 737429.0\nbogus = 1\n",
		"bad epoch":       "reftime = -1.0\n",
		"exclusive gwch":  "[opt]\ngwchlint = true\ngwchnone = true\n",
		"exclusive nodal": "[opt]\nnodsatlint = true\n",
		"malformed":       "reftime = \n",
	}
	for name, data := range tests {
		if _, err := ParseTemplate([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if _, err := ParseTemplate([]byte("reftime = -1.0\n")); !errors.Is(err, ErrValidation) {
		t.Errorf("Bad epoch: expected ErrValidation, got %v", err)
	}
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coef.toml")
	if err := os.WriteFile(path, []byte("reftime = 737429.1458333333\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tmpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if tmpl != DefaultTemplate() {
		t.Errorf("Template %+v differs from default %+v", tmpl, DefaultTemplate())
	}

	if _, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

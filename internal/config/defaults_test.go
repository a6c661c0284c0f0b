package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "defaults.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, `{"stat": "median", "workers": 4}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Stat == nil || *cfg.Stat != "median" {
		t.Errorf("Stat = %v, want median", cfg.Stat)
	}
	if cfg.Workers == nil || *cfg.Workers != 4 {
		t.Errorf("Workers = %v, want 4", cfg.Workers)
	}
	// Omitted fields stay nil so flag values win.
	if cfg.AreaWeighted != nil || cfg.Buffer != nil {
		t.Error("omitted fields should be nil")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown stat", `{"stat": "mode"}`},
		{"unknown interp", `{"interp": "cubic"}`},
		{"zero workers", `{"workers": 0}`},
		{"not json", `stat = mean`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for non-json extension")
	}
}

func TestApplyHelpers(t *testing.T) {
	stat := "sum"
	workers := 8
	cfg := &ExtractionConfig{Stat: &stat, Workers: &workers}

	gotStat := "mean"
	gotWorkers := 1
	gotBuffer := 2.5

	ApplyString(&gotStat, cfg.Stat)
	ApplyInt(&gotWorkers, cfg.Workers)
	ApplyFloat64(&gotBuffer, cfg.Buffer)

	if gotStat != "sum" || gotWorkers != 8 {
		t.Errorf("overrides not applied: stat=%q workers=%d", gotStat, gotWorkers)
	}
	if gotBuffer != 2.5 {
		t.Errorf("nil override changed value: buffer=%g", gotBuffer)
	}
}

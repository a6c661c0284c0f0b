// Package config loads extraction defaults from a JSON file so repeated
// command invocations against the same dataset don't repeat a long flag
// list. Fields are pointers: an omitted field leaves the corresponding
// flag value untouched.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ExtractionConfig holds optional overrides for extraction settings.
// The field names match the zonal command's flags.
type ExtractionConfig struct {
	Stat          *string  `json:"stat,omitempty"`
	AreaWeighted  *bool    `json:"area_weighted,omitempty"`
	Normalize     *bool    `json:"normalize,omitempty"`
	SmallFallback *bool    `json:"small_fallback,omitempty"`
	Buffer        *float64 `json:"buffer,omitempty"`
	Interp        *string  `json:"interp,omitempty"`
	Strict        *bool    `json:"strict,omitempty"`
	Workers       *int     `json:"workers,omitempty"`
	RasterCRS     *string  `json:"raster_crs,omitempty"`
}

// Load reads an ExtractionConfig from a JSON file. Omitted fields stay
// nil, so partial configs are safe.
func Load(path string) (*ExtractionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Cap the file size so a mistyped path to a large file fails fast.
	const maxFileSize = 1 * 1024 * 1024
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ExtractionConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that have closed value sets. Numeric
// ranges are left to the extraction policy's own validation.
func (c *ExtractionConfig) Validate() error {
	if c.Stat != nil {
		switch *c.Stat {
		case "mean", "sum", "min", "max", "median", "count":
		default:
			return fmt.Errorf("unknown stat %q", *c.Stat)
		}
	}
	if c.Interp != nil {
		switch *c.Interp {
		case "nearest", "bilinear":
		default:
			return fmt.Errorf("unknown interp %q", *c.Interp)
		}
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

// ApplyString overwrites dst when the override is set.
func ApplyString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// ApplyBool overwrites dst when the override is set.
func ApplyBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// ApplyFloat64 overwrites dst when the override is set.
func ApplyFloat64(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// ApplyInt overwrites dst when the override is set.
func ApplyInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

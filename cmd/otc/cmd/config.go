package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceConn/pkg/connectivity"
)

// fileConfig is the YAML form of connectivity.Config. Unset keys keep
// their defaults.
type fileConfig struct {
	Workers          *int     `yaml:"workers"`
	Clearance        *float64 `yaml:"clearance"`
	MaxZoneAnchors   *int     `yaml:"max_zone_anchors"`
	ValidateOutlines *bool    `yaml:"validate_outlines"`
	ArcSegments      *int     `yaml:"arc_segments"`
}

// loadConfig returns the default config overridden by the file at path.
// An empty path yields the defaults.
func loadConfig(path string) (*connectivity.Config, error) {
	cfg := connectivity.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.Clearance != nil {
		cfg.Clearance = *fc.Clearance
	}
	if fc.MaxZoneAnchors != nil {
		cfg.MaxZoneAnchors = *fc.MaxZoneAnchors
	}
	if fc.ValidateOutlines != nil {
		cfg.ValidateOutlines = *fc.ValidateOutlines
	}
	if fc.ArcSegments != nil {
		cfg.ArcSegments = *fc.ArcSegments
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

package connectivity

import (
	"fmt"
	"runtime"
)

// Config controls clustering and ratsnest computation.
type Config struct {
	Workers          int     // Parallel net workers per fan-out pass (default: GOMAXPROCS)
	Clearance        float64 // Extra distance in mm at which copper still counts as touching (default: 0)
	MaxZoneAnchors   int     // Anchors sampled per zone island for ratsnest endpoints (default: 32)
	ValidateOutlines bool    // Reject self-intersecting zone islands as malformed (default: true)
	ArcSegments      int     // Chords per arc track when the arc does not set its own (default: 16)
}

// DefaultConfig returns a Config with sensible defaults for most boards.
func DefaultConfig() *Config {
	return &Config{
		Workers:          runtime.GOMAXPROCS(0),
		Clearance:        0,
		MaxZoneAnchors:   32,
		ValidateOutlines: true,
		ArcSegments:      16,
	}
}

// Validate checks the configuration for errors and fills in defaults.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxZoneAnchors < 1 {
		c.MaxZoneAnchors = 32
	}
	if c.ArcSegments < 1 {
		c.ArcSegments = 16
	}
	if c.Clearance < 0 {
		return fmt.Errorf("clearance must not be negative, got %v", c.Clearance)
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
)

const (
	AlgorithmCA  = "ca"
	AlgorithmCBS = "cbs"
)

// PlannerConfig selects and tunes the path planner.
type PlannerConfig struct {
	// Algorithm is "ca" or "cbs".
	Algorithm string `json:"algorithm"`
	// ObstacleCode marks blocked grid cells.
	ObstacleCode string `json:"obstacle_code"`
	// Seed drives clustering; 0 picks a time-based seed.
	Seed int64 `json:"seed"`
	// MaxCBSNodes bounds conflict-based search expansions.
	MaxCBSNodes int `json:"max_cbs_nodes"`
	// Parallel plans CBS branches concurrently. Nil means true.
	Parallel *bool `json:"parallel"`
	// Horizon is the search slack past the latest constraint; 0 uses the
	// grid cell count.
	Horizon int `json:"horizon"`
}

// SetDefaults applies sane defaults.
func (c *PlannerConfig) SetDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgorithmCA
	}
	c.Algorithm = strings.ToLower(c.Algorithm)
	if c.ObstacleCode == "" {
		c.ObstacleCode = "8"
	}
	if c.MaxCBSNodes == 0 {
		c.MaxCBSNodes = 20000
	}
	if c.Parallel == nil {
		on := true
		c.Parallel = &on
	}
}

// IsParallel reports whether CBS may plan branches concurrently.
func (c PlannerConfig) IsParallel() bool {
	return c.Parallel == nil || *c.Parallel
}

// Validate checks mandatory fields.
func (c PlannerConfig) Validate() error {
	if c.Algorithm != AlgorithmCA && c.Algorithm != AlgorithmCBS {
		return fmt.Errorf("unknown algorithm %s", c.Algorithm)
	}
	if c.ObstacleCode == "" {
		return fmt.Errorf("obstacle_code is required")
	}
	if c.MaxCBSNodes < 0 {
		return fmt.Errorf("max_cbs_nodes must not be negative")
	}
	if c.Horizon < 0 {
		return fmt.Errorf("horizon must not be negative")
	}
	return nil
}

package config

import (
	"fmt"
	"regexp"
)

var metricName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MetricsConfig controls Prometheus collection.
type MetricsConfig struct {
	// Namespace prefixes every metric name.
	Namespace string `json:"namespace"`
	// Textfile, when set, receives a text-format dump after each command.
	Textfile string `json:"textfile"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.Namespace == "" {
		c.Namespace = "pickplan"
	}
}

// Validate checks mandatory fields.
func (c MetricsConfig) Validate() error {
	if !metricName.MatchString(c.Namespace) {
		return fmt.Errorf("invalid namespace %q", c.Namespace)
	}
	return nil
}

package observability

import (
	"fmt"
	"time"
)

// TracerConfig configures span export.
type TracerConfig struct {
	// Enabled turns on OTLP span export. When false spans go to the no-op provider.
	Enabled bool `mapstructure:"enabled"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `mapstructure:"endpoint"`
	// Insecure disables TLS to the collector.
	Insecure bool `mapstructure:"insecure"`
	// SampleRate is the sampling rate (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *TracerConfig) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Validate checks the configuration.
func (c *TracerConfig) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("tracing: sample_rate must be within [0, 1], got %v", c.SampleRate)
	}
	return nil
}

// MeterConfig configures the metric pipeline. Metrics are always collected
// for the Prometheus scrape endpoint; OTLP push is optional.
type MeterConfig struct {
	// Enabled exposes the scrape endpoint.
	Enabled bool `mapstructure:"enabled"`
	// Path is where the scrape endpoint is mounted.
	Path string `mapstructure:"path"`
	// OTLP pushes the same instruments to a collector.
	OTLP OTLPConfig `mapstructure:"otlp"`
}

// OTLPConfig configures periodic OTLP metric export.
type OTLPConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Insecure bool          `mapstructure:"insecure"`
	Interval time.Duration `mapstructure:"interval"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *MeterConfig) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if c.OTLP.Endpoint == "" {
		c.OTLP.Endpoint = "localhost:4318"
	}
	if c.OTLP.Interval <= 0 {
		c.OTLP.Interval = 15 * time.Second
	}
}

// Validate checks the configuration.
func (c *MeterConfig) Validate() error {
	if c.Path == "" || c.Path[0] != '/' {
		return fmt.Errorf("metrics: path must start with '/', got %q", c.Path)
	}
	return nil
}

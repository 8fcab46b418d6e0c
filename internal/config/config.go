// Package config defines process configuration and the rider input file.
//
// Conventions:
// - Configuration is layered: defaults, then the YAML file named by
//   ERGOFIT_CONFIG, then ERGOFIT_* environment variables.
// - Errors wrap ErrLoadConfig for I/O and decoding failures and
//   ErrInvalidConfig for values that fail validation.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/ergofit/internal/domain/scoring"
)

// JointReference is a configured mean and standard deviation in degrees.
type JointReference struct {
	Mean float64 `koanf:"mean"`
	SD   float64 `koanf:"sd"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// WorkerCount sets the number of batch workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds how many batch rows are queued at once.
	QueueSize int `koanf:"queue_size"`

	// CacheSize bounds the solved result cache. Zero disables it.
	CacheSize int `koanf:"cache_size"`

	// SweepStepDeg is the crank sweep resolution in degrees.
	SweepStepDeg float64 `koanf:"sweep_step_deg"`

	// ElbowAngleDeg is the elbow bend used when the input gives none.
	ElbowAngleDeg float64 `koanf:"elbow_angle_deg"`

	// Discipline is the use case scored when the input names none.
	Discipline string `koanf:"discipline"`

	// MetricsEnabled turns the Prometheus recorders on.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// UseCases overrides joint references per discipline, e.g.
	// use_cases.road.knee.mean. Unknown disciplines are added.
	UseCases map[string]map[string]JointReference `koanf:"use_cases"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		WorkerCount:    runtime.NumCPU(),
		QueueSize:      1024,
		CacheSize:      4096,
		SweepStepDeg:   1,
		ElbowAngleDeg:  160,
		Discipline:     scoring.Road,
		MetricsEnabled: true,
	}
}

// Table builds the discipline table: defaults merged with UseCases.
func (c *Config) Table() (*scoring.Table, error) {
	base := scoring.DefaultTable()
	if len(c.UseCases) == 0 {
		return base, nil
	}
	overrides := make(map[string]map[string]scoring.Reference, len(c.UseCases))
	for name, joints := range c.UseCases {
		refs := make(map[string]scoring.Reference, len(joints))
		for joint, r := range joints {
			refs[joint] = scoring.Reference{Mean: r.Mean, SD: r.SD}
		}
		overrides[name] = refs
	}
	t, err := base.WithOverrides(overrides)
	if err != nil {
		return nil, fmt.Errorf("use_cases: %w: %w", ErrInvalidConfig, err)
	}
	return t, nil
}

// Validate checks every field and the merged discipline table.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q: %w", c.LogLevel, ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q: %w", c.LogFormat, ErrInvalidConfig)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker_count %d must be positive: %w", c.WorkerCount, ErrInvalidConfig)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size %d must be positive: %w", c.QueueSize, ErrInvalidConfig)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size %d must not be negative: %w", c.CacheSize, ErrInvalidConfig)
	}
	if !(c.SweepStepDeg > 0 && c.SweepStepDeg <= 360) {
		return fmt.Errorf("sweep_step_deg %g must be in (0, 360]: %w", c.SweepStepDeg, ErrInvalidConfig)
	}
	if !(c.ElbowAngleDeg > 0 && c.ElbowAngleDeg <= 180) {
		return fmt.Errorf("elbow_angle_deg %g must be in (0, 180]: %w", c.ElbowAngleDeg, ErrInvalidConfig)
	}
	t, err := c.Table()
	if err != nil {
		return err
	}
	if _, err := t.Lookup(c.Discipline); err != nil {
		return fmt.Errorf("discipline: %w: %w", ErrInvalidConfig, err)
	}
	return nil
}

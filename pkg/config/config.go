// Package config loads and validates fozzy's process-wide configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents fozzy's process configuration.
type Config struct {
	Framework   FrameworkConfig   `yaml:"framework"`
	Determinism DeterminismConfig `yaml:"determinism"`
	Capability  CapabilityConfig  `yaml:"capability"`
	Reporting   ReportingConfig   `yaml:"reporting"`
	Shrink      ShrinkConfig      `yaml:"shrink"`
	Safety      SafetyConfig      `yaml:"safety"`
}

// FrameworkConfig contains general framework settings.
type FrameworkConfig struct {
	Version   string `yaml:"version"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DeterminismConfig contains settings governing the deterministic substrate.
type DeterminismConfig struct {
	// Strict, when true, rejects any host capability backend (--det).
	Strict bool `yaml:"strict"`

	// DefaultSeed is used when a scenario does not pin its own seed.
	DefaultSeed int64 `yaml:"default_seed"`
}

// CapabilityConfig contains per-capability ceilings and toggles.
type CapabilityConfig struct {
	HTTPBodyCeilingBytes int           `yaml:"http_body_ceiling_bytes"`
	ProcOutputCeilingBytes int         `yaml:"proc_output_ceiling_bytes"`
	MemLimitMB           int           `yaml:"mem_limit_mb"`
	MemFailAfter         int           `yaml:"mem_fail_after"`
	HostTimeout          time.Duration `yaml:"host_timeout"`
}

// ReportingConfig contains reporting and artifact output settings.
type ReportingConfig struct {
	OutputDir  string   `yaml:"output_dir"`
	KeepLastN  int      `yaml:"keep_last_n"`
	Formats    []string `yaml:"formats"`
	PrettyJSON bool     `yaml:"pretty_json"`
	Collision  string   `yaml:"collision"` // error|overwrite|append
}

// ShrinkConfig contains shrinker budget settings.
type ShrinkConfig struct {
	MaxTrials  int           `yaml:"max_trials"`
	MaxElapsed time.Duration `yaml:"max_elapsed"`
}

// SafetyConfig contains safety limits.
type SafetyConfig struct {
	MaxVirtualTicks     int64 `yaml:"max_virtual_ticks"`
	RequireConfirmation bool  `yaml:"require_confirmation"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			Version:   "v1",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Determinism: DeterminismConfig{
			Strict:      true,
			DefaultSeed: 1,
		},
		Capability: CapabilityConfig{
			HTTPBodyCeilingBytes:   1 << 20,
			ProcOutputCeilingBytes: 1 << 16,
			MemLimitMB:             0,
			MemFailAfter:           0,
			HostTimeout:            30 * time.Second,
		},
		Reporting: ReportingConfig{
			OutputDir:  "./reports",
			KeepLastN:  50,
			Formats:    []string{"json"},
			PrettyJSON: false,
			Collision:  "error",
		},
		Shrink: ShrinkConfig{
			MaxTrials:  2000,
			MaxElapsed: 10 * time.Minute,
		},
		Safety: SafetyConfig{
			MaxVirtualTicks:     1_000_000,
			RequireConfirmation: false,
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist. FOZZY_TRACE_PRETTY=1 overrides Reporting.PrettyJSON.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "fozzy.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if os.Getenv("FOZZY_TRACE_PRETTY") == "1" {
		cfg.Reporting.PrettyJSON = true
	}
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}

	switch c.Reporting.Collision {
	case "error", "overwrite", "append":
	default:
		return fmt.Errorf("reporting.collision must be one of error|overwrite|append, got %q", c.Reporting.Collision)
	}

	if c.Capability.MemFailAfter < 0 {
		return fmt.Errorf("capability.mem_fail_after must be >= 0")
	}

	if c.Safety.MaxVirtualTicks < 0 {
		return fmt.Errorf("safety.max_virtual_ticks must be >= 0")
	}

	return nil
}

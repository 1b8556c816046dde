// Package config loads scenario files and environment overrides for the
// command-line tool and the HTTP server.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"efuel-lca/decision/carbon"
	"efuel-lca/decision/params"
	"efuel-lca/decision/policy"
	"efuel-lca/pkg/platform"
	"efuel-lca/pkg/units"
)

// Environment variables consulted after the scenario file.
const (
	EnvElectricitySource = "SAFLCA_ELECTRICITY_SOURCE"
	EnvFunctionalUnit    = "SAFLCA_FUNCTIONAL_UNIT"
	EnvFossilBaseline    = "SAFLCA_FOSSIL_BASELINE"
	EnvWorkers           = "SAFLCA_WORKERS"
	EnvLogLevel          = "SAFLCA_LOG_LEVEL"
	EnvLogPretty         = "SAFLCA_LOG_PRETTY"
	EnvAddr              = "SAFLCA_ADDR"
	EnvAPIKey            = "SAFLCA_API_KEY"
)

// DefaultWorkers bounds concurrent pipeline evaluations.
const DefaultWorkers = 4

// Config is a scenario file merged onto the reference parameters.
type Config struct {
	Parameters *params.Set `yaml:"parameters"`

	// CarbonIntensities adds or replaces grid intensities (kg CO2e/kWh) by source name.
	CarbonIntensities map[string]float64 `yaml:"carbon_intensities,omitempty"`
	Policies          []policy.Policy    `yaml:"policies,omitempty"`

	Workers int          `yaml:"workers"`
	Log     LogConfig    `yaml:"log"`
	Server  ServerConfig `yaml:"server"`
}

// LogConfig selects the zerolog level and writer.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key,omitempty"`
}

// DefaultConfig returns the reference scenario with default runtime settings.
func DefaultConfig() *Config {
	return &Config{
		Parameters: params.Default(),
		Workers:    DefaultWorkers,
		Log:        LogConfig{Level: "info"},
		Server:     ServerConfig{Addr: ":8080"},
	}
}

// Load reads a scenario file over the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading scenario file: %w", err)
		}
		if err := cfg.merge(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.merge(data); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if c.Parameters == nil {
		c.Parameters = params.Default()
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if source := platform.GetEnv(EnvElectricitySource, ""); source != "" {
		c.Parameters = c.Parameters.WithElectricitySource(source)
	}
	if fu := platform.GetEnv(EnvFunctionalUnit, ""); fu != "" {
		parsed, err := units.ParseFunctionalUnit(strings.TrimSpace(fu))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFunctionalUnit, err)
		}
		c.Parameters.FunctionalUnit = parsed
	}
	c.Parameters.FossilBaseline = platform.GetEnvFloat(EnvFossilBaseline, c.Parameters.FossilBaseline)
	c.Workers = platform.GetEnvInt(EnvWorkers, c.Workers)

	c.Log.Level = platform.GetEnv(EnvLogLevel, c.Log.Level)
	c.Log.Pretty = platform.GetEnvBool(EnvLogPretty, c.Log.Pretty)
	c.Server.Addr = platform.GetEnv(EnvAddr, c.Server.Addr)
	c.Server.APIKey = platform.GetEnv(EnvAPIKey, c.Server.APIKey)
	return nil
}

// Validate checks the parameters, the intensity table and the policies. The
// electricity source must resolve against the table.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if err := c.Parameters.Validate(); err != nil {
		return err
	}
	store, err := carbon.NewStore(c.CarbonIntensities)
	if err != nil {
		return fmt.Errorf("carbon_intensities: %w", err)
	}
	if _, err := carbon.Resolve(store, c.Parameters.Electricity); err != nil {
		return err
	}
	for _, p := range c.Policies {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("policies: %w", err)
		}
	}
	return nil
}

// Store returns the intensity store: custom entries first, then the built-in table.
func (c *Config) Store() (carbon.Store, error) {
	return carbon.NewStore(c.CarbonIntensities)
}

// PolicyEngine returns the built-in policies plus those declared in the file.
func (c *Config) PolicyEngine() (*policy.Engine, error) {
	e := policy.NewEngine()
	for _, p := range c.Policies {
		if err := e.AddPolicy(p); err != nil {
			return nil, err
		}
	}
	return e, nil
}

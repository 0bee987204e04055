package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/lingua/internal/content"
	"github.com/abhisek/lingua/internal/generator"
	"github.com/abhisek/lingua/internal/level"
	"github.com/abhisek/lingua/internal/llm"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the complete runtime configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Policy   level.Policy   `yaml:"policy"`

	// PolicyFile names a YAML file overlaid onto Policy before env
	// overrides apply.
	PolicyFile string `yaml:"policy_file"`

	Catalog   content.Catalog  `yaml:"catalog"`
	Generator generator.Config `yaml:"generator"`
	LLM       llm.Config       `yaml:"llm"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	// Driver is "sqlite", "postgres" or "memory". The memory backend keeps
	// nothing across runs.
	Driver string `yaml:"driver"`

	// DSN is a file path for sqlite (empty means the default data dir)
	// or a connection string for postgres.
	DSN string `yaml:"dsn"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	// Mode is "production" for JSON output, anything else for development.
	Mode string `yaml:"mode"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database:  DatabaseConfig{Driver: DriverSQLite},
		Log:       LogConfig{Mode: "production"},
		Policy:    level.DefaultPolicy(),
		Catalog:   content.DefaultCatalog(),
		Generator: generator.DefaultConfig(),
		LLM:       llm.DefaultConfig(),
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or
// $LINGUA_CONFIG when path is empty), then the policy file, then LINGUA_*
// environment variables.
// A missing file is only an error when it was named explicitly.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("LINGUA_CONFIG")
		explicit = path != ""
	}
	if path != "" {
		if err := cfg.loadFile(path, explicit); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LINGUA_POLICY_FILE"); v != "" {
		c.PolicyFile = v
	}
	if c.PolicyFile != "" {
		p, err := level.LoadPolicy(c.PolicyFile, c.Policy)
		if err != nil {
			return err
		}
		c.Policy = p
	}
	if v := os.Getenv("LINGUA_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("LINGUA_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("LINGUA_LOG_MODE"); v != "" {
		c.Log.Mode = v
	}
	if v := os.Getenv("LINGUA_LANGUAGE"); v != "" {
		c.Generator.Language = v
	}
	if v := os.Getenv("LINGUA_GEN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LINGUA_GEN_TIMEOUT: %w", err)
		}
		c.Generator.Timeout = d
	}
	if v := os.Getenv("LINGUA_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LINGUA_MAX_RETRIES: %w", err)
		}
		c.Policy.MaxRetries = n
	}
	c.LLM.ApplyEnv()
	return nil
}

// Validate checks everything except backend credentials; a missing API key
// disables generation rather than failing startup.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("policy: %w", err))
	}
	if err := c.Catalog.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("catalog: %w", err))
	}
	if c.Generator.Timeout <= 0 {
		errs = append(errs, errors.New("generator.timeout must be positive"))
	}
	return errors.Join(errs...)
}

// GenerationConfig returns the LLM settings to use, or false when no
// backend is usable. Explicit settings win; otherwise standard API key
// variables are probed.
func (c *Config) GenerationConfig() (llm.Config, bool) {
	if c.LLM.Provider == "none" {
		return llm.Config{}, false
	}
	if c.LLM.Validate() == nil {
		return c.LLM, true
	}
	if discovered, ok := llm.DiscoverConfig(); ok {
		return discovered, true
	}
	return llm.Config{}, false
}

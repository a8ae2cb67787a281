package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileNames are the config file names Load looks for, in order.
var FileNames = []string{"cgprof.yml", "cgprof.yaml"}

// Defaults applied by WithDefaults.
const (
	DefaultLogLevel    = "info"
	DefaultFormat      = "json"
	DefaultTopLimit    = 20
	DefaultConcurrency = 4

	DefaultGraphPath    = ".cgprof/graph"
	DefaultDatabasePath = ".cgprof/profiles.duckdb"
)

// ProjectConfig holds project-level settings loaded from cgprof.yml.
type ProjectConfig struct {
	LogLevel     string `yaml:"logLevel,omitempty"`
	PrettyLogs   bool   `yaml:"prettyLogs,omitempty"`
	Format       string `yaml:"format,omitempty"`
	GraphPath    string `yaml:"graphPath,omitempty"`
	DatabasePath string `yaml:"databasePath,omitempty"`
	TopLimit     int    `yaml:"topLimit,omitempty"`
	Event        string `yaml:"event,omitempty"`
	Concurrency  int    `yaml:"concurrency,omitempty"`
}

// Load attempts to read cgprof.yml or cgprof.yaml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// WithDefaults returns a copy with zero values replaced by defaults.
func (c ProjectConfig) WithDefaults() ProjectConfig {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if c.TopLimit <= 0 {
		c.TopLimit = DefaultTopLimit
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.GraphPath == "" {
		c.GraphPath = DefaultGraphPath
	}
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	return c
}

// Write stores cfg as cgprof.yml in dir. An existing file is only replaced
// when force is set.
func Write(dir string, cfg ProjectConfig, force bool) (string, error) {
	path := filepath.Join(dir, FileNames[0])
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return path, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

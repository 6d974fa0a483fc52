package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the svx compiler.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig describes where component documents live and how they are
// named. Path and Namespace are required.
type SourceConfig struct {
	Path      string   `yaml:"path"`
	Namespace string   `yaml:"namespace"`
	Includes  []string `yaml:"includes"`
	Excludes  []string `yaml:"excludes"`
}

// OutputConfig holds the aggregate artifact paths. The JS path is reserved
// for a future aggregate and currently unused.
type OutputConfig struct {
	CSS string `yaml:"css"`
	JS  string `yaml:"js"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration. Source path and
// namespace have no defaults; they must come from the config file or
// flags.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Includes: []string{"**/*.svx", "**/*.ssvx"},
			Excludes: []string{"**/node_modules/**", "**/_build/**", "**/.git/**"},
		},
		Output: OutputConfig{
			CSS: filepath.Join("assets", "css", "generated.css"),
			JS:  filepath.Join("assets", "js", "generated.js"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, returning defaults if the
// file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for svx.yaml,
// then .svx/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "svx.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".svx", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the required startup options. A missing source path or
// namespace is the only fatal startup condition.
func (c *Config) Validate() error {
	if c.Source.Path == "" {
		return errors.New("source.path is required")
	}
	if c.Source.Namespace == "" {
		return errors.New("source.namespace is required")
	}
	return nil
}

// CacheDBPath returns the path to the build cache database.
func CacheDBPath(dir string) string {
	return filepath.Join(dir, ".svx", "cache.db")
}

// EnsureSvxDir ensures the .svx directory exists.
func EnsureSvxDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".svx"), 0755)
}

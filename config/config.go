// Package config handles viewer configuration loading.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds all robot_viewer settings.
type Config struct {
	Viewer  ViewerConfig  `yaml:"viewer"`
	Model   ModelConfig   `yaml:"model"`
	Logging LoggingConfig `yaml:"logging"`
}

// ViewerConfig holds the web viewer settings.
type ViewerConfig struct {
	Addr        string `yaml:"addr"`
	OpenBrowser bool   `yaml:"open_browser"`
}

// ModelConfig describes the model loaded at startup.
type ModelConfig struct {
	Path             string    `yaml:"path"`
	Name             string    `yaml:"name"`
	ConsideredJoints []string  `yaml:"considered_joints"`
	PackageDirs      []string  `yaml:"package_dirs"`
	Color            []float64 `yaml:"color"` // empty, [alpha], [r g b] or [r g b a]
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Viewer: ViewerConfig{
			Addr:        "127.0.0.1:7000",
			OpenBrowser: false,
		},
		Model: ModelConfig{
			Name: "robot",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path on top of the defaults. An empty path looks for
// robot_viewer.yaml in the working directory and returns defaults when absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	if err := loadFromFile(cfg, path); err != nil {
		return nil, errors.Wrapf(err, "loading config from %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.Viewer.Addr == "" {
		return errors.New("viewer.addr is empty")
	}
	switch len(c.Model.Color) {
	case 0, 1, 3, 4:
	default:
		return errors.Errorf("model.color must have 0, 1, 3 or 4 components, got %d", len(c.Model.Color))
	}
	return nil
}

func findConfigFile() string {
	candidates := []string{
		"./robot_viewer.yaml",
		filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "robot_viewer", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadFromFile merges a YAML file into cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

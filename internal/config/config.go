package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all mnemo configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Engine      EngineConfig      `yaml:"engine"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type EngineConfig struct {
	DuplicateBoost    float64 `yaml:"duplicate_boost"`
	DefaultConfidence float64 `yaml:"default_confidence"`
	DefaultDecayRate  float64 `yaml:"default_decay_rate"`
	DefaultMaxTokens  int     `yaml:"default_max_tokens"`
}

type MaintenanceConfig struct {
	// DecaySchedule is a cron expression for the serve command's decay job.
	DecaySchedule string `yaml:"decay_schedule"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37991,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Engine: EngineConfig{
			DuplicateBoost:    0.05,
			DefaultConfidence: 0.8,
			DefaultDecayRate:  0.1,
			DefaultMaxTokens:  2000,
		},
		Maintenance: MaintenanceConfig{
			DecaySchedule: "0 3 * * *", // daily at 03:00
		},
	}
}

// DefaultPath returns the default config path: ~/.mnemo/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".mnemo", "config.yaml"), nil
}

// Load reads the config file at path, overlaying it onto defaults. A
// missing file is not an error — defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

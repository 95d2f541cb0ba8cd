package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// Dir is the project directory holding config, state and artifacts.
	Dir = ".sitepatch"
	// FileName is the config file inside Dir.
	FileName = "config.yaml"

	DriverFiles  = "files"
	DriverSQLite = "sqlite"
)

type Store struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=files sqlite"`
	Path   string `yaml:"path"`
}

type Checkpoints struct {
	Enabled          *bool `yaml:"enabled"`
	CompressionLevel int   `yaml:"compression-level" validate:"min=0,max=22"`
	Keep             int   `yaml:"keep" validate:"min=0"` // 0 keeps everything
}

// On reports whether checkpoints are taken. They are unless disabled.
func (c Checkpoints) On() bool {
	return c.Enabled == nil || *c.Enabled
}

type Generator struct {
	Command string   `yaml:"command"`
	Model   string   `yaml:"model"`
	Timeout int      `yaml:"timeout" validate:"min=0"` // minutes
	Args    []string `yaml:"args" validate:"dive,required"`
}

type Watch struct {
	DebounceMS int `yaml:"debounce-ms" validate:"min=0"`
}

type Log struct {
	Level      string `yaml:"level" validate:"loglevel"`
	Format     string `yaml:"format" validate:"omitempty,oneof=console json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb" validate:"min=0"`
	MaxBackups int    `yaml:"max-backups" validate:"min=0"`
}

type Config struct {
	Name        string      `yaml:"name" validate:"required"`
	Entry       string      `yaml:"entry"`
	Store       Store       `yaml:"store"`
	Checkpoints Checkpoints `yaml:"checkpoints"`
	Generator   Generator   `yaml:"generator"`
	Watch       Watch       `yaml:"watch"`
	Log         Log         `yaml:"log"`
}

// Path returns the config file location for a project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, Dir, FileName)
}

// Load reads a YAML config file and returns a validated Config.
func Load(path, projectRoot string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data, projectRoot)
}

// Parse decodes and validates YAML config data.
func Parse(data []byte, projectRoot string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := Validate(&cfg, projectRoot); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a validated config for a new project.
func Default(name string) *Config {
	cfg := &Config{Name: name, Checkpoints: Checkpoints{Keep: 20}}
	applyDefaults(cfg)
	return cfg
}

// StorePath resolves the store location against the project root.
func (c *Config) StorePath(projectRoot string) string {
	return resolve(projectRoot, c.Store.Path)
}

// LogPath resolves the log file against the project root, or returns "" when
// file logging is off.
func (c *Config) LogPath(projectRoot string) string {
	if c.Log.File == "" {
		return ""
	}
	return resolve(projectRoot, c.Log.File)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

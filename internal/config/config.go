package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/cabinet/internal/core/asset"
	"github.com/zeusync/cabinet/internal/core/observability/log"
)

// Config describes a cabinet session. It is read from YAML.
type Config struct {
	Log     LogConfig     `json:"log" yaml:"log"`
	Cabinet CabinetConfig `json:"cabinet" yaml:"cabinet"`
}

type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
	Compress   bool   `json:"compress,omitempty" yaml:"compress,omitempty"`
}

type CabinetConfig struct {
	// PreserveUnknownClasses keeps objects without a decoder as raw payloads
	// instead of failing the load.
	PreserveUnknownClasses bool `json:"preserve_unknown_classes" yaml:"preserve_unknown_classes"`
	// SearchPaths are tried in order when Link looks for a dependency file.
	SearchPaths []string `json:"search_paths,omitempty" yaml:"search_paths,omitempty"`
	LoadWorkers int      `json:"load_workers" yaml:"load_workers"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Cabinet: CabinetConfig{
			LoadWorkers: runtime.GOMAXPROCS(0),
		},
	}
}

// Load decodes YAML from r over the defaults. An empty document yields the
// defaults.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return errors.New("log rotation limits must not be negative")
	}
	if c.Cabinet.LoadWorkers < 1 {
		return fmt.Errorf("cabinet.load_workers must be at least 1, got %d", c.Cabinet.LoadWorkers)
	}
	return nil
}

// LogOptions maps the log section onto logger options.
func (c *Config) LogOptions() log.Options {
	level, _ := log.ParseLevel(c.Log.Level)
	return log.Options{
		Level:      level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

// UnknownClasses is the cabinet policy for classes without a decoder.
func (c *Config) UnknownClasses() asset.UnknownClassPolicy {
	if c.Cabinet.PreserveUnknownClasses {
		return asset.PreserveUnknown
	}
	return asset.RejectUnknown
}

package logmux

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Configuration load failures. All are fatal at construction time and are
// returned before any queue, listener, or handler is created.
var (
	// ErrConfigNotFound indicates the config file does not exist.
	ErrConfigNotFound = errors.New("logmux: config file not found")
	// ErrConfigParse indicates the config file could not be decoded.
	ErrConfigParse = errors.New("logmux: config parse failure")
	// ErrUnsupportedFormat indicates an unrecognized config file extension.
	ErrUnsupportedFormat = errors.New("logmux: unsupported config format")
)

// Config is the resolved handler specification consumed by the aggregator.
// It is immutable after load.
type Config struct {
	Root     RootConfig             `yaml:"root" json:"root" toml:"root"`
	Handlers map[string]HandlerSpec `yaml:"handlers" json:"handlers" toml:"handlers"`
}

// RootConfig carries facade-wide settings.
type RootConfig struct {
	Level     string `yaml:"level" json:"level" toml:"level"`
	Propagate bool   `yaml:"propagate" json:"propagate" toml:"propagate"`
}

// HandlerSpec describes one sink: kind, threshold, formatting, and the
// sink-specific parameters for file-backed kinds.
type HandlerSpec struct {
	Type        string        `yaml:"type" json:"type" toml:"type"`
	Level       string        `yaml:"level" json:"level" toml:"level"`
	Filename    string        `yaml:"filename" json:"filename" toml:"filename"`
	Mode        string        `yaml:"mode" json:"mode" toml:"mode"`
	Encoding    string        `yaml:"encoding" json:"encoding" toml:"encoding"`
	MaxBytes    int64         `yaml:"max_bytes" json:"max_bytes" toml:"max_bytes"`
	BackupCount int           `yaml:"backup_count" json:"backup_count" toml:"backup_count"`
	When        string        `yaml:"when" json:"when" toml:"when"`
	Interval    int           `yaml:"interval" json:"interval" toml:"interval"`
	Formatter   FormatterSpec `yaml:"formatter" json:"formatter" toml:"formatter"`
}

// FormatterSpec configures the record template for one handler.
type FormatterSpec struct {
	Format  string `yaml:"format" json:"format" toml:"format"`
	Datefmt string `yaml:"datefmt" json:"datefmt" toml:"datefmt"`
}

// LoadConfig reads and decodes a handler specification from a YAML, JSON, or
// TOML file, dispatching on the file extension.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmtErrorf("'%s': %w", path, ErrConfigNotFound)
		}
		return nil, fmtErrorf("failed to stat config file '%s': %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmtErrorf("failed to read config file '%s': %w", path, err)
	}

	cfg := &Config{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmtErrorf("'%s': %w: %v", path, ErrConfigParse, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmtErrorf("'%s': %w: %v", path, ErrConfigParse, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmtErrorf("'%s': %w: %v", path, ErrConfigParse, err)
		}
	default:
		return nil, fmtErrorf("'%s': %w", path, ErrUnsupportedFormat)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects values no handler could be built from. Unknown handler
// types are deliberately not rejected here; they are skipped during chain
// construction so one bad handler does not fail the whole config.
func (c *Config) validate() error {
	if c.Root.Level != "" {
		if _, err := ParseLevel(c.Root.Level); err != nil {
			return fmtErrorf("invalid root level: %w", err)
		}
	}

	for name, spec := range c.Handlers {
		if spec.Level != "" {
			if _, err := ParseLevel(spec.Level); err != nil {
				return fmtErrorf("handler '%s': invalid level: %w", name, err)
			}
		}
		if spec.Mode != "" && spec.Mode != "append" && spec.Mode != "truncate" &&
			spec.Mode != "a" && spec.Mode != "w" {
			return fmtErrorf("handler '%s': invalid mode '%s' (use append or truncate)", name, spec.Mode)
		}
		if spec.MaxBytes < 0 {
			return fmtErrorf("handler '%s': max_bytes cannot be negative: %d", name, spec.MaxBytes)
		}
		if spec.BackupCount < 0 {
			return fmtErrorf("handler '%s': backup_count cannot be negative: %d", name, spec.BackupCount)
		}
		if spec.Interval < 0 {
			return fmtErrorf("handler '%s': interval cannot be negative: %d", name, spec.Interval)
		}
	}

	return nil
}

// threshold resolves the handler level, defaulting to INFO.
func (h HandlerSpec) threshold() Level {
	if h.Level == "" {
		return LevelInfo
	}
	level, err := ParseLevel(h.Level)
	if err != nil {
		return LevelInfo
	}
	return level
}

// rootLevel resolves the root level, falling back to the supplied default
// when the config leaves it unset.
func (c *Config) rootLevel(fallback Level) Level {
	if c == nil || c.Root.Level == "" {
		return fallback
	}
	level, err := ParseLevel(c.Root.Level)
	if err != nil {
		return fallback
	}
	return level
}

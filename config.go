package spanline

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var errNoFilePath = errors.New("file output enabled but no path configured")

// Config holds the complete capture configuration.
type Config struct {
	// Level sets the minimum event level: trace, debug, info, warn, error.
	// Span capture is unaffected by the level; spans are always recorded so
	// that an enabled event can serialize its full ancestor chain.
	// Default: "trace"
	Level string `yaml:"level" json:"level" env:"SPANLINE_LEVEL"`

	// ServiceName is the default target for loggers that are not Named.
	ServiceName string `yaml:"service_name" json:"service_name" env:"SERVICE_NAME"`

	// Version is the application version, for the caller's own use in fields.
	Version string `yaml:"version" json:"version" env:"SERVICE_VERSION"`

	// Console output configuration.
	Console ConsoleConfig `yaml:"console" json:"console"`

	// File output configuration (with rotation).
	File FileConfig `yaml:"file" json:"file"`
}

// ConsoleConfig configures console output.
type ConsoleConfig struct {
	// Enabled controls whether console output is active.
	// Default: true
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Stream selects "stdout" or "stderr".
	// Default: "stdout"
	Stream string `yaml:"stream" json:"stream"`
}

// FileConfig configures file output with rotation.
type FileConfig struct {
	// Enabled controls whether file output is active.
	// Default: false
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Path is the log file path.
	// Example: "/var/log/app/events.log"
	Path string `yaml:"path" json:"path"`

	// MaxSizeMB is the maximum size in MB before rotation.
	// Default: 100
	MaxSizeMB int `yaml:"max_size_mb" json:"max_size_mb"`

	// MaxAgeDays is the maximum age in days to retain old logs.
	// Default: 7
	MaxAgeDays int `yaml:"max_age_days" json:"max_age_days"`

	// MaxBackups is the maximum number of old log files to keep.
	// Default: 5
	MaxBackups int `yaml:"max_backups" json:"max_backups"`

	// Compress enables gzip compression of rotated log files.
	// Default: true
	Compress bool `yaml:"compress" json:"compress"`
}

// Default returns a Config with sensible production defaults.
func Default() Config {
	return Config{
		Level:       "trace",
		ServiceName: "unknown",
		Console: ConsoleConfig{
			Enabled: true,
			Stream:  "stdout",
		},
		File: FileConfig{
			Enabled:    false,
			MaxSizeMB:  100,
			MaxAgeDays: 7,
			MaxBackups: 5,
			Compress:   true,
		},
	}
}

// FromFile loads a Config from a YAML file, applying defaults for anything
// the file leaves unset.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// WithLevel returns a copy of the config with the specified level.
func (c Config) WithLevel(level string) Config {
	c.Level = level
	return c
}

// WithService returns a copy of the config with the specified service name.
func (c Config) WithService(name string) Config {
	c.ServiceName = name
	return c
}

// WithFile returns a copy of the config with file output enabled.
func (c Config) WithFile(path string) Config {
	c.File.Enabled = true
	c.File.Path = path
	return c
}

// WithConsole returns a copy of the config with console output toggled.
func (c Config) WithConsole(enabled bool) Config {
	c.Console.Enabled = enabled
	return c
}

// Package config defines the application configuration and its defaults.
package config

import (
	"fmt"

	"github.com/anvik-systems/payqr/internal/detector"
	"github.com/anvik-systems/payqr/internal/imgproc"
	"github.com/anvik-systems/payqr/internal/mldetect"
)

// Config is the full application configuration, loadable from file,
// environment variables and flags.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
}

// PipelineConfig groups the scan pipeline settings.
type PipelineConfig struct {
	Preprocess imgproc.Config  `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
	Detector   detector.Config `mapstructure:"detector" yaml:"detector" json:"detector"`
	ML         mldetect.Config `mapstructure:"ml" yaml:"ml" json:"ml"`
	MaxWorkers int             `mapstructure:"max_workers" yaml:"max_workers" json:"max_workers"`
	Rectify    bool            `mapstructure:"rectify" yaml:"rectify" json:"rectify"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host" json:"host"`
	Port        int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec  int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// OutputConfig controls CLI output rendering.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"` // json or text
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Pipeline: PipelineConfig{
			Preprocess: imgproc.DefaultConfig(),
			Detector:   detector.DefaultConfig(),
			ML:         mldetect.DefaultConfig(),
			MaxWorkers: 0, // 0 means NumCPU
			Rectify:    true,
		},
		Server: ServerConfig{
			Host:        "127.0.0.1",
			Port:        8080,
			MaxUploadMB: 20,
			TimeoutSec:  30,
		},
		Output: OutputConfig{Format: "text"},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	switch c.Output.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: invalid output format %q", c.Output.Format)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("config: max upload must be positive, got %d", c.Server.MaxUploadMB)
	}
	return nil
}

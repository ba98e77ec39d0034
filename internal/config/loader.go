package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name of configuration files, without
	// extension.
	ConfigFileName = "payqr"

	// EnvPrefix prefixes environment variables, e.g. PAYQR_LOG_LEVEL.
	EnvPrefix = "PAYQR"
)

// Loader reads configuration from files, environment and bound flags.
type Loader struct {
	v *viper.Viper
}

// NewLoader uses the global viper instance so cobra flag bindings apply.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load resolves configuration from the standard search paths. A missing
// config file is not an error; defaults and environment variables apply.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadFile resolves configuration from an explicit file path.
func (l *Loader) LoadFile(path string) (*Config, error) {
	if path == "" {
		return l.Load()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	l.v.SetConfigFile(path)
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "payqr"))
	}
	l.v.AddConfigPath("/etc/payqr")
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("pipeline.preprocess.adaptive_threshold", defaults.Pipeline.Preprocess.AdaptiveThreshold)
	l.v.SetDefault("pipeline.preprocess.block_size", defaults.Pipeline.Preprocess.BlockSize)
	l.v.SetDefault("pipeline.preprocess.denoise", defaults.Pipeline.Preprocess.Denoise)
	l.v.SetDefault("pipeline.preprocess.denoise_strength", defaults.Pipeline.Preprocess.DenoiseStrength)
	l.v.SetDefault("pipeline.preprocess.enhance_contrast", defaults.Pipeline.Preprocess.EnhanceContrast)

	l.v.SetDefault("pipeline.detector.min_size", defaults.Pipeline.Detector.MinSize)
	l.v.SetDefault("pipeline.detector.max_size", defaults.Pipeline.Detector.MaxSize)
	l.v.SetDefault("pipeline.detector.threshold", defaults.Pipeline.Detector.Threshold)
	l.v.SetDefault("pipeline.detector.ratio_tolerance", defaults.Pipeline.Detector.RatioTolerance)
	l.v.SetDefault("pipeline.detector.module_agreement", defaults.Pipeline.Detector.ModuleAgreement)
	l.v.SetDefault("pipeline.detector.side_tolerance", defaults.Pipeline.Detector.SideTolerance)
	l.v.SetDefault("pipeline.detector.box_margin", defaults.Pipeline.Detector.BoxMargin)

	l.v.SetDefault("pipeline.ml.model_path", defaults.Pipeline.ML.ModelPath)
	l.v.SetDefault("pipeline.ml.input_size", defaults.Pipeline.ML.InputSize)
	l.v.SetDefault("pipeline.ml.conf_threshold", defaults.Pipeline.ML.ConfThreshold)
	l.v.SetDefault("pipeline.ml.iou_threshold", defaults.Pipeline.ML.IoUThreshold)
	l.v.SetDefault("pipeline.ml.num_threads", defaults.Pipeline.ML.NumThreads)
	l.v.SetDefault("pipeline.ml.refine_corners", defaults.Pipeline.ML.RefineCorners)

	l.v.SetDefault("pipeline.max_workers", defaults.Pipeline.MaxWorkers)
	l.v.SetDefault("pipeline.rectify", defaults.Pipeline.Rectify)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)

	l.v.SetDefault("output.format", defaults.Output.Format)
}

package imgproc

import (
	"image"
	"log/slog"
)

// maxWorkingDimension bounds the working resolution before detection.
const maxWorkingDimension = 1000

// Config controls the optional preprocessing steps applied before detection.
type Config struct {
	AdaptiveThreshold bool    `mapstructure:"adaptive_threshold" yaml:"adaptive_threshold" json:"adaptive_threshold"`
	BlockSize         int     `mapstructure:"block_size" yaml:"block_size" json:"block_size"`
	Denoise           bool    `mapstructure:"denoise" yaml:"denoise" json:"denoise"`
	DenoiseStrength   float64 `mapstructure:"denoise_strength" yaml:"denoise_strength" json:"denoise_strength"`
	EnhanceContrast   bool    `mapstructure:"enhance_contrast" yaml:"enhance_contrast" json:"enhance_contrast"`
}

// DefaultConfig returns the default preprocessing configuration.
func DefaultConfig() Config {
	return Config{
		AdaptiveThreshold: true,
		BlockSize:         51,
		Denoise:           true,
		DenoiseStrength:   1.0,
		EnhanceContrast:   true,
	}
}

// Processor applies the configured preprocessing chain. It is stateless; a
// single instance may be shared across goroutines.
type Processor struct {
	cfg Config
}

// NewProcessor creates a processor with the given configuration.
func NewProcessor(cfg Config) *Processor {
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = DefaultConfig().BlockSize
	}
	return &Processor{cfg: cfg}
}

// Config returns a copy of the processor configuration.
func (p *Processor) Config() Config { return p.cfg }

// Process runs the preprocessing chain: bounded resize, then optional
// denoising, contrast stretching and adaptive binarization.
func (p *Processor) Process(g *image.Gray) *image.Gray {
	result := ResizeMax(g, maxWorkingDimension)

	if p.cfg.Denoise {
		result = Denoise(result, p.cfg.DenoiseStrength)
	}
	if p.cfg.EnhanceContrast {
		result = StretchContrast(result)
	}
	if p.cfg.AdaptiveThreshold {
		result = AdaptiveThreshold(result, p.cfg.BlockSize)
	}

	slog.Debug("preprocessing complete",
		"input_width", g.Bounds().Dx(),
		"input_height", g.Bounds().Dy(),
		"output_width", result.Bounds().Dx(),
		"output_height", result.Bounds().Dy())
	return result
}

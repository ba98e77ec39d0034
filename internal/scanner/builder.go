package scanner

import (
	"os"
	"runtime"

	"github.com/anvik-systems/payqr/internal/decode"
	"github.com/anvik-systems/payqr/internal/detector"
	"github.com/anvik-systems/payqr/internal/imgproc"
	"github.com/anvik-systems/payqr/internal/mldetect"
)

// Builder assembles a Scanner. Every knob has a sensible default; the zero
// builder yields a working classical-detection pipeline.
type Builder struct {
	procCfg    imgproc.Config
	detCfg     detector.Config
	mlCfg      mldetect.Config
	mlModel    []byte
	useML      bool
	maxWorkers int
	rectify    bool
	providers  []decode.Provider
	err        error
}

// NewBuilder returns a builder with default configuration.
func NewBuilder() *Builder {
	return &Builder{
		procCfg:    imgproc.DefaultConfig(),
		detCfg:     detector.DefaultConfig(),
		mlCfg:      mldetect.DefaultConfig(),
		maxWorkers: runtime.NumCPU(),
		rectify:    true,
	}
}

// WithPreprocessing overrides the preprocessing configuration.
func (b *Builder) WithPreprocessing(cfg imgproc.Config) *Builder {
	b.procCfg = cfg
	return b
}

// WithDetector overrides the finder-pattern detector configuration.
func (b *Builder) WithDetector(cfg detector.Config) *Builder {
	b.detCfg = cfg
	return b
}

// WithModelPath enables the learned detector, loading the model from disk.
func (b *Builder) WithModelPath(path string) *Builder {
	b.mlCfg.ModelPath = path
	b.useML = true
	return b
}

// WithModelBytes enables the learned detector from in-memory model data.
func (b *Builder) WithModelBytes(model []byte) *Builder {
	b.mlModel = model
	b.useML = true
	return b
}

// WithMLConfig overrides the learned detector configuration. The detector is
// only activated when a model path or model bytes are also supplied.
func (b *Builder) WithMLConfig(cfg mldetect.Config) *Builder {
	path := b.mlCfg.ModelPath
	b.mlCfg = cfg
	if b.mlCfg.ModelPath == "" {
		b.mlCfg.ModelPath = path
	}
	return b
}

// WithMaxWorkers bounds the region-decoding worker pool.
func (b *Builder) WithMaxWorkers(n int) *Builder {
	if n > 0 {
		b.maxWorkers = n
	}
	return b
}

// WithRectification toggles per-region perspective correction.
func (b *Builder) WithRectification(enabled bool) *Builder {
	b.rectify = enabled
	return b
}

// WithProviders overrides the codec providers consulted by the cascade.
func (b *Builder) WithProviders(providers ...decode.Provider) *Builder {
	b.providers = providers
	return b
}

// Build constructs the scanner. The learned detector, when requested, is
// loaded here so a bad model path fails construction rather than the first
// scan.
func (b *Builder) Build() (*Scanner, error) {
	if b.err != nil {
		return nil, b.err
	}

	s := &Scanner{
		processor:  imgproc.NewProcessor(b.procCfg),
		proposer:   detector.New(b.detCfg),
		cascade:    decode.NewCascade(b.providers...),
		maxWorkers: b.maxWorkers,
		rectify:    b.rectify,
	}

	if b.useML {
		ml, err := b.buildML()
		if err != nil {
			return nil, err
		}
		s.ml = ml
	}
	return s, nil
}

func (b *Builder) buildML() (*mldetect.Detector, error) {
	if len(b.mlModel) > 0 {
		return mldetect.NewFromBytes(b.mlModel, b.mlCfg)
	}
	if _, err := os.Stat(b.mlCfg.ModelPath); err != nil {
		return nil, err
	}
	return mldetect.New(b.mlCfg)
}

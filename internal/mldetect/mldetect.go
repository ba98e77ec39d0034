// Package mldetect proposes QR regions with an ONNX object-detection model.
// It complements the classical finder-pattern detector on photos where
// glare, perspective or damage break the 1:1:3:1:1 scanline signature.
package mldetect

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// InferenceError wraps failures from the ONNX runtime so callers can fall
// back to the classical detector.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string { return fmt.Sprintf("mldetect: inference failed: %v", e.Err) }
func (e *InferenceError) Unwrap() error { return e.Err }

// Config holds the learned-detector settings. The thresholds are the usual
// YOLO-style defaults and can be tuned per deployment.
type Config struct {
	ModelPath     string  `mapstructure:"model_path" yaml:"model_path" json:"model_path"`
	InputSize     int     `mapstructure:"input_size" yaml:"input_size" json:"input_size"`
	ConfThreshold float32 `mapstructure:"conf_threshold" yaml:"conf_threshold" json:"conf_threshold"`
	IoUThreshold  float64 `mapstructure:"iou_threshold" yaml:"iou_threshold" json:"iou_threshold"`
	NumThreads    int     `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	RefineCorners bool    `mapstructure:"refine_corners" yaml:"refine_corners" json:"refine_corners"`
}

// DefaultConfig returns the default learned-detector configuration.
func DefaultConfig() Config {
	return Config{
		InputSize:     640,
		ConfThreshold: 0.5,
		IoUThreshold:  0.45,
		RefineCorners: true,
	}
}

var ortInitOnce sync.Once

// ensureEnvironment initializes the ONNX runtime once per process.
func ensureEnvironment() error {
	var err error
	ortInitOnce.Do(func() {
		if !ort.IsInitialized() {
			err = ort.InitializeEnvironment()
		}
	})
	if err != nil {
		return err
	}
	if !ort.IsInitialized() {
		return errors.New("mldetect: ONNX runtime not initialized")
	}
	return nil
}

// Detector runs a single long-lived ONNX session. The session is read-only
// after construction and safe to share across scans; Close releases it.
type Detector struct {
	cfg     Config
	session *ort.DynamicAdvancedSession
}

// New loads the model from cfg.ModelPath and creates the session.
func New(cfg Config) (*Detector, error) {
	cfg = withDefaults(cfg)
	if cfg.ModelPath == "" {
		return nil, errors.New("mldetect: model path is empty")
	}
	if err := ensureEnvironment(); err != nil {
		return nil, &InferenceError{Err: err}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("mldetect: expected 1 input and 1 output, got %d/%d",
			len(inputs), len(outputs))
	}

	opts, err := sessionOptions(cfg)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	defer func() { _ = opts.Destroy() }()

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	return &Detector{cfg: cfg, session: session}, nil
}

// NewFromBytes creates the session directly from model bytes, for embedded
// models and environments without a filesystem path.
func NewFromBytes(model []byte, cfg Config) (*Detector, error) {
	cfg = withDefaults(cfg)
	if len(model) == 0 {
		return nil, errors.New("mldetect: empty model data")
	}
	if err := ensureEnvironment(); err != nil {
		return nil, &InferenceError{Err: err}
	}

	inputs, outputs, err := ort.GetInputOutputInfoWithONNXData(model)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("mldetect: expected 1 input and 1 output, got %d/%d",
			len(inputs), len(outputs))
	}

	opts, err := sessionOptions(cfg)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	defer func() { _ = opts.Destroy() }()

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(model,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}
	return &Detector{cfg: cfg, session: session}, nil
}

func sessionOptions(cfg Config) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, err
	}
	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			_ = opts.Destroy()
			return nil, err
		}
	}
	return opts, nil
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.InputSize <= 0 {
		cfg.InputSize = def.InputSize
	}
	if cfg.ConfThreshold <= 0 {
		cfg.ConfThreshold = def.ConfThreshold
	}
	if cfg.IoUThreshold <= 0 {
		cfg.IoUThreshold = def.IoUThreshold
	}
	return cfg
}

// Close releases the underlying session. The detector must not be used
// afterwards.
func (d *Detector) Close() error {
	if d.session == nil {
		return nil
	}
	err := d.session.Destroy()
	d.session = nil
	return err
}

// runInference executes the model on a prepared NCHW tensor and returns the
// raw prediction data with its shape.
func (d *Detector) runInference(data []float32, size int) ([]float32, []int64, error) {
	if d.session == nil {
		return nil, nil, errors.New("mldetect: detector is closed")
	}

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), data)
	if err != nil {
		return nil, nil, &InferenceError{Err: err}
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	if err := d.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, nil, &InferenceError{Err: err}
	}
	defer func() { _ = outputs[0].Destroy() }()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, nil, &InferenceError{Err: fmt.Errorf("expected float32 output, got %T", outputs[0])}
	}

	shape := out.GetShape()
	result := make([]float32, len(out.GetData()))
	copy(result, out.GetData())
	return result, shape, nil
}

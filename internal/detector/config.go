package detector

// Config holds configuration for the finder-pattern detector. The tolerances
// are empirically chosen; they are exposed here rather than hard-coded so
// callers can tune them.
type Config struct {
	MinSize        int     `mapstructure:"min_size" yaml:"min_size" json:"min_size"`                      // minimum QR side in pixels
	MaxSize        int     `mapstructure:"max_size" yaml:"max_size" json:"max_size"`                      // maximum QR side in pixels
	Threshold      uint8   `mapstructure:"threshold" yaml:"threshold" json:"threshold"`                   // binarization threshold
	RatioTolerance float64 `mapstructure:"ratio_tolerance" yaml:"ratio_tolerance" json:"ratio_tolerance"` // allowed 1:1:3:1:1 deviation, in module sizes

	// Triple-grouping tolerances.
	ModuleAgreement float64 `mapstructure:"module_agreement" yaml:"module_agreement" json:"module_agreement"` // max module-size deviation from the triple mean
	SideTolerance   float64 `mapstructure:"side_tolerance" yaml:"side_tolerance" json:"side_tolerance"`       // side/diagonal length tolerance

	// BoxMargin is added around the pattern triple when cropping.
	BoxMargin int `mapstructure:"box_margin" yaml:"box_margin" json:"box_margin"`
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		MinSize:         20,
		MaxSize:         2000,
		Threshold:       128,
		RatioTolerance:  0.5,
		ModuleAgreement: 0.5,
		SideTolerance:   0.3,
		BoxMargin:       20,
	}
}

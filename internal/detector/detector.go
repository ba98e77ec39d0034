// Package detector locates QR codes by their three finder patterns. A
// horizontal scanline state machine finds 1:1:3:1:1 run candidates, a
// vertical pass confirms them, and confirmed centers are grouped into
// right-angle triples that bound a candidate region.
package detector

import (
	"image"
	"log/slog"
	"math"
	"sort"

	"github.com/anvik-systems/payqr/internal/imgproc"
	"github.com/anvik-systems/payqr/internal/region"
)

// patternConfidence is reported for regions found via finder patterns.
const patternConfidence = 0.8

// Detector is the classical finder-pattern region proposer. It is stateless
// and safe for concurrent use.
type Detector struct {
	cfg Config
}

// New creates a detector, backfilling zero-valued tolerances with defaults.
func New(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.MinSize <= 0 {
		cfg.MinSize = def.MinSize
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = def.MaxSize
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.RatioTolerance <= 0 {
		cfg.RatioTolerance = def.RatioTolerance
	}
	if cfg.ModuleAgreement <= 0 {
		cfg.ModuleAgreement = def.ModuleAgreement
	}
	if cfg.SideTolerance <= 0 {
		cfg.SideTolerance = def.SideTolerance
	}
	if cfg.BoxMargin <= 0 {
		cfg.BoxMargin = def.BoxMargin
	}
	return &Detector{cfg: cfg}
}

// Propose finds candidate QR regions in a grayscale image. It returns an
// empty slice when no pattern triple is found; the caller decides whether to
// fall back to whole-image decoding.
func (d *Detector) Propose(img *image.Gray) ([]region.Region, error) {
	patterns := d.findFinderPatterns(img)
	slog.Debug("finder pattern scan", "patterns", len(patterns))
	if len(patterns) < 3 {
		return nil, nil
	}

	regions := make([]region.Region, 0, 1)
	for _, triple := range d.groupPatterns(patterns) {
		if r, ok := d.extractRegion(img, triple); ok {
			regions = append(regions, r)
		}
	}
	return regions, nil
}

// groupPatterns enumerates unordered triples of confirmed patterns and keeps
// those whose geometry matches a QR corner layout.
func (d *Detector) groupPatterns(patterns []finderPattern) [][3]finderPattern {
	var triples [][3]finderPattern
	for i := 0; i < len(patterns); i++ {
		for j := i + 1; j < len(patterns); j++ {
			for k := j + 1; k < len(patterns); k++ {
				t := [3]finderPattern{patterns[i], patterns[j], patterns[k]}
				if d.isValidTriple(t) {
					triples = append(triples, t)
				}
			}
		}
	}
	return triples
}

// isValidTriple checks that three patterns agree on module size and form a
// right isoceles triangle: two equal sides and a diagonal of side*sqrt(2).
func (d *Detector) isValidTriple(t [3]finderPattern) bool {
	avgModule := (t[0].moduleSize + t[1].moduleSize + t[2].moduleSize) / 3
	for _, p := range t {
		if math.Abs(p.moduleSize-avgModule) > avgModule*d.cfg.ModuleAgreement {
			return false
		}
	}

	dists := []float64{
		math.Hypot(t[0].centerX-t[1].centerX, t[0].centerY-t[1].centerY),
		math.Hypot(t[1].centerX-t[2].centerX, t[1].centerY-t[2].centerY),
		math.Hypot(t[0].centerX-t[2].centerX, t[0].centerY-t[2].centerY),
	}
	sort.Float64s(dists)
	side1, side2, diagonal := dists[0], dists[1], dists[2]
	if side1 == 0 {
		return false
	}

	if math.Abs(side1-side2) > side1*d.cfg.SideTolerance {
		return false
	}
	expected := side1 * math.Sqrt2
	return math.Abs(diagonal-expected) <= expected*d.cfg.SideTolerance
}

// extractRegion crops the bounding box of a pattern triple and size-gates the
// result. Pattern centers sit 3.5 modules inside the symbol, so the box is
// expanded by that much plus the configured quiet-zone margin, then clamped
// to the image.
func (d *Detector) extractRegion(img *image.Gray, t [3]finderPattern) (region.Region, bool) {
	minX, minY := t[0].centerX, t[0].centerY
	maxX, maxY := minX, minY
	for _, p := range t[1:] {
		minX = math.Min(minX, p.centerX)
		minY = math.Min(minY, p.centerY)
		maxX = math.Max(maxX, p.centerX)
		maxY = math.Max(maxY, p.centerY)
	}

	avgModule := (t[0].moduleSize + t[1].moduleSize + t[2].moduleSize) / 3
	pad := int(3.5*avgModule) + d.cfg.BoxMargin

	box := image.Rect(
		int(minX)-pad, int(minY)-pad,
		int(maxX)+pad, int(maxY)+pad,
	).Intersect(img.Bounds())

	if box.Dx() < d.cfg.MinSize || box.Dy() < d.cfg.MinSize ||
		box.Dx() > d.cfg.MaxSize || box.Dy() > d.cfg.MaxSize {
		return region.Region{}, false
	}

	return region.Region{
		Box:        box,
		Corners:    region.CornersFromRect(box),
		Image:      imgproc.CropGray(img, box),
		Confidence: patternConfidence,
	}, true
}

package decode

import (
	"image"
	"log/slog"

	"github.com/anvik-systems/payqr/internal/imgproc"
)

const (
	// quietZonePad is the white border width restored around flush crops.
	quietZonePad = 20
	// downscaleMinDim gates the half-resolution retry to large images.
	downscaleMinDim = 400
)

// rotationAngles are tried in order on an enlarged white canvas.
var rotationAngles = []float64{30, -30, 45, -45, 60, -60}

// thresholdLadder is the fixed binarization ladder tried after Otsu.
var thresholdLadder = []uint8{64, 96, 128, 160, 192}

// rung is one step of the decode ladder: a name for logging and a transform
// producing the image variants to try at that step.
type rung struct {
	name     string
	variants func(img *image.Gray) []*image.Gray
}

// Cascade retries its providers over a ladder of image transforms, cheapest
// first. It is stateless and safe for concurrent use.
type Cascade struct {
	providers []Provider
}

// NewCascade builds a cascade over the given providers, in consultation
// order. With no arguments it uses the grid provider followed by gozxing.
func NewCascade(providers ...Provider) *Cascade {
	if len(providers) == 0 {
		providers = []Provider{NewGridProvider(), NewZXingProvider()}
	}
	return &Cascade{providers: providers}
}

// Decode walks the transform ladder, offering every variant to every
// provider, and returns the first successful payload. ErrNotFound is
// returned when the ladder is exhausted.
func (c *Cascade) Decode(img *image.Gray) (*Payload, error) {
	for _, r := range c.ladder(img) {
		for _, variant := range r.variants(img) {
			if payload, ok := c.try(r.name, variant); ok {
				return payload, nil
			}
		}
	}
	return nil, ErrNotFound
}

// try offers one image to each provider in order.
func (c *Cascade) try(rungName string, img *image.Gray) (*Payload, bool) {
	for _, p := range c.providers {
		payload, err := p.TryDecode(img)
		if err == nil {
			slog.Debug("decode succeeded", "rung", rungName, "provider", p.Name())
			return payload, true
		}
		slog.Debug("decode attempt failed",
			"rung", rungName, "provider", p.Name(), "error", err)
	}
	return nil, false
}

// ladder assembles the transform sequence for one image. Variants are built
// lazily per rung so later rungs cost nothing when an early one succeeds.
func (c *Cascade) ladder(img *image.Gray) []rung {
	one := func(f func(*image.Gray) *image.Gray) func(*image.Gray) []*image.Gray {
		return func(g *image.Gray) []*image.Gray { return []*image.Gray{f(g)} }
	}

	rungs := []rung{
		{"as-is", func(g *image.Gray) []*image.Gray { return []*image.Gray{g} }},
		{"inverted", one(imgproc.Invert)},
		{"enhanced", func(g *image.Gray) []*image.Gray {
			enhanced := imgproc.Sharpen(imgproc.StretchContrast(g))
			return []*image.Gray{enhanced, imgproc.Invert(enhanced)}
		}},
		{"padded", func(g *image.Gray) []*image.Gray {
			// Invert before padding so the restored quiet zone stays white
			// in both polarities.
			return []*image.Gray{
				imgproc.PadWhite(g, quietZonePad),
				imgproc.PadWhite(imgproc.Invert(g), quietZonePad),
			}
		}},
		{"rotated", func(g *image.Gray) []*image.Gray {
			out := make([]*image.Gray, 0, len(rotationAngles))
			for _, angle := range rotationAngles {
				out = append(out, imgproc.Rotate(g, angle))
			}
			return out
		}},
		{"thresholded", func(g *image.Gray) []*image.Gray {
			out := make([]*image.Gray, 0, len(thresholdLadder)+1)
			out = append(out, imgproc.Threshold(g, imgproc.OtsuThreshold(g)))
			for _, t := range thresholdLadder {
				out = append(out, imgproc.Threshold(g, t))
			}
			return out
		}},
	}

	if img.Bounds().Dx() > downscaleMinDim || img.Bounds().Dy() > downscaleMinDim {
		rungs = append(rungs, rung{"downscaled", one(func(g *image.Gray) *image.Gray {
			return imgproc.Downscale(g, 2)
		})})
	}
	return rungs
}

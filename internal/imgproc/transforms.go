package imgproc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Invert returns the pixel-wise negative of the image.
func Invert(g *image.Gray) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
	for i, v := range g.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}

// StretchContrast linearly maps the observed [min, max] intensity range onto
// the full [0, 255] range. A flat image is returned unchanged.
func StretchContrast(g *image.Gray) *image.Gray {
	minV, maxV := uint8(255), uint8(0)
	for _, v := range g.Pix {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if minV >= maxV {
		return CloneGray(g)
	}

	var lut [256]uint8
	span := int(maxV) - int(minV)
	for i := range lut {
		switch {
		case uint8(i) <= minV:
			lut[i] = 0
		case uint8(i) >= maxV:
			lut[i] = 255
		default:
			lut[i] = uint8((i - int(minV)) * 255 / span)
		}
	}

	out := image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
	for i, v := range g.Pix {
		out.Pix[i] = lut[v]
	}
	return out
}

// Sharpen applies an unsharp-mask sharpening pass to accentuate module edges.
func Sharpen(g *image.Gray) *image.Gray {
	return ToGray(imaging.Sharpen(g, 1.0))
}

// Denoise applies a light gaussian blur to suppress high-frequency noise.
func Denoise(g *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return CloneGray(g)
	}
	return ToGray(imaging.Blur(g, sigma))
}

// PadWhite surrounds the image with a white border of the given width,
// restoring the quiet zone for codes cropped flush to their border.
func PadWhite(g *image.Gray, border int) *image.Gray {
	if border <= 0 {
		return CloneGray(g)
	}
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	out := Uniform(w+2*border, h+2*border, 255)
	for y := 0; y < h; y++ {
		srcOff := (y+g.Bounds().Min.Y-g.Rect.Min.Y)*g.Stride + (g.Bounds().Min.X - g.Rect.Min.X)
		copy(out.Pix[(y+border)*out.Stride+border:(y+border)*out.Stride+border+w], g.Pix[srcOff:srcOff+w])
	}
	return out
}

// Rotate rotates the image by the given angle in degrees about its center,
// enlarging the canvas so no corner is clipped and filling the background
// with white.
func Rotate(g *image.Gray, angle float64) *image.Gray {
	return ToGray(imaging.Rotate(g, angle, color.White))
}

// Threshold binarizes the image at the fixed threshold t: values below t
// become black, all others white.
func Threshold(g *image.Gray, t uint8) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, g.Bounds().Dx(), g.Bounds().Dy()))
	for i, v := range g.Pix {
		if v < t {
			out.Pix[i] = 0
		} else {
			out.Pix[i] = 255
		}
	}
	return out
}

// OtsuThreshold computes the global binarization threshold maximizing the
// between-class variance over the 256-bin intensity histogram.
func OtsuThreshold(g *image.Gray) uint8 {
	var hist [256]uint32
	for _, v := range g.Pix {
		hist[v]++
	}
	total := float64(len(g.Pix))
	if total == 0 {
		return 128
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var maxVariance float64
	threshold := uint8(128)

	for t, c := range hist {
		wB += float64(c)
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(c)

		mB := sumB / wB
		mF := (sum - sumB) / wF
		variance := wB * wF * (mB - mF) * (mB - mF)
		if variance > maxVariance {
			maxVariance = variance
			threshold = uint8(t)
		}
	}
	return threshold
}

// Downscale shrinks the image by an integer factor using box averaging.
func Downscale(g *image.Gray, factor int) *image.Gray {
	if factor <= 1 {
		return CloneGray(g)
	}
	w := g.Bounds().Dx() / factor
	h := g.Bounds().Dy() / factor
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum uint32
			for dy := 0; dy < factor; dy++ {
				row := (y*factor + dy) * g.Stride
				for dx := 0; dx < factor; dx++ {
					sum += uint32(g.Pix[row+x*factor+dx])
				}
			}
			out.Pix[y*out.Stride+x] = uint8(sum / uint32(factor*factor))
		}
	}
	return out
}

// ResizeMax scales the image down (never up) so neither dimension exceeds
// maxDim, preserving aspect ratio with Lanczos resampling.
func ResizeMax(g *image.Gray, maxDim int) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return CloneGray(g)
	}
	if w >= h {
		return ToGray(imaging.Resize(g, maxDim, 0, imaging.Lanczos))
	}
	return ToGray(imaging.Resize(g, 0, maxDim, imaging.Lanczos))
}

// AdaptiveThreshold binarizes using the mean of a blockSize x blockSize
// neighborhood computed from an integral image. Pixels darker than their
// local mean become black.
func AdaptiveThreshold(g *image.Gray, blockSize int) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if w == 0 || h == 0 {
		return CloneGray(g)
	}
	maxBlock := min(w, h) - 1
	if maxBlock < 3 {
		return CloneGray(g)
	}
	if blockSize > maxBlock {
		blockSize = maxBlock
	}
	if blockSize%2 == 0 {
		blockSize--
	}
	if blockSize < 3 {
		blockSize = 3
	}

	// Integral image with a zero row/column of padding.
	integral := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(g.Pix[y*g.Stride+x])
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	r := blockSize / 2
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		y0 := max(y-r, 0)
		y1 := min(y+r+1, h)
		for x := 0; x < w; x++ {
			x0 := max(x-r, 0)
			x1 := min(x+r+1, w)
			area := uint64((y1 - y0) * (x1 - x0))
			sum := integral[y1*(w+1)+x1] - integral[y0*(w+1)+x1] -
				integral[y1*(w+1)+x0] + integral[y0*(w+1)+x0]
			if uint64(g.Pix[y*g.Stride+x])*area < sum {
				out.Pix[y*out.Stride+x] = 0
			} else {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
